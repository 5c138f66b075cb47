// Package db provides the Postgres connection helper and schema migrations
// for the chat history store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection pool for dsn and verifies it answers.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db: empty DSN")
	}
	dbx, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	dbx.SetMaxOpenConns(10)
	dbx.SetMaxIdleConns(5)
	dbx.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return dbx, nil
}
