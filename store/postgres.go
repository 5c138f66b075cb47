package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onnwee/ytchat-relay/chat"
)

// Postgres stores events in the chat_events table created by db.Migrate.
type Postgres struct {
	db    *sql.DB
	limit int
}

// NewPostgres wraps an open, migrated database. limit is the default List size.
func NewPostgres(db *sql.DB, limit int) *Postgres {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Postgres{db: db, limit: limit}
}

func (p *Postgres) Append(ctx context.Context, ev chat.Event) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO chat_events
		(author, author_image, message, is_member, is_moderator, member_badge_image, event_ts, is_membership_join)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.Author, nullString(ev.AuthorImage), ev.Message, ev.IsMember, ev.IsModerator,
		nullString(ev.MemberBadgeImage), ev.Timestamp, ev.IsMembershipJoin)
	if err != nil {
		return fmt.Errorf("insert chat event: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]chat.Event, error) {
	if limit <= 0 {
		limit = p.limit
	}
	rows, err := p.db.QueryContext(ctx, `SELECT author, author_image, message, is_member, is_moderator,
		member_badge_image, event_ts, is_membership_join
		FROM (SELECT * FROM chat_events ORDER BY id DESC LIMIT $1) recent
		ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat events: %w", err)
	}
	defer rows.Close()

	out := []chat.Event{}
	for rows.Next() {
		var (
			ev          chat.Event
			image, icon sql.NullString
		)
		if err := rows.Scan(&ev.Author, &image, &ev.Message, &ev.IsMember, &ev.IsModerator, &icon, &ev.Timestamp, &ev.IsMembershipJoin); err != nil {
			return nil, fmt.Errorf("scan chat event: %w", err)
		}
		ev.AuthorImage = stringPtr(image)
		ev.MemberBadgeImage = stringPtr(icon)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chat events: %w", err)
	}
	return n, nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM chat_events`); err != nil {
		return fmt.Errorf("clear chat events: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return chat.StringPtr(ns.String)
}
