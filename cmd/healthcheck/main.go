// Command healthcheck exits non-zero unless the relay's /healthz answers 200.
// It is meant for container HEALTHCHECK instructions.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(os.Getenv("HTTP_ADDR")), nil)
	if err != nil {
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

// healthURL maps a listen address like ":3000" or "0.0.0.0:3000" to a local URL.
func healthURL(addr string) string {
	if addr == "" {
		addr = ":3000"
	}
	if strings.HasPrefix(addr, ":") || strings.HasPrefix(addr, "0.0.0.0:") {
		addr = "localhost" + addr[strings.LastIndex(addr, ":"):]
	}
	return "http://" + addr + "/healthz"
}
