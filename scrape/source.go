package scrape

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Source yields the current state of the live-chat DOM.
type Source interface {
	Snapshot(ctx context.Context) (Document, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Document, error)

func (f SourceFunc) Snapshot(ctx context.Context) (Document, error) { return f(ctx) }

// FileSource re-reads an HTML snapshot file on every call. A browser
// extension or devtools script can keep the file current.
type FileSource struct {
	Path string
}

func (s FileSource) Snapshot(_ context.Context) (Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return ParseHTML(f)
}

// HTTPSource fetches an HTML snapshot over HTTP.
type HTTPSource struct {
	URL    string
	client *resty.Client
}

// NewHTTPSource returns a source fetching url with a short timeout and no retries;
// the next tick is the retry.
func NewHTTPSource(url string) *HTTPSource {
	client := resty.New().
		SetTimeout(2*time.Second).
		SetHeader("Accept", "text/html").
		SetHeader("User-Agent", "ytchat-relay-scraper/1.0")
	return &HTTPSource{URL: url, client: client}
}

func (s *HTTPSource) Snapshot(ctx context.Context) (Document, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch snapshot: unexpected status %d", resp.StatusCode())
	}
	return ParseHTML(bytes.NewReader(resp.Body()))
}

// NewSource picks an HTTPSource for http(s) URLs and a FileSource otherwise.
func NewSource(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location)
	}
	return FileSource{Path: location}
}
