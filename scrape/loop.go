package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/ytchat-relay/telemetry"
)

// DefaultInterval is the polling period of Run.
const DefaultInterval = 500 * time.Millisecond

// Run scans a fresh snapshot of src every interval until ctx is done. Snapshot
// errors are logged and the loop keeps going. Scans do not overlap: a tick that
// fires while a scan is still running is dropped by the ticker.
func Run(ctx context.Context, src Source, scanner *Scanner, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("scraper: monitoring live chat", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ScanOnce(ctx, src, scanner)
		}
	}
}

// ScanOnce takes one snapshot and scans it.
func ScanOnce(ctx context.Context, src Source, scanner *Scanner) (ScanResult, error) {
	var (
		res ScanResult
		err error
	)
	telemetry.TimeFunc(telemetry.ScanDuration, func() {
		var doc Document
		doc, err = src.Snapshot(ctx)
		if err != nil {
			return
		}
		res = scanner.Scan(ctx, doc)
	})
	if err != nil {
		telemetry.Inc(telemetry.SnapshotFailures)
		slog.Warn("scraper: snapshot failed", slog.Any("err", err))
		return res, err
	}
	if res.Forwarded > 0 || res.Failed > 0 {
		slog.Debug("scraper: scan complete",
			slog.Int("forwarded", res.Forwarded),
			slog.Int("unsent", res.Unsent),
			slog.Int("empty", res.Empty),
			slog.Int("failed", res.Failed))
	}
	return res, nil
}
