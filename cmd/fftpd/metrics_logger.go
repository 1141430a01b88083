package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kstaniek/go-fftp/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"requests", snap.Requests,
					"list", snap.List,
					"denied", snap.Denied,
					"bytes_sent", snap.BytesSent,
					"parts_sent", snap.Parts,
					"errors", snap.Errors,
					"malformed", snap.Malformed,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
