package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"nova/services/connmon"
	"nova/utils/logging"
)

// StartHealthLoop probes the backend liveness endpoint on a fixed interval
// and feeds the outcome into the monitor. Independent of conversation
// turns; stops when ctx is done. Probes are idempotent, the monitor
// dedupes repeated confirmations.
func StartHealthLoop(ctx context.Context, client *http.Client, url string, interval time.Duration, monitor *connmon.Monitor) {
	if client == nil {
		client = http.DefaultClient
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		logging.AppLogger.Info("health loop started",
			zap.String("url", url),
			zap.Duration("interval", interval))

		probe(ctx, client, url, monitor)
		for {
			select {
			case <-ticker.C:
				probe(ctx, client, url, monitor)
			case <-ctx.Done():
				logging.AppLogger.Info("health loop stopped", zap.Error(ctx.Err()))
				return
			}
		}
	}()
}

func probe(ctx context.Context, client *http.Client, url string, monitor *connmon.Monitor) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		monitor.MarkUnhealthy()
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		monitor.MarkUnhealthy()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		monitor.MarkHealthy()
	} else {
		monitor.MarkUnhealthy()
	}
}
