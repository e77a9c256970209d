// FILE: src/cmd/pulse/status.go
package main

import (
	"context"
	"time"
)

// Periodically logs reporter status
func statusReporter(a *app, ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()

				stats := a.reporter.GetStats()
				statusFields := []any{
					"msg", "Status report",
					"component", "status_reporter",
					"endpoint", stats["endpoint"],
					"time", time.Now().Format("15:04:05"),
				}

				if qs, ok := stats["queue"].(map[string]any); ok {
					statusFields = append(statusFields,
						"pending", qs["pending"],
						"enqueued", qs["total_enqueued"],
						"delivered", qs["total_delivered"],
						"queue_discards", qs["discarded"])
				}
				if discards, ok := stats["discarded"].(map[string]uint64); ok && len(discards) > 0 {
					statusFields = append(statusFields, "reporter_discards", discards)
				}
				statusFields = append(statusFields, "transport", a.transport.GetStats())
				if a.speed != nil {
					statusFields = append(statusFields, "network_speed", a.speed.GetStats())
				}

				logger.Debug(statusFields...)
			}()
		}
	}
}
