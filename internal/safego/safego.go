// Package safego launches fire-and-forget goroutines with panic recovery.
package safego

import "log/slog"

// Go runs fn in a new goroutine, recovering and logging any panic instead of
// taking down the process. Detached portal work such as the async audit-log
// writes goes through here, since a panic in a bare goroutine would otherwise
// crash the whole server.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
