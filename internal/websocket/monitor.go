package websocket

import (
	"log/slog"
	"time"
)

// Run drives the heartbeat monitor until Stop is called. It sweeps the
// registry on a fixed interval and evicts any connection whose last
// heartbeat is older than the stale threshold. Run is meant to be started
// once, as a goroutine, when the service comes up.
func (h *Hub) Run() {
	h.running.Store(true)
	defer close(h.done)

	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	slog.Info("Heartbeat monitor started",
		"sweepInterval", h.cfg.SweepInterval, "staleTimeout", h.cfg.StaleTimeout)

	for {
		select {
		case <-h.ctx.Done():
			slog.Info("Heartbeat monitor shutting down")
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep evicts stale connections. It works on a snapshot so concurrent
// registry mutation cannot race the iteration, and a failure on one entry
// never halts future sweeps.
func (h *Hub) sweep() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Heartbeat sweep recovered", "panic", r)
		}
	}()

	cutoff := time.Now().Add(-h.cfg.StaleTimeout)
	h.mu.Lock()
	stale := h.registry.staleSince(cutoff)
	h.mu.Unlock()

	for _, clientID := range stale {
		slog.Warn("Client heartbeat timeout", "clientID", clientID)
		h.Disconnect(clientID)
	}
}

// Stop signals the monitor, waits for it to exit so no pending sweep races
// the teardown, then disconnects every remaining client so every handle is
// closed before the hub is discarded.
func (h *Hub) Stop() {
	h.cancel()
	if h.running.Load() {
		<-h.done
	}
	for _, clientID := range h.OnlineClients() {
		h.Disconnect(clientID)
	}
}
