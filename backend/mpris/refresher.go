package mpris

import (
	"context"
	"time"

	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// NewRefresher creates the periodic full-registry refresher.
func NewRefresher(registry *Registry) *Refresher {
	ctx, cancel := context.WithCancel(registry.ctx)

	return &Refresher{
		registry: registry,
		interval: registry.interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the refresh loop.
func (h *Refresher) Start() {
	go h.run()
	logger.Info("[mpris] refresher started, interval %s", h.interval)
}

func (h *Refresher) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.registry.RefreshAll()
		}
	}
}

// Stop stops the refresh loop.
func (h *Refresher) Stop() {
	h.cancel()
}
