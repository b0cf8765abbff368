package backend

import (
	"context"

	"github.com/b0bbywan/go-mpris-bridge/backend/mpris"
	"github.com/b0bbywan/go-mpris-bridge/backend/zeroconf"
	"github.com/b0bbywan/go-mpris-bridge/config"
)

type Backend struct {
	MPRIS    *mpris.Registry
	Zeroconf *zeroconf.ZeroConfBackend
}

// New connects the MPRIS registry to the session bus and prepares the mDNS
// publication. A bus connection failure is returned as-is: the bridge cannot
// run without it.
func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var backend Backend

	m, err := mpris.New(ctx, cfg.MPRIS, cfg.Art.BaseURL)
	if err != nil {
		return nil, err
	}
	backend.MPRIS = m

	z, err := zeroconf.New(ctx, cfg.Zeroconf)
	if err != nil {
		return nil, err
	}
	backend.Zeroconf = z

	return &backend, nil
}

func (b *Backend) Start() error {
	if err := b.MPRIS.Start(); err != nil {
		return err
	}

	if b.Zeroconf != nil {
		if err := b.Zeroconf.Start(); err != nil {
			return err
		}
	}

	return nil
}

// NewBroadcaster fans the registry's event stream out to WebSocket clients.
func (b *Backend) NewBroadcaster(ctx context.Context) *Broadcaster {
	return NewBroadcaster(ctx, b.MPRIS.Events())
}

func (b *Backend) Close() {
	if b.Zeroconf != nil {
		b.Zeroconf.Shutdown()
	}
	b.MPRIS.Close()
}
