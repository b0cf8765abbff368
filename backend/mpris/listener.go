package mpris

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// NewListener creates a listener bound to the registry's bus connection.
func NewListener(registry *Registry) *Listener {
	ctx, cancel := context.WithCancel(registry.ctx)

	return &Listener{
		registry: registry,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the D-Bus signals driving the registry: NameOwnerChanged
// for player presence, PropertiesChanged for state changes.
func (l *Listener) Start() error {
	conn := l.registry.conn

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusIface),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchSender(dbusIface),
	); err != nil {
		return err
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusPropIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisPath),
	); err != nil {
		return err
	}

	ch := make(chan *dbus.Signal, 32)
	conn.Signal(ch)

	go l.listen(ch)

	logger.Info("[mpris] listener started")
	return nil
}

// listen continuously drains the signal channel.
func (l *Listener) listen(ch <-chan *dbus.Signal) {
	for {
		select {
		case <-l.ctx.Done():
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			l.handleSignal(sig)
		}
	}
}

func (l *Listener) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case propChangedSignal:
		l.handlePropertiesChanged(sig)
	case nameOwnerChangedSignal:
		l.handleNameOwnerChanged(sig)
	}
}

// handlePropertiesChanged refreshes the player whose properties changed.
// Body[0] = interface name, Body[1] = changed properties, Body[2] = invalidated.
func (l *Listener) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	iface, ok := sig.Body[0].(string)
	if !ok || iface != mprisPlayerIface {
		return
	}

	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	// Only track/status changes trigger a push; volume, rate and friends
	// ride along with the next periodic snapshot.
	_, hasMeta := changed["Metadata"]
	_, hasStatus := changed["PlaybackStatus"]
	if !hasMeta && !hasStatus {
		return
	}

	// The sender is the unique connection name, not the well-known one.
	busName := l.registry.findPlayerByOwner(sig.Sender)
	if busName == "" {
		return
	}

	logger.Debug("[mpris] properties changed for %s", busName)

	// Refresh in its own goroutine: the reads block on the player, and a
	// hung player must not stall signal handling for the others.
	go l.registry.Refresh(busName)
}

// handleNameOwnerChanged registers appearing players and unregisters
// departing ones. Body[0] = name, Body[1] = old owner, Body[2] = new owner.
func (l *Listener) handleNameOwnerChanged(sig *dbus.Signal) {
	if len(sig.Body) < 3 {
		return
	}

	busName, ok := sig.Body[0].(string)
	if !ok || !strings.HasPrefix(busName, mprisPrefix+".") {
		return
	}

	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	switch {
	case oldOwner == "" && newOwner != "":
		go func() {
			if err := l.registry.Register(busName); err != nil {
				logger.Error("[mpris] failed to add new player %s: %v", busName, err)
			}
		}()
	case oldOwner != "" && newOwner == "":
		l.registry.Unregister(busName)
	}
}

// Stop stops the listener
func (l *Listener) Stop() {
	l.cancel()
}
