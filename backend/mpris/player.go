package mpris

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
)

// newPlayer creates a handle bound to one player's well-known bus name.
func newPlayer(conn *dbus.Conn, busName, owner string, timeout time.Duration) *Player {
	return &Player{
		conn:    conn,
		timeout: timeout,
		BusName: busName,
		Owner:   owner,
	}
}

// getProperty reads one D-Bus property, bounded by the player timeout so a
// hung player cannot stall the caller indefinitely.
func (p *Player) getProperty(iface, prop string) (dbus.Variant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	obj := p.conn.Object(p.BusName, mprisPath)
	var v dbus.Variant
	err := obj.CallWithContext(ctx, dbusPropGet, 0, iface, prop).Store(&v)
	return v, err
}

// Metadata reads the player's metadata map.
func (p *Player) Metadata() (map[string]dbus.Variant, error) {
	v, err := p.getProperty(mprisPlayerIface, "Metadata")
	if err != nil {
		return nil, err
	}
	meta, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		meta = map[string]dbus.Variant{}
	}
	return meta, nil
}

// PlaybackStatus reads the player's playback status string.
func (p *Player) PlaybackStatus() (string, error) {
	v, err := p.getProperty(mprisPlayerIface, "PlaybackStatus")
	if err != nil {
		return "", err
	}
	s, _ := v.Value().(string)
	return s, nil
}

// ReadState pulls all watched properties from the bus. Metadata and playback
// status are the minimum required set: failure to read either makes the
// player unreachable. LoopStatus, Shuffle and Position are optional and fall
// back to their zero values, since not every player implements them.
func (p *Player) ReadState() (RawState, error) {
	meta, err := p.Metadata()
	if err != nil {
		return RawState{}, &UnreachableError{BusName: p.BusName, Err: err}
	}
	status, err := p.PlaybackStatus()
	if err != nil {
		return RawState{}, &UnreachableError{BusName: p.BusName, Err: err}
	}

	raw := RawState{
		Metadata: meta,
		Status:   status,
	}

	if v, err := p.getProperty(mprisPlayerIface, "LoopStatus"); err == nil {
		raw.Loop, _ = v.Value().(string)
	}
	if v, err := p.getProperty(mprisPlayerIface, "Shuffle"); err == nil {
		raw.Shuffle, _ = v.Value().(bool)
	}
	if v, err := p.getProperty(mprisPlayerIface, "Position"); err == nil {
		raw.PositionMicros, _ = v.Value().(int64)
	}

	return raw, nil
}

// call invokes one player method, bounded by the player timeout.
func (p *Player) call(method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	obj := p.conn.Object(p.BusName, mprisPath)
	return obj.CallWithContext(ctx, method, 0, args...).Err
}
