package mpris

import (
	"context"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-bridge/config"
	"github.com/b0bbywan/go-mpris-bridge/events"
	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// validateBusName rejects names that cannot be MPRIS players. Client-supplied
// names go through here before touching the bus.
func validateBusName(busName string) error {
	if busName == "" {
		return &InvalidBusNameError{BusName: busName, Reason: "empty bus name"}
	}
	if !strings.HasPrefix(busName, mprisPrefix+".") {
		return &InvalidBusNameError{BusName: busName, Reason: "must start with org.mpris.MediaPlayer2."}
	}
	if strings.Contains(busName, "..") || strings.Contains(busName, "/") || strings.ContainsAny(busName, "\x00\r\n") {
		return &InvalidBusNameError{BusName: busName, Reason: "contains illegal characters"}
	}
	return nil
}

// New connects to the session bus and prepares the registry. artBase is the
// address prefix rewritten into local art URLs.
func New(ctx context.Context, cfg *config.MPRISConfig, artBase string) (*Registry, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}

	return &Registry{
		conn:     conn,
		ctx:      ctx,
		timeout:  cfg.Timeout,
		interval: cfg.RefreshInterval,
		artBase:  artBase,
		players:  make(map[string]*Player),
		states:   make(map[string]TrackState),
		events:   make(chan events.Event, 64),
	}, nil
}

// Events returns the channel carrying player add/update/remove/snapshot events.
func (r *Registry) Events() <-chan events.Event {
	return r.events
}

// Start enumerates the players currently on the bus, then starts the signal
// listener and the periodic refresher. Enumeration failure is fatal; failure
// to read one player is logged and that player skipped.
func (r *Registry) Start() error {
	var names []string
	if err := r.conn.BusObject().Call(dbusListNamesMethod, 0).Store(&names); err != nil {
		return err
	}

	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix+".") {
			continue
		}
		if err := r.Register(name); err != nil {
			logger.Warn("[mpris] skipping player %s: %v", name, err)
		}
	}

	r.listener = NewListener(r)
	if err := r.listener.Start(); err != nil {
		return err
	}

	r.refresher = NewRefresher(r)
	r.refresher.Start()

	logger.Info("[mpris] registry started with %d players", len(r.List()))
	return nil
}

// Register adds a player to the registry. Idempotent: a name already present
// is a no-op and emits nothing.
func (r *Registry) Register(id string) error {
	if err := validateBusName(id); err != nil {
		return err
	}

	r.mu.Lock()
	_, known := r.players[id]
	r.mu.Unlock()
	if known {
		return nil
	}

	// The unique name is what PropertiesChanged signals carry as sender.
	owner, err := r.nameOwner(id)
	if err != nil {
		logger.Debug("[mpris] no owner for %s: %v", id, err)
	}

	p := newPlayer(r.conn, id, owner, r.timeout)
	raw, err := p.ReadState()
	if err != nil {
		return err
	}
	st := BuildState(id, raw, r.artBase)

	if !r.insert(id, p, st) {
		return nil
	}

	logger.Info("[mpris] player added: %s", id)
	r.emit(events.NewPlayerEvent(events.TypePlayerAdded, id, st))
	return nil
}

// insert adds the player under the lock, reporting whether it was new.
// The second membership check closes the race between two concurrent
// Register calls for the same name: only one emits the added event.
func (r *Registry) insert(id string, p *Player, st TrackState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.players[id]; known {
		return false
	}
	r.players[id] = p
	r.states[id] = st
	return true
}

// Unregister removes a player. Idempotent: removing an unknown name emits nothing.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, known := r.players[id]
	if known {
		delete(r.players, id)
		delete(r.states, id)
	}
	r.mu.Unlock()

	if !known {
		return
	}

	logger.Info("[mpris] player removed: %s", id)
	r.emit(events.NewPlayerEvent(events.TypePlayerRemoved, id, nil))
}

// Get returns the handle for a player or PlayerNotFoundError.
func (r *Registry) Get(id string) (*Player, error) {
	if err := validateBusName(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return nil, &PlayerNotFoundError{BusName: id}
	}
	return p, nil
}

// List returns the bus names of all known players, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of every player's last computed state.
func (r *Registry) Snapshot() map[string]TrackState {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[string]TrackState, len(r.states))
	for id, st := range r.states {
		snap[id] = st
	}
	return snap
}

// state returns the cached state for one player.
func (r *Registry) state(id string) (TrackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[id]
	return st, ok
}

// Refresh recomputes one player's state and emits an update if it changed.
// A read failure means the player is gone or hung; it gets unregistered.
func (r *Registry) Refresh(id string) {
	p, err := r.Get(id)
	if err != nil {
		return
	}

	raw, err := p.ReadState()
	if err != nil {
		logger.Warn("[mpris] %v", err)
		r.Unregister(id)
		return
	}
	st := BuildState(id, raw, r.artBase)

	r.mu.Lock()
	prev, known := r.states[id]
	changed := known && !st.Equal(prev)
	if changed {
		r.states[id] = st
	}
	r.mu.Unlock()

	// known == false means a concurrent Unregister won; drop the result.
	if changed {
		r.emit(events.NewPlayerEvent(events.TypePlayerUpdated, id, st))
	}
}

// RefreshAll recomputes every player's state and emits one full snapshot.
// Per-player read failures unregister only that player.
func (r *Registry) RefreshAll() {
	for _, id := range r.List() {
		p, err := r.Get(id)
		if err != nil {
			continue
		}
		raw, err := p.ReadState()
		if err != nil {
			logger.Warn("[mpris] %v", err)
			r.Unregister(id)
			continue
		}
		st := BuildState(id, raw, r.artBase)

		r.mu.Lock()
		if _, known := r.states[id]; known {
			r.states[id] = st
		}
		r.mu.Unlock()
	}

	r.emit(events.NewSnapshot(r.Snapshot()))
}

// findPlayerByOwner maps a signal sender (unique connection name) back to a
// registered player's bus name, or "".
func (r *Registry) findPlayerByOwner(owner string) string {
	if owner == "" {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.players {
		if p.Owner == owner {
			return id
		}
	}
	return ""
}

// ArtPath resolves the local filesystem path of a player's current cover
// art by reading mpris:artUrl fresh from the bus. Remote or absent art
// resolves to "", which the art server maps to its placeholder.
func (r *Registry) ArtPath(id string) (string, error) {
	p, err := r.Get(id)
	if err != nil {
		return "", err
	}

	meta, err := p.Metadata()
	if err != nil {
		return "", err
	}

	artURL := metaString(meta, "mpris:artUrl")
	if strings.HasPrefix(artURL, "file://") {
		return strings.TrimPrefix(artURL, "file://"), nil
	}
	return "", nil
}

// nameOwner resolves a well-known name to its unique connection name.
func (r *Registry) nameOwner(name string) (string, error) {
	var owner string
	err := r.conn.BusObject().Call(dbusGetNameOwner, 0, name).Store(&owner)
	return owner, err
}

// emit queues an event without blocking the caller. The broadcaster drains
// this channel; if it ever falls behind, dropping here beats stalling the
// registry while it holds D-Bus state.
func (r *Registry) emit(e events.Event) {
	select {
	case r.events <- e:
	default:
		logger.Warn("[mpris] event queue full, dropping %s", e.Type)
	}
}

// Close stops the listener and refresher and drops the bus connection.
func (r *Registry) Close() {
	if r.refresher != nil {
		r.refresher.Stop()
		r.refresher = nil
	}
	if r.listener != nil {
		r.listener.Stop()
		r.listener = nil
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			logger.Debug("[mpris] closing bus connection: %v", err)
		}
		r.conn = nil
	}
}
