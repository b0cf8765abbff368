package mpris

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-bridge/events"
)

// PlaybackStatus represents the current playback state
type PlaybackStatus string

// LoopStatus represents the current loop/repeat state
type LoopStatus string

// TrackState is the client-facing state of one player, recomputed as a whole
// on every refresh and broadcast as a complete object.
type TrackState struct {
	Title    string         `json:"title"`
	Artist   []string       `json:"artist"`
	Album    string         `json:"album"`
	ArtURL   string         `json:"artUrl"`
	TrackID  string         `json:"trackid"`
	Length   int64          `json:"length"`
	Position int64          `json:"position"`
	Status   PlaybackStatus `json:"status"`
	Loop     LoopStatus     `json:"loop"`
	Shuffle  bool           `json:"shuffle"`
}

// Equal reports whether two states are identical field by field.
func (s TrackState) Equal(o TrackState) bool {
	return s.Title == o.Title &&
		slices.Equal(s.Artist, o.Artist) &&
		s.Album == o.Album &&
		s.ArtURL == o.ArtURL &&
		s.TrackID == o.TrackID &&
		s.Length == o.Length &&
		s.Position == o.Position &&
		s.Status == o.Status &&
		s.Loop == o.Loop &&
		s.Shuffle == o.Shuffle
}

// RawState holds property values read from one player before normalization.
type RawState struct {
	Metadata       map[string]dbus.Variant
	Status         string
	Loop           string
	Shuffle        bool
	PositionMicros int64
}

// Player wraps one MPRIS player on the session bus.
type Player struct {
	conn    *dbus.Conn
	timeout time.Duration

	// BusName is the well-known name (org.mpris.MediaPlayer2.*).
	BusName string
	// Owner is the unique connection name (e.g. :1.107). Signals carry the
	// unique name as sender, so it is the key for matching PropertiesChanged.
	Owner string
}

// Registry tracks the set of known players and their last computed state.
// All membership and state mutation goes through its mutex.
type Registry struct {
	conn     *dbus.Conn
	ctx      context.Context
	timeout  time.Duration
	interval time.Duration
	artBase  string

	mu      sync.Mutex
	players map[string]*Player
	states  map[string]TrackState

	events    chan events.Event
	listener  *Listener
	refresher *Refresher
}

// Listener reacts to D-Bus signals: player presence changes and property changes.
type Listener struct {
	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc
}

// Refresher recomputes every player's state on a fixed interval so position
// stays reasonably fresh even for players that never signal it.
type Refresher struct {
	registry *Registry
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}
