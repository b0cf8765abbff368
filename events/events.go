package events

const (
	TypePlayerAdded   = "player.added"
	TypePlayerUpdated = "player.updated"
	TypePlayerRemoved = "player.removed"
	TypeSnapshot      = "player.snapshot"
)

type Event struct {
	Type string
	Data any
}

// PlayerEvent is the payload for player.added, player.updated and
// player.removed events. State is nil for removals.
type PlayerEvent struct {
	ID    string
	State any
}

// NewPlayerEvent builds a per-player event of the given type.
func NewPlayerEvent(typ, id string, state any) Event {
	return Event{Type: typ, Data: PlayerEvent{ID: id, State: state}}
}

// NewSnapshot builds a full-registry snapshot event. Data is the mapping
// from player ID to state, marshaled as-is on the wire.
func NewSnapshot(players any) Event {
	return Event{Type: TypeSnapshot, Data: players}
}
