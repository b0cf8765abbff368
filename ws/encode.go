package ws

import (
	"encoding/json"
	"fmt"

	"github.com/b0bbywan/go-mpris-bridge/backend/mpris"
	"github.com/b0bbywan/go-mpris-bridge/events"
)

// encodeSnapshot marshals the full registry snapshot. Every message on the
// wire, snapshot or delta, is an object keyed by player ID.
func encodeSnapshot(snap map[string]mpris.TrackState) []byte {
	data, err := json.Marshal(snap)
	if err != nil {
		// A TrackState map always marshals; keep the connection alive anyway.
		return []byte("{}")
	}
	return data
}

// encodeEvent turns a broadcast event into its wire form:
//
//	player.snapshot          -> {"<id>": state, ...}
//	player.added / .updated  -> {"<id>": state}
//	player.removed           -> {"<id>": null}
//
// Unknown event types encode to nil and are skipped by the caller.
func encodeEvent(e events.Event) ([]byte, error) {
	switch e.Type {
	case events.TypeSnapshot:
		return json.Marshal(e.Data)
	case events.TypePlayerAdded, events.TypePlayerUpdated, events.TypePlayerRemoved:
		pe, ok := e.Data.(events.PlayerEvent)
		if !ok {
			return nil, fmt.Errorf("%s event carries %T, want PlayerEvent", e.Type, e.Data)
		}
		return json.Marshal(map[string]any{pe.ID: pe.State})
	default:
		return nil, nil
	}
}
