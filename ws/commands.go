package ws

import (
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidMessage covers anything that does not parse as a command
	// object with a player and a cmd.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownCommand covers cmd values outside the vocabulary.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgument covers position/seek without a numeric value.
	ErrInvalidArgument = errors.New("missing or invalid value")
)

// command is the inbound client message. Value stays raw so a non-numeric
// value is an argument error on the command, not a malformed message.
type command struct {
	Player string          `json:"player"`
	Cmd    string          `json:"cmd"`
	Value  json.RawMessage `json:"value"`
}

// seconds decodes the value field for commands that require one.
// Unmarshal treats a JSON null as a no-op, so it is rejected up front.
func (c *command) seconds() (float64, error) {
	if len(c.Value) == 0 || string(c.Value) == "null" {
		return 0, ErrInvalidArgument
	}
	var v float64
	if err := json.Unmarshal(c.Value, &v); err != nil {
		return 0, ErrInvalidArgument
	}
	return v, nil
}

// dispatch validates one inbound message and routes it to the registry.
// Validation order: shape, vocabulary, arguments; the player lookup happens
// inside the registry call and surfaces as PlayerNotFoundError.
func dispatch(registry Registry, raw []byte) error {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return ErrInvalidMessage
	}
	if cmd.Player == "" || cmd.Cmd == "" {
		return ErrInvalidMessage
	}

	switch cmd.Cmd {
	case "play":
		return registry.Play(cmd.Player)
	case "pause":
		return registry.Pause(cmd.Player)
	case "playpause":
		return registry.PlayPause(cmd.Player)
	case "next":
		return registry.Next(cmd.Player)
	case "prev":
		return registry.Previous(cmd.Player)
	case "stop":
		return registry.Stop(cmd.Player)
	case "position":
		secs, err := cmd.seconds()
		if err != nil {
			return err
		}
		return registry.SetPosition(cmd.Player, secondsToMicros(secs))
	case "seek":
		secs, err := cmd.seconds()
		if err != nil {
			return err
		}
		return registry.Seek(cmd.Player, secondsToMicros(secs))
	default:
		return ErrUnknownCommand
	}
}

// secondsToMicros converts a client-supplied second count (possibly
// fractional, possibly negative for relative seeks) to microseconds.
func secondsToMicros(seconds float64) int64 {
	return int64(seconds * 1_000_000)
}
