package mpris

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/godbus/dbus/v5"
)

// BuildState normalizes raw property values into a TrackState. It performs no
// D-Bus calls; every field gets a defined value even when the source property
// is absent, so a state is always fully serializable.
func BuildState(busName string, raw RawState, artBase string) TrackState {
	return TrackState{
		Title:    metaString(raw.Metadata, "xesam:title"),
		Artist:   metaStrings(raw.Metadata, "xesam:artist"),
		Album:    metaString(raw.Metadata, "xesam:album"),
		ArtURL:   rewriteArtURL(metaString(raw.Metadata, "mpris:artUrl"), artBase, busName),
		TrackID:  metaString(raw.Metadata, "mpris:trackid"),
		Length:   microsToSeconds(metaInt64(raw.Metadata, "mpris:length")),
		Position: microsToSeconds(raw.PositionMicros),
		Status:   parseStatus(raw.Status),
		Loop:     parseLoop(raw.Loop),
		Shuffle:  raw.Shuffle,
	}
}

// parseStatus maps a playback status string to the enum, Stopped on anything unrecognized.
func parseStatus(s string) PlaybackStatus {
	switch PlaybackStatus(s) {
	case StatusPlaying, StatusPaused, StatusStopped:
		return PlaybackStatus(s)
	default:
		return StatusStopped
	}
}

// parseLoop maps a loop status string to the enum, None on anything unrecognized.
func parseLoop(s string) LoopStatus {
	switch LoopStatus(s) {
	case LoopNone, LoopTrack, LoopPlaylist:
		return LoopStatus(s)
	default:
		return LoopNone
	}
}

// rewriteArtURL maps local or missing art references to the art-cover server.
// Remote http(s) URLs pass through unchanged.
func rewriteArtURL(artURL, artBase, busName string) string {
	if artURL == "" || strings.HasPrefix(artURL, "file://") {
		return artBase + "/art/" + url.PathEscape(busName)
	}
	return artURL
}

// microsToSeconds converts a microsecond duration to whole seconds.
// Missing or negative source values collapse to 0.
func microsToSeconds(micros int64) int64 {
	if micros <= 0 {
		return 0
	}
	return micros / 1_000_000
}

// metaString extracts a string-ish metadata value. Track IDs arrive as
// dbus.ObjectPath, everything else as plain strings.
func metaString(meta map[string]dbus.Variant, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	switch val := v.Value().(type) {
	case string:
		return val
	case dbus.ObjectPath:
		return string(val)
	default:
		return ""
	}
}

// metaStrings extracts a multi-valued string metadata field, preserving
// source order. A bare string becomes a one-element slice; absent or
// unusable values become an empty (non-nil) slice.
func metaStrings(meta map[string]dbus.Variant, key string) []string {
	v, ok := meta[key]
	if !ok {
		return []string{}
	}
	switch val := v.Value().(type) {
	case []string:
		if val == nil {
			return []string{}
		}
		return val
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return []string{}
	}
}

// metaInt64 extracts an integer metadata value. Players disagree on the
// numeric type of mpris:length, so accept all the usual encodings.
func metaInt64(meta map[string]dbus.Variant, key string) int64 {
	v, ok := meta[key]
	if !ok {
		return 0
	}
	switch val := v.Value().(type) {
	case int64:
		return val
	case uint64:
		return int64(val)
	case int32:
		return int64(val)
	case uint32:
		return int64(val)
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
