package mpris

import (
	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// control dispatches one player method. Failures become ControlError; on
// success a refresh is kicked off so the resulting state reaches clients
// without waiting for the player's own signal.
func (r *Registry) control(id, cmd, method string, args ...interface{}) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}

	logger.Debug("[mpris] %s %s", cmd, id)
	if err := p.call(method, args...); err != nil {
		return &ControlError{BusName: id, Command: cmd, Err: err}
	}

	go r.Refresh(id)
	return nil
}

// Play resumes playback
func (r *Registry) Play(id string) error {
	return r.control(id, "play", methodPlay)
}

// Pause pauses playback
func (r *Registry) Pause(id string) error {
	return r.control(id, "pause", methodPause)
}

// PlayPause toggles between play and pause
func (r *Registry) PlayPause(id string) error {
	return r.control(id, "playpause", methodPlayPause)
}

// Stop stops playback
func (r *Registry) Stop(id string) error {
	return r.control(id, "stop", methodStop)
}

// Next skips to the next track
func (r *Registry) Next(id string) error {
	return r.control(id, "next", methodNext)
}

// Previous skips to the previous track
func (r *Registry) Previous(id string) error {
	return r.control(id, "prev", methodPrevious)
}

// Seek moves the position relative to the current one, in microseconds.
func (r *Registry) Seek(id string, offsetMicros int64) error {
	return r.control(id, "seek", methodSeek, offsetMicros)
}

// SetPosition seeks to an absolute position, in microseconds. SetPosition
// needs the current track ID; the cached state provides it, "/" when the
// player never reported one. Players must ignore SetPosition for the
// NoTrack ID, so that case is not sent at all.
func (r *Registry) SetPosition(id string, positionMicros int64) error {
	trackID := "/"
	if st, ok := r.state(id); ok && st.TrackID != "" {
		trackID = st.TrackID
	}
	if trackID == noTrackID {
		logger.Debug("[mpris] position ignored for %s: no current track", id)
		return nil
	}
	return r.control(id, "position", methodSetPosition, dbus.ObjectPath(trackID), positionMicros)
}
