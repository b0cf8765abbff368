package mpris

import "github.com/godbus/dbus/v5"

const (
	mprisPrefix      = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"

	dbusIface     = "org.freedesktop.DBus"
	dbusPropIface = "org.freedesktop.DBus.Properties"

	dbusPropGet            = dbusPropIface + ".Get"
	dbusListNamesMethod    = dbusIface + ".ListNames"
	dbusGetNameOwner       = dbusIface + ".GetNameOwner"
	propChangedSignal      = dbusPropIface + ".PropertiesChanged"
	nameOwnerChangedSignal = dbusIface + ".NameOwnerChanged"

	methodPlay        = mprisPlayerIface + ".Play"
	methodPause       = mprisPlayerIface + ".Pause"
	methodPlayPause   = mprisPlayerIface + ".PlayPause"
	methodStop        = mprisPlayerIface + ".Stop"
	methodNext        = mprisPlayerIface + ".Next"
	methodPrevious    = mprisPlayerIface + ".Previous"
	methodSeek        = mprisPlayerIface + ".Seek"
	methodSetPosition = mprisPlayerIface + ".SetPosition"
)

const mprisPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")

// noTrackID is the well-known track ID meaning "no current track".
const noTrackID = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"
)

const (
	LoopNone     LoopStatus = "None"
	LoopTrack    LoopStatus = "Track"
	LoopPlaylist LoopStatus = "Playlist"
)
