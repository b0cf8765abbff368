package mpris

import (
	"math/rand"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
)

const artBase = "http://localhost:8766"

func TestBuildState_FullMetadata(t *testing.T) {
	raw := RawState{
		Metadata: map[string]dbus.Variant{
			"xesam:title":   dbus.MakeVariant("Paranoid Android"),
			"xesam:artist":  dbus.MakeVariant([]string{"Radiohead"}),
			"xesam:album":   dbus.MakeVariant("OK Computer"),
			"mpris:artUrl":  dbus.MakeVariant("https://cdn.example.com/ok.jpg"),
			"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/7")),
			"mpris:length":  dbus.MakeVariant(int64(387_000_000)),
		},
		Status:         "Playing",
		Loop:           "Playlist",
		Shuffle:        true,
		PositionMicros: 42_500_000,
	}

	got := BuildState("org.mpris.MediaPlayer2.spotify", raw, artBase)
	want := TrackState{
		Title:    "Paranoid Android",
		Artist:   []string{"Radiohead"},
		Album:    "OK Computer",
		ArtURL:   "https://cdn.example.com/ok.jpg",
		TrackID:  "/org/mpris/MediaPlayer2/Track/7",
		Length:   387,
		Position: 42,
		Status:   StatusPlaying,
		Loop:     LoopPlaylist,
		Shuffle:  true,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildState mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildState_EmptyMetadata(t *testing.T) {
	got := BuildState("org.mpris.MediaPlayer2.vlc", RawState{Metadata: map[string]dbus.Variant{}}, artBase)
	want := TrackState{
		Title:    "",
		Artist:   []string{},
		Album:    "",
		ArtURL:   artBase + "/art/org.mpris.MediaPlayer2.vlc",
		TrackID:  "",
		Length:   0,
		Position: 0,
		Status:   StatusStopped,
		Loop:     LoopNone,
		Shuffle:  false,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildState mismatch (-want +got):\n%s", diff)
	}
}

// Every combination of present/absent properties must produce a fully
// populated state: no nil artist, valid enums, non-negative durations.
func TestBuildState_RandomPartialInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	titles := []any{nil, "Song", ""}
	artists := []any{nil, "Solo", []string{"A", "B"}, []string{}, []interface{}{"X", 3}}
	arts := []any{nil, "", "file:///tmp/cover.png", "https://a.example/c.jpg"}
	lengths := []any{nil, int64(180_000_000), uint64(90_000_000), int32(-5), float64(1_000_000)}
	statuses := []string{"", "Playing", "Paused", "Stopped", "Buffering"}
	loops := []string{"", "None", "Track", "Playlist", "Repeat"}

	for i := 0; i < 500; i++ {
		meta := map[string]dbus.Variant{}
		if v := titles[rng.Intn(len(titles))]; v != nil {
			meta["xesam:title"] = dbus.MakeVariant(v)
		}
		if v := artists[rng.Intn(len(artists))]; v != nil {
			meta["xesam:artist"] = dbus.MakeVariant(v)
		}
		if v := arts[rng.Intn(len(arts))]; v != nil {
			meta["mpris:artUrl"] = dbus.MakeVariant(v)
		}
		if v := lengths[rng.Intn(len(lengths))]; v != nil {
			meta["mpris:length"] = dbus.MakeVariant(v)
		}

		raw := RawState{
			Metadata:       meta,
			Status:         statuses[rng.Intn(len(statuses))],
			Loop:           loops[rng.Intn(len(loops))],
			Shuffle:        rng.Intn(2) == 0,
			PositionMicros: rng.Int63n(400_000_000) - 100_000_000,
		}

		st := BuildState("org.mpris.MediaPlayer2.test", raw, artBase)

		if st.Artist == nil {
			t.Fatalf("iteration %d: Artist must never be nil", i)
		}
		if st.ArtURL == "" {
			t.Fatalf("iteration %d: ArtURL must never be empty", i)
		}
		switch st.Status {
		case StatusPlaying, StatusPaused, StatusStopped:
		default:
			t.Fatalf("iteration %d: invalid status %q", i, st.Status)
		}
		switch st.Loop {
		case LoopNone, LoopTrack, LoopPlaylist:
		default:
			t.Fatalf("iteration %d: invalid loop %q", i, st.Loop)
		}
		if st.Length < 0 || st.Position < 0 {
			t.Fatalf("iteration %d: negative duration: length=%d position=%d", i, st.Length, st.Position)
		}
	}
}

func TestMetaStrings(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]dbus.Variant
		want []string
	}{
		{"absent", map[string]dbus.Variant{}, []string{}},
		{"single string", map[string]dbus.Variant{"xesam:artist": dbus.MakeVariant("Solo")}, []string{"Solo"}},
		{"string slice keeps order", map[string]dbus.Variant{"xesam:artist": dbus.MakeVariant([]string{"B", "A"})}, []string{"B", "A"}},
		{"empty slice", map[string]dbus.Variant{"xesam:artist": dbus.MakeVariant([]string{})}, []string{}},
		{"wrong type", map[string]dbus.Variant{"xesam:artist": dbus.MakeVariant(int64(3))}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metaStrings(tt.meta, "xesam:artist")
			if got == nil {
				t.Fatal("metaStrings must not return nil")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("metaStrings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRewriteArtURL(t *testing.T) {
	tests := []struct {
		name   string
		artURL string
		want   string
	}{
		{"remote https passes through", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"remote http passes through", "http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"local file rewritten", "file:///home/u/.cache/art.png", artBase + "/art/org.mpris.MediaPlayer2.vlc"},
		{"empty rewritten", "", artBase + "/art/org.mpris.MediaPlayer2.vlc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteArtURL(tt.artURL, artBase, "org.mpris.MediaPlayer2.vlc")
			if got != tt.want {
				t.Errorf("rewriteArtURL(%q) = %q, want %q", tt.artURL, got, tt.want)
			}
		})
	}
}

func TestMicrosToSeconds(t *testing.T) {
	tests := []struct {
		micros int64
		want   int64
	}{
		{0, 0},
		{-1_000_000, 0},
		{999_999, 0},
		{1_000_000, 1},
		{5_900_000, 5}, // floor, not round
		{387_000_000, 387},
	}

	for _, tt := range tests {
		if got := microsToSeconds(tt.micros); got != tt.want {
			t.Errorf("microsToSeconds(%d) = %d, want %d", tt.micros, got, tt.want)
		}
	}
}

func TestParseStatusAndLoop(t *testing.T) {
	if parseStatus("Playing") != StatusPlaying {
		t.Error("Playing should map to StatusPlaying")
	}
	if parseStatus("Unknown") != StatusStopped {
		t.Error("unrecognized status should default to Stopped")
	}
	if parseLoop("Track") != LoopTrack {
		t.Error("Track should map to LoopTrack")
	}
	if parseLoop("Repeat") != LoopNone {
		t.Error("unrecognized loop should default to None")
	}
}
