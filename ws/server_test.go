package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/b0bbywan/go-mpris-bridge/backend"
	"github.com/b0bbywan/go-mpris-bridge/backend/mpris"
	"github.com/b0bbywan/go-mpris-bridge/events"
)

const (
	playerA = "org.mpris.MediaPlayer2.spotify"
	playerB = "org.mpris.MediaPlayer2.vlc"
)

func testStates() map[string]mpris.TrackState {
	return map[string]mpris.TrackState{
		playerA: {
			Title:  "Karma Police",
			Artist: []string{"Radiohead"},
			Status: mpris.StatusPlaying,
			Loop:   mpris.LoopNone,
		},
		playerB: {
			Title:  "Holiday",
			Artist: []string{},
			Status: mpris.StatusPaused,
			Loop:   mpris.LoopNone,
		},
	}
}

// newTestServer wires a Server to a fake registry and a broadcaster fed by
// the returned upstream channel.
func newTestServer(t *testing.T, f *fakeRegistry) (*httptest.Server, chan events.Event) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	upstream := make(chan events.Event, 16)
	s := &Server{
		registry:    f,
		broadcaster: backend.NewBroadcaster(ctx, upstream),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	ts := httptest.NewServer(http.HandlerFunc(s.handleClient))
	t.Cleanup(ts.Close)
	return ts, upstream
}

func dialTest(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("message %q is not a JSON object: %v", raw, err)
	}
	return msg
}

func TestClientReceivesSnapshotOnConnect(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, _ := newTestServer(t, f)

	conn := dialTest(t, ts)
	msg := readJSON(t, conn)

	if len(msg) != 2 {
		t.Fatalf("snapshot has %d keys, want 2: %v", len(msg), msg)
	}
	for _, id := range []string{playerA, playerB} {
		if _, ok := msg[id]; !ok {
			t.Errorf("snapshot missing %s", id)
		}
	}

	var st mpris.TrackState
	if err := json.Unmarshal(msg[playerA], &st); err != nil {
		t.Fatalf("snapshot value for %s: %v", playerA, err)
	}
	if st.Title != "Karma Police" || st.Status != mpris.StatusPlaying {
		t.Errorf("unexpected state for %s: %+v", playerA, st)
	}
}

func TestClientReceivesTargetedUpdate(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, upstream := newTestServer(t, f)

	conn := dialTest(t, ts)
	readJSON(t, conn) // snapshot

	updated := mpris.TrackState{
		Title:  "No Surprises",
		Artist: []string{"Radiohead"},
		Status: mpris.StatusPlaying,
		Loop:   mpris.LoopNone,
	}
	upstream <- events.NewPlayerEvent(events.TypePlayerUpdated, playerA, updated)

	msg := readJSON(t, conn)
	if len(msg) != 1 {
		t.Fatalf("update has %d keys, want only %s: %v", len(msg), playerA, msg)
	}
	var st mpris.TrackState
	if err := json.Unmarshal(msg[playerA], &st); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if st.Title != "No Surprises" {
		t.Errorf("Title = %q, want %q", st.Title, "No Surprises")
	}
}

func TestClientReceivesRemovalAsNull(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, upstream := newTestServer(t, f)

	conn := dialTest(t, ts)
	readJSON(t, conn) // snapshot

	upstream <- events.NewPlayerEvent(events.TypePlayerRemoved, playerA, nil)

	msg := readJSON(t, conn)
	raw, ok := msg[playerA]
	if !ok {
		t.Fatalf("removal message missing key %s: %v", playerA, msg)
	}
	if string(raw) != "null" {
		t.Errorf("removal value = %s, want null", raw)
	}
}

func TestClientCommandReachesRegistry(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, _ := newTestServer(t, f)

	conn := dialTest(t, ts)
	readJSON(t, conn) // snapshot

	cmd := `{"player":"` + playerA + `","cmd":"seek","value":10}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		t.Fatalf("write command: %v", err)
	}

	want := "seek:" + playerA + ":10000000"
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		calls := f.recorded()
		if len(calls) == 1 && calls[0] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("registry calls = %v, want [%s]", f.recorded(), want)
}

func TestBadCommandKeepsConnectionAlive(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, upstream := newTestServer(t, f)

	conn := dialTest(t, ts)
	readJSON(t, conn) // snapshot

	// Garbage is logged and dropped; no reply, no disconnect.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	// The connection still receives broadcasts afterwards.
	upstream <- events.NewPlayerEvent(events.TypePlayerUpdated, playerB, testStates()[playerB])
	msg := readJSON(t, conn)
	if _, ok := msg[playerB]; !ok {
		t.Errorf("expected update for %s after bad command, got %v", playerB, msg)
	}
}

func TestSnapshotBroadcastReachesAllClients(t *testing.T) {
	f := &fakeRegistry{snapshot: testStates()}
	ts, upstream := newTestServer(t, f)

	conn1 := dialTest(t, ts)
	conn2 := dialTest(t, ts)
	readJSON(t, conn1)
	readJSON(t, conn2)

	upstream <- events.NewSnapshot(testStates())

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readJSON(t, conn)
		if len(msg) != 2 {
			t.Errorf("client %d snapshot has %d keys, want 2", i, len(msg))
		}
	}
}

func TestEncodeEventUnknownTypeSkipped(t *testing.T) {
	data, err := encodeEvent(events.Event{Type: "bogus"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("unknown event type should encode to nil, got %s", data)
	}
}
