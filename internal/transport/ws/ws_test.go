package ws

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeCore records inbound events without depending on the hub package,
// keeping this test focused on the wire adapter.
type fakeCore struct {
	mu          sync.Mutex
	connected   []string
	disconnect  []string
	requested   []string
	submissions []any
}

func (f *fakeCore) Connect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, connID)
}

func (f *fakeCore) Disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnect = append(f.disconnect, connID)
}

func (f *fakeCore) RequestQuestion(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, connID)
}

func (f *fakeCore) SubmitAnswer(connID string, rawAnswer any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, rawAnswer)
}

func newTestServer(core Core) (*Adapter, *httptest.Server) {
	a := New(nil)
	a.SetCore(core)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.ServeWS)
	return a, httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestConnectCallsCoreAndBroadcastReachesClient(t *testing.T) {
	core := &fakeCore{}
	a, server := newTestServer(core)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		core.mu.Lock()
		n := len(core.connected)
		core.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	core.mu.Lock()
	if len(core.connected) != 1 {
		t.Fatalf("expected Connect to be called once, got %d", len(core.connected))
	}
	connID := core.connected[0]
	core.mu.Unlock()

	a.Broadcast("new-question", map[string]any{"question": "1 + 1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "new-question" {
		t.Fatalf("expected new-question, got %s", msg.Type)
	}
	if connID == "" {
		t.Fatal("expected a non-empty minted connection id")
	}
}

func TestSubmitAnswerForwardsToCore(t *testing.T) {
	core := &fakeCore{}
	_, server := newTestServer(core)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{
		"type":    "submit-answer",
		"payload": map[string]any{"answer": "42"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		core.mu.Lock()
		n := len(core.submissions)
		core.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	core.mu.Lock()
	defer core.mu.Unlock()
	if len(core.submissions) != 1 || core.submissions[0] != "42" {
		t.Fatalf("expected one forwarded submission of 42, got %+v", core.submissions)
	}
}

func TestRequestQuestionForwardsToCore(t *testing.T) {
	core := &fakeCore{}
	_, server := newTestServer(core)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "request-question"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		core.mu.Lock()
		n := len(core.requested)
		core.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	core.mu.Lock()
	defer core.mu.Unlock()
	if len(core.requested) != 1 {
		t.Fatalf("expected RequestQuestion forwarded once, got %d", len(core.requested))
	}
}

func TestDisconnectCallsCoreOnClose(t *testing.T) {
	core := &fakeCore{}
	_, server := newTestServer(core)
	defer server.Close()

	conn := dial(t, server)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		core.mu.Lock()
		n := len(core.disconnect)
		core.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	core.mu.Lock()
	defer core.mu.Unlock()
	if len(core.disconnect) != 1 {
		t.Fatalf("expected Disconnect called once, got %d", len(core.disconnect))
	}
}
