// Package ws is the gorilla/websocket implementation of transport.Adapter.
// Each connection gets its own writer goroutine fed by a buffered channel;
// the hub's Broadcast/SendTo calls never touch a gorilla/websocket.Conn
// directly, so a slow or dead client can never stall the Hub's lock.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Core is the inbound half of the contract: the Hub operations the adapter
// forwards client messages into.
type Core interface {
	Connect(connID string)
	Disconnect(connID string)
	RequestQuestion(connID string)
	SubmitAnswer(connID string, rawAnswer any)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitAnswerPayload struct {
	Answer any `json:"answer"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type conn struct {
	ws   *websocket.Conn
	send chan outboundMessage
}

// Adapter upgrades HTTP connections to websockets, mints a connection id per
// socket, and implements transport.Adapter over the resulting connection
// set.
type Adapter struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*conn

	core Core
}

// New constructs an Adapter. allowedOrigins is empty to allow any origin,
// or a list of exact Origin header values to accept.
func New(allowedOrigins []string) *Adapter {
	a := &Adapter{
		conns: make(map[string]*conn),
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return a
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// SetCore wires the adapter to the component that handles inbound events.
// Must be called before ServeWS is reachable from a live listener.
func (a *Adapter) SetCore(core Core) {
	a.core = core
}

// ServeWS upgrades the request and runs the connection's read loop until it
// disconnects.
func (a *Adapter) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer wsConn.Close()

	connID := uuid.NewString()
	c := &conn{ws: wsConn, send: make(chan outboundMessage, 32)}

	a.mu.Lock()
	a.conns[connID] = c
	a.mu.Unlock()

	writerDone := make(chan struct{})
	go a.runWriter(c, writerDone)

	a.core.Connect(connID)

	a.runReader(connID, wsConn)

	a.mu.Lock()
	delete(a.conns, connID)
	a.mu.Unlock()

	close(c.send)
	<-writerDone

	a.core.Disconnect(connID)
}

func (a *Adapter) runWriter(c *conn, done chan struct{}) {
	defer close(done)
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.ws.WriteJSON(msg); err != nil {
			log.Printf("ws: write error: %v", err)
			return
		}
	}
}

func (a *Adapter) runReader(connID string, wsConn *websocket.Conn) {
	for {
		var inbound inboundMessage
		if err := wsConn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "submit-answer":
			var payload submitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				a.SendTo(connID, "submission-error", map[string]any{"error": "invalid submit-answer payload"})
				continue
			}
			a.core.SubmitAnswer(connID, payload.Answer)
		case "request-question":
			a.core.RequestQuestion(connID)
		default:
			a.SendTo(connID, "submission-error", map[string]any{"error": "unsupported message type"})
		}
	}
}

// SendTo implements transport.Adapter. A missing or full connection is
// dropped silently; the Hub's critical section never waits on delivery.
func (a *Adapter) SendTo(connID, eventName string, payload any) {
	a.mu.RLock()
	c, ok := a.conns[connID]
	a.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- outboundMessage{Type: eventName, Payload: payload}:
	default:
		log.Printf("ws: dropping %s for %s, send buffer full", eventName, connID)
	}
}

// Broadcast implements transport.Adapter.
func (a *Adapter) Broadcast(eventName string, payload any) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for connID, c := range a.conns {
		select {
		case c.send <- outboundMessage{Type: eventName, Payload: payload}:
		default:
			log.Printf("ws: dropping broadcast %s for %s, send buffer full", eventName, connID)
		}
	}
}

// ConnectionCount returns the number of currently open sockets.
func (a *Adapter) ConnectionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.conns)
}
