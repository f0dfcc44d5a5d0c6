/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package control

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jinr.ru/greenlab/go-sedis/pkg/log"
)

const (
	eventQueueSize = 64
	pingPeriod     = 30 * time.Second
	writeDeadline  = 10 * time.Second
)

// Event is one diagnostic message as sent to websocket clients
type Event struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts diagnostics to websocket clients. It is a log.Sink, Emit
// never blocks: events are dropped for clients that do not keep up.
type Hub struct {
	mu       sync.Mutex
	clients  map[*eventClient]struct{}
	upgrader websocket.Upgrader
}

var _ log.Sink = &Hub{}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*eventClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) Emit(msg string) {
	data, err := json.Marshal(Event{Time: time.Now().UTC(), Message: msg})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Clients is the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *eventClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *eventClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and streams events until the client goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Websocket upgrade failed: %s", err)
		return
	}
	c := &eventClient{conn: conn, send: make(chan []byte, eventQueueSize)}
	h.add(c)
	log.Debug("Events client connected: %s", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writer(c)
	}()

	// Clients are not expected to send anything, reading only detects close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warning("Events client error: %s", err)
			}
			break
		}
	}
	h.remove(c)
	<-done
	conn.Close()
	log.Debug("Events client disconnected: %s", r.RemoteAddr)
}

func (h *Hub) writer(c *eventClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("Error while writing event: %s", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
