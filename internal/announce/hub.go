// Package announce fans world-boss kill broadcasts out to websocket
// subscribers and the audit log.
package announce

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/logger"
)

const (
	sendBuffer   = 16
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// HashToken returns the bcrypt hash to store as announce.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type subscriber struct {
	conn *websocket.Conn
	send chan string
	addr string
}

// Hub is an http.Handler that upgrades subscribers to websockets and a
// Notifier that pushes each message to every subscriber.
type Hub struct {
	cfg          config.AnnounceConfig
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates a Hub with the given feed settings.
func NewHub(cfg config.AnnounceConfig) *Hub {
	h := &Hub{
		cfg:          cfg,
		subs:         make(map[*subscriber]struct{}),
		writeTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 5 * time.Second
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := h.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Announce subscriber rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}
	return h
}

// authorized checks the bearer token (header or ?token=) against the
// configured bcrypt hash. An empty hash disables the check.
func (h *Hub) authorized(r *http.Request) bool {
	if h.cfg.TokenHash == "" {
		return true
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.cfg.TokenHash), []byte(token)) == nil
}

// ServeHTTP upgrades the request and streams broadcasts until the
// subscriber disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		logger.Warning("Announce subscriber rejected - bad token", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Announce upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan string, sendBuffer), addr: r.RemoteAddr}
	if !h.add(sub) {
		conn.Close()
		return
	}
	logger.Debug("Announce subscriber connected", "remote_addr", sub.addr)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub] = struct{}{}
	return true
}

// remove unregisters sub and closes its queue. Safe to call twice.
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// readLoop discards client messages and detects disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
		logger.Debug("Announce subscriber disconnected", "remote_addr", sub.addr)
	}()

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// Notify queues message for every subscriber. A subscriber whose queue is
// full is dropped rather than allowed to stall the broadcast.
func (h *Hub) Notify(ctx context.Context, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.send <- message:
		default:
			logger.Warning("Announce subscriber too slow, dropping", "remote_addr", sub.addr)
			delete(h.subs, sub)
			close(sub.send)
		}
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}
