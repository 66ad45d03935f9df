package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

const writeWait = 5 * time.Second

// ClientMsg é a mensagem recebida do cliente; só "ping" é tratado
type ClientMsg struct {
	Type string `json:"type"`
}

// client serializa as escritas: a conexão não aceita writers concorrentes
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub gerencia as conexões WebSocket abertas por usuário e entrega a elas
// os eventos de aposta do próprio usuário
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// userID -> conexões
	subs map[string]map[*client]struct{}
}

// NewHub cria o hub com a política de origem informada (nil = mesma origem)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS atende GET /api/apostas/stream para o usuário autenticado.
// Navegadores não enviam header no handshake, então o token costuma vir em ?token=.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	h.add(userID, c)
	defer func() {
		h.remove(userID, c)
		_ = conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			if err := c.writeJSON(map[string]string{"type": "pong"}); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[userID]; !ok {
		h.subs[userID] = make(map[*client]struct{})
	}
	h.subs[userID][c] = struct{}{}
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

// Listen envia o evento às conexões do usuário dono da aposta.
// Tem a assinatura de events.Listener; falha de escrita derruba só aquela conexão.
func (h *Hub) Listen(_ context.Context, e cevents.BetEvent) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.subs[e.UserID]))
	for c := range h.subs[e.UserID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(e); err != nil {
			h.log.Debug("ws write", zap.String("userId", e.UserID), zap.Error(err))
			_ = c.conn.Close()
		}
	}
	return nil
}

// Close encerra todas as conexões (shutdown)
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.subs {
		for c := range set {
			_ = c.conn.Close()
		}
	}
}
