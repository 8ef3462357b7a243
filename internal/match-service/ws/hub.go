package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Hub gerencia conexões WebSocket e assinaturas por partida.
// Um cliente acompanha quantas partidas quiser; cada assinatura aceita um
// filtro opcional de kinds (só placar, só liquidação etc).
type Hub struct {
	upgrader websocket.Upgrader

	mu sync.RWMutex
	// matchID -> conexão -> kinds assinados (vazio = todos)
	subs map[string]map[*websocket.Conn]map[string]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]map[string]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Subscribe responde com um ack pro cliente saber que a assinatura pegou.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.MatchID == "" {
				continue
			}
			kinds := make(map[string]struct{}, len(msg.Kinds))
			for _, k := range msg.Kinds {
				kinds[k] = struct{}{}
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.MatchID]; !ok {
				h.subs[msg.MatchID] = make(map[*websocket.Conn]map[string]struct{})
			}
			h.subs[msg.MatchID][conn] = kinds
			h.mu.Unlock()
			_ = conn.WriteJSON(map[string]string{"type": "subscribed", "matchId": msg.MatchID})
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.MatchID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.MatchID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast envia a atualização a todos os inscritos na partida cujo filtro
// aceita o kind. Conexão que não escreve dentro do prazo é derrubada; o
// placar ao vivo não espera cliente lento.
func (h *Hub) Broadcast(update MatchUpdate) {
	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.subs[update.MatchID]))
	for c, kinds := range h.subs[update.MatchID] {
		if len(kinds) > 0 {
			if _, ok := kinds[update.Kind]; !ok {
				continue
			}
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	var dead []*websocket.Conn
	for _, c := range targets {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			dead = append(dead, c)
		}
	}
	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range dead {
		for _, set := range h.subs {
			delete(set, c)
		}
		c.Close()
	}
	h.mu.Unlock()
}
