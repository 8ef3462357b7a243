package ws

import "encoding/json"

// Mensagem enviada pelo cliente WS: inscrição por partida, com filtro
// opcional de kinds (vazio assina tudo).
type ClientMsg struct {
	Type    string   `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	MatchID string   `json:"matchId"`
	Kinds   []string `json:"kinds,omitempty"`
}

// MatchUpdate é o envelope enviado aos clientes inscritos numa partida.
// Payload carrega placar, pool ou resultado de liquidação.
type MatchUpdate struct {
	MatchID string          `json:"matchId"`
	Kind    string          `json:"kind"` // "score" | "pool" | "settled" | "live" | "final"
	Payload json.RawMessage `json:"payload"`
}
