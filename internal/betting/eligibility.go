package betting

import (
	"sync"

	"github.com/radieske/liga-match-core/internal/match"
)

// Decision é o resultado computado do guard; não é entidade armazenada.
// Closed separa negação por estado da partida (janela de apostas fechada)
// de negação por condição do apostador (sem carteira, excluído).
type Decision struct {
	Allowed bool   `json:"allowed"`
	Closed  bool   `json:"closed,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Guard decide se um usuário pode apostar numa partida neste instante.
// As razões de negação são estáveis pra UI exibir direto.
type Guard struct {
	mu       sync.RWMutex
	excluded map[string]struct{} // exclusões a nível de liga
}

func NewGuard() *Guard {
	return &Guard{excluded: make(map[string]struct{})}
}

// Exclude adiciona o usuário à lista de exclusão da liga.
func (g *Guard) Exclude(userID string) {
	g.mu.Lock()
	g.excluded[userID] = struct{}{}
	g.mu.Unlock()
}

// Readmit remove o usuário da lista de exclusão.
func (g *Guard) Readmit(userID string) {
	g.mu.Lock()
	delete(g.excluded, userID)
	g.mu.Unlock()
}

// Check avalia a elegibilidade: nega com partida LIVE ou FINAL, usuário sem
// carteira ou excluído pela liga. Deve ser avaliado na colocação, sob a
// mesma fronteira atômica do lock do pool (ver Book.Place).
func (g *Guard) Check(status match.Status, hasWallet bool, userID string) Decision {
	switch status {
	case match.StatusLive:
		return Decision{Allowed: false, Closed: true, Reason: "betting closed: match in progress"}
	case match.StatusFinal:
		return Decision{Allowed: false, Closed: true, Reason: "betting closed: match ended"}
	case match.StatusScheduled, match.StatusPaused:
		// apostável
	}
	if !hasWallet {
		return Decision{Allowed: false, Reason: "user has no wallet"}
	}
	g.mu.RLock()
	_, banned := g.excluded[userID]
	g.mu.RUnlock()
	if banned {
		return Decision{Allowed: false, Reason: "user excluded by league restriction"}
	}
	return Decision{Allowed: true}
}
