package betting

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Teto de pagamento: a liga retém no mínimo 10% do pote e o payout total
// nunca passa de R$500,00, o que vier primeiro.
const (
	houseRetainPercent = 10
	payoutCapCents     = 50000
)

// DebitFunc debita a carteira do apostador; exatamente um débito por
// colocação aceita. CreditFunc credita um payout; exatamente um crédito
// por ticket vencedor.
type DebitFunc func(userID string, amountCents int64, externalRef string) error
type CreditFunc func(userID string, amountCents int64, externalRef string) error

// pool é o mercado de apostas de uma partida. O mutex cobre colocação,
// travamento e liquidação: a liquidação segura o lock pelo tempo todo, então
// nenhuma leitura de tickets PENDING intercala com o crédito de payouts.
type pool struct {
	mu      sync.Mutex
	matchID string
	locked  bool
	settled bool
	outcome Outcome // válido só após settled
	tickets []*Ticket
	byID    map[string]*Ticket
}

// Snapshot é o agregado derivado do pool; sempre recomputável dos tickets.
type Snapshot struct {
	MatchID       string `json:"match_id"`
	TotalPotCents int64  `json:"total_pot_cents"`
	TicketCount   int    `json:"ticket_count"`
	Locked        bool   `json:"locked"`
	Settled       bool   `json:"settled"`
}

// SettleResult resume uma liquidação. Os tickets são cópias tiradas sob o
// lock do pool; depois que o Settle retorna, ninguém mais muta esse estado.
type SettleResult struct {
	MatchID        string   `json:"match_id"`
	Outcome        Outcome  `json:"outcome"`
	TotalPotCents  int64    `json:"total_pot_cents"`
	PayableCents   int64    `json:"payable_cents"`
	PaidCents      int64    `json:"paid_cents"`
	Winners        []Ticket `json:"winners"`
	Losers         []Ticket `json:"losers"`
	ExactSettle    bool     `json:"exact_settle"` // false quando caiu no "closest"
	SettledTickets []Ticket `json:"settled_tickets"`
}

// Book é o dono dos pools por partida e o único escritor de status/payout
// de tickets.
type Book struct {
	log *zap.Logger

	mu    sync.RWMutex
	pools map[string]*pool

	minWagerCents int64
	maxWagerCents int64
}

func NewBook(log *zap.Logger, minWagerCents, maxWagerCents int64) *Book {
	return &Book{
		log:           log,
		pools:         make(map[string]*pool),
		minWagerCents: minWagerCents,
		maxWagerCents: maxWagerCents,
	}
}

// Open cria o pool de uma partida recém-criada.
func (b *Book) Open(matchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pools[matchID]; ok {
		return
	}
	b.pools[matchID] = &pool{matchID: matchID, byID: make(map[string]*Ticket)}
}

func (b *Book) get(matchID string) (*pool, error) {
	b.mu.RLock()
	p, ok := b.pools[matchID]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

// Lock trava novas apostas. Chamado ANTES da transição do relógio pra LIVE,
// sob o mesmo fluxo de controle: nenhum ticket entra depois do instante em
// que a partida começa.
func (b *Book) Lock(matchID string) error {
	p, err := b.get(matchID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.locked = true
	p.mu.Unlock()
	return nil
}

// Unlock reabre o pool (reset de relógio reabre elegibilidade). Pool já
// liquidado não reabre.
func (b *Book) Unlock(matchID string) error {
	p, err := b.get(matchID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return ErrAlreadySettled
	}
	p.locked = false
	return nil
}

// IsSettled informa se o pool da partida já foi liquidado.
func (b *Book) IsSettled(matchID string) bool {
	p, err := b.get(matchID)
	if err != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

// Place valida e aceita um ticket, debitando a carteira dentro da seção
// crítica do pool. Falha de validação ou débito deixa pool e carteira como
// estavam (débito só acontece depois de toda validação). Retorna uma cópia:
// o ticket vivo só muta dentro do Settle, sob o lock do pool.
func (b *Book) Place(matchID, userID string, picks Picks, wagerCents int64, debit DebitFunc) (Ticket, error) {
	if err := picks.Validate(); err != nil {
		return Ticket{}, err
	}
	if wagerCents < b.minWagerCents || wagerCents > b.maxWagerCents {
		return Ticket{}, fmt.Errorf("%w: wager %d outside [%d,%d]",
			ErrInvalidTicket, wagerCents, b.minWagerCents, b.maxWagerCents)
	}
	p, err := b.get(matchID)
	if err != nil {
		return Ticket{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return Ticket{}, ErrAlreadySettled
	}
	if p.locked {
		return Ticket{}, ErrBettingClosed
	}

	t := &Ticket{
		ID:         uuid.NewString(),
		MatchID:    matchID,
		UserID:     userID,
		Picks:      picks,
		WagerCents: wagerCents,
		Status:     StatusPending,
		PlacedAt:   time.Now(),
		seq:        len(p.tickets),
	}

	// Exatamente um débito por colocação; se falhar, nada entrou no pool.
	if err := debit(userID, wagerCents, "ticket:"+t.ID); err != nil {
		return Ticket{}, err
	}

	p.tickets = append(p.tickets, t)
	p.byID[t.ID] = t
	return *t, nil
}

// Ticket localiza um ticket por ID, em qualquer pool. Devolve uma cópia
// lida sob o lock do pool dono, nunca o ponteiro vivo.
func (b *Book) Ticket(ticketID string) (Ticket, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.pools {
		p.mu.Lock()
		t, ok := p.byID[ticketID]
		if ok {
			out := *t
			p.mu.Unlock()
			return out, nil
		}
		p.mu.Unlock()
	}
	return Ticket{}, ErrTicketNotFound
}

// PoolSnapshot recomputa o agregado do pool a partir dos tickets.
func (b *Book) PoolSnapshot(matchID string) (Snapshot, error) {
	p, err := b.get(matchID)
	if err != nil {
		return Snapshot{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		MatchID:       matchID,
		TotalPotCents: potLocked(p),
		TicketCount:   len(p.tickets),
		Locked:        p.locked,
		Settled:       p.settled,
	}, nil
}

func potLocked(p *pool) int64 {
	var pot int64
	for _, t := range p.tickets {
		pot += t.WagerCents
	}
	return pot
}

// Odds devolve o quadro de odds corrente do pool. Display only.
func (b *Book) Odds(matchID string) (Board, error) {
	p, err := b.get(matchID)
	if err != nil {
		return Board{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return boardFor(p.tickets), nil
}

// Settle liquida o pool contra o resultado verdadeiro. Idempotente: segunda
// chamada devolve ErrAlreadySettled sem tocar em ticket ou carteira.
//
// Regra parimutuel de quatro palpites:
//  1. payableCap = min(pote*0.9, R$500)
//  2. vencedores exatos = tickets com as três dimensões corretas
//  3. com exatos: cap rateado proporcional ao stake entre eles (WON)
//  4. sem exatos: maior número de dimensões acertadas vence ("closest");
//     cap rateado proporcional entre os empatados (CLOSEST)
//  5. demais tickets LOST; um crédito por ticket premiado
func (b *Book) Settle(matchID string, out Outcome, credit CreditFunc) (SettleResult, error) {
	p, err := b.get(matchID)
	if err != nil {
		return SettleResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return SettleResult{}, ErrAlreadySettled
	}
	// liquidação implica pool travado, mesmo que a partida tenha fechado
	// por caminho que não passou pelo Lock
	p.locked = true

	pot := potLocked(p)
	payable := pot * (100 - houseRetainPercent) / 100
	if payable > payoutCapCents {
		payable = payoutCapCents
	}

	res := SettleResult{
		MatchID:       matchID,
		Outcome:       out,
		TotalPotCents: pot,
		PayableCents:  payable,
	}

	var exact []*Ticket
	for _, t := range p.tickets {
		if t.Picks.matchedDimensions(out) == 3 {
			exact = append(exact, t)
		}
	}

	winners := exact
	status := StatusWon
	res.ExactSettle = true
	if len(exact) == 0 && len(p.tickets) > 0 {
		// fallback "closest": maior contagem de dimensões acertadas leva;
		// empate no topo divide o cap proporcional ao stake
		best := -1
		for _, t := range p.tickets {
			if n := t.Picks.matchedDimensions(out); n > best {
				best = n
			}
		}
		for _, t := range p.tickets {
			if t.Picks.matchedDimensions(out) == best {
				winners = append(winners, t)
			}
		}
		status = StatusClosest
		res.ExactSettle = false
	}

	paid := distribute(payable, winners)
	for _, t := range p.tickets {
		if t.Status != StatusPending {
			continue
		}
		isWinner := false
		for _, w := range winners {
			if w == t {
				isWinner = true
				break
			}
		}
		if isWinner {
			t.Status = status
			res.Winners = append(res.Winners, *t)
			if t.PayoutCents > 0 {
				if _, cerr := creditOnce(credit, t); cerr != nil {
					// apostador tinha carteira pra apostar; falha aqui é
					// anomalia de infraestrutura, registrada e seguida
					b.log.Error("settlement credit failed",
						zap.String("ticketId", t.ID),
						zap.String("userId", t.UserID),
						zap.Error(cerr),
					)
				}
			}
		} else {
			t.Status = StatusLost
			res.Losers = append(res.Losers, *t)
		}
	}

	p.settled = true
	p.outcome = out
	res.PaidCents = paid
	res.SettledTickets = make([]Ticket, len(p.tickets))
	for i, t := range p.tickets {
		res.SettledTickets[i] = *t
	}

	b.log.Info("pool settled",
		zap.String("matchId", matchID),
		zap.Int64("potCents", pot),
		zap.Int64("payableCents", payable),
		zap.Int64("paidCents", paid),
		zap.Int("winners", len(res.Winners)),
		zap.Bool("exact", res.ExactSettle),
	)
	return res, nil
}

func creditOnce(credit CreditFunc, t *Ticket) (int64, error) {
	if credit == nil {
		return 0, nil
	}
	return t.PayoutCents, credit(t.UserID, t.PayoutCents, "settle:"+t.ID)
}

// distribute rateia amount entre os winners proporcional ao stake, em
// centavos inteiros com divisão truncada; a sobra do arredondamento vai pro
// ticket colocado primeiro, então a soma distribuída é exatamente amount e o
// cap nunca é excedido.
func distribute(amountCents int64, winners []*Ticket) int64 {
	if len(winners) == 0 || amountCents <= 0 {
		return 0
	}
	var stakes int64
	for _, t := range winners {
		stakes += t.WagerCents
	}
	if stakes == 0 {
		return 0
	}

	earliest := winners[0]
	var paid int64
	for _, t := range winners {
		t.PayoutCents = amountCents * t.WagerCents / stakes
		paid += t.PayoutCents
		if t.seq < earliest.seq {
			earliest = t
		}
	}
	if rest := amountCents - paid; rest > 0 {
		earliest.PayoutCents += rest
		paid += rest
	}
	return paid
}

// SettledOutcome devolve o resultado aplicado na liquidação.
func (b *Book) SettledOutcome(matchID string) (Outcome, error) {
	p, err := b.get(matchID)
	if err != nil {
		return Outcome{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.settled {
		return Outcome{}, ErrNotFinal
	}
	return p.outcome, nil
}

// Tickets devolve cópias dos tickets do pool na ordem de colocação.
func (b *Book) Tickets(matchID string) ([]Ticket, error) {
	p, err := b.get(matchID)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Ticket, len(p.tickets))
	for i, t := range p.tickets {
		out[i] = *t
	}
	return out, nil
}
