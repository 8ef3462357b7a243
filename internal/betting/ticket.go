package betting

import (
	"fmt"
	"time"
)

// Palpites de um ticket. Conjuntos fechados; todo ponto de decisão faz
// match exaustivo sobre esses valores.
type OutcomePick string

const (
	PickHome OutcomePick = "HOME"
	PickDraw OutcomePick = "DRAW"
	PickAway OutcomePick = "AWAY"
)

type TotalsPick string

const (
	PickOver  TotalsPick = "OVER"
	PickUnder TotalsPick = "UNDER"
)

type BTTSPick string

const (
	PickYes BTTSPick = "YES"
	PickNo  BTTSPick = "NO"
)

type TicketStatus string

const (
	StatusPending TicketStatus = "PENDING"
	StatusWon     TicketStatus = "WON"
	StatusClosest TicketStatus = "CLOSEST"
	StatusLost    TicketStatus = "LOST"
)

// Linha fixa de total de gols (2.5): OVER fecha com 3+ gols na partida.
const overUnderLineGoals = 3

// Picks reúne as três dimensões de resultado de um ticket.
type Picks struct {
	Outcome    OutcomePick `json:"outcome"`
	TotalGoals TotalsPick  `json:"total_goals"`
	BothScore  BTTSPick    `json:"both_score"`
}

// Validate exige as três dimensões presentes e dentro dos conjuntos fechados.
func (p Picks) Validate() error {
	switch p.Outcome {
	case PickHome, PickDraw, PickAway:
	default:
		return fmt.Errorf("%w: outcome %q", ErrInvalidTicket, p.Outcome)
	}
	switch p.TotalGoals {
	case PickOver, PickUnder:
	default:
		return fmt.Errorf("%w: total_goals %q", ErrInvalidTicket, p.TotalGoals)
	}
	switch p.BothScore {
	case PickYes, PickNo:
	default:
		return fmt.Errorf("%w: both_score %q", ErrInvalidTicket, p.BothScore)
	}
	return nil
}

// Ticket é uma aposta aceita no pool. O motor de apostas é o único escritor
// de Status e PayoutCents.
type Ticket struct {
	ID          string       `json:"id"`
	MatchID     string       `json:"match_id"`
	UserID      string       `json:"user_id"`
	Picks       Picks        `json:"picks"`
	WagerCents  int64        `json:"wager_cents"`
	Status      TicketStatus `json:"status"`
	PayoutCents int64        `json:"payout_cents"`
	PlacedAt    time.Time    `json:"placed_at"`

	seq int // ordem de chegada no pool; desempate determinístico
}

// Outcome é o resultado verdadeiro da partida nas três dimensões apostáveis.
type Outcome struct {
	Winner     OutcomePick `json:"winner"`
	TotalGoals TotalsPick  `json:"total_goals"`
	BothScore  BTTSPick    `json:"both_score"`
}

// OutcomeFromScore deriva o resultado verdadeiro a partir do placar final.
func OutcomeFromScore(homeGoals, awayGoals int) Outcome {
	out := Outcome{Winner: PickDraw, TotalGoals: PickUnder, BothScore: PickNo}
	if homeGoals > awayGoals {
		out.Winner = PickHome
	} else if awayGoals > homeGoals {
		out.Winner = PickAway
	}
	if homeGoals+awayGoals >= overUnderLineGoals {
		out.TotalGoals = PickOver
	}
	if homeGoals > 0 && awayGoals > 0 {
		out.BothScore = PickYes
	}
	return out
}

// matchedDimensions conta quantas das três dimensões o ticket acertou.
func (p Picks) matchedDimensions(o Outcome) int {
	n := 0
	if p.Outcome == o.Winner {
		n++
	}
	if p.TotalGoals == o.TotalGoals {
		n++
	}
	if p.BothScore == o.BothScore {
		n++
	}
	return n
}
