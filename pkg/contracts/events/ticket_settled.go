package events

import "time"

// Evento emitido pelo match-service após a liquidação do pool de uma partida.
// Um evento por ticket; o settlement-archiver persiste no Postgres.
type TicketSettled struct {
	TicketID    string    `json:"ticket_id"`
	MatchID     string    `json:"match_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"` // "WON" | "CLOSEST" | "LOST"
	WagerCents  int64     `json:"wager_cents"`
	PayoutCents int64     `json:"payout_cents"`
	HomeGoals   int       `json:"home_goals"`
	AwayGoals   int       `json:"away_goals"`
	Ts          time.Time `json:"ts"`
}
