package events

import "time"

// Evento de placar enviado ao cache/WS a cada evento de partida registrado.
type ScoreUpdate struct {
	MatchID    string    `json:"match_id"`
	HomeGoals  int       `json:"home_goals"`
	AwayGoals  int       `json:"away_goals"`
	HomeCards  int       `json:"home_cards"`
	AwayCards  int       `json:"away_cards"`
	ElapsedSec int64     `json:"elapsed_sec"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}
