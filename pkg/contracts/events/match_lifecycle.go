package events

import "time"

// Evento publicado no tópico "match_live" quando o relógio entra em LIVE.
// A transição para LIVE é o sinal que trava novas apostas.
type MatchWentLive struct {
	MatchID    string    `json:"match_id"`
	LeagueID   string    `json:"league_id"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	ElapsedSec int64     `json:"elapsed_sec"`
	Ts         time.Time `json:"ts"`
}

// Evento publicado no tópico "match_final" quando o relógio atinge a duração.
type MatchFinal struct {
	MatchID    string    `json:"match_id"`
	HomeGoals  int       `json:"home_goals"`
	AwayGoals  int       `json:"away_goals"`
	ElapsedSec int64     `json:"elapsed_sec"`
	Ts         time.Time `json:"ts"`
}
