package dto

type CreateMatchRequest struct {
	LeagueID     string `json:"leagueId"`
	TournamentID string `json:"tournamentId"`
	HomeTeamID   string `json:"homeTeamId"`
	AwayTeamID   string `json:"awayTeamId"`
	DurationSec  int64  `json:"duration_sec"`
}

type SetLiveRequest struct {
	Running bool `json:"running"`
}

type TickRequest struct {
	DeltaSec int64 `json:"delta_sec"`
}

type LogEventRequest struct {
	Kind string `json:"kind"` // "GOAL" | "YELLOW_CARD" | "RED_CARD"
	Side string `json:"side"` // "HOME" | "AWAY"
}

type PlaceTicketRequest struct {
	MatchID    string `json:"matchId"`
	UserID     string `json:"userId"`
	Outcome    string `json:"outcome"`     // "HOME" | "DRAW" | "AWAY"
	TotalGoals string `json:"total_goals"` // "OVER" | "UNDER"
	BothScore  string `json:"both_score"`  // "YES" | "NO"
	WagerCents int64  `json:"wager_cents"`
}

type DepositRequest struct {
	UserID     string `json:"userId"`
	DeltaCents int64  `json:"delta_cents"`
}
