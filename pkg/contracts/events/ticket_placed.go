package events

type TicketPlaced struct {
	TicketID   string `json:"ticket_id"`
	MatchID    string `json:"match_id"`
	UserID     string `json:"user_id"`
	Outcome    string `json:"outcome"`     // "HOME" | "DRAW" | "AWAY"
	TotalGoals string `json:"total_goals"` // "OVER" | "UNDER"
	BothScore  string `json:"both_score"`  // "YES" | "NO"
	WagerCents int64  `json:"wager_cents"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
