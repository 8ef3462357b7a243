package dto

type CreateMatchResponse struct {
	MatchID string `json:"matchId"`
	Status  string `json:"status"`
}

type ScoreResponse struct {
	MatchID   string `json:"matchId"`
	Home      int    `json:"home"`
	Away      int    `json:"away"`
	HomeCards int    `json:"homeCards"`
	AwayCards int    `json:"awayCards"`
}

type PoolResponse struct {
	MatchID       string `json:"matchId"`
	TotalPotCents int64  `json:"total_pot_cents"`
	TicketCount   int    `json:"ticket_count"`
	Locked        bool   `json:"locked"`
	Settled       bool   `json:"settled"`
}

type PlaceTicketResponse struct {
	TicketID string `json:"ticketId"`
	Status   string `json:"status"`
}

type EligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
