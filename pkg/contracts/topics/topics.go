package topics

const (
	// Ciclo de vida da partida
	MatchLive  = "match_live"
	MatchFinal = "match_final"

	// Apostas
	TicketPlaced  = "ticket_placed"
	TicketSettled = "ticket_settled"

	// DLQs
	TicketSettledDLQ = "ticket_settled_dlq"
)
