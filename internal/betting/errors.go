package betting

import "errors"

// Taxonomia de erros do motor de apostas. Todos recuperáveis: uma colocação
// que falha deixa carteira e pool intactos.
var (
	ErrInvalidTicket    = errors.New("invalid ticket")
	ErrBettingClosed    = errors.New("betting closed")
	ErrIneligibleBettor = errors.New("ineligible bettor")
	ErrAlreadySettled   = errors.New("match already settled")
	ErrPoolNotFound     = errors.New("pool not found")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrNotFinal         = errors.New("match outcome not final")
)
