package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/liga-match-core/pkg/contracts/events"
)

// Postgres implementa a persistência de tickets liquidados
// DB: conexão com o banco de dados
type Postgres struct {
	DB *sql.DB
}

// NewPostgres retorna uma instância do repositório de liquidações
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// UpsertSettledTicket insere ou atualiza um ticket liquidado
// ON CONFLICT por ticket_id: reprocessar o mesmo evento é idempotente
func (r *Postgres) UpsertSettledTicket(ctx context.Context, e events.TicketSettled) error {
	const q = `
		INSERT INTO settled_tickets
		  (ticket_id, match_id, user_id, status, wager_cents, payout_cents, settled_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (ticket_id) DO UPDATE SET
		  status       = EXCLUDED.status,
		  payout_cents = EXCLUDED.payout_cents,
		  settled_at   = EXCLUDED.settled_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		e.TicketID, e.MatchID, e.UserID, e.Status,
		e.WagerCents, e.PayoutCents, e.Ts,
	)
	return err
}

// UpsertMatchResult grava o placar final da partida (uma linha por partida)
func (r *Postgres) UpsertMatchResult(ctx context.Context, e events.TicketSettled) error {
	const q = `
		INSERT INTO match_results (match_id, home_goals, away_goals, settled_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (match_id) DO UPDATE SET
		  home_goals = EXCLUDED.home_goals,
		  away_goals = EXCLUDED.away_goals,
		  settled_at = EXCLUDED.settled_at
	`
	_, err := r.DB.ExecContext(ctx, q, e.MatchID, e.HomeGoals, e.AwayGoals, e.Ts)
	return err
}
