package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/betting"
	"github.com/radieske/liga-match-core/internal/match"
	"github.com/radieske/liga-match-core/internal/wallet"
)

// Core é a fachada in-process consumida pela camada de apresentação:
// relógio de partida, súmula, carteiras e o motor de apostas parimutuel.
// Cada dono de estado (Engine, Ledger, Book) só é mutado pelas próprias
// operações; o Core orquestra, não atravessa.
type Core struct {
	log     *zap.Logger
	Matches *match.Engine
	Wallets *wallet.Ledger
	Book    *betting.Book
	Guard   *betting.Guard

	// Hooks pra camada de serviço (Kafka, cache, WS). Disparados fora dos
	// locks dos donos de estado.
	OnLive          func(match.Snapshot)
	OnFinal         func(match.Snapshot)
	OnScore         func(match.Snapshot)
	OnTicketPlaced  func(betting.Ticket)
	OnSettled       func(betting.SettleResult)
	AutoSettleFinal bool // liquida automaticamente quando o relógio fecha
}

func New(log *zap.Logger, minWagerCents, maxWagerCents int64) *Core {
	c := &Core{
		log:     log,
		Matches: match.NewEngine(log),
		Wallets: wallet.NewLedger(),
		Book:    betting.NewBook(log, minWagerCents, maxWagerCents),
		Guard:   betting.NewGuard(),
	}
	c.Matches.OnLive = func(s match.Snapshot) {
		if c.OnLive != nil {
			c.OnLive(s)
		}
	}
	c.Matches.OnScore = func(s match.Snapshot) {
		if c.OnScore != nil {
			c.OnScore(s)
		}
	}
	c.Matches.OnFinal = func(s match.Snapshot) {
		if c.AutoSettleFinal {
			if _, err := c.SettleMatch(s.ID); err != nil {
				c.log.Error("auto settle", zap.String("matchId", s.ID), zap.Error(err))
			}
		}
		if c.OnFinal != nil {
			c.OnFinal(s)
		}
	}
	return c
}

// CreateMatch registra a partida e abre o pool de apostas correspondente.
func (c *Core) CreateMatch(leagueID, tournamentID, homeTeamID, awayTeamID string, durationSec int64) (string, error) {
	matchID, err := c.Matches.Create(leagueID, tournamentID, homeTeamID, awayTeamID, durationSec)
	if err != nil {
		return "", err
	}
	c.Book.Open(matchID)
	return matchID, nil
}

// SetMatchLive liga ou pausa o relógio. Na ida pra LIVE o pool trava ANTES
// da transição do relógio: nenhum ticket é aceito depois do instante em que
// a partida começa. Se a transição falhar, o pool só ficou travado em
// estados que já exigem trava (LIVE/FINAL), então nada é desfeito.
func (c *Core) SetMatchLive(matchID string, running bool) error {
	if running {
		if err := c.Book.Lock(matchID); err != nil {
			return err
		}
	}
	return c.Matches.SetLive(matchID, running)
}

// TickMatch avança o relógio manualmente (web de testes e relógio assistido).
func (c *Core) TickMatch(matchID string, deltaSec int64) error {
	_, err := c.Matches.Tick(matchID, deltaSec)
	return err
}

// ResetMatchClock zera o relógio e reabre a elegibilidade de apostas.
// Proibido depois da liquidação: reset apagaria uma partida já paga.
func (c *Core) ResetMatchClock(matchID string) error {
	if c.Book.IsSettled(matchID) {
		return betting.ErrAlreadySettled
	}
	if err := c.Matches.Reset(matchID); err != nil {
		return err
	}
	return c.Book.Unlock(matchID)
}

// LogMatchEvent lança um evento na súmula da partida.
func (c *Core) LogMatchEvent(matchID string, kind match.EventKind, side match.Side) (match.Event, error) {
	return c.Matches.LogEvent(matchID, kind, side)
}

// GetScore devolve o placar corrente derivado da súmula.
func (c *Core) GetScore(matchID string) (match.Score, error) {
	return c.Matches.Score(matchID)
}

// GetMatch devolve a visão corrente da partida.
func (c *Core) GetMatch(matchID string) (match.Snapshot, error) {
	return c.Matches.Snapshot(matchID)
}

// CanUserBet avalia a elegibilidade pro par partida/usuário: guard de
// apostador mais o estado do pool. A resposta espelha o que uma colocação
// faria de verdade; pool travado (partida pausada depois do início) nega
// aqui também, não só na colocação.
func (c *Core) CanUserBet(matchID, userID string) (betting.Decision, error) {
	status, err := c.Matches.Status(matchID)
	if err != nil {
		return betting.Decision{}, err
	}
	dec := c.Guard.Check(status, c.Wallets.Has(userID), userID)
	if !dec.Allowed {
		return dec, nil
	}
	snap, err := c.Book.PoolSnapshot(matchID)
	if err != nil {
		return betting.Decision{}, err
	}
	if snap.Settled {
		return betting.Decision{Closed: true, Reason: "betting closed: pool settled"}, nil
	}
	if snap.Locked {
		return betting.Decision{Closed: true, Reason: "betting closed: match already started"}, nil
	}
	return dec, nil
}

// PlaceBettingTicket valida elegibilidade e coloca o ticket, com exatamente
// um débito de carteira por colocação aceita. Negação por janela fechada
// (LIVE/FINAL/pool travado) vira ErrBettingClosed; ErrIneligibleBettor fica
// pra condição do apostador (sem carteira, excluído pela liga).
func (c *Core) PlaceBettingTicket(matchID, userID string, picks betting.Picks, wagerCents int64) (betting.Ticket, error) {
	dec, err := c.CanUserBet(matchID, userID)
	if err != nil {
		return betting.Ticket{}, err
	}
	if !dec.Allowed {
		if dec.Closed {
			return betting.Ticket{}, fmt.Errorf("%w: %s", betting.ErrBettingClosed, dec.Reason)
		}
		return betting.Ticket{}, fmt.Errorf("%w: %s", betting.ErrIneligibleBettor, dec.Reason)
	}

	t, err := c.Book.Place(matchID, userID, picks, wagerCents, func(uid string, amount int64, ref string) error {
		_, derr := c.Wallets.Debit(uid, amount, ref)
		return derr
	})
	if err != nil {
		return betting.Ticket{}, err
	}

	c.log.Info("ticket placed",
		zap.String("ticketId", t.ID),
		zap.String("matchId", matchID),
		zap.String("userId", userID),
		zap.Int64("wagerCents", wagerCents),
	)
	if c.OnTicketPlaced != nil {
		c.OnTicketPlaced(t)
	}
	return t, nil
}

// GetMatchPool devolve o agregado derivado do pool.
func (c *Core) GetMatchPool(matchID string) (betting.Snapshot, error) {
	return c.Book.PoolSnapshot(matchID)
}

// GetOdds devolve o quadro de odds dinâmicas (display only).
func (c *Core) GetOdds(matchID string) (betting.Board, error) {
	return c.Book.Odds(matchID)
}

// GetTicket devolve uma cópia do ticket por ID.
func (c *Core) GetTicket(ticketID string) (betting.Ticket, error) {
	return c.Book.Ticket(ticketID)
}

// AddToWallet credita (delta positivo) ou debita (negativo) a carteira.
func (c *Core) AddToWallet(userID string, deltaCents int64) (int64, error) {
	if deltaCents >= 0 {
		return c.Wallets.Deposit(userID, deltaCents, "manual")
	}
	return c.Wallets.Debit(userID, -deltaCents, "manual")
}

// GetWalletBalance devolve o saldo em centavos.
func (c *Core) GetWalletBalance(userID string) (int64, error) {
	return c.Wallets.Balance(userID)
}

// SettleMatch liquida o pool contra o placar final. Exige relógio FINAL;
// idempotente (segunda chamada devolve ErrAlreadySettled sem efeito).
func (c *Core) SettleMatch(matchID string) (betting.SettleResult, error) {
	snap, err := c.Matches.Snapshot(matchID)
	if err != nil {
		return betting.SettleResult{}, err
	}
	if snap.Status != match.StatusFinal {
		return betting.SettleResult{}, fmt.Errorf("%w: match status %s", betting.ErrNotFinal, snap.Status)
	}

	out := betting.OutcomeFromScore(snap.Score.HomeGoals, snap.Score.AwayGoals)
	res, err := c.Book.Settle(matchID, out, func(uid string, amount int64, ref string) error {
		_, cerr := c.Wallets.Credit(uid, amount, ref)
		return cerr
	})
	if err != nil {
		return betting.SettleResult{}, err
	}

	if c.OnSettled != nil {
		c.OnSettled(res)
	}
	return res, nil
}
