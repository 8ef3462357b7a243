package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("match not found")
	ErrBadInput     = errors.New("invalid match input")
	ErrInvalidEvent = errors.New("invalid match event")
)

// Match agrega identidade, relógio e súmula. O mutex serializa qualquer
// acesso a clock/log; o tick periódico e as chamadas da API disputam o
// mesmo lock, então o tempo nunca avança em corrida com start/pause/reset.
type Match struct {
	ID           string
	LeagueID     string
	TournamentID string
	HomeTeamID   string
	AwayTeamID   string
	CreatedAt    time.Time

	mu         sync.Mutex
	clock      *Clock
	log        *EventLog
	cancelTick context.CancelFunc // nil quando não há loop de tick ativo
}

// Snapshot é a visão imutável de uma partida, lida sob o lock.
type Snapshot struct {
	ID           string `json:"id"`
	LeagueID     string `json:"league_id"`
	TournamentID string `json:"tournament_id"`
	HomeTeamID   string `json:"home_team_id"`
	AwayTeamID   string `json:"away_team_id"`
	Status       Status `json:"status"`
	ElapsedSec   int64  `json:"elapsed_sec"`
	DurationSec  int64  `json:"duration_sec"`
	Score        Score  `json:"score"`
}

// Engine é o dono do estado das partidas: registro, relógio e súmula.
// Nenhum outro componente muta tempo decorrido ou eventos diretamente.
type Engine struct {
	log *zap.Logger

	mu      sync.RWMutex
	matches map[string]*Match

	tickInterval time.Duration

	// Hooks disparados fora do lock da partida; a camada de serviço usa
	// pra publicar no Kafka, cachear placar e acionar a liquidação.
	OnLive  func(Snapshot)
	OnFinal func(Snapshot)
	OnScore func(Snapshot)
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		log:          log,
		matches:      make(map[string]*Match),
		tickInterval: time.Second,
	}
}

// SetTickInterval ajusta o intervalo do tick automático (testes usam
// intervalos curtos). Deve ser chamado antes de qualquer partida ir a LIVE.
func (e *Engine) SetTickInterval(d time.Duration) { e.tickInterval = d }

// Create registra uma nova partida SCHEDULED e retorna o matchID.
func (e *Engine) Create(leagueID, tournamentID, homeTeamID, awayTeamID string, durationSec int64) (string, error) {
	if homeTeamID == "" || awayTeamID == "" || durationSec <= 0 {
		return "", ErrBadInput
	}
	m := &Match{
		ID:           uuid.NewString(),
		LeagueID:     leagueID,
		TournamentID: tournamentID,
		HomeTeamID:   homeTeamID,
		AwayTeamID:   awayTeamID,
		CreatedAt:    time.Now(),
		clock:        NewClock(durationSec),
		log:          NewEventLog(),
	}
	e.mu.Lock()
	e.matches[m.ID] = m
	e.mu.Unlock()
	return m.ID, nil
}

func (e *Engine) get(matchID string) (*Match, error) {
	e.mu.RLock()
	m, ok := e.matches[matchID]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func snapshotLocked(m *Match) Snapshot {
	return Snapshot{
		ID:           m.ID,
		LeagueID:     m.LeagueID,
		TournamentID: m.TournamentID,
		HomeTeamID:   m.HomeTeamID,
		AwayTeamID:   m.AwayTeamID,
		Status:       m.clock.Status(),
		ElapsedSec:   m.clock.ElapsedSec(),
		DurationSec:  m.clock.DurationSec(),
		Score:        m.log.Score(),
	}
}

// SetLive liga (running=true) ou pausa (running=false) o relógio.
// Ao entrar em LIVE, sobe o loop de tick da partida; ao pausar, o loop é
// cancelado incondicionalmente antes de liberar o lock.
func (e *Engine) SetLive(matchID string, running bool) error {
	m, err := e.get(matchID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if running {
		if err := m.clock.Start(); err != nil {
			m.mu.Unlock()
			return err
		}
		if m.cancelTick == nil {
			ctx, cancel := context.WithCancel(context.Background())
			m.cancelTick = cancel
			go e.runTicker(ctx, matchID)
		}
	} else {
		if err := m.clock.Pause(); err != nil {
			m.mu.Unlock()
			return err
		}
		m.stopTickerLocked()
	}
	snap := snapshotLocked(m)
	m.mu.Unlock()

	if running && e.OnLive != nil {
		e.OnLive(snap)
	}
	return nil
}

// stopTickerLocked cancela o loop de tick. Chamar com m.mu em mãos.
func (m *Match) stopTickerLocked() {
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
}

// runTicker dirige o relógio com ticks de 1 segundo. Um único loop por
// partida; o cancelamento via contexto é imediato e um tick já agendado
// não aplica depois do cancel (o Tick sob lock re-checa o status LIVE).
func (e *Engine) runTicker(ctx context.Context, matchID string) {
	t := time.NewTicker(e.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			final, err := e.Tick(matchID, 1)
			if err != nil || final {
				return
			}
		}
	}
}

// Tick avança o relógio da partida. Fora de LIVE é no-op silencioso.
// Retorna true quando a partida fechou nesta chamada; o hook OnFinal
// dispara exatamente uma vez, fora do lock.
func (e *Engine) Tick(matchID string, deltaSec int64) (bool, error) {
	m, err := e.get(matchID)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	final := m.clock.Tick(deltaSec)
	if final {
		m.stopTickerLocked()
	}
	snap := snapshotLocked(m)
	m.mu.Unlock()

	if final {
		e.log.Info("match final",
			zap.String("matchId", matchID),
			zap.Int64("elapsedSec", snap.ElapsedSec),
		)
		if e.OnFinal != nil {
			e.OnFinal(snap)
		}
	}
	return final, nil
}

// Reset zera o relógio e volta a SCHEDULED, cancelando o tick ativo.
// A súmula é preservada; quem decide se o reset é permitido (partida já
// liquidada) é a camada de cima.
func (e *Engine) Reset(matchID string) error {
	m, err := e.get(matchID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.stopTickerLocked()
	m.clock.Reset()
	m.mu.Unlock()
	return nil
}

// LogEvent anexa um evento à súmula. Sem validação contra o estado do
// relógio: súmula aceita lançamentos com partida pausada ou não iniciada.
// O minuto é derivado do tempo decorrido no momento do lançamento.
func (e *Engine) LogEvent(matchID string, kind EventKind, side Side) (Event, error) {
	if !ValidEventKind(kind) || !ValidSide(side) {
		return Event{}, ErrInvalidEvent
	}
	m, err := e.get(matchID)
	if err != nil {
		return Event{}, err
	}

	m.mu.Lock()
	minute := int(m.clock.ElapsedSec() / 60)
	ev := m.log.Append(matchID, kind, side, minute)
	snap := snapshotLocked(m)
	m.mu.Unlock()

	if e.OnScore != nil {
		e.OnScore(snap)
	}
	return ev, nil
}

// Score devolve o placar corrente, recalculado da súmula.
func (e *Engine) Score(matchID string) (Score, error) {
	m, err := e.get(matchID)
	if err != nil {
		return Score{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Score(), nil
}

// Events devolve a súmula completa na ordem de inserção.
func (e *Engine) Events(matchID string) ([]Event, error) {
	m, err := e.get(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Events(), nil
}

// Snapshot devolve a visão corrente da partida.
func (e *Engine) Snapshot(matchID string) (Snapshot, error) {
	m, err := e.get(matchID)
	if err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshotLocked(m), nil
}

// Status devolve só o status do relógio.
func (e *Engine) Status(matchID string) (Status, error) {
	snap, err := e.Snapshot(matchID)
	if err != nil {
		return "", err
	}
	return snap.Status, nil
}
