package match

import "errors"

// Status do ciclo de vida da partida. Conjunto fechado: todo switch sobre
// Status deve tratar os quatro valores.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusPaused    Status = "PAUSED"
	StatusFinal     Status = "FINAL"
)

var ErrInvalidTransition = errors.New("invalid clock transition")

// Clock é a máquina de estados do relógio de jogo.
// Invariante: 0 <= elapsed <= duration; ao atingir duration o relógio congela
// e a partida vira FINAL. Não é thread-safe; o Engine serializa o acesso.
type Clock struct {
	durationSec int64
	elapsedSec  int64
	status      Status
}

func NewClock(durationSec int64) *Clock {
	return &Clock{durationSec: durationSec, status: StatusScheduled}
}

func (c *Clock) Status() Status     { return c.status }
func (c *Clock) ElapsedSec() int64  { return c.elapsedSec }
func (c *Clock) DurationSec() int64 { return c.durationSec }
func (c *Clock) Running() bool      { return c.status == StatusLive }

// Start coloca o relógio em LIVE. Permitido só a partir de SCHEDULED ou
// PAUSED com tempo restante.
func (c *Clock) Start() error {
	switch c.status {
	case StatusScheduled, StatusPaused:
		if c.elapsedSec >= c.durationSec {
			return ErrInvalidTransition
		}
		c.status = StatusLive
		return nil
	case StatusLive, StatusFinal:
		return ErrInvalidTransition
	}
	return ErrInvalidTransition
}

// Pause congela o relógio preservando o tempo decorrido.
func (c *Clock) Pause() error {
	if c.status != StatusLive {
		return ErrInvalidTransition
	}
	c.status = StatusPaused
	return nil
}

// Tick avança o relógio em deltaSec. No-op fora de LIVE (ticks atrasados após
// pause/final são engolidos, não são erro). Retorna true se a partida fechou
// nesta chamada: elapsed foi clampado em duration e o status virou FINAL.
func (c *Clock) Tick(deltaSec int64) bool {
	if c.status != StatusLive || deltaSec <= 0 {
		return false
	}
	c.elapsedSec += deltaSec
	if c.elapsedSec >= c.durationSec {
		c.elapsedSec = c.durationSec
		c.status = StatusFinal
		return true
	}
	return false
}

// Reset volta o relógio a zero e o status a SCHEDULED, de qualquer estado.
// A proteção contra reset de partida já liquidada fica na camada de cima,
// que conhece o estado do pool de apostas.
func (c *Clock) Reset() {
	c.elapsedSec = 0
	c.status = StatusScheduled
}
