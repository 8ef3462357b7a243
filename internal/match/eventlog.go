package match

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de evento de partida. Conjunto fechado.
type EventKind string

const (
	EventGoal       EventKind = "GOAL"
	EventYellowCard EventKind = "YELLOW_CARD"
	EventRedCard    EventKind = "RED_CARD"
)

type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

// Event é uma ocorrência registrada na súmula da partida.
// Imutável depois de anexado; a única garantia de ordem é a de inserção.
type Event struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	Kind      EventKind `json:"kind"`
	Side      Side      `json:"side"`
	Minute    int       `json:"minute"`
	CreatedAt time.Time `json:"created_at"`
}

// EventLog é a súmula append-only de uma partida. O append é incondicional:
// eventos podem ser registrados com a partida pausada ou ainda não iniciada,
// espelhando o fluxo de súmula manual. Não é thread-safe; o Engine serializa.
type EventLog struct {
	events []Event
}

func NewEventLog() *EventLog { return &EventLog{} }

func (l *EventLog) Append(matchID string, kind EventKind, side Side, minute int) Event {
	ev := Event{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		Kind:      kind,
		Side:      side,
		Minute:    minute,
		CreatedAt: time.Now(),
	}
	l.events = append(l.events, ev)
	return ev
}

// Events retorna uma cópia da súmula na ordem de inserção.
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Score é o placar derivado da súmula.
type Score struct {
	HomeGoals       int `json:"home_goals"`
	AwayGoals       int `json:"away_goals"`
	HomeYellowCards int `json:"home_yellow_cards"`
	HomeRedCards    int `json:"home_red_cards"`
	AwayYellowCards int `json:"away_yellow_cards"`
	AwayRedCards    int `json:"away_red_cards"`
}

func (s Score) HomeCards() int { return s.HomeYellowCards + s.HomeRedCards }
func (s Score) AwayCards() int { return s.AwayYellowCards + s.AwayRedCards }

// Score refaz o fold sobre a súmula a cada leitura. Sem cache: não existe
// estado derivado pra invalidar errado.
func (l *EventLog) Score() Score {
	var s Score
	for _, ev := range l.events {
		home := ev.Side == SideHome
		switch ev.Kind {
		case EventGoal:
			if home {
				s.HomeGoals++
			} else {
				s.AwayGoals++
			}
		case EventYellowCard:
			if home {
				s.HomeYellowCards++
			} else {
				s.AwayYellowCards++
			}
		case EventRedCard:
			if home {
				s.HomeRedCards++
			} else {
				s.AwayRedCards++
			}
		}
	}
	return s
}

// ValidEventKind informa se o kind pertence ao conjunto aceito pela súmula.
func ValidEventKind(k EventKind) bool {
	switch k {
	case EventGoal, EventYellowCard, EventRedCard:
		return true
	}
	return false
}

// ValidSide informa se o lado é HOME ou AWAY.
func ValidSide(s Side) bool {
	return s == SideHome || s == SideAway
}
