package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/settlement-archiver/repo"
	"github.com/radieske/liga-match-core/pkg/contracts/events"
)

// Archiver consome eventos ticket_settled do Kafka e persiste no Postgres
// Mensagens inválidas ou com falha persistente vão pra DLQ
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Archiver struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repo.Postgres
	DLQ    *kafka.Writer // opcional

	OnConsumed func()       // métricas (counter++)
	OnArchived func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e arquivamento
func (a *Archiver) Run(ctx context.Context) error {
	for {
		m, err := a.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			a.Log.Warn("kafka read failed", zap.Error(err))
			if a.OnError != nil {
				a.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if a.OnConsumed != nil {
			a.OnConsumed()
		}

		var ev events.TicketSettled
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			a.Log.Warn("invalid message", zap.Error(err))
			if a.OnError != nil {
				a.OnError("decode")
			}
			a.toDLQ(ctx, m)
			continue
		}

		if err := a.archiveOne(ctx, ev); err != nil {
			a.Log.Warn("archive failed", zap.String("ticketId", ev.TicketID), zap.Error(err))
			if a.OnError != nil {
				a.OnError("db")
			}
			a.toDLQ(ctx, m)
			continue
		}
		if a.OnArchived != nil {
			a.OnArchived()
		}
	}
}

// archiveOne persiste ticket e resultado com retry simples antes da DLQ
func (a *Archiver) archiveOne(ctx context.Context, ev events.TicketSettled) error {
	const retries = 3
	var err error
	for i := 0; i < retries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(300*i) * time.Millisecond)
		}
		if err = a.Repo.UpsertSettledTicket(ctx, ev); err != nil {
			continue
		}
		if err = a.Repo.UpsertMatchResult(ctx, ev); err != nil {
			continue
		}
		return nil
	}
	return err
}

func (a *Archiver) toDLQ(ctx context.Context, m kafka.Message) {
	if a.DLQ == nil {
		return
	}
	if err := a.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); err != nil {
		a.Log.Error("dlq write failed", zap.Error(err))
	}
}
