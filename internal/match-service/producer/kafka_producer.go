package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/liga-match-core/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de ciclo de vida de partida e aposta.
// Um writer por tópico, injetados pelo main do serviço.
type KafkaPublisher struct {
	MatchLive     *kafka.Writer
	MatchFinal    *kafka.Writer
	TicketPlaced  *kafka.Writer
	TicketSettled *kafka.Writer
}

func write(ctx context.Context, w *kafka.Writer, key string, v any) error {
	if w == nil {
		return nil
	}
	b, _ := json.Marshal(v)
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

func (p *KafkaPublisher) PublishMatchLive(ctx context.Context, e events.MatchWentLive) error {
	e.Ts = time.Now()
	return write(ctx, p.MatchLive, e.MatchID, e)
}

func (p *KafkaPublisher) PublishMatchFinal(ctx context.Context, e events.MatchFinal) error {
	e.Ts = time.Now()
	return write(ctx, p.MatchFinal, e.MatchID, e)
}

func (p *KafkaPublisher) PublishTicketPlaced(ctx context.Context, e events.TicketPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.TicketPlaced, e.MatchID, e)
}

func (p *KafkaPublisher) PublishTicketSettled(ctx context.Context, e events.TicketSettled) error {
	e.Ts = time.Now()
	return write(ctx, p.TicketSettled, e.TicketID, e)
}
