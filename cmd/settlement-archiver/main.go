package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/settlement-archiver/consumer"
	"github.com/radieske/liga-match-core/internal/settlement-archiver/repo"
	"github.com/radieske/liga-match-core/internal/shared/config"
	"github.com/radieske/liga-match-core/internal/shared/db"
	skafka "github.com/radieske/liga-match-core/internal/shared/kafka"
	"github.com/radieske/liga-match-core/internal/shared/logger"
	"github.com/radieske/liga-match-core/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-archiver", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres para o arquivo de liquidações
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer (consumer group settlement-archiver)
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicTicketSettled, "settlement-archiver")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicTicketSettledDLQ != "" {
		dlqWriter = skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketSettledDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do arquivamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_arch_messages_consumed_total", Help: "mensagens consumidas"})
	archived := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_arch_tickets_archived_total", Help: "tickets persistidos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settle_arch_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, archived, errorsBy)

	arch := &consumer.Archiver{
		Log:        log,
		Reader:     reader,
		Repo:       repo.NewPostgres(pg),
		DLQ:        dlqWriter,
		OnConsumed: func() { consumed.Inc() },
		OnArchived: func() { archived.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return pg.PingContext(hctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-archiver started",
		zap.String("consume", cfg.TopicTicketSettled),
		zap.String("dlq", cfg.TopicTicketSettledDLQ),
	)
	if err := arch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("archiver stopped with error", zap.Error(err))
	}
	log.Info("settlement-archiver stopped")
}
