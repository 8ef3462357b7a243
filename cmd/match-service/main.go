package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/betting"
	"github.com/radieske/liga-match-core/internal/core"
	"github.com/radieske/liga-match-core/internal/match"
	mcache "github.com/radieske/liga-match-core/internal/match-service/cache"
	mhttp "github.com/radieske/liga-match-core/internal/match-service/http"
	kpub "github.com/radieske/liga-match-core/internal/match-service/producer"
	"github.com/radieske/liga-match-core/internal/match-service/ws"
	sharedcache "github.com/radieske/liga-match-core/internal/shared/cache"
	"github.com/radieske/liga-match-core/internal/shared/config"
	skafka "github.com/radieske/liga-match-core/internal/shared/kafka"
	"github.com/radieske/liga-match-core/internal/shared/logger"
	"github.com/radieske/liga-match-core/internal/shared/metrics"
	ev "github.com/radieske/liga-match-core/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("match-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis: cache de placar + pub/sub pro WS
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()
	scoreCache := mcache.NewRedisCache(rdb, 60*time.Second)

	// Kafka writers por tópico de ciclo de vida
	publ := &kpub.KafkaPublisher{
		MatchLive:     skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchLive),
		MatchFinal:    skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchFinal),
		TicketPlaced:  skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlaced),
		TicketSettled: skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketSettled),
	}
	defer publ.MatchLive.Close()
	defer publ.MatchFinal.Close()
	defer publ.TicketPlaced.Close()
	defer publ.TicketSettled.Close()

	// Métricas Prometheus
	ticketsPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "match_tickets_placed_total", Help: "tickets aceitos"})
	settlements := prometheus.NewCounter(prometheus.CounterOpts{Name: "match_settlements_total", Help: "pools liquidados"})
	payoutCents := prometheus.NewCounter(prometheus.CounterOpts{Name: "match_payout_cents_total", Help: "centavos pagos em payouts"})
	matchesFinal := prometheus.NewCounter(prometheus.CounterOpts{Name: "match_finals_total", Help: "partidas encerradas"})
	prometheus.MustRegister(ticketsPlaced, settlements, payoutCents, matchesFinal)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Núcleo: relógio, súmula, carteiras e pool parimutuel
	c := core.New(log, cfg.MinWagerCents, cfg.MaxWagerCents)
	c.AutoSettleFinal = true

	broadcast := func(matchID, kind string, payload any) {
		b, _ := json.Marshal(payload)
		upd := ws.MatchUpdate{MatchID: matchID, Kind: kind, Payload: b}
		body, _ := json.Marshal(upd)
		pctx, pcancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer pcancel()
		if err := rdb.Publish(pctx, cfg.RedisPubSubChannel, body).Err(); err != nil {
			log.Warn("ws broadcast publish failed", zap.Error(err))
		}
	}

	scoreUpdate := func(s match.Snapshot) ev.ScoreUpdate {
		return ev.ScoreUpdate{
			MatchID:    s.ID,
			HomeGoals:  s.Score.HomeGoals,
			AwayGoals:  s.Score.AwayGoals,
			HomeCards:  s.Score.HomeCards(),
			AwayCards:  s.Score.AwayCards(),
			ElapsedSec: s.ElapsedSec,
			Status:     string(s.Status),
			UpdatedAt:  time.Now(),
		}
	}

	c.OnLive = func(s match.Snapshot) {
		pctx, pcancel := context.WithTimeout(context.Background(), time.Second)
		defer pcancel()
		if err := publ.PublishMatchLive(pctx, ev.MatchWentLive{
			MatchID:    s.ID,
			LeagueID:   s.LeagueID,
			HomeTeamID: s.HomeTeamID,
			AwayTeamID: s.AwayTeamID,
			ElapsedSec: s.ElapsedSec,
		}); err != nil {
			log.Warn("publish match_live", zap.Error(err))
		}
		broadcast(s.ID, "live", s)
	}

	c.OnScore = func(s match.Snapshot) {
		pctx, pcancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer pcancel()
		if err := scoreCache.SetCurrent(pctx, scoreUpdate(s)); err != nil {
			log.Warn("score cache set", zap.Error(err))
		}
		broadcast(s.ID, "score", scoreUpdate(s))
	}

	c.OnFinal = func(s match.Snapshot) {
		matchesFinal.Inc()
		pctx, pcancel := context.WithTimeout(context.Background(), time.Second)
		defer pcancel()
		if err := publ.PublishMatchFinal(pctx, ev.MatchFinal{
			MatchID:    s.ID,
			HomeGoals:  s.Score.HomeGoals,
			AwayGoals:  s.Score.AwayGoals,
			ElapsedSec: s.ElapsedSec,
		}); err != nil {
			log.Warn("publish match_final", zap.Error(err))
		}
		broadcast(s.ID, "final", s)
	}

	c.OnTicketPlaced = func(t betting.Ticket) {
		ticketsPlaced.Inc()
		pctx, pcancel := context.WithTimeout(context.Background(), time.Second)
		defer pcancel()
		if err := publ.PublishTicketPlaced(pctx, ev.TicketPlaced{
			TicketID:   t.ID,
			MatchID:    t.MatchID,
			UserID:     t.UserID,
			Outcome:    string(t.Picks.Outcome),
			TotalGoals: string(t.Picks.TotalGoals),
			BothScore:  string(t.Picks.BothScore),
			WagerCents: t.WagerCents,
		}); err != nil {
			log.Warn("publish ticket_placed", zap.Error(err))
		}
	}

	c.OnSettled = func(res betting.SettleResult) {
		settlements.Inc()
		payoutCents.Add(float64(res.PaidCents))
		snap, _ := c.GetMatch(res.MatchID)
		for _, t := range res.SettledTickets {
			pctx, pcancel := context.WithTimeout(context.Background(), time.Second)
			err := publ.PublishTicketSettled(pctx, ev.TicketSettled{
				TicketID:    t.ID,
				MatchID:     t.MatchID,
				UserID:      t.UserID,
				Status:      string(t.Status),
				WagerCents:  t.WagerCents,
				PayoutCents: t.PayoutCents,
				HomeGoals:   snap.Score.HomeGoals,
				AwayGoals:   snap.Score.AwayGoals,
			})
			pcancel()
			if err != nil {
				log.Warn("publish ticket_settled", zap.String("ticketId", t.ID), zap.Error(err))
			}
		}
		broadcast(res.MatchID, "settled", res)
	}

	// WS hub alimentado pelo Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := mhttp.NewServer(log, c)
	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)
	apiSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return rdb.Ping(hctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = apiSrv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("match-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
