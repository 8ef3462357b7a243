package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/betting"
	"github.com/radieske/liga-match-core/internal/core"
	"github.com/radieske/liga-match-core/internal/match"
	"github.com/radieske/liga-match-core/internal/match-service/dto"
	"github.com/radieske/liga-match-core/internal/wallet"
)

// Server expõe a API REST do núcleo de partida/apostas pra camada de
// apresentação (app mobile e dashboards).
type Server struct {
	log  *zap.Logger
	core *core.Core
}

func NewServer(log *zap.Logger, c *core.Core) *Server {
	return &Server{log: log, core: c}
}

// Router retorna o roteador HTTP com as rotas da API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/matches", s.createMatch)
	r.Get("/v1/matches/{id}", s.getMatch)
	r.Post("/v1/matches/{id}/live", s.setLive)
	r.Post("/v1/matches/{id}/tick", s.tick)
	r.Post("/v1/matches/{id}/reset", s.resetClock)
	r.Post("/v1/matches/{id}/events", s.logEvent)
	r.Get("/v1/matches/{id}/score", s.getScore)
	r.Get("/v1/matches/{id}/pool", s.getPool)
	r.Get("/v1/matches/{id}/odds", s.getOdds)
	r.Post("/v1/matches/{id}/settle", s.settle)

	r.Post("/v1/tickets", s.placeTicket)
	r.Get("/v1/tickets/{id}", s.getTicket)
	r.Get("/v1/eligibility", s.eligibility) // ?matchId=...&userId=...

	r.Get("/v1/wallet", s.getWallet) // ?userId=...
	r.Post("/v1/wallet/deposit", s.deposit)

	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr mapeia a taxonomia de erros do núcleo pra códigos HTTP.
// Tudo recuperável: nunca derruba o processo.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, match.ErrNotFound),
		errors.Is(err, betting.ErrPoolNotFound),
		errors.Is(err, betting.ErrTicketNotFound),
		errors.Is(err, wallet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, betting.ErrInvalidTicket),
		errors.Is(err, match.ErrBadInput),
		errors.Is(err, match.ErrInvalidEvent),
		errors.Is(err, wallet.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, betting.ErrBettingClosed),
		errors.Is(err, betting.ErrIneligibleBettor),
		errors.Is(err, betting.ErrAlreadySettled),
		errors.Is(err, betting.ErrNotFinal),
		errors.Is(err, match.ErrInvalidTransition),
		errors.Is(err, wallet.ErrInsufficientFunds):
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	matchID, err := s.core.CreateMatch(req.LeagueID, req.TournamentID, req.HomeTeamID, req.AwayTeamID, req.DurationSec)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.CreateMatchResponse{
		MatchID: matchID,
		Status:  string(match.StatusScheduled),
	})
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	snap, err := s.core.GetMatch(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) setLive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetLiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if err := s.core.SetMatchLive(chi.URLParam(r, "id"), req.Running); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	var req dto.TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.DeltaSec <= 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "delta_sec must be positive"})
		return
	}
	if err := s.core.TickMatch(chi.URLParam(r, "id"), req.DeltaSec); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) resetClock(w http.ResponseWriter, r *http.Request) {
	if err := s.core.ResetMatchClock(chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"RESET"}`))
}

func (s *Server) logEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.LogEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	ev, err := s.core.LogMatchEvent(chi.URLParam(r, "id"), match.EventKind(req.Kind), match.Side(req.Side))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) getScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sc, err := s.core.GetScore(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ScoreResponse{
		MatchID:   id,
		Home:      sc.HomeGoals,
		Away:      sc.AwayGoals,
		HomeCards: sc.HomeCards(),
		AwayCards: sc.AwayCards(),
	})
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	snap, err := s.core.GetMatchPool(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PoolResponse{
		MatchID:       snap.MatchID,
		TotalPotCents: snap.TotalPotCents,
		TicketCount:   snap.TicketCount,
		Locked:        snap.Locked,
		Settled:       snap.Settled,
	})
}

func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	board, err := s.core.GetOdds(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	res, err := s.core.SettleMatch(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) placeTicket(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.MatchID == "" || req.UserID == "" || req.WagerCents <= 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}
	picks := betting.Picks{
		Outcome:    betting.OutcomePick(req.Outcome),
		TotalGoals: betting.TotalsPick(req.TotalGoals),
		BothScore:  betting.BTTSPick(req.BothScore),
	}
	t, err := s.core.PlaceBettingTicket(req.MatchID, req.UserID, picks, req.WagerCents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlaceTicketResponse{
		TicketID: t.ID,
		Status:   string(t.Status),
	})
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.core.GetTicket(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) eligibility(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("matchId")
	userID := r.URL.Query().Get("userId")
	if matchID == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "matchId and userId required"})
		return
	}
	dec, err := s.core.CanUserBet(matchID, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.EligibilityResponse{Allowed: dec.Allowed, Reason: dec.Reason})
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "userId required"})
		return
	}
	bal, err := s.core.GetWalletBalance(userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{UserID: userID, BalanceCents: bal})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	if req.UserID == "" || req.DeltaCents == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}
	bal, err := s.core.AddToWallet(req.UserID, req.DeltaCents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{UserID: req.UserID, BalanceCents: bal})
}
