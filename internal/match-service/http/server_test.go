package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/liga-match-core/internal/core"
	"github.com/radieske/liga-match-core/internal/match-service/dto"
)

func newTestServer(t *testing.T) (*httptest.Server, *core.Core) {
	t.Helper()
	c := core.New(zap.NewNop(), 100, 10000)
	c.Matches.SetTickInterval(time.Hour)
	srv := httptest.NewServer(NewServer(zap.NewNop(), c).Router())
	t.Cleanup(srv.Close)
	return srv, c
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCreateAndFetchMatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/matches", dto.CreateMatchRequest{
		LeagueID: "liga-1", TournamentID: "copa", HomeTeamID: "a", AwayTeamID: "b", DurationSec: 1800,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	created := decode[dto.CreateMatchResponse](t, resp)
	if created.MatchID == "" || created.Status != "SCHEDULED" {
		t.Fatalf("create body: %+v", created)
	}

	if resp, _ := http.Get(srv.URL + "/v1/matches/" + created.MatchID); resp.StatusCode != http.StatusOK {
		t.Fatalf("get match: status %d", resp.StatusCode)
	}
	if resp, _ := http.Get(srv.URL + "/v1/matches/nope"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown match must 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/v1/matches", dto.CreateMatchRequest{
		LeagueID: "liga-1", HomeTeamID: "", AwayTeamID: "b", DurationSec: 1800,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid create must 400, got %d", resp.StatusCode)
	}
}

func TestTicketPlacementOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[dto.CreateMatchResponse](t, postJSON(t, srv.URL+"/v1/matches", dto.CreateMatchRequest{
		LeagueID: "liga-1", TournamentID: "copa", HomeTeamID: "a", AwayTeamID: "b", DurationSec: 1800,
	}))

	// sem carteira: 409
	resp := postJSON(t, srv.URL+"/v1/tickets", dto.PlaceTicketRequest{
		MatchID: created.MatchID, UserID: "u1",
		Outcome: "HOME", TotalGoals: "OVER", BothScore: "YES", WagerCents: 500,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("no-wallet placement must 409, got %d", resp.StatusCode)
	}

	wallet := decode[dto.WalletResponse](t, postJSON(t, srv.URL+"/v1/wallet/deposit", dto.DepositRequest{
		UserID: "u1", DeltaCents: 2000,
	}))
	if wallet.BalanceCents != 2000 {
		t.Fatalf("deposit: %+v", wallet)
	}

	elig := decode[dto.EligibilityResponse](t, mustGet(t, srv.URL+"/v1/eligibility?matchId="+created.MatchID+"&userId=u1"))
	if !elig.Allowed {
		t.Fatalf("eligibility: %+v", elig)
	}

	resp = postJSON(t, srv.URL+"/v1/tickets", dto.PlaceTicketRequest{
		MatchID: created.MatchID, UserID: "u1",
		Outcome: "HOME", TotalGoals: "OVER", BothScore: "YES", WagerCents: 500,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place: status %d", resp.StatusCode)
	}
	placed := decode[dto.PlaceTicketResponse](t, resp)
	if placed.TicketID == "" || placed.Status != "PENDING" {
		t.Fatalf("place body: %+v", placed)
	}

	pool := decode[dto.PoolResponse](t, mustGet(t, srv.URL+"/v1/matches/"+created.MatchID+"/pool"))
	if pool.TotalPotCents != 500 || pool.TicketCount != 1 {
		t.Fatalf("pool: %+v", pool)
	}

	// palpite fora do conjunto fechado: 400
	resp = postJSON(t, srv.URL+"/v1/tickets", dto.PlaceTicketRequest{
		MatchID: created.MatchID, UserID: "u1",
		Outcome: "BANANA", TotalGoals: "OVER", BothScore: "YES", WagerCents: 500,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid pick must 400, got %d", resp.StatusCode)
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[dto.CreateMatchResponse](t, postJSON(t, srv.URL+"/v1/matches", dto.CreateMatchRequest{
		LeagueID: "liga-1", TournamentID: "copa", HomeTeamID: "a", AwayTeamID: "b", DurationSec: 120,
	}))
	id := created.MatchID

	// liquidar antes do FINAL: 409
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/settle", struct{}{}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("settle before final must 409, got %d", resp.StatusCode)
	}

	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/live", dto.SetLiveRequest{Running: true}); resp.StatusCode != http.StatusOK {
		t.Fatalf("set live: %d", resp.StatusCode)
	}
	// start em partida já LIVE: transição inválida vira 409
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/live", dto.SetLiveRequest{Running: true}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("double start must 409, got %d", resp.StatusCode)
	}

	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/events", dto.LogEventRequest{Kind: "GOAL", Side: "HOME"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("log event: %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/events", dto.LogEventRequest{Kind: "OWN_GOAL", Side: "HOME"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid event kind must 400, got %d", resp.StatusCode)
	}

	score := decode[dto.ScoreResponse](t, mustGet(t, srv.URL+"/v1/matches/"+id+"/score"))
	if score.Home != 1 || score.Away != 0 {
		t.Fatalf("score: %+v", score)
	}

	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/tick", dto.TickRequest{DeltaSec: 120}); resp.StatusCode != http.StatusOK {
		t.Fatalf("tick: %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/settle", struct{}{}); resp.StatusCode != http.StatusOK {
		t.Fatalf("settle on FINAL: %d", resp.StatusCode)
	}
	// segunda liquidação: 409
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/settle", struct{}{}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("re-settle must 409, got %d", resp.StatusCode)
	}
	// reset depois da liquidação: 409
	if resp := postJSON(t, srv.URL+"/v1/matches/"+id+"/reset", struct{}{}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("reset after settle must 409, got %d", resp.StatusCode)
	}
}

func TestWalletQueryParams(t *testing.T) {
	srv, _ := newTestServer(t)

	if resp := mustGet(t, srv.URL+"/v1/wallet"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing userId must 400, got %d", resp.StatusCode)
	}
	if resp := mustGet(t, srv.URL+"/v1/wallet?userId=ghost"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown wallet must 404, got %d", resp.StatusCode)
	}

	_ = decode[dto.WalletResponse](t, postJSON(t, srv.URL+"/v1/wallet/deposit", dto.DepositRequest{UserID: "u1", DeltaCents: 700}))
	got := decode[dto.WalletResponse](t, mustGet(t, srv.URL+"/v1/wallet?userId=u1"))
	if got.BalanceCents != 700 {
		t.Fatalf("wallet query: %+v", got)
	}
}

func mustGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}
