package betting

import (
	"testing"

	"github.com/radieske/liga-match-core/internal/match"
)

func TestGuardDeniesLiveAndFinal(t *testing.T) {
	g := NewGuard()
	if dec := g.Check(match.StatusLive, true, "u1"); dec.Allowed || !dec.Closed {
		t.Fatalf("LIVE must deny as closed window, got %+v", dec)
	}
	if dec := g.Check(match.StatusFinal, true, "u1"); dec.Allowed || !dec.Closed {
		t.Fatalf("FINAL must deny as closed window, got %+v", dec)
	}
	if dec := g.Check(match.StatusScheduled, true, "u1"); !dec.Allowed {
		t.Fatalf("SCHEDULED must allow, reason=%q", dec.Reason)
	}
	if dec := g.Check(match.StatusPaused, true, "u1"); !dec.Allowed {
		t.Fatalf("PAUSED must allow, reason=%q", dec.Reason)
	}
}

func TestGuardDeniesWithoutWallet(t *testing.T) {
	g := NewGuard()
	dec := g.Check(match.StatusScheduled, false, "u1")
	if dec.Allowed || dec.Reason == "" {
		t.Fatalf("no wallet must deny with reason, got %+v", dec)
	}
	if dec.Closed {
		t.Fatal("no-wallet denial is bettor condition, not closed window")
	}
}

func TestGuardLeagueExclusion(t *testing.T) {
	g := NewGuard()
	g.Exclude("banned")
	if dec := g.Check(match.StatusScheduled, true, "banned"); dec.Allowed {
		t.Fatal("excluded user must deny")
	}
	g.Readmit("banned")
	if dec := g.Check(match.StatusScheduled, true, "banned"); !dec.Allowed {
		t.Fatalf("readmitted user must allow, reason=%q", dec.Reason)
	}
}
