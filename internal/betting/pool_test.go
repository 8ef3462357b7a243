package betting

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeWallet registra débitos e créditos por usuário, como o Ledger real.
type fakeWallet struct {
	mu       sync.Mutex
	balances map[string]int64
	debits   int
	credits  int
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: make(map[string]int64)}
}

func (f *fakeWallet) debit(userID string, amount int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return fmt.Errorf("insufficient funds")
	}
	f.balances[userID] -= amount
	f.debits++
	return nil
}

func (f *fakeWallet) credit(userID string, amount int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	f.credits++
	return nil
}

func (f *fakeWallet) balance(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeWallet) fund(userID string, amount int64) {
	f.mu.Lock()
	f.balances[userID] = amount
	f.mu.Unlock()
}

func newTestBook() *Book {
	return NewBook(zap.NewNop(), 100, 10000)
}

func allPicks(outcome OutcomePick, totals TotalsPick, btts BTTSPick) Picks {
	return Picks{Outcome: outcome, TotalGoals: totals, BothScore: btts}
}

func TestPlaceValidation(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 100000)

	if _, err := b.Place("m1", "u1", Picks{}, 500, w.debit); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("empty picks: got %v", err)
	}
	if _, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 99, w.debit); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("below min wager: got %v", err)
	}
	if _, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 10001, w.debit); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("above max wager: got %v", err)
	}
	if _, err := b.Place("ghost", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("unknown pool: got %v", err)
	}
	if w.debits != 0 {
		t.Fatalf("failed placements must not debit, got %d debits", w.debits)
	}

	tk, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit)
	if err != nil {
		t.Fatalf("valid placement: %v", err)
	}
	if tk.Status != StatusPending {
		t.Fatalf("new ticket must be PENDING, got %s", tk.Status)
	}
	if w.debits != 1 || w.balance("u1") != 99500 {
		t.Fatalf("exactly one debit expected: debits=%d bal=%d", w.debits, w.balance("u1"))
	}
}

func TestPlaceDebitFailureLeavesPoolIntact(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 300)

	if _, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit); err == nil {
		t.Fatal("debit failure must fail the placement")
	}
	snap, _ := b.PoolSnapshot("m1")
	if snap.TicketCount != 0 || snap.TotalPotCents != 0 {
		t.Fatalf("failed placement leaked into pool: %+v", snap)
	}
	if w.balance("u1") != 300 {
		t.Fatalf("wallet touched by failed placement: %d", w.balance("u1"))
	}
}

func TestLockClosesBetting(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)

	if _, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit); err != nil {
		t.Fatalf("placement before lock: %v", err)
	}
	if err := b.Lock("m1"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := b.Place("m1", "u1", allPicks(PickAway, PickUnder, PickNo), 500, w.debit); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("locked pool must refuse with ErrBettingClosed, got %v", err)
	}
	// reset de relógio reabre
	if err := b.Unlock("m1"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := b.Place("m1", "u1", allPicks(PickAway, PickUnder, PickNo), 500, w.debit); err != nil {
		t.Fatalf("placement after unlock: %v", err)
	}
}

func TestPoolSnapshotAggregates(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 100000)
	w.fund("u2", 100000)

	_, _ = b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 2500, w.debit)
	_, _ = b.Place("m1", "u2", allPicks(PickAway, PickUnder, PickNo), 1500, w.debit)

	snap, err := b.PoolSnapshot("m1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalPotCents != 4000 || snap.TicketCount != 2 || snap.Locked || snap.Settled {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

// Cenário da regra: pote 10000 em 4 tickets de 2500, um vencedor exato.
// payableCap = min(9000, 50000) = 9000; vencedor leva tudo, demais LOST.
func TestSettleSingleExactWinner(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		w.fund(u, 10000)
	}

	// resultado verdadeiro: 2x1 => HOME / OVER / YES
	placed, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 2500, w.debit)
	_, _ = b.Place("m1", "u2", allPicks(PickAway, PickOver, PickYes), 2500, w.debit)
	_, _ = b.Place("m1", "u3", allPicks(PickDraw, PickUnder, PickNo), 2500, w.debit)
	_, _ = b.Place("m1", "u4", allPicks(PickHome, PickUnder, PickNo), 2500, w.debit)

	res, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.TotalPotCents != 10000 || res.PayableCents != 9000 {
		t.Fatalf("pot/cap wrong: %+v", res)
	}
	if !res.ExactSettle || len(res.Winners) != 1 {
		t.Fatalf("expected one exact winner, got %+v", res)
	}
	winner, err := b.Ticket(placed.ID)
	if err != nil {
		t.Fatalf("ticket lookup after settle: %v", err)
	}
	if winner.Status != StatusWon || winner.PayoutCents != 9000 {
		t.Fatalf("winner ticket: status=%s payout=%d", winner.Status, winner.PayoutCents)
	}
	for _, l := range res.Losers {
		if l.Status != StatusLost || l.PayoutCents != 0 {
			t.Fatalf("loser ticket wrong: %+v", l)
		}
	}
	if w.credits != 1 {
		t.Fatalf("exactly one credit expected, got %d", w.credits)
	}
	if w.balance("u1") != 10000-2500+9000 {
		t.Fatalf("winner balance: %d", w.balance("u1"))
	}
}

func TestSettleProportionalSplitAndRemainder(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)
	w.fund("u2", 10000)
	w.fund("u3", 10000)

	p1, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 1000, w.debit)
	p2, _ := b.Place("m1", "u2", allPicks(PickHome, PickOver, PickYes), 2000, w.debit)
	_, _ = b.Place("m1", "u3", allPicks(PickAway, PickUnder, PickNo), 333, w.debit)

	res, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// pote 3333 => payable 2999 (floor de 90%)
	if res.PayableCents != 2999 {
		t.Fatalf("payable: %d", res.PayableCents)
	}
	if res.PaidCents != 2999 {
		t.Fatalf("paid must equal payable, got %d", res.PaidCents)
	}
	// split proporcional 1:2 com sobra de arredondamento pro primeiro
	first, _ := b.Ticket(p1.ID)
	second, _ := b.Ticket(p2.ID)
	if first.PayoutCents+second.PayoutCents != 2999 {
		t.Fatalf("split does not sum: %d + %d", first.PayoutCents, second.PayoutCents)
	}
	if second.PayoutCents != 2999*2000/3000 {
		t.Fatalf("second payout: %d", second.PayoutCents)
	}
	if first.PayoutCents <= 0 || second.PayoutCents < first.PayoutCents {
		t.Fatalf("proportionality broken: %d vs %d", first.PayoutCents, second.PayoutCents)
	}
}

func TestSettlePayoutCapCeiling(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	// 10 tickets de 10000 => pote 100000; 90% = 90000, teto absoluto 50000
	var winnerID string
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("u%d", i)
		w.fund(u, 20000)
		p := allPicks(PickAway, PickUnder, PickNo)
		if i == 0 {
			p = allPicks(PickHome, PickOver, PickYes)
		}
		tk, err := b.Place("m1", u, p, 10000, w.debit)
		if err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
		if i == 0 {
			winnerID = tk.ID
		}
	}

	res, err := b.Settle("m1", OutcomeFromScore(3, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.PayableCents != 50000 {
		t.Fatalf("cap must clamp at 50000, got %d", res.PayableCents)
	}
	winner, _ := b.Ticket(winnerID)
	if winner.PayoutCents != 50000 || res.PaidCents != 50000 {
		t.Fatalf("paid over/under cap: winner=%d paid=%d", winner.PayoutCents, res.PaidCents)
	}
}

func TestSettleClosestFallback(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)
	w.fund("u2", 10000)
	w.fund("u3", 10000)

	// verdadeiro: 2x1 => HOME/OVER/YES; ninguém acerta as três
	p2, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickNo), 1000, w.debit)  // 2 dims
	p1, _ := b.Place("m1", "u2", allPicks(PickHome, PickUnder, PickNo), 1000, w.debit) // 1 dim
	p0, _ := b.Place("m1", "u3", allPicks(PickAway, PickUnder, PickNo), 1000, w.debit)

	res, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.ExactSettle {
		t.Fatal("must fall back to closest")
	}
	if len(res.Winners) != 1 || res.Winners[0].ID != p2.ID {
		t.Fatalf("closest set wrong: %+v", res.Winners)
	}
	two, _ := b.Ticket(p2.ID)
	if two.Status != StatusClosest {
		t.Fatalf("closest ticket status: %s", two.Status)
	}
	// pote 3000 => payable 2700, tudo pro único mais próximo
	if two.PayoutCents != 2700 {
		t.Fatalf("closest payout: %d", two.PayoutCents)
	}
	one, _ := b.Ticket(p1.ID)
	zero, _ := b.Ticket(p0.ID)
	if one.Status != StatusLost || zero.Status != StatusLost {
		t.Fatalf("non-closest must be LOST: %s %s", one.Status, zero.Status)
	}
}

func TestSettleClosestTieSplits(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)
	w.fund("u2", 10000)

	pa, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickNo), 1000, w.debit)   // 2 dims
	pc, _ := b.Place("m1", "u2", allPicks(PickHome, PickUnder, PickYes), 3000, w.debit) // 2 dims

	res, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(res.Winners) != 2 {
		t.Fatalf("tie must keep both, got %d", len(res.Winners))
	}
	// pote 4000 => payable 3600; rateio 1:3
	a, _ := b.Ticket(pa.ID)
	c, _ := b.Ticket(pc.ID)
	if a.PayoutCents+c.PayoutCents != 3600 {
		t.Fatalf("tie split does not sum to cap: %d + %d", a.PayoutCents, c.PayoutCents)
	}
	if c.PayoutCents != 2700 {
		t.Fatalf("stake-weighted split: got %d", c.PayoutCents)
	}
}

func TestSettleIdempotent(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)
	w.fund("u2", 10000)

	pw, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 2500, w.debit)
	_, _ = b.Place("m1", "u2", allPicks(PickAway, PickUnder, PickNo), 2500, w.debit)

	if _, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	before, _ := b.Ticket(pw.ID)
	creditsBefore := w.credits
	balBefore := w.balance("u1")

	if _, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second settle must return ErrAlreadySettled, got %v", err)
	}
	after, _ := b.Ticket(pw.ID)
	if after.Status != before.Status || after.PayoutCents != before.PayoutCents {
		t.Fatal("re-settle mutated ticket state")
	}
	if w.credits != creditsBefore || w.balance("u1") != balBefore {
		t.Fatal("re-settle double-credited the wallet")
	}

	// pool liquidado não aceita mais nada
	if _, err := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("placement on settled pool: got %v", err)
	}
	if err := b.Unlock("m1"); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("unlock on settled pool: got %v", err)
	}
}

func TestSettleEmptyPool(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()

	res, err := b.Settle("m1", OutcomeFromScore(0, 0), w.credit)
	if err != nil {
		t.Fatalf("settle empty pool: %v", err)
	}
	if res.PaidCents != 0 || len(res.Winners) != 0 || w.credits != 0 {
		t.Fatalf("empty pool must pay nothing: %+v credits=%d", res, w.credits)
	}
	if !b.IsSettled("m1") {
		t.Fatal("empty pool must still mark settled")
	}
}

// Propriedade: soma dos payouts creditados nunca excede payableCap.
func TestSettlePayoutsNeverExceedCap(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()

	wagers := []int64{137, 249, 991, 4333, 10000, 100, 7777}
	picksets := []Picks{
		allPicks(PickHome, PickOver, PickYes),
		allPicks(PickHome, PickOver, PickYes),
		allPicks(PickDraw, PickOver, PickYes),
		allPicks(PickAway, PickUnder, PickNo),
		allPicks(PickHome, PickUnder, PickYes),
		allPicks(PickDraw, PickUnder, PickNo),
		allPicks(PickAway, PickOver, PickNo),
	}
	for i, wg := range wagers {
		u := fmt.Sprintf("u%d", i)
		w.fund(u, 20000)
		if _, err := b.Place("m1", u, picksets[i], wg, w.debit); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}

	res, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	var sum int64
	for _, tk := range res.SettledTickets {
		sum += tk.PayoutCents
	}
	if sum > res.PayableCents {
		t.Fatalf("payouts %d exceed cap %d", sum, res.PayableCents)
	}
	if res.PayableCents > res.TotalPotCents*90/100 {
		t.Fatalf("cap %d exceeds 90%% of pot %d", res.PayableCents, res.TotalPotCents)
	}
}

func TestTicketLookup(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)

	tk, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit)
	got, err := b.Ticket(tk.ID)
	if err != nil || got.ID != tk.ID {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := b.Ticket("ghost"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("unknown ticket: got %v", err)
	}
}

// Os acessores devolvem cópias: o estado vivo do ticket só muda dentro do
// Settle, e cópia antiga nenhuma reflete (nem contamina) a liquidação.
func TestTicketAccessorsReturnCopies(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 10000)

	placed, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 500, w.debit)

	// mutar a cópia não vaza pro pool
	fetched, _ := b.Ticket(placed.ID)
	fetched.Status = StatusLost
	fetched.PayoutCents = 999999
	again, _ := b.Ticket(placed.ID)
	if again.Status != StatusPending || again.PayoutCents != 0 {
		t.Fatalf("accessor copy leaked into pool: %+v", again)
	}

	if _, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit); err != nil {
		t.Fatalf("settle: %v", err)
	}
	// a cópia pré-liquidação fica como estava; a pós reflete o pago
	if placed.Status != StatusPending {
		t.Fatalf("pre-settle copy mutated in place: %s", placed.Status)
	}
	settled, _ := b.Ticket(placed.ID)
	if settled.Status != StatusWon || settled.PayoutCents != 450 {
		t.Fatalf("post-settle lookup: %+v", settled)
	}
}

// Leituras de ticket concorrentes com a liquidação não intercalam com a
// escrita de status/payout: o acessor copia sob o lock do pool.
func TestConcurrentTicketReadsDuringSettle(t *testing.T) {
	b := newTestBook()
	b.Open("m1")
	w := newFakeWallet()
	w.fund("u1", 100000)
	w.fund("u2", 100000)

	first, _ := b.Place("m1", "u1", allPicks(PickHome, PickOver, PickYes), 5000, w.debit)
	for i := 0; i < 20; i++ {
		_, _ = b.Place("m1", "u2", allPicks(PickAway, PickUnder, PickNo), 100, w.debit)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tk, err := b.Ticket(first.ID)
				if err != nil {
					t.Errorf("ticket read: %v", err)
					return
				}
				// estado sempre consistente: PENDING sem payout, ou WON pago
				if tk.Status == StatusPending && tk.PayoutCents != 0 {
					t.Errorf("torn read: %+v", tk)
					return
				}
				if _, err := b.Tickets("m1"); err != nil {
					t.Errorf("tickets read: %v", err)
					return
				}
			}
		}()
	}

	if _, err := b.Settle("m1", OutcomeFromScore(2, 1), w.credit); err != nil {
		t.Fatalf("settle: %v", err)
	}
	close(stop)
	wg.Wait()

	got, _ := b.Ticket(first.ID)
	if got.Status != StatusWon {
		t.Fatalf("winner after settle: %+v", got)
	}
}
