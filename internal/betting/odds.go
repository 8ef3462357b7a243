package betting

// Odds dinâmicas derivadas da distribuição do pool. Exibição apenas:
// payout real vem da liquidação parimutuel, nunca do multiplicador.
const (
	oddsMin           = 1.1
	oddsMax           = 10.0
	oddsEmptyPick     = 5.0 // palpite sem apostas numa categoria com volume
	oddsEmptyCategory = 2.0 // categoria inteira sem volume
)

// Board carrega as odds correntes das três categorias de aposta.
type Board struct {
	Outcome    map[OutcomePick]float64 `json:"outcome"`
	TotalGoals map[TotalsPick]float64  `json:"total_goals"`
	BothScore  map[BTTSPick]float64    `json:"both_score"`
}

// fairOdds calcula totalCategoria/valorNoPalpite com os clamps do produto.
func fairOdds(categoryTotal, pickTotal int64) float64 {
	if categoryTotal == 0 {
		return oddsEmptyCategory
	}
	if pickTotal == 0 {
		return oddsEmptyPick
	}
	odds := float64(categoryTotal) / float64(pickTotal)
	if odds < oddsMin {
		return oddsMin
	}
	if odds > oddsMax {
		return oddsMax
	}
	return odds
}

// boardFor deriva o quadro de odds do conjunto corrente de tickets.
// Cada ticket participa das três categorias com o valor integral da aposta.
func boardFor(tickets []*Ticket) Board {
	var total int64
	outcome := map[OutcomePick]int64{PickHome: 0, PickDraw: 0, PickAway: 0}
	totals := map[TotalsPick]int64{PickOver: 0, PickUnder: 0}
	btts := map[BTTSPick]int64{PickYes: 0, PickNo: 0}

	for _, t := range tickets {
		total += t.WagerCents
		outcome[t.Picks.Outcome] += t.WagerCents
		totals[t.Picks.TotalGoals] += t.WagerCents
		btts[t.Picks.BothScore] += t.WagerCents
	}

	b := Board{
		Outcome:    make(map[OutcomePick]float64, len(outcome)),
		TotalGoals: make(map[TotalsPick]float64, len(totals)),
		BothScore:  make(map[BTTSPick]float64, len(btts)),
	}
	for pick, amount := range outcome {
		b.Outcome[pick] = fairOdds(total, amount)
	}
	for pick, amount := range totals {
		b.TotalGoals[pick] = fairOdds(total, amount)
	}
	for pick, amount := range btts {
		b.BothScore[pick] = fairOdds(total, amount)
	}
	return b
}
