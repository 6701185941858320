package calculator

import (
	"math"
	"sort"
)

// inverse returns 1/odd, or 0 for legs that cannot be priced
func inverse(odd float64) float64 {
	if !priceable(odd) {
		return 0
	}
	return 1 / odd
}

// FairBook splits totalStake so that stake*odd is identical on every priced leg
func FairBook(m EffectiveMarket, totalStake float64) [3]float64 {
	var sumInv float64
	for _, o := range Outcomes {
		sumInv += inverse(m.Prices[o].Odd)
	}

	var stakes [3]float64
	if sumInv == 0 {
		return stakes
	}
	for _, o := range Outcomes {
		stakes[o] = totalStake * inverse(m.Prices[o].Odd) / sumInv
	}
	return stakes
}

// rankByOdd orders the legs from highest to lowest odd. Ties keep home, draw, away order.
func rankByOdd(m EffectiveMarket) [3]Outcome {
	ranked := Outcomes
	sort.SliceStable(ranked[:], func(i, j int) bool {
		return m.Prices[ranked[i]].Odd > m.Prices[ranked[j]].Odd
	})
	return ranked
}

// Allocate computes the final stakes. Without WorkEvent this is the fair book;
// with it the zebra leg is capped so that its return equals totalStake minus the
// allowed loss, and the other legs are re-derived by the selected policy.
//
// When the zebra is the draw leg neither policy rebalances home and away, so the
// stakes may no longer sum to totalStake.
func Allocate(m EffectiveMarket, totalStake float64, risk RiskConfig) StakeAllocation {
	alloc := StakeAllocation{Stakes: FairBook(m, totalStake), Policy: PolicyFairBook}
	if !risk.WorkEvent {
		return alloc
	}

	ranked := rankByOdd(m)
	zebra, middle, favorite := ranked[0], ranked[1], ranked[2]
	alloc.Zebra = zebra
	alloc.Policy = PolicyProfitPreserving
	if risk.ZeroDrawProfit {
		alloc.Policy = PolicyZeroDrawProfit
	}

	maxLoss := totalStake * sanitizePercent(risk.MaxLossPercent) / 100
	zebraStake := 0.0
	if odd := m.Prices[zebra].Odd; priceable(odd) {
		zebraStake = math.Max(0, (totalStake-maxLoss)/odd)
	}
	alloc.Stakes[zebra] = zebraStake

	if zebra == Draw {
		return alloc
	}

	if !risk.ZeroDrawProfit {
		remaining := totalStake - zebraStake
		invMiddle, invFavorite := inverse(m.Prices[middle].Odd), inverse(m.Prices[favorite].Odd)
		alloc.Stakes[middle], alloc.Stakes[favorite] = 0, 0
		if sumRest := invMiddle + invFavorite; sumRest > 0 {
			alloc.Stakes[middle] = remaining * invMiddle / sumRest
			alloc.Stakes[favorite] = remaining * invFavorite / sumRest
		}
		return alloc
	}

	// break-even draw, remainder to whichever of home/away is not the zebra
	drawStake := totalStake * inverse(m.Prices[Draw].Odd)
	leftover := Home
	if zebra == Home {
		leftover = Away
	}
	alloc.Stakes[Draw] = drawStake
	alloc.Stakes[leftover] = math.Max(0, totalStake-zebraStake-drawStake)
	return alloc
}

func sanitizePercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return p
}
