package calculator

import "math"

// DefaultHedgeFloor is the price an AH0 hedge odd must exceed to replace the draw leg
const DefaultHedgeFloor = 1.01

// MaxOdd is the largest decimal odd the engine prices. Longer odds are unpriceable.
const MaxOdd = 1e6

// ProbabilityToOdd converts a win probability to a decimal odd. It returns 0
// when p is not positive or 1/p is beyond MaxOdd.
func ProbabilityToOdd(p float64) float64 {
	if !(p > 0) || math.IsInf(p, 0) {
		return 0
	}
	odd := 1 / p
	if !priceable(odd) {
		return 0
	}
	return odd
}

// priceable reports whether odd is a finite positive odd no longer than MaxOdd
func priceable(odd float64) bool {
	return odd > 0 && odd <= MaxOdd
}

// validValue reports whether an optional number is present, finite and non-negative
func validValue(v *float64) bool {
	return v != nil && *v >= 0 && !math.IsInf(*v, 0)
}

// validOdd reports whether a user-entered odd is present and priceable
func validOdd(v *float64) bool {
	return validValue(v) && *v <= MaxOdd
}

// bestPrice picks the exchange price only when it strictly beats the Kalshi price
func bestPrice(exchange *float64, kalshiOdd float64) Price {
	if validOdd(exchange) && *exchange > kalshiOdd {
		return Price{Odd: *exchange, Source: SourceExchange}
	}
	return Price{Odd: kalshiOdd, Source: SourceKalshi}
}

// Normalize resolves the effective price for every leg. The home-side hedge
// odd takes priority over the away-side one when substituting the draw.
func Normalize(q MarketQuote, hedgeFloor float64) EffectiveMarket {
	probs := [3]float64{q.Probabilities.Home, q.Probabilities.Draw, q.Probabilities.Away}

	var m EffectiveMarket
	for _, o := range Outcomes {
		m.Prices[o] = bestPrice(q.ExchangeOdds.Get(o), ProbabilityToOdd(probs[o]))
	}

	for _, hedge := range []*float64{q.HedgeOdds.Home, q.HedgeOdds.Away} {
		if validOdd(hedge) && *hedge > hedgeFloor {
			m.Prices[Draw] = Price{Odd: *hedge, Source: SourceExchange}
			m.HedgeUsed = true
			break
		}
	}

	return m
}
