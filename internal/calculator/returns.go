package calculator

import "math"

// DefaultExchangeCommission is the commission percent charged on exchange-sourced legs
// when the user has not entered one. Kalshi legs default to 0.
const DefaultExchangeCommission = 2.8

// MaxCommission is the highest commission percent accepted as an override
const MaxCommission = 100.0

// commissionRate picks the user's override when present and at most MaxCommission,
// otherwise the source default
func commissionRate(override *float64, source Source, exchangeDefault float64) float64 {
	if validValue(override) && *override <= MaxCommission {
		return *override
	}
	if source == SourceExchange {
		return exchangeDefault
	}
	return 0
}

// NetReturn applies commission to the positive part of a leg's profit only
func NetReturn(stake, grossReturn, commissionPercent float64) float64 {
	profit := grossReturn - stake
	if profit > 0 {
		return stake + profit*(100-commissionPercent)/100
	}
	return grossReturn
}

// legReturn projects the outcome of one leg winning. An unpriceable odd is
// reported as 0, and any figure that overflows is reported as 0.
func legReturn(price Price, stake, totalStake, rate float64) LegResult {
	odd := price.Odd
	if !priceable(odd) {
		odd = 0
	}
	stake = finite(stake)
	gross := finite(stake * odd)
	net := finite(NetReturn(stake, gross, rate))
	return LegResult{
		Odd:            odd,
		Source:         price.Source,
		Stake:          stake,
		GrossReturn:    gross,
		GrossProfit:    finite(gross - stake),
		Profit:         finite(gross - totalStake),
		CommissionRate: rate,
		NetReturn:      net,
		NetProfit:      finite(net - totalStake),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
