package calculator

import "math"

// Options are the engine's fixed assumptions
type Options struct {
	HedgeFloor                float64
	DefaultExchangeCommission float64
}

// DefaultOptions returns the standard hedge floor and exchange commission
func DefaultOptions() Options {
	return Options{
		HedgeFloor:                DefaultHedgeFloor,
		DefaultExchangeCommission: DefaultExchangeCommission,
	}
}

// Engine runs calculations with a fixed set of options. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine's options
func (e *Engine) Options() Options {
	return e.opts
}

// Calculate runs normalize, allocate, returns and aggregation for one event
func (e *Engine) Calculate(quote MarketQuote, risk RiskConfig, totalStake float64) Result {
	if math.IsNaN(totalStake) || math.IsInf(totalStake, 0) || totalStake < 0 {
		totalStake = 0
	}

	market := Normalize(quote, e.opts.HedgeFloor)
	alloc := Allocate(market, totalStake, risk)

	var legs Legs
	for _, o := range Outcomes {
		price := market.Price(o)
		rate := commissionRate(risk.Commissions.Get(o), price.Source, e.opts.DefaultExchangeCommission)
		legs.set(o, legReturn(price, alloc.Stakes[o], totalStake, rate))
	}

	return aggregate(legs, market, alloc, totalStake)
}

// Calculate runs the engine with DefaultOptions
func Calculate(quote MarketQuote, risk RiskConfig, totalStake float64) Result {
	return NewEngine(DefaultOptions()).Calculate(quote, risk, totalStake)
}

func aggregate(legs Legs, market EffectiveMarket, alloc StakeAllocation, totalStake float64) Result {
	r := Result{
		TotalStake: totalStake,
		Legs:       legs,
		HedgeUsed:  market.HedgeUsed,
		Policy:     alloc.Policy,
		MaxLoss:    math.Min(legs.Home.NetProfit, math.Min(legs.Draw.NetProfit, legs.Away.NetProfit)),
	}
	if alloc.Constrained() {
		zebra := alloc.Zebra
		r.Zebra = &zebra
	}
	return r
}

// Rounded returns a copy with every monetary figure rounded for display
func (r Result) Rounded(places int32) Result {
	out := r
	out.TotalStake = roundTo(r.TotalStake, places)
	out.MaxLoss = roundTo(r.MaxLoss, places)
	for _, o := range Outcomes {
		leg := r.Legs.Get(o)
		leg.Stake = roundTo(leg.Stake, places)
		leg.GrossReturn = roundTo(leg.GrossReturn, places)
		leg.GrossProfit = roundTo(leg.GrossProfit, places)
		leg.Profit = roundTo(leg.Profit, places)
		leg.NetReturn = roundTo(leg.NetReturn, places)
		leg.NetProfit = roundTo(leg.NetProfit, places)
		out.Legs.set(o, leg)
	}
	return out
}
