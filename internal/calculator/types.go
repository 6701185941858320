// Package calculator implements the hedged 1X2 stake engine: best-price selection across
// Kalshi and an exchange, fair-book staking, max-loss reallocation and commission-aware returns.
package calculator

import (
	"fmt"

	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// Outcome identifies one leg of a three-way market
type Outcome int

const (
	Home Outcome = iota
	Draw
	Away
)

// Outcomes lists the legs in their fixed evaluation order
var Outcomes = [3]Outcome{Home, Draw, Away}

func (o Outcome) String() string {
	switch o {
	case Home:
		return "home"
	case Draw:
		return "draw"
	case Away:
		return "away"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as its lowercase name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range Outcomes {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Source tags where a leg's price came from
type Source int

const (
	// SourceKalshi is a price derived from a Kalshi probability
	SourceKalshi Source = iota
	// SourceExchange is a price quoted by the betting exchange, including AH0 hedge prices
	SourceExchange
)

func (s Source) String() string {
	if s == SourceExchange {
		return "Exchange"
	}
	return "Kalshi"
}

// MarshalText encodes the source tag as "Kalshi" or "Exchange"
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source tag
func (s *Source) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Kalshi":
		*s = SourceKalshi
	case "Exchange":
		*s = SourceExchange
	default:
		return fmt.Errorf("unknown market source %q", text)
	}
	return nil
}

// OptionalValues holds an optional number per outcome. Nil means absent.
type OptionalValues struct {
	Home *float64 `json:"home,omitempty"`
	Draw *float64 `json:"draw,omitempty"`
	Away *float64 `json:"away,omitempty"`
}

// Get returns the value for an outcome
func (v OptionalValues) Get(o Outcome) *float64 {
	switch o {
	case Home:
		return v.Home
	case Draw:
		return v.Draw
	default:
		return v.Away
	}
}

// HedgeOdds are AH0 prices that may stand in for the draw leg
type HedgeOdds struct {
	Home *float64 `json:"home,omitempty"`
	Away *float64 `json:"away,omitempty"`
}

// MarketQuote is the immutable market input for one event
type MarketQuote struct {
	Probabilities models.Probabilities `json:"probabilities"`
	ExchangeOdds  OptionalValues       `json:"exchange_odds"`
	HedgeOdds     HedgeOdds            `json:"hedge_odds"`
}

// RiskConfig is the user's risk and commission setup for one calculation
type RiskConfig struct {
	WorkEvent      bool           `json:"work_event"`
	MaxLossPercent float64        `json:"max_loss_percent"`
	ZeroDrawProfit bool           `json:"zero_draw_profit"`
	Commissions    OptionalValues `json:"commissions"`
}

// Price is the effective decimal odd for a leg and the source it came from
type Price struct {
	Odd    float64 `json:"odd"`
	Source Source  `json:"source"`
}

// EffectiveMarket is the resolved price per outcome
type EffectiveMarket struct {
	Prices    [3]Price
	HedgeUsed bool
}

// Price returns the resolved price for an outcome
func (m EffectiveMarket) Price(o Outcome) Price {
	return m.Prices[o]
}

// Policy names the staking rule that produced an allocation
type Policy string

const (
	PolicyFairBook         Policy = "fair_book"
	PolicyProfitPreserving Policy = "profit_preserving"
	PolicyZeroDrawProfit   Policy = "zero_draw_profit"
)

// StakeAllocation is the stake per outcome plus how it was derived
type StakeAllocation struct {
	Stakes [3]float64
	Policy Policy
	Zebra  Outcome
}

// Constrained reports whether the max-loss cap was applied
func (a StakeAllocation) Constrained() bool {
	return a.Policy != PolicyFairBook
}

// Sum returns the total staked across all legs
func (a StakeAllocation) Sum() float64 {
	return a.Stakes[Home] + a.Stakes[Draw] + a.Stakes[Away]
}

// LegResult is the projection for a single outcome
type LegResult struct {
	Odd            float64 `json:"odd"`
	Source         Source  `json:"market"`
	Stake          float64 `json:"stake"`
	GrossReturn    float64 `json:"gross_return"`
	GrossProfit    float64 `json:"gross_profit"`
	Profit         float64 `json:"profit"`
	CommissionRate float64 `json:"commission_rate"`
	NetReturn      float64 `json:"net_return"`
	NetProfit      float64 `json:"net_profit"`
}

// Legs groups the three leg results
type Legs struct {
	Home LegResult `json:"home"`
	Draw LegResult `json:"draw"`
	Away LegResult `json:"away"`
}

// Get returns the result for an outcome
func (l Legs) Get(o Outcome) LegResult {
	switch o {
	case Home:
		return l.Home
	case Draw:
		return l.Draw
	default:
		return l.Away
	}
}

func (l *Legs) set(o Outcome, leg LegResult) {
	switch o {
	case Home:
		l.Home = leg
	case Draw:
		l.Draw = leg
	default:
		l.Away = leg
	}
}

// Result is the full calculation output for one event
type Result struct {
	TotalStake float64  `json:"total_stake"`
	Legs       Legs     `json:"legs"`
	HedgeUsed  bool     `json:"is_hedge_used"`
	Policy     Policy   `json:"policy"`
	Zebra      *Outcome `json:"zebra,omitempty"`
	MaxLoss    float64  `json:"max_loss"`
}

// TotalStaked returns the sum of the stakes actually allocated, which in
// constrained mode can differ from TotalStake.
func (r Result) TotalStaked() float64 {
	return r.Legs.Home.Stake + r.Legs.Draw.Stake + r.Legs.Away.Stake
}
