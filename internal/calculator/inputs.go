package calculator

import "github.com/yourusername/kalshi-analyzer/internal/models"

// OutcomeInputs are raw per-outcome strings as typed by a user
type OutcomeInputs struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

// HedgeInputs are raw AH0 prices as typed by a user
type HedgeInputs struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// UserInputs is the string-typed form of everything a user can enter for one event.
// Results is recorded for display only and never affects the calculation.
type UserInputs struct {
	ExchangeOdds   OutcomeInputs `json:"exchange_odds"`
	AH0Odds        HedgeInputs   `json:"ah0_odds"`
	WorkEvent      bool          `json:"work_event"`
	MaxLossPercent string        `json:"max_loss_percent"`
	ZeroDrawProfit bool          `json:"zero_draw_profit"`
	Commissions    OutcomeInputs `json:"commissions"`
	Results        OutcomeInputs `json:"results"`
}

// Quote builds the market quote for an event from the user's exchange and hedge prices
func (u UserInputs) Quote(probs models.Probabilities) MarketQuote {
	return MarketQuote{
		Probabilities: probs,
		ExchangeOdds:  parseOutcomes(u.ExchangeOdds),
		HedgeOdds: HedgeOdds{
			Home: ParseOptional(u.AH0Odds.Home),
			Away: ParseOptional(u.AH0Odds.Away),
		},
	}
}

// Risk builds the risk configuration from the user's inputs
func (u UserInputs) Risk() RiskConfig {
	return RiskConfig{
		WorkEvent:      u.WorkEvent,
		MaxLossPercent: ParsePercent(u.MaxLossPercent),
		ZeroDrawProfit: u.ZeroDrawProfit,
		Commissions:    parseOutcomes(u.Commissions),
	}
}

func parseOutcomes(in OutcomeInputs) OptionalValues {
	return OptionalValues{
		Home: ParseOptional(in.Home),
		Draw: ParseOptional(in.Draw),
		Away: ParseOptional(in.Away),
	}
}
