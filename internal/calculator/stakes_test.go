package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func market(home, draw, away float64) EffectiveMarket {
	return EffectiveMarket{Prices: [3]Price{
		{Odd: home, Source: SourceKalshi},
		{Odd: draw, Source: SourceKalshi},
		{Odd: away, Source: SourceKalshi},
	}}
}

func TestFairBookZeroMargin(t *testing.T) {
	cases := []EffectiveMarket{
		market(2.5, 3.4, 3.1),
		market(1.5, 4.2, 7.0),
		market(2.0, 1.0/0.3, 4.0),
		market(3.0, 3.0, 3.0),
	}

	for _, m := range cases {
		stakes := FairBook(m, 100)
		ret := stakes[Home] * m.Prices[Home].Odd

		assert.InDelta(t, 100, stakes[Home]+stakes[Draw]+stakes[Away], 1e-9)
		for _, o := range Outcomes {
			assert.InDelta(t, ret, stakes[o]*m.Prices[o].Odd, 1e-9, "leg %s", o)
		}
	}
}

func TestFairBookSkipsUnpricedLegs(t *testing.T) {
	stakes := FairBook(market(2.0, 0, 2.0), 100)
	assert.Equal(t, 0.0, stakes[Draw])
	assert.InDelta(t, 50, stakes[Home], 1e-9)
	assert.InDelta(t, 50, stakes[Away], 1e-9)

	assert.Equal(t, [3]float64{}, FairBook(market(0, 0, 0), 100))
}

func TestAllocateUnconstrained(t *testing.T) {
	m := market(2.5, 3.4, 3.1)
	alloc := Allocate(m, 100, RiskConfig{MaxLossPercent: 10})

	assert.Equal(t, PolicyFairBook, alloc.Policy)
	assert.False(t, alloc.Constrained())
	assert.Equal(t, FairBook(m, 100), alloc.Stakes)
}

func TestRankByOddTieBreak(t *testing.T) {
	assert.Equal(t, [3]Outcome{Away, Draw, Home}, rankByOdd(market(2.0, 3.0, 4.0)))
	assert.Equal(t, [3]Outcome{Home, Away, Draw}, rankByOdd(market(3.0, 2.0, 3.0)))
	assert.Equal(t, [3]Outcome{Home, Draw, Away}, rankByOdd(market(3.0, 3.0, 3.0)))
}

func TestAllocateMaxLossProfitPreserving(t *testing.T) {
	m := market(2.0, 1.0/0.3, 4.0)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: 10})

	require.True(t, alloc.Constrained())
	assert.Equal(t, PolicyProfitPreserving, alloc.Policy)
	assert.Equal(t, Away, alloc.Zebra)
	assert.InDelta(t, 22.5, alloc.Stakes[Away], 1e-12)
	assert.InDelta(t, 48.4375, alloc.Stakes[Home], 1e-9)
	assert.InDelta(t, 29.0625, alloc.Stakes[Draw], 1e-9)
	assert.InDelta(t, 100, alloc.Sum(), 1e-9)

	// middle and favourite still return the same amount
	assert.InDelta(t, alloc.Stakes[Home]*2.0, alloc.Stakes[Draw]*(1.0/0.3), 1e-9)
}

func TestAllocateMaxLossZeroDrawProfit(t *testing.T) {
	m := market(2.0, 1.0/0.3, 4.0)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: 10, ZeroDrawProfit: true})

	assert.Equal(t, PolicyZeroDrawProfit, alloc.Policy)
	assert.InDelta(t, 22.5, alloc.Stakes[Away], 1e-12)
	assert.InDelta(t, 30, alloc.Stakes[Draw], 1e-9)
	assert.InDelta(t, 47.5, alloc.Stakes[Home], 1e-9)
	assert.InDelta(t, 100, alloc.Stakes[Draw]*m.Prices[Draw].Odd, 1e-9)
}

func TestAllocateZeroDrawProfitHomeZebra(t *testing.T) {
	m := market(5.0, 4.0, 1.5)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: 20, ZeroDrawProfit: true})

	assert.Equal(t, Home, alloc.Zebra)
	assert.InDelta(t, 16, alloc.Stakes[Home], 1e-12)
	assert.InDelta(t, 25, alloc.Stakes[Draw], 1e-12)
	assert.InDelta(t, 59, alloc.Stakes[Away], 1e-12)
}

func TestAllocateZeroDrawProfitLeftoverClampedAtZero(t *testing.T) {
	m := market(1.2, 1.1, 1.3)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, ZeroDrawProfit: true})

	assert.Equal(t, Away, alloc.Zebra)
	assert.InDelta(t, 100/1.3, alloc.Stakes[Away], 1e-9)
	assert.InDelta(t, 100/1.1, alloc.Stakes[Draw], 1e-9)
	assert.Equal(t, 0.0, alloc.Stakes[Home])
}

func TestAllocateDrawZebraLeavesOtherLegs(t *testing.T) {
	m := market(2.5, 5.0, 2.5)
	fair := FairBook(m, 100)

	for _, zeroDraw := range []bool{false, true} {
		alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: 10, ZeroDrawProfit: zeroDraw})

		assert.Equal(t, Draw, alloc.Zebra)
		assert.InDelta(t, 18, alloc.Stakes[Draw], 1e-12)
		assert.Equal(t, fair[Home], alloc.Stakes[Home])
		assert.Equal(t, fair[Away], alloc.Stakes[Away])
		// home and away are not rebalanced, so the book is no longer fully staked
		assert.InDelta(t, 98, alloc.Sum(), 1e-9)
	}
}

func TestAllocateMaxLossAboveStake(t *testing.T) {
	m := market(2.0, 1.0/0.3, 4.0)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: 150})

	assert.Equal(t, 0.0, alloc.Stakes[Away])
	assert.InDelta(t, 100, alloc.Sum(), 1e-9)
}

func TestAllocateInvalidPercentTreatedAsZero(t *testing.T) {
	m := market(2.0, 1.0/0.3, 4.0)
	alloc := Allocate(m, 100, RiskConfig{WorkEvent: true, MaxLossPercent: -5})

	assert.InDelta(t, 25, alloc.Stakes[Away], 1e-12)
}
