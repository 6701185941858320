package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetReturnCommissionOnProfitOnly(t *testing.T) {
	// winning leg: commission taken from the 90 profit
	net := NetReturn(30, 30*4, 10)
	assert.InDelta(t, 111, net, 1e-9)
	assert.InDelta(t, 11, net-100, 1e-9)

	// losing leg: no rebate
	assert.Equal(t, 15.0, NetReturn(30, 30*0.5, 10))

	// break-even leg is untouched
	assert.Equal(t, 30.0, NetReturn(30, 30, 10))
}

func TestCommissionRate(t *testing.T) {
	assert.Equal(t, 0.0, commissionRate(nil, SourceKalshi, DefaultExchangeCommission))
	assert.Equal(t, DefaultExchangeCommission, commissionRate(nil, SourceExchange, DefaultExchangeCommission))
	assert.Equal(t, 5.0, commissionRate(ptr(5), SourceKalshi, DefaultExchangeCommission))
	assert.Equal(t, 0.0, commissionRate(ptr(0), SourceExchange, DefaultExchangeCommission))
	assert.Equal(t, DefaultExchangeCommission, commissionRate(ptr(-1), SourceExchange, DefaultExchangeCommission))
	assert.Equal(t, 100.0, commissionRate(ptr(100), SourceExchange, DefaultExchangeCommission))
	assert.Equal(t, DefaultExchangeCommission, commissionRate(ptr(100.5), SourceExchange, DefaultExchangeCommission))
	assert.Equal(t, 0.0, commissionRate(ptr(1e308), SourceKalshi, DefaultExchangeCommission))
}

func TestLegReturn(t *testing.T) {
	leg := legReturn(Price{Odd: 4, Source: SourceExchange}, 30, 100, 10)

	assert.Equal(t, 120.0, leg.GrossReturn)
	assert.Equal(t, 90.0, leg.GrossProfit)
	assert.Equal(t, 20.0, leg.Profit)
	assert.InDelta(t, 111, leg.NetReturn, 1e-9)
	assert.InDelta(t, 11, leg.NetProfit, 1e-9)
	assert.Equal(t, SourceExchange, leg.Source)
	assert.Equal(t, 10.0, leg.CommissionRate)
}

func TestLegReturnUnpriceableOdd(t *testing.T) {
	for _, odd := range []float64{math.Inf(1), math.NaN(), MaxOdd * 2} {
		leg := legReturn(Price{Odd: odd, Source: SourceKalshi}, 0, 100, 0)

		assert.Equal(t, 0.0, leg.Odd)
		assert.Equal(t, 0.0, leg.GrossReturn)
		assert.Equal(t, 0.0, leg.NetReturn)
		assert.Equal(t, -100.0, leg.NetProfit)
	}
}
