package calculator

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

func TestParseOptional(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"", nil},
		{"   ", nil},
		{"abc", nil},
		{"-1.5", nil},
		{"0", ptr(0)},
		{"2.5", ptr(2.5)},
		{" 3.10 ", ptr(3.1)},
		{"1e3", ptr(1000)},
		{"0e-999999", ptr(0)},
		{"1e50000000", nil},
		{"1e-50000000", nil},
		{"9e400", nil},
		{"1" + strings.Repeat("0", 80), nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.12s", tt.input), func(t *testing.T) {
			got := ParseOptional(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseOptionalHugeExponentIsFast(t *testing.T) {
	start := time.Now()
	for _, s := range []string{"1e50000000", "1e2147483647", "0.0e-99999999", "1e-2147483648"} {
		got := ParseOptional(s)
		if s[0] == '0' {
			require.NotNil(t, got)
			assert.Equal(t, 0.0, *got)
			continue
		}
		assert.Nil(t, got, s)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestParsePercent(t *testing.T) {
	assert.Equal(t, 0.0, ParsePercent(""))
	assert.Equal(t, 0.0, ParsePercent("ten"))
	assert.Equal(t, 0.0, ParsePercent("-10"))
	assert.Equal(t, 10.0, ParsePercent("10"))
}

func TestUserInputs(t *testing.T) {
	in := UserInputs{
		ExchangeOdds:   OutcomeInputs{Home: "2.5", Draw: "", Away: "x"},
		AH0Odds:        HedgeInputs{Home: "1.95"},
		WorkEvent:      true,
		MaxLossPercent: "10",
		Commissions:    OutcomeInputs{Draw: "-2", Away: "0"},
		Results:        OutcomeInputs{Home: "won"},
	}
	probs := models.Probabilities{Home: 0.4, Draw: 0.3, Away: 0.3}

	q := in.Quote(probs)
	assert.Equal(t, probs, q.Probabilities)
	require.NotNil(t, q.ExchangeOdds.Home)
	assert.Equal(t, 2.5, *q.ExchangeOdds.Home)
	assert.Nil(t, q.ExchangeOdds.Draw)
	assert.Nil(t, q.ExchangeOdds.Away)
	require.NotNil(t, q.HedgeOdds.Home)
	assert.Nil(t, q.HedgeOdds.Away)

	risk := in.Risk()
	assert.True(t, risk.WorkEvent)
	assert.Equal(t, 10.0, risk.MaxLossPercent)
	assert.Nil(t, risk.Commissions.Draw)
	require.NotNil(t, risk.Commissions.Away)
	assert.Equal(t, 0.0, *risk.Commissions.Away)
}
