package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulePrepareDefaults(t *testing.T) {
	rule := &AlertRule{
		UserID:     "user-1",
		Symbol:     " btc ",
		Timeframes: []string{"1h"},
		Thresholds: []float64{2, 3},
	}

	require.NoError(t, rule.Prepare())
	assert.Equal(t, "BTC", rule.Symbol)
	assert.Equal(t, DefaultBaselineWindow, rule.BaselineWindow)
	assert.Equal(t, DefaultRuleCooldownSec, rule.CooldownSeconds)
}

func TestRulePrepareValidation(t *testing.T) {
	cases := []struct {
		name string
		rule AlertRule
	}{
		{"符号为空", AlertRule{Timeframes: []string{"1h"}, Thresholds: []float64{2}}},
		{"周期为空", AlertRule{Symbol: "BTC", Thresholds: []float64{2}}},
		{"阈值为空", AlertRule{Symbol: "BTC", Timeframes: []string{"1h"}}},
		{"阈值非正", AlertRule{Symbol: "BTC", Timeframes: []string{"1h"}, Thresholds: []float64{2, -1}}},
		{"冷却为负", AlertRule{Symbol: "BTC", Timeframes: []string{"1h"}, Thresholds: []float64{2}, CooldownSeconds: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Prepare()
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}
