package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTo2(t *testing.T) {
	assert.Equal(t, 0.3, RoundTo2(0.1+0.2))
	assert.Equal(t, 1.01, RoundTo2(1.005))
	assert.Equal(t, -1.01, RoundTo2(-1.005))
	assert.Equal(t, 0.0, RoundTo2(0))
	assert.Equal(t, 123.46, RoundTo2(123.456))
}

func TestAddRoundsOnce(t *testing.T) {
	assert.Equal(t, 0.3, Add(0.1, 0.2))
	assert.Equal(t, 0.0, Add())
	assert.Equal(t, 100.0, Add(25.5, 24.5, 50))
}

func TestAddAccumulatorStability(t *testing.T) {
	// Repeated per-entry accumulation must not drift: ten additions of 0.1
	// end at exactly 1.0, not 0.9999999999999999.
	balance := 0.0
	for i := 0; i < 10; i++ {
		balance = Add(balance, 0.1)
	}
	assert.Equal(t, 1.0, balance)
}

func TestSub(t *testing.T) {
	assert.Equal(t, 20.0, Sub(100, 80))
	assert.Equal(t, -20.0, Sub(80, 100))
	assert.Equal(t, 0.1, Sub(0.3, 0.2))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.34, 12.34},
		{"int", 7, 7},
		{"int64", int64(9), 9},
		{"numeric string", "42.5", 42.5},
		{"padded string", " 3.25 ", 3.25},
		{"negative string", "-10", -10},
		{"empty string", "", 0},
		{"garbage string", "abc", 0},
		{"json number", json.Number("15.75"), 15.75},
		{"bad json number", json.Number("x"), 0},
		{"unsupported type", struct{}{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseAmount(tc.in))
		})
	}
}
