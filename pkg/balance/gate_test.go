package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		mon        string
		native     string
		wantSkip   SkipReason
		wantAmount string
		wantMinor  string
	}{
		{
			name:       "normal sweep leaves the reserve",
			mon:        "1.0",
			native:     "1.0",
			wantAmount: "0.995",
			wantMinor:  "995000000000000000",
		},
		{
			name:     "native below reserve blocks everything",
			mon:      "1.0",
			native:   "0.004",
			wantSkip: SkipInsufficientGas,
		},
		{
			name:     "balance below reserve has nothing to send",
			mon:      "0.003",
			native:   "0.003",
			wantSkip: SkipInsufficientGas,
		},
		{
			name:     "balance exactly the reserve",
			mon:      "0.005",
			native:   "0.005",
			wantSkip: SkipNothingToSend,
		},
		{
			name:     "zero balances",
			mon:      "0",
			native:   "0",
			wantSkip: SkipInsufficientGas,
		},
		{
			name:     "native covers gas but reward balance is empty",
			mon:      "0",
			native:   "0.01",
			wantSkip: SkipNothingToSend,
		},
		{
			name:       "full 18-decimal precision survives",
			mon:        "1.000000000000000001",
			native:     "1.000000000000000001",
			wantAmount: "0.995000000000000001",
			wantMinor:  "995000000000000001",
		},
		{
			name:       "large balance has no float drift",
			mon:        "123456.789012345678901234",
			native:     "123456.789012345678901234",
			wantAmount: "123456.784012345678901234",
			wantMinor:  "123456784012345678901234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Snapshot{Mon: d(tt.mon), Native: d(tt.native)}, DefaultGasReserve)
			assert.Equal(t, tt.wantSkip, got.Skip)
			if tt.wantSkip == SkipNone {
				assert.True(t, got.Amount.Equal(d(tt.wantAmount)),
					"amount: got %s, want %s", got.Amount, tt.wantAmount)
				assert.Equal(t, tt.wantMinor, got.MinorUnits)
				assert.True(t, got.Amount.LessThan(d(tt.mon)))
				assert.False(t, got.Amount.IsNegative())
			}
		})
	}
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	amounts := []string{"0.995", "0.000001", "1", "42.123456", "999999.999999"}
	for _, a := range amounts {
		amount := d(a)
		back, err := FromMinorUnits(ToMinorUnits(amount))
		assert.NoError(t, err)
		// At least six decimal places must survive the round trip.
		assert.True(t, back.Sub(amount).Abs().LessThan(d("0.000001")),
			"round trip of %s drifted to %s", amount, back)
	}
}

func TestFromMinorUnitsRejectsGarbage(t *testing.T) {
	_, err := FromMinorUnits("not-a-number")
	assert.Error(t, err)
}
