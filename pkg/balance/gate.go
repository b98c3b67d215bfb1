package balance

import (
	"github.com/shopspring/decimal"
)

// minorUnitDecimals is the scale of the chain's smallest denomination.
const minorUnitDecimals = 18

// DefaultGasReserve is the native balance kept back to pay future fees.
var DefaultGasReserve = decimal.RequireFromString("0.005")

// Snapshot holds the balances read from the wallet service. Mon and Native
// are the same asset today; the reserve check reads Native so a future split
// keeps working.
type Snapshot struct {
	Mon    decimal.Decimal
	Native decimal.Decimal
}

// SkipReason says why no transfer should happen.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipInsufficientGas SkipReason = "insufficient-gas"
	SkipNothingToSend   SkipReason = "nothing-to-send"
)

// Decision is the outcome of the transfer gate. When Skip is SkipNone,
// Amount is the display-unit value to send and MinorUnits its integer
// representation in the chain's smallest denomination.
type Decision struct {
	Amount     decimal.Decimal
	MinorUnits string
	Skip       SkipReason
}

// Decide computes the sweep amount: everything above the gas reserve, or a
// skip when the native balance cannot cover the reserve or nothing would be
// left to send. Pure; exact decimal arithmetic end to end.
func Decide(snap Snapshot, gasReserve decimal.Decimal) Decision {
	if snap.Native.LessThan(gasReserve) {
		return Decision{Skip: SkipInsufficientGas}
	}

	amount := decimal.Zero
	if snap.Mon.GreaterThan(gasReserve) {
		amount = snap.Mon.Sub(gasReserve)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Decision{Skip: SkipNothingToSend}
	}

	return Decision{
		Amount:     amount,
		MinorUnits: ToMinorUnits(amount),
	}
}

// ToMinorUnits scales a display-unit amount by 10^18 and truncates to an
// integer string. Amounts near the full-balance boundary exceed float64
// precision, hence the decimal path.
func ToMinorUnits(amount decimal.Decimal) string {
	return amount.Shift(minorUnitDecimals).Truncate(0).String()
}

// FromMinorUnits is the inverse scaling, used to report what was sent.
func FromMinorUnits(minor string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(minor)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Shift(-minorUnitDecimals), nil
}
