package request

import "github.com/shopspring/decimal"

var (
	level2ThresholdDays = decimal.NewFromInt(5)
	level3ThresholdDays = decimal.NewFromInt(10)
)

// RequiredLevels sizes the approval chain from the requested day count:
// one approver by default, a second from 5 days, a third from 10.
func RequiredLevels(totalDays decimal.Decimal) int {
	switch {
	case totalDays.GreaterThanOrEqual(level3ThresholdDays):
		return 3
	case totalDays.GreaterThanOrEqual(level2ThresholdDays):
		return 2
	default:
		return 1
	}
}
