package oracle

import (
	"time"

	"github.com/shopspring/decimal"
)

// fallbackMaxAutoApproveDays caps the deterministic offline path at short
// requests, keeping it strictly less permissive than the live oracle.
var fallbackMaxAutoApproveDays = decimal.NewFromInt(3)

// OfflineTag marks fallback verdicts in processing notes and audit logs.
const OfflineTag = "oracle-offline"

// FallbackRecommendation is the single deterministic verdict used by both
// the submission and escalation paths whenever the oracle is unreachable.
func FallbackRecommendation(facts Facts) Recommendation {
	if facts.TotalDays.LessThanOrEqual(fallbackMaxAutoApproveDays) {
		return Recommendation{
			Recommendation: RecommendApprove,
			Confidence:     0.5,
			CanAutoApprove: true,
			Reason:         OfflineTag + ": duration within local auto-approve window",
			Offline:        true,
		}
	}
	return Recommendation{
		Recommendation: RecommendReview,
		Confidence:     0.0,
		CanAutoApprove: false,
		Reason:         OfflineTag + ": duration exceeds local auto-approve window",
		Offline:        true,
	}
}

// NaiveDayCount is the calendar-day fallback when the working-day
// calculation is unavailable: inclusive of both endpoints, minus 0.5 for
// a flagged half-day.
func NaiveDayCount(start, end time.Time, isHalfDay bool) decimal.Decimal {
	days := decimal.NewFromInt(int64(end.Sub(start).Hours()/24) + 1)
	if isHalfDay {
		days = days.Sub(decimal.NewFromFloat(0.5))
	}
	return days
}
