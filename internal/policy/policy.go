// Package policy decides a leave request's initial disposition from the
// global mode, the auto-approve allow-list, and the oracle's verdict.
// It is pure: callers fetch a fresh config snapshot and (where the mode
// permits automation) an oracle recommendation, then ask for a decision.
package policy

import (
	"fmt"

	"leaveflow/internal/oracle"
	"leaveflow/internal/sysconfig"
)

// Disposition is the initial status a request receives at submission.
type Disposition string

const (
	DispositionApproved  Disposition = "approved"
	DispositionPending   Disposition = "pending"
	DispositionPendingHR Disposition = "pending_hr"
)

type Decision struct {
	Disposition Disposition
	// Note is appended to the request's processing notes.
	Note string
	// HRAssigned marks the request as routed to a human from the start.
	HRAssigned bool
}

// AutomationAllowed reports whether the automated path may run at all
// for this leave type under the given mode. In normal mode only
// allow-listed types are automated; everything else goes straight to a
// human, regardless of what the oracle would say.
func AutomationAllowed(mode sysconfig.Mode, leaveType string, autoApproveTypes []string) bool {
	if mode == sysconfig.ModeAutomatic {
		return true
	}
	for _, t := range autoApproveTypes {
		if t == leaveType {
			return true
		}
	}
	return false
}

// DecideInitialDisposition maps an oracle recommendation onto a
// disposition. rec is nil when automation was bypassed for this request.
//
// An oracle "reject" is never auto-rejected: a hard policy violation is
// flagged to HR so a human confirms the rejection.
func DecideInitialDisposition(facts oracle.Facts, mode sysconfig.Mode, autoApproveTypes []string, rec *oracle.Recommendation) Decision {
	if !AutomationAllowed(mode, facts.LeaveType, autoApproveTypes) || rec == nil {
		return Decision{
			Disposition: DispositionPending,
			Note:        fmt.Sprintf("normal mode: %s requires manual review, assigned to HR", facts.LeaveType),
			HRAssigned:  true,
		}
	}

	switch rec.Recommendation {
	case oracle.RecommendApprove:
		if rec.CanAutoApprove {
			return Decision{
				Disposition: DispositionApproved,
				Note:        fmt.Sprintf("auto-approved (confidence %.2f): %s", rec.Confidence, rec.Reason),
			}
		}
		return Decision{
			Disposition: DispositionPending,
			Note:        fmt.Sprintf("oracle recommends approval but not auto-approvable: %s", rec.Reason),
		}
	case oracle.RecommendReject:
		return Decision{
			Disposition: DispositionPendingHR,
			Note:        fmt.Sprintf("flagged for HR confirmation, oracle recommends rejection: %s", rec.Reason),
			HRAssigned:  true,
		}
	default:
		return Decision{
			Disposition: DispositionPending,
			Note:        fmt.Sprintf("oracle recommends %s: %s", rec.Recommendation, rec.Reason),
		}
	}
}
