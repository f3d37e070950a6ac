package request

// Status is the closed disposition state set for a leave request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPendingHR Status = "pending_hr"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// transitions is the exhaustive edge table. approved -> cancelled is the
// one edge out of a terminal state: owner cancellation of an already
// approved request, which reverses the ledger booking.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusPendingHR: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCancelled},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// ApprovalStatus tracks one level of the multi-level chain.
type ApprovalStatus string

const (
	LevelNotRequired ApprovalStatus = "not_required"
	LevelPending     ApprovalStatus = "pending"
	LevelApproved    ApprovalStatus = "approved"
	LevelRejected    ApprovalStatus = "rejected"
)

// PriorityLevel is the employee-set expedite flag.
type PriorityLevel string

const (
	PriorityYellow PriorityLevel = "yellow"
	PriorityRed    PriorityLevel = "red"
)

func (p PriorityLevel) Valid() bool {
	return p == PriorityYellow || p == PriorityRed
}

// LeaveTypes is the closed set of accepted leave types.
var LeaveTypes = map[string]bool{
	"vacation":          true,
	"sick_leave":        true,
	"personal":          true,
	"unpaid":            true,
	"emergency":         true,
	"maternity_leave":   true,
	"paternity_leave":   true,
	"bereavement_leave": true,
	"comp_off":          true,
}
