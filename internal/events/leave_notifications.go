package events

import "time"

const LeaveNotificationTopic = "hr.leave.notifications.v1"

// Event types carried on the leave notification topic.
const (
	LeaveSubmitted        = "leave.submitted"
	LeaveApproved         = "leave.approved"
	LeaveRejected         = "leave.rejected"
	LeaveCancelled        = "leave.cancelled"
	LeavePendingHR        = "leave.pending_hr"
	LeavePriorityEligible = "leave.priority_eligible"
	LeavePrioritySet      = "leave.priority_set"
	LeaveEscalated        = "leave.escalated"
	LeaveSLABreached      = "leave.sla_breached"
	LeaveChainAdvanced    = "leave.chain_advanced"
)

// LeaveNotificationEvent is the payload for every leave notification.
type LeaveNotificationEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id"`
	EmployeeID    string    `json:"employee_id"`
	RecipientKind string    `json:"recipient_kind"`
	RecipientID   string    `json:"recipient_id,omitempty"`
	LeaveType     string    `json:"leave_type,omitempty"`
	Status        string    `json:"status,omitempty"`
	Message       string    `json:"message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
