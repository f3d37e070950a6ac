package request

import (
	"time"

	"github.com/google/uuid"
)

type SubmitLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	LeaveType  string `json:"leave_type" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	IsHalfDay  bool   `json:"is_half_day"`
	Reason     string `json:"reason"`
}

type ApproveRequest struct {
	Comments *string `json:"comments"`
}

type RejectRequest struct {
	RejectionReason string  `json:"rejection_reason" binding:"required"`
	Comments        *string `json:"comments"`
}

type SetPriorityRequest struct {
	Level  string `json:"level" binding:"required,oneof=yellow red"`
	Reason string `json:"reason"`
}

type LevelResponse struct {
	Level    int     `json:"level"`
	Approver *string `json:"approver,omitempty"`
	Status   string  `json:"status"`
	ActionAt *string `json:"action_at,omitempty"`
	Comments *string `json:"comments,omitempty"`
}

type LeaveRequestResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	LeaveType        string  `json:"leave_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	TotalDays        float64 `json:"total_days"`
	IsHalfDay        bool    `json:"is_half_day"`
	Reason           string  `json:"reason,omitempty"`
	Status           string  `json:"status"`
	ModeAtSubmission string  `json:"mode_at_submission"`

	HRAssignedAt       *string `json:"hr_assigned_at,omitempty"`
	HRViewedAt         *string `json:"hr_viewed_at,omitempty"`
	CanSetPriority     bool    `json:"can_set_priority"`
	PriorityEligibleAt *string `json:"priority_eligible_at,omitempty"`
	EscalationCount    int     `json:"escalation_count"`
	LastEscalationAt   *string `json:"last_escalation_at,omitempty"`
	ProcessingNotes    string  `json:"processing_notes,omitempty"`

	RequiredLevels  int             `json:"required_levels"`
	CurrentLevel    int             `json:"current_level"`
	CurrentApprover *string         `json:"current_approver,omitempty"`
	SLADeadline     *string         `json:"sla_deadline,omitempty"`
	Levels          []LevelResponse `json:"levels,omitempty"`

	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CancelledAt     *string `json:"cancelled_at,omitempty"`

	CreatedAt string `json:"created_at"`
}

type PriorityBadgeResponse struct {
	RequestID    string  `json:"request_id"`
	Level        string  `json:"level"`
	Reason       string  `json:"reason,omitempty"`
	SetAt        string  `json:"set_at"`
	HRNotifiedAt *string `json:"hr_notified_at,omitempty"`
	EmailSentAt  *string `json:"email_sent_at,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func formatUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}
