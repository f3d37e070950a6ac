package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveRequest is the central entity: retained forever for audit, never
// deleted. Terminal states are reached by transition, not removal.
type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`

	LeaveType string          `gorm:"type:varchar(30);not null"`
	StartDate time.Time       `gorm:"type:date;not null"`
	EndDate   time.Time       `gorm:"type:date;not null"`
	TotalDays decimal.Decimal `gorm:"type:numeric(4,1);not null"`
	IsHalfDay bool            `gorm:"not null;default:false"`
	Reason    string          `gorm:"type:text"`

	Status           Status `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_status"`
	ModeAtSubmission string `gorm:"type:varchar(10);not null"`

	HRAssignedAt       *time.Time `gorm:"column:hr_assigned_at"`
	HRViewedAt         *time.Time `gorm:"column:hr_viewed_at"`
	CanSetPriority     bool       `gorm:"not null;default:false"`
	PriorityEligibleAt *time.Time
	EscalationCount    int `gorm:"not null;default:0"`
	LastEscalationAt   *time.Time
	ProcessingNotes    string `gorm:"type:text;not null;default:''"`
	LedgerBooked       bool   `gorm:"not null;default:false"`

	// Approval chain. RequiredLevels is fixed at submission from the day
	// count; level columns past it stay not_required.
	RequiredLevels  int        `gorm:"not null;default:1"`
	CurrentLevel    int        `gorm:"not null;default:1"`
	CurrentApprover *uuid.UUID `gorm:"type:uuid"`
	SLADeadline     *time.Time `gorm:"column:sla_deadline;index:idx_leave_requests_sla"`

	Level1Approver *uuid.UUID     `gorm:"column:level1_approver;type:uuid"`
	Level1Status   ApprovalStatus `gorm:"column:level1_status;type:varchar(15);not null;default:'not_required'"`
	Level1ActionAt *time.Time     `gorm:"column:level1_action_at"`
	Level1Comments *string        `gorm:"column:level1_comments;type:text"`

	Level2Approver *uuid.UUID     `gorm:"column:level2_approver;type:uuid"`
	Level2Status   ApprovalStatus `gorm:"column:level2_status;type:varchar(15);not null;default:'not_required'"`
	Level2ActionAt *time.Time     `gorm:"column:level2_action_at"`
	Level2Comments *string        `gorm:"column:level2_comments;type:text"`

	Level3Approver *uuid.UUID     `gorm:"column:level3_approver;type:uuid"`
	Level3Status   ApprovalStatus `gorm:"column:level3_status;type:varchar(15);not null;default:'not_required'"`
	Level3ActionAt *time.Time     `gorm:"column:level3_action_at"`
	Level3Comments *string        `gorm:"column:level3_comments;type:text"`

	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`
	CancelledAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l *LeaveRequest) LevelStatus(level int) ApprovalStatus {
	switch level {
	case 1:
		return l.Level1Status
	case 2:
		return l.Level2Status
	case 3:
		return l.Level3Status
	}
	return LevelNotRequired
}

func (l *LeaveRequest) LevelApprover(level int) *uuid.UUID {
	switch level {
	case 1:
		return l.Level1Approver
	case 2:
		return l.Level2Approver
	case 3:
		return l.Level3Approver
	}
	return nil
}

// PriorityBadge is one-to-one with a request, set at most once.
type PriorityBadge struct {
	RequestID    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Level        PriorityLevel `gorm:"type:varchar(10);not null"`
	Reason       string        `gorm:"type:text"`
	SetAt        time.Time     `gorm:"not null"`
	HRNotifiedAt *time.Time    `gorm:"column:hr_notified_at"`
	EmailSentAt  *time.Time
}

func (PriorityBadge) TableName() string {
	return "priority_badges"
}
