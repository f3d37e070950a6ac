package sysconfig

import "time"

// Setting is one ai_system_config row. The table is seeded with defaults
// and mutated only through the admin endpoints.
type Setting struct {
	Key       string `gorm:"primaryKey;type:varchar(64)"`
	Value     string `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time
	UpdatedBy *string `gorm:"type:varchar(64)"`
}

func (Setting) TableName() string {
	return "ai_system_config"
}

const (
	KeyMode                      = "ai_mode"
	KeyHRResponseTimeoutHours    = "hr_response_timeout_hours"
	KeyPriorityEscalationHours   = "priority_escalation_timeout_hours"
	KeyAutoApproveLeaveTypes     = "auto_approve_leave_types"
	KeyPriorityEmailEnabled      = "priority_email_enabled"
	KeyApprovalSLAHours          = "approval_sla_hours"
	KeyApprovalEscalatedSLAHours = "approval_escalated_sla_hours"
)

// Documented defaults, used whenever a key is absent from the table.
var defaults = map[string]string{
	KeyMode:                      string(ModeNormal),
	KeyHRResponseTimeoutHours:    "7",
	KeyPriorityEscalationHours:   "24",
	KeyAutoApproveLeaveTypes:     "sick_leave",
	KeyPriorityEmailEnabled:      "true",
	KeyApprovalSLAHours:          "48",
	KeyApprovalEscalatedSLAHours: "24",
}

// Mode is the global disposition mode.
type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeNormal    Mode = "normal"
)

func (m Mode) Valid() bool {
	return m == ModeAutomatic || m == ModeNormal
}
