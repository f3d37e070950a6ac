package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApproveUpdate finalizes a request. Level 0 means no chain bookkeeping
// (auto-approval or pending_hr confirmation). A nil Approver records a
// system decision.
type ApproveUpdate struct {
	From     Status
	Approver *uuid.UUID
	At       time.Time
	Level    int
	Comments *string
	Note     string
}

type RejectUpdate struct {
	From     Status
	Approver uuid.UUID
	At       time.Time
	Reason   string
	Level    int
	Comments *string
	Note     string
}

type CancelUpdate struct {
	From Status
	At   time.Time
	Note string
}

// ChainAdvance records an approval at FromLevel and hands the request to
// the next approver.
type ChainAdvance struct {
	FromLevel    int
	Approver     uuid.UUID
	At           time.Time
	Comments     *string
	NextLevel    int
	NextApprover uuid.UUID
	SLADeadline  time.Time
	Note         string
}

// ChainEscalation advances past an approver who breached the SLA.
type ChainEscalation struct {
	FromLevel    int
	At           time.Time
	NextLevel    int
	NextApprover uuid.UUID
	SLADeadline  time.Time
	Note         string
}

// All state transitions are single conditional writes: the WHERE clause
// re-checks the expected source state, so a racing actor's losing write
// affects zero rows and is reported as (false, nil), never an error.
//
//go:generate mockgen -source=request_repo.go -destination=mock/request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindAll(ctx context.Context, limit, offset int) ([]LeaveRequest, int64, error)
	FindByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]LeaveRequest, int64, error)

	MarkApproved(ctx context.Context, id uuid.UUID, u ApproveUpdate) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, u RejectUpdate) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, u CancelUpdate) (bool, error)
	AdvanceChain(ctx context.Context, id uuid.UUID, u ChainAdvance) (bool, error)
	EscalateChain(ctx context.Context, id uuid.UUID, u ChainEscalation) (bool, error)
	ExtendSLA(ctx context.Context, id uuid.UUID, level int, deadline time.Time, note string) (bool, error)

	MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkPriorityEligible(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	DisablePriorityFlag(ctx context.Context, id uuid.UUID) (bool, error)
	RecordEscalation(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error)
	AppendNote(ctx context.Context, id uuid.UUID, note string) error

	ListEligibilityCandidates(ctx context.Context, cutoff time.Time, limit int) ([]LeaveRequest, error)
	ListStaleRedPriority(ctx context.Context, cutoff time.Time, limit int) ([]LeaveRequest, error)
	ListSLABreached(ctx context.Context, now time.Time, limit int) ([]LeaveRequest, error)

	CreateBadge(ctx context.Context, b *PriorityBadge) error
	FindBadge(ctx context.Context, requestID uuid.UUID) (*PriorityBadge, error)
	MarkBadgeNotified(ctx context.Context, requestID uuid.UUID, at time.Time, emailSent bool) error
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *repository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, employee_id, leave_type, start_date, end_date, total_days, is_half_day, reason,
	status, mode_at_submission,
	hr_assigned_at, can_set_priority, escalation_count, processing_notes, ledger_booked,
	required_levels, current_level, current_approver, sla_deadline,
	level1_approver, level1_status, level2_approver, level2_status, level3_approver, level3_status,
	approved_by, approved_at,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8,
	$9, $10,
	$11, $12, $13, $14, $15,
	$16, $17, $18, $19,
	$20, $21, $22, $23, $24, $25,
	$26, $27,
	NOW(), NOW()
)
`
	_, err := r.execer().ExecContext(ctx, query,
		l.ID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.TotalDays, l.IsHalfDay, l.Reason,
		l.Status, l.ModeAtSubmission,
		l.HRAssignedAt, l.CanSetPriority, l.EscalationCount, l.ProcessingNotes, l.LedgerBooked,
		l.RequiredLevels, l.CurrentLevel, l.CurrentApprover, l.SLADeadline,
		l.Level1Approver, l.Level1Status, l.Level2Approver, l.Level2Status, l.Level3Approver, l.Level3Status,
		l.ApprovedBy, l.ApprovedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindAll(ctx context.Context, limit, offset int) ([]LeaveRequest, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&LeaveRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []LeaveRequest
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	return list, total, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]LeaveRequest, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	return list, total, err
}

func (r *repository) MarkApproved(ctx context.Context, id uuid.UUID, u ApproveUpdate) (bool, error) {
	query := `
UPDATE leave_requests
SET
	status = 'approved',
	approved_by = $2,
	approved_at = $3,
	ledger_booked = TRUE,
	processing_notes = processing_notes || $4,
	updated_at = NOW()
WHERE id = $1 AND status = $5
`
	args := []any{id, u.Approver, u.At, noteLine(u.At, u.Note), u.From}
	if u.Level >= 1 && u.Level <= 3 {
		query = fmt.Sprintf(`
UPDATE leave_requests
SET
	status = 'approved',
	approved_by = $2,
	approved_at = $3,
	ledger_booked = TRUE,
	level%d_status = 'approved',
	level%d_action_at = $3,
	level%d_comments = $6,
	processing_notes = processing_notes || $4,
	updated_at = NOW()
WHERE id = $1 AND status = $5 AND current_level = %d
`, u.Level, u.Level, u.Level, u.Level)
		args = append(args, u.Comments)
	}

	return r.affected(ctx, query, args...)
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, u RejectUpdate) (bool, error) {
	query := `
UPDATE leave_requests
SET
	status = 'rejected',
	approved_by = NULL,
	approved_at = NULL,
	rejection_reason = $2,
	processing_notes = processing_notes || $3,
	updated_at = NOW()
WHERE id = $1 AND status = $4
`
	args := []any{id, u.Reason, noteLine(u.At, u.Note), u.From}
	if u.Level >= 1 && u.Level <= 3 {
		query = fmt.Sprintf(`
UPDATE leave_requests
SET
	status = 'rejected',
	approved_by = NULL,
	approved_at = NULL,
	rejection_reason = $2,
	level%d_status = 'rejected',
	level%d_action_at = $5,
	level%d_comments = $6,
	processing_notes = processing_notes || $3,
	updated_at = NOW()
WHERE id = $1 AND status = $4 AND current_level = %d
`, u.Level, u.Level, u.Level, u.Level)
		args = append(args, u.At, u.Comments)
	}

	return r.affected(ctx, query, args...)
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, u CancelUpdate) (bool, error) {
	query := `
UPDATE leave_requests
SET
	status = 'cancelled',
	cancelled_at = $2,
	processing_notes = processing_notes || $3,
	updated_at = NOW()
WHERE id = $1 AND status = $4
`
	return r.affected(ctx, query, id, u.At, noteLine(u.At, u.Note), u.From)
}

func (r *repository) AdvanceChain(ctx context.Context, id uuid.UUID, u ChainAdvance) (bool, error) {
	query := fmt.Sprintf(`
UPDATE leave_requests
SET
	level%d_status = 'approved',
	level%d_action_at = $2,
	level%d_comments = $3,
	current_level = $4,
	current_approver = $5,
	level%d_approver = $5,
	level%d_status = 'pending',
	sla_deadline = $6,
	processing_notes = processing_notes || $7,
	updated_at = NOW()
WHERE id = $1 AND status = 'pending' AND current_level = %d
`, u.FromLevel, u.FromLevel, u.FromLevel, u.NextLevel, u.NextLevel, u.FromLevel)
	return r.affected(ctx, query,
		id, u.At, u.Comments, u.NextLevel, u.NextApprover, u.SLADeadline, noteLine(u.At, u.Note),
	)
}

func (r *repository) EscalateChain(ctx context.Context, id uuid.UUID, u ChainEscalation) (bool, error) {
	query := fmt.Sprintf(`
UPDATE leave_requests
SET
	current_level = $2,
	current_approver = $3,
	level%d_approver = $3,
	level%d_status = 'pending',
	sla_deadline = $4,
	processing_notes = processing_notes || $5,
	updated_at = NOW()
WHERE id = $1 AND status = 'pending' AND current_level = %d AND sla_deadline <= $6
`, u.NextLevel, u.NextLevel, u.FromLevel)
	return r.affected(ctx, query,
		id, u.NextLevel, u.NextApprover, u.SLADeadline, noteLine(u.At, u.Note), u.At,
	)
}

func (r *repository) ExtendSLA(ctx context.Context, id uuid.UUID, level int, deadline time.Time, note string) (bool, error) {
	query := `
UPDATE leave_requests
SET
	sla_deadline = $2,
	processing_notes = processing_notes || $3,
	updated_at = NOW()
WHERE id = $1 AND status = 'pending' AND current_level = $4 AND sla_deadline <= NOW()
`
	return r.affected(ctx, query, id, deadline, noteLine(deadline, note), level)
}

func (r *repository) MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	// hr_viewed_at only ever goes null -> non-null, once.
	query := `
UPDATE leave_requests
SET hr_viewed_at = $2, updated_at = NOW()
WHERE id = $1 AND hr_viewed_at IS NULL
`
	return r.affected(ctx, query, id, at)
}

func (r *repository) MarkPriorityEligible(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
UPDATE leave_requests
SET can_set_priority = TRUE, priority_eligible_at = $2, updated_at = NOW()
WHERE id = $1
	AND status = 'pending'
	AND mode_at_submission = 'normal'
	AND hr_viewed_at IS NULL
	AND can_set_priority = FALSE
`
	return r.affected(ctx, query, id, at)
}

func (r *repository) DisablePriorityFlag(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
UPDATE leave_requests
SET can_set_priority = FALSE, updated_at = NOW()
WHERE id = $1 AND can_set_priority = TRUE
`
	return r.affected(ctx, query, id)
}

func (r *repository) RecordEscalation(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
	query := `
UPDATE leave_requests
SET
	escalation_count = escalation_count + 1,
	last_escalation_at = $2,
	processing_notes = processing_notes || $3,
	updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`
	return r.affected(ctx, query, id, at, noteLine(at, note))
}

func (r *repository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	query := `
UPDATE leave_requests
SET processing_notes = processing_notes || $2, updated_at = NOW()
WHERE id = $1
`
	_, err := r.execer().ExecContext(ctx, query, id, noteLine(time.Now().UTC(), note))
	return err
}

func (r *repository) ListEligibilityCandidates(ctx context.Context, cutoff time.Time, limit int) ([]LeaveRequest, error) {
	var list []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Where("mode_at_submission = ?", "normal").
		Where("hr_viewed_at IS NULL").
		Where("can_set_priority = ?", false).
		Where("created_at <= ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *repository) ListStaleRedPriority(ctx context.Context, cutoff time.Time, limit int) ([]LeaveRequest, error) {
	var list []LeaveRequest
	err := r.db.WithContext(ctx).
		Joins("JOIN priority_badges pb ON pb.request_id = leave_requests.id").
		Where("pb.level = ?", PriorityRed).
		Where("pb.set_at <= ?", cutoff).
		Where("leave_requests.status = ?", StatusPending).
		Where("leave_requests.hr_viewed_at IS NULL").
		Order("pb.set_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *repository) ListSLABreached(ctx context.Context, now time.Time, limit int) ([]LeaveRequest, error) {
	var list []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Where("sla_deadline IS NOT NULL").
		Where("sla_deadline <= ?", now).
		Order("sla_deadline ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *repository) CreateBadge(ctx context.Context, b *PriorityBadge) error {
	query := `
INSERT INTO priority_badges (request_id, level, reason, set_at)
VALUES ($1, $2, $3, $4)
`
	_, err := r.execer().ExecContext(ctx, query, b.RequestID, b.Level, b.Reason, b.SetAt)
	return err
}

func (r *repository) FindBadge(ctx context.Context, requestID uuid.UUID) (*PriorityBadge, error) {
	var b PriorityBadge
	err := r.db.WithContext(ctx).First(&b, "request_id = ?", requestID).Error
	return &b, err
}

func (r *repository) MarkBadgeNotified(ctx context.Context, requestID uuid.UUID, at time.Time, emailSent bool) error {
	query := `
UPDATE priority_badges
SET hr_notified_at = $2, email_sent_at = CASE WHEN $3 THEN $2 ELSE email_sent_at END
WHERE request_id = $1
`
	_, err := r.execer().ExecContext(ctx, query, requestID, at, emailSent)
	return err
}

func (r *repository) affected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.execer().ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func noteLine(at time.Time, note string) string {
	if note == "" {
		return ""
	}
	return fmt.Sprintf("\n[%s] %s", at.UTC().Format(time.RFC3339), note)
}
