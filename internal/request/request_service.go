package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leaveflow/internal/bootstrap"
	"leaveflow/internal/events"
	"leaveflow/internal/ledger"
	"leaveflow/internal/notify"
	"leaveflow/internal/oracle"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/policy"
	requesterrors "leaveflow/internal/request/errors"
	"leaveflow/internal/sysconfig"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EscalationResolver closes out open escalation-history entries when a
// request leaves the escalation path (e.g. owner cancellation).
type EscalationResolver interface {
	ResolveAllForRequest(ctx context.Context, requestID uuid.UUID, resolution string) error
}

//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	GetAll(ctx context.Context, page, pageSize int) ([]LeaveRequestResponse, int64, error)
	GetByEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]LeaveRequestResponse, int64, error)
	GetByID(ctx context.Context, id string) (LeaveRequestResponse, error)
	Approve(ctx context.Context, actorID, actorRole, id string, comments *string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, actorID, actorRole, id, reason string, comments *string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, actorID, id string) (LeaveRequestResponse, error)
	MarkViewed(ctx context.Context, actorID, id string) (LeaveRequestResponse, error)
	SetPriority(ctx context.Context, actorID, id string, req SetPriorityRequest) (PriorityBadgeResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	balances    ledger.Ledger
	oracle      oracle.Client
	config      sysconfig.Provider
	directory   orgdir.Directory
	notifier    notify.Dispatcher
	escalations EscalationResolver
	audit       bootstrap.AuditLogger
	logger      *zap.Logger
}

type ServiceDeps struct {
	DB          *sql.DB
	Repo        Repository
	Balances    ledger.Ledger
	Oracle      oracle.Client
	Config      sysconfig.Provider
	Directory   orgdir.Directory
	Notifier    notify.Dispatcher
	Escalations EscalationResolver
	Audit       bootstrap.AuditLogger
}

func NewService(deps ServiceDeps, logger ...*zap.Logger) Service {
	l := zap.L().Named("request.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.service")
	}
	return &service{
		db:          deps.DB,
		repo:        deps.Repo,
		balances:    deps.Balances,
		oracle:      deps.Oracle,
		config:      deps.Config,
		directory:   deps.Directory,
		notifier:    deps.Notifier,
		escalations: deps.Escalations,
		audit:       deps.Audit,
		logger:      l,
	}
}

func (s *service) Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("submit leave request",
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
	)

	employeeUUID, startDate, endDate, err := validateSubmit(actorID, req)
	if err != nil {
		s.logger.Warn("submit validation failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()
	notes := ""

	// Day count comes from the oracle's working-day calculation; a naive
	// calendar count covers for it when the call fails.
	totalDays, err := s.oracle.WorkingDays(ctx, startDate, endDate, req.IsHalfDay)
	if err != nil {
		totalDays = oracle.NaiveDayCount(startDate, endDate, req.IsHalfDay)
		notes += noteLine(now, oracle.OfflineTag+": day count from naive calendar fallback")
		s.logger.Warn("working-day calculation unavailable, using calendar fallback",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
	}

	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		s.logger.Error("config snapshot failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	facts := oracle.Facts{
		RequestID:  uuid.New(),
		EmployeeID: employeeUUID,
		LeaveType:  req.LeaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  totalDays,
		IsHalfDay:  req.IsHalfDay,
	}

	var rec *oracle.Recommendation
	if policy.AutomationAllowed(cfg.Mode, req.LeaveType, cfg.AutoApproveLeaveTypes) {
		r := s.oracle.Analyze(ctx, facts)
		rec = &r
	}

	decision := policy.DecideInitialDisposition(facts, cfg.Mode, cfg.AutoApproveLeaveTypes, rec)
	notes += noteLine(now, decision.Note)

	l := &LeaveRequest{
		ID:               facts.RequestID,
		EmployeeID:       employeeUUID,
		LeaveType:        req.LeaveType,
		StartDate:        startDate,
		EndDate:          endDate,
		TotalDays:        totalDays,
		IsHalfDay:        req.IsHalfDay,
		Reason:           req.Reason,
		ModeAtSubmission: string(cfg.Mode),
		ProcessingNotes:  notes,
		RequiredLevels:   RequiredLevels(totalDays),
		Level1Status:     LevelNotRequired,
		Level2Status:     LevelNotRequired,
		Level3Status:     LevelNotRequired,
	}
	if decision.HRAssigned {
		l.HRAssignedAt = &now
	}

	switch decision.Disposition {
	case policy.DispositionApproved:
		l.Status = StatusApproved
		l.LedgerBooked = true
		l.ApprovedAt = &now
	case policy.DispositionPendingHR:
		l.Status = StatusPendingHR
	default:
		l.Status = StatusPending
		s.engageChain(ctx, l, cfg, now)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	// A request is never acknowledged as approved without its matching
	// ledger debit: both land in the same transaction.
	if l.Status == StatusApproved {
		if err := s.balances.WithTx(tx).Book(ctx, l.EmployeeID, l.LeaveType, l.TotalDays); err != nil {
			s.logger.Error("submit ledger booking failed", zap.Error(err))
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.auditTransition(ctx, l.ID, "", l.Status, actorID, decision.Note)
	s.notifySubmitted(ctx, l)

	s.logger.Info("leave request submitted",
		zap.String("request_id", l.ID.String()),
		zap.String("status", string(l.Status)),
		zap.String("mode", l.ModeAtSubmission),
	)
	return mapToResponse(*l), nil
}

// engageChain wires up the approval chain for a freshly pending request.
// Directory failures degrade to an unassigned level 1; the SLA sweep or
// HR picks those up.
func (s *service) engageChain(ctx context.Context, l *LeaveRequest, cfg sysconfig.Snapshot, now time.Time) {
	l.CurrentLevel = 1
	deadline := now.Add(cfg.ApprovalSLA)
	l.SLADeadline = &deadline

	l.Level1Status = LevelPending
	if l.RequiredLevels >= 2 {
		l.Level2Status = LevelPending
	}
	if l.RequiredLevels >= 3 {
		l.Level3Status = LevelPending
	}

	manager, err := s.directory.ManagerOf(ctx, l.EmployeeID)
	if err != nil {
		s.logger.Warn("no manager resolved for level 1 approver",
			zap.String("employee_id", l.EmployeeID.String()),
			zap.Error(err),
		)
		return
	}
	l.CurrentApprover = &manager
	l.Level1Approver = &manager
}

func (s *service) GetAll(ctx context.Context, page, pageSize int) ([]LeaveRequestResponse, int64, error) {
	limit, offset := pageBounds(page, pageSize)
	list, total, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(list), total, nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string, page, pageSize int) ([]LeaveRequestResponse, int64, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, 0, requesterrors.ErrInvalidEmployeeID
	}
	limit, offset := pageBounds(page, pageSize)
	list, total, err := s.repo.FindByEmployee(ctx, employeeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(list), total, nil
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return pageSize, (page - 1) * pageSize
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveRequestResponse, error) {
	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actorID, actorRole, id string, comments *string) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidActorID
	}

	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !l.Status.CanTransitionTo(StatusApproved) {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}
	if err := s.checkApproverIdentity(l, actorUUID, actorRole); err != nil {
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()

	// A mid-chain approval only advances the chain; the request itself
	// finalizes at the last required level.
	if l.Status == StatusPending && l.CurrentLevel >= 1 && l.CurrentLevel < l.RequiredLevels {
		return s.advanceChain(ctx, l, actorUUID, comments, now)
	}

	return s.finalizeApproval(ctx, l, &actorUUID, comments, now,
		fmt.Sprintf("approved by %s", actorID))
}

func (s *service) advanceChain(ctx context.Context, l *LeaveRequest, actor uuid.UUID, comments *string, now time.Time) (LeaveRequestResponse, error) {
	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	nextLevel := l.CurrentLevel + 1
	nextApprover, err := s.directory.ApproverForLevel(ctx, l.EmployeeID, nextLevel)
	if err != nil && !errors.Is(err, orgdir.ErrNoApprover) {
		return LeaveRequestResponse{}, err
	}
	if errors.Is(err, orgdir.ErrNoApprover) {
		// A hole in the org chart must not stall the request: the HR
		// partner inherits the level.
		nextApprover, err = s.directory.HRPartnerOf(ctx, l.EmployeeID)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	ok, err := s.repo.AdvanceChain(ctx, l.ID, ChainAdvance{
		FromLevel:    l.CurrentLevel,
		Approver:     actor,
		At:           now,
		Comments:     comments,
		NextLevel:    nextLevel,
		NextApprover: nextApprover,
		SLADeadline:  now.Add(cfg.ApprovalSLA),
		Note:         fmt.Sprintf("level %d approved by %s, advanced to level %d", l.CurrentLevel, actor, nextLevel),
	})
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !ok {
		// Another actor got there first; the current row is the answer.
		return s.GetByID(ctx, l.ID.String())
	}

	s.auditTransition(ctx, l.ID, l.Status, l.Status, actor.String(),
		fmt.Sprintf("approval chain advanced to level %d", nextLevel))
	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientManager, ID: nextApprover},
		events.LeaveChainAdvanced, s.event(l, fmt.Sprintf("leave request awaiting your level %d approval", nextLevel)))

	return s.GetByID(ctx, l.ID.String())
}

func (s *service) finalizeApproval(ctx context.Context, l *LeaveRequest, approver *uuid.UUID, comments *string, now time.Time, note string) (LeaveRequestResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	level := 0
	if l.Status == StatusPending && l.CurrentLevel >= 1 {
		level = l.CurrentLevel
	}
	ok, err := qtx.MarkApproved(ctx, l.ID, ApproveUpdate{
		From:     l.Status,
		Approver: approver,
		At:       now,
		Level:    level,
		Comments: comments,
		Note:     note,
	})
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !ok {
		// Lost the race: someone else already transitioned the row.
		return s.GetByID(ctx, l.ID.String())
	}

	// Idempotent booking: the auto-approval path books at insert time and
	// sets ledger_booked, so a second debit can never happen here.
	if !l.LedgerBooked {
		if err := s.balances.WithTx(tx).Book(ctx, l.EmployeeID, l.LeaveType, l.TotalDays); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return LeaveRequestResponse{}, err
	}

	actor := "system"
	if approver != nil {
		actor = approver.String()
	}
	s.resolveEscalations(ctx, l.ID, "manual")
	s.auditTransition(ctx, l.ID, l.Status, StatusApproved, actor, note)
	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
		events.LeaveApproved, s.event(l, "your leave request has been approved"))

	s.logger.Info("leave request approved",
		zap.String("request_id", l.ID.String()),
		zap.String("actor", actor),
	)
	return s.GetByID(ctx, l.ID.String())
}

func (s *service) Reject(ctx context.Context, actorID, actorRole, id, reason string, comments *string) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if reason == "" {
		return LeaveRequestResponse{}, requesterrors.ErrRejectionReasonRequired
	}

	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !l.Status.CanTransitionTo(StatusRejected) {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}
	if err := s.checkApproverIdentity(l, actorUUID, actorRole); err != nil {
		return LeaveRequestResponse{}, err
	}

	now := time.Now().UTC()
	level := 0
	if l.Status == StatusPending && l.CurrentLevel >= 1 {
		level = l.CurrentLevel
	}

	// Rejection at any level is immediately terminal; later levels are
	// never consulted.
	ok, err := s.repo.MarkRejected(ctx, l.ID, RejectUpdate{
		From:     l.Status,
		Approver: actorUUID,
		At:       now,
		Reason:   reason,
		Level:    level,
		Comments: comments,
		Note:     fmt.Sprintf("rejected by %s: %s", actorID, reason),
	})
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !ok {
		return s.GetByID(ctx, l.ID.String())
	}

	s.resolveEscalations(ctx, l.ID, "manual")
	s.auditTransition(ctx, l.ID, l.Status, StatusRejected, actorID, reason)
	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
		events.LeaveRejected, s.event(l, "your leave request has been rejected"))

	s.logger.Info("leave request rejected",
		zap.String("request_id", l.ID.String()),
		zap.String("actor_id", actorID),
	)
	return s.GetByID(ctx, l.ID.String())
}

func (s *service) Cancel(ctx context.Context, actorID, id string) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidActorID
	}

	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if l.EmployeeID != actorUUID {
		return LeaveRequestResponse{}, requesterrors.ErrNotRequestOwner
	}
	if !l.Status.CanTransitionTo(StatusCancelled) {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ok, err := qtx.MarkCancelled(ctx, l.ID, CancelUpdate{
		From: l.Status,
		At:   now,
		Note: fmt.Sprintf("cancelled by owner %s", actorID),
	})
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !ok {
		return s.GetByID(ctx, l.ID.String())
	}

	// Cancelling an already-approved request gives the days back.
	if l.LedgerBooked {
		if err := s.balances.WithTx(tx).Reverse(ctx, l.EmployeeID, l.LeaveType, l.TotalDays); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return LeaveRequestResponse{}, err
	}

	// Bookkeeping outside the transition: open escalation entries are
	// closed as cancelled, best-effort.
	s.resolveEscalations(ctx, l.ID, "cancelled")
	s.auditTransition(ctx, l.ID, l.Status, StatusCancelled, actorID, "cancelled by owner")
	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientHR},
		events.LeaveCancelled, s.event(l, "leave request cancelled by employee"))

	s.logger.Info("leave request cancelled",
		zap.String("request_id", l.ID.String()),
		zap.Bool("ledger_reversed", l.LedgerBooked),
	)
	return s.GetByID(ctx, l.ID.String())
}

func (s *service) MarkViewed(ctx context.Context, actorID, id string) (LeaveRequestResponse, error) {
	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	ok, err := s.repo.MarkViewed(ctx, l.ID, time.Now().UTC())
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if ok {
		s.logger.Debug("request marked viewed",
			zap.String("request_id", l.ID.String()),
			zap.String("actor_id", actorID),
		)
	}
	// Already-viewed is a no-op, not an error: the timestamp only ever
	// moves null -> non-null once.
	return s.GetByID(ctx, id)
}

func (s *service) SetPriority(ctx context.Context, actorID, id string, req SetPriorityRequest) (PriorityBadgeResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return PriorityBadgeResponse{}, requesterrors.ErrInvalidActorID
	}
	level := PriorityLevel(req.Level)
	if !level.Valid() {
		return PriorityBadgeResponse{}, requesterrors.ErrInvalidPriorityLevel
	}

	l, err := s.loadRequest(ctx, id)
	if err != nil {
		return PriorityBadgeResponse{}, err
	}
	if l.EmployeeID != actorUUID {
		return PriorityBadgeResponse{}, requesterrors.ErrNotRequestOwner
	}
	if l.Status != StatusPending {
		return PriorityBadgeResponse{}, requesterrors.ErrPriorityNotYetEligible
	}

	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return PriorityBadgeResponse{}, err
	}

	now := time.Now().UTC()
	if now.Sub(l.CreatedAt) < cfg.HRResponseTimeout {
		return PriorityBadgeResponse{}, requesterrors.ErrPriorityNotYetEligible
	}

	if _, err := s.repo.FindBadge(ctx, l.ID); err == nil {
		return PriorityBadgeResponse{}, requesterrors.ErrPriorityAlreadySet
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return PriorityBadgeResponse{}, err
	}

	badge := &PriorityBadge{
		RequestID: l.ID,
		Level:     level,
		Reason:    req.Reason,
		SetAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PriorityBadgeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateBadge(ctx, badge); err != nil {
		if isUniqueViolation(err) {
			return PriorityBadgeResponse{}, requesterrors.ErrPriorityAlreadySet
		}
		return PriorityBadgeResponse{}, err
	}
	if _, err := qtx.DisablePriorityFlag(ctx, l.ID); err != nil {
		return PriorityBadgeResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PriorityBadgeResponse{}, err
	}

	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientHR},
		events.LeavePrioritySet, s.event(l, fmt.Sprintf("employee flagged request as %s priority", level)))
	if err := s.repo.MarkBadgeNotified(ctx, l.ID, time.Now().UTC(), cfg.PriorityEmailEnabled); err != nil {
		s.logger.Warn("mark badge notified failed",
			zap.String("request_id", l.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("priority badge set",
		zap.String("request_id", l.ID.String()),
		zap.String("level", string(level)),
	)
	return mapBadgeToResponse(*badge), nil
}

func (s *service) loadRequest(ctx context.Context, id string) (*LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, requesterrors.ErrInvalidRequestID
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requesterrors.ErrRequestNotFound
		}
		return nil, err
	}
	return l, nil
}

// checkApproverIdentity lets HR act on anything; a manager must be the
// request's current approver. pending_hr is the HR confirmation queue
// and is off-limits to managers entirely.
func (s *service) checkApproverIdentity(l *LeaveRequest, actor uuid.UUID, role string) error {
	if role == "hr" || role == "admin" {
		return nil
	}
	if l.Status == StatusPendingHR {
		return requesterrors.ErrHRConfirmationRequired
	}
	if l.Status == StatusPending && l.CurrentLevel >= 1 {
		if l.CurrentApprover == nil || *l.CurrentApprover != actor {
			return requesterrors.ErrNotCurrentApprover
		}
	}
	return nil
}

func (s *service) notifySubmitted(ctx context.Context, l *LeaveRequest) {
	switch l.Status {
	case StatusApproved:
		s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
			events.LeaveApproved, s.event(l, "your leave request was approved automatically"))
	case StatusPendingHR:
		s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientHR},
			events.LeavePendingHR, s.event(l, "leave request flagged for HR confirmation"))
	default:
		s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
			events.LeaveSubmitted, s.event(l, "your leave request was submitted"))
		if l.CurrentApprover != nil {
			s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientManager, ID: *l.CurrentApprover},
				events.LeaveSubmitted, s.event(l, "leave request awaiting your approval"))
		}
	}
}

func (s *service) event(l *LeaveRequest, msg string) events.LeaveNotificationEvent {
	return events.LeaveNotificationEvent{
		RequestID:  l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		Status:     string(l.Status),
		Message:    msg,
	}
}

// resolveEscalations closes any open escalation-history entries once a
// human has dealt with the request. Best-effort: the state transition
// already committed.
func (s *service) resolveEscalations(ctx context.Context, id uuid.UUID, resolution string) {
	if s.escalations == nil {
		return
	}
	if err := s.escalations.ResolveAllForRequest(ctx, id, resolution); err != nil {
		s.logger.Warn("resolve escalations failed",
			zap.String("request_id", id.String()),
			zap.String("resolution", resolution),
			zap.Error(err),
		)
	}
}

// auditTransition is best-effort secondary to the state transition.
func (s *service) auditTransition(ctx context.Context, id uuid.UUID, from, to Status, actor, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, bootstrap.AuditLog{
		Action: "LEAVE_REQUEST_TRANSITION",
		Actor:  actor,
		Meta: map[string]any{
			"request_id": id.String(),
			"old_status": string(from),
			"new_status": string(to),
			"reason":     reason,
		},
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func validateSubmit(actorID string, req SubmitLeaveRequest) (uuid.UUID, time.Time, time.Time, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, requesterrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, requesterrors.ErrInvalidEmployeeID
	}
	if !LeaveTypes[req.LeaveType] {
		return uuid.Nil, time.Time{}, time.Time{}, requesterrors.ErrUnknownLeaveType
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, time.Time{}, time.Time{}, requesterrors.ErrInvalidDateRange
	}
	return employeeUUID, startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, requesterrors.ErrInvalidDateFormat
	}
	return t, nil
}
