package escalation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leaveflow/internal/events"
	"leaveflow/internal/ledger"
	"leaveflow/internal/notify"
	"leaveflow/internal/oracle"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// Sweeper runs the two background passes over pending requests: the
// eligibility pass that unlocks the priority badge after HR has been
// silent for the response window, and the escalation pass that consults
// the decision oracle for red-badged requests HR still has not opened.
type Sweeper struct {
	db        *sql.DB
	requests  request.Repository
	history   Repository
	oracle    oracle.Client
	balances  ledger.Ledger
	config    sysconfig.Provider
	directory orgdir.Directory
	notifier  notify.Dispatcher
	logger    *zap.Logger
}

type SweeperDeps struct {
	DB        *sql.DB
	Requests  request.Repository
	History   Repository
	Oracle    oracle.Client
	Balances  ledger.Ledger
	Config    sysconfig.Provider
	Directory orgdir.Directory
	Notifier  notify.Dispatcher
}

func NewSweeper(deps SweeperDeps, logger ...*zap.Logger) *Sweeper {
	l := zap.L().Named("escalation.sweeper")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("escalation.sweeper")
	}
	return &Sweeper{
		db:        deps.DB,
		requests:  deps.Requests,
		history:   deps.History,
		oracle:    deps.Oracle,
		balances:  deps.Balances,
		config:    deps.Config,
		directory: deps.Directory,
		notifier:  deps.Notifier,
		logger:    l,
	}
}

// Run blocks until ctx is cancelled, sweeping on a cadence derived from
// the configured windows so a shortened window is still noticed within
// a quarter of its length. The interval is recomputed after every sweep,
// so an admin tightening a window takes effect without a restart.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("sweeper started")

	for {
		s.sweepOnce(ctx)

		timer := time.NewTimer(s.nextInterval(ctx))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Sweeper) nextInterval(ctx context.Context) time.Duration {
	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("config snapshot failed, keeping minimum sweep interval", zap.Error(err))
		return 15 * time.Minute
	}
	return sweepInterval(cfg)
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	now := time.Now().UTC()
	if err := s.SweepEligibility(ctx, now); err != nil {
		s.logger.Error("eligibility sweep failed", zap.Error(err))
	}
	if err := s.SweepEscalations(ctx, now); err != nil {
		s.logger.Error("escalation sweep failed", zap.Error(err))
	}
}

func sweepInterval(cfg sysconfig.Snapshot) time.Duration {
	window := cfg.HRResponseTimeout
	if cfg.PriorityEscalationTimeout < window {
		window = cfg.PriorityEscalationTimeout
	}
	interval := window / 4
	if interval < 15*time.Minute {
		interval = 15 * time.Minute
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	return interval
}

// SweepEligibility flips can_set_priority on pending normal-mode
// requests HR has not opened within the response window. The flip is a
// conditional write, so a request swept twice notifies only once.
func (s *Sweeper) SweepEligibility(ctx context.Context, now time.Time) error {
	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return err
	}

	cutoff := now.Add(-cfg.HRResponseTimeout)
	candidates, err := s.requests.ListEligibilityCandidates(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, l := range candidates {
		ok, err := s.requests.MarkPriorityEligible(ctx, l.ID, now)
		if err != nil {
			s.logger.Error("mark priority eligible failed",
				zap.String("request_id", l.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
			events.LeavePriorityEligible, events.LeaveNotificationEvent{
				RequestID:  l.ID.String(),
				EmployeeID: l.EmployeeID.String(),
				LeaveType:  l.LeaveType,
				Status:     string(l.Status),
				Message:    "your request has waited past the HR response window, you may set a priority badge",
			})
		s.logger.Info("request marked priority-eligible", zap.String("request_id", l.ID.String()))
	}
	return nil
}

// SweepEscalations consults the oracle for red-badged requests HR has
// ignored past the escalation window. A confident approve verdict
// finalizes the request; anything else hands it to the line manager.
func (s *Sweeper) SweepEscalations(ctx context.Context, now time.Time) error {
	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return err
	}

	cutoff := now.Add(-cfg.PriorityEscalationTimeout)
	stale, err := s.requests.ListStaleRedPriority(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, l := range stale {
		if err := s.escalateOne(ctx, l, now); err != nil {
			s.logger.Error("escalation failed",
				zap.String("request_id", l.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Sweeper) escalateOne(ctx context.Context, l request.LeaveRequest, now time.Time) error {
	// An unresolved oracle consult means a previous sweep already
	// escalated this request; consulting again would double-notify.
	consulted, err := s.history.HasUnresolvedFor(ctx, l.ID, ActorOracle)
	if err != nil {
		return err
	}
	if consulted {
		return nil
	}

	rec := s.oracle.Analyze(ctx, oracle.Facts{
		RequestID:            l.ID,
		EmployeeID:           l.EmployeeID,
		LeaveType:            l.LeaveType,
		StartDate:            l.StartDate,
		EndDate:              l.EndDate,
		TotalDays:            l.TotalDays,
		IsHalfDay:            l.IsHalfDay,
		ForceEscalationCheck: true,
	})

	if rec.Recommendation == oracle.RecommendApprove && rec.CanAutoApprove {
		return s.autoApprove(ctx, l, rec, now)
	}
	return s.handOff(ctx, l, rec, now)
}

func (s *Sweeper) autoApprove(ctx context.Context, l request.LeaveRequest, rec oracle.Recommendation, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.requests.WithTx(tx)
	ok, err := qtx.MarkApproved(ctx, l.ID, request.ApproveUpdate{
		From:  l.Status,
		At:    now,
		Level: 0,
		Note:  fmt.Sprintf("escalation auto-approved by oracle: %s", rec.Reason),
	})
	if err != nil {
		return err
	}
	if !ok {
		// Someone transitioned the request between listing and writing.
		return nil
	}

	if !l.LedgerBooked {
		if err := s.balances.WithTx(tx).Book(ctx, l.EmployeeID, l.LeaveType, l.TotalDays); err != nil {
			return err
		}
	}

	entry := &HistoryEntry{
		RequestID: l.ID,
		Level:     l.EscalationCount + 1,
		FromActor: ActorSystem,
		ToActor:   ActorOracle,
		Reason:    rec.Reason,
		CreatedAt: now,
	}
	htx := s.history.WithTx(tx)
	if err := htx.Create(ctx, entry); err != nil {
		return err
	}
	if _, err := htx.Resolve(ctx, entry.ID, ResolutionApproved, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientEmployee, ID: l.EmployeeID},
		events.LeaveApproved, events.LeaveNotificationEvent{
			RequestID:  l.ID.String(),
			EmployeeID: l.EmployeeID.String(),
			LeaveType:  l.LeaveType,
			Status:     string(request.StatusApproved),
			Message:    "your escalated leave request has been approved",
		})

	s.logger.Info("escalated request auto-approved",
		zap.String("request_id", l.ID.String()),
		zap.Bool("oracle_offline", rec.Offline),
	)
	return nil
}

func (s *Sweeper) handOff(ctx context.Context, l request.LeaveRequest, rec oracle.Recommendation, now time.Time) error {
	manager := l.CurrentApprover
	if manager == nil {
		m, err := s.directory.ManagerOf(ctx, l.EmployeeID)
		if err != nil {
			return err
		}
		manager = &m
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	note := fmt.Sprintf("escalated to manager, oracle verdict %s: %s", rec.Recommendation, rec.Reason)
	ok, err := s.requests.WithTx(tx).RecordEscalation(ctx, l.ID, now, note)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	// Two entries per hand-off: the oracle consult itself, then the
	// hand-off to a human. The consult entry stays unresolved until the
	// manager acts and doubles as the re-escalation guard.
	htx := s.history.WithTx(tx)
	consult := &HistoryEntry{
		RequestID: l.ID,
		Level:     l.EscalationCount + 1,
		FromActor: ActorSystem,
		ToActor:   ActorOracle,
		Reason:    fmt.Sprintf("oracle consulted, verdict %s: %s", rec.Recommendation, rec.Reason),
		CreatedAt: now,
	}
	if err := htx.Create(ctx, consult); err != nil {
		return err
	}
	entry := &HistoryEntry{
		RequestID: l.ID,
		Level:     l.EscalationCount + 1,
		FromActor: ActorOracle,
		ToActor:   ActorManager,
		Reason:    note,
		CreatedAt: now,
	}
	if err := htx.Create(ctx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientManager, ID: *manager},
		events.LeaveEscalated, events.LeaveNotificationEvent{
			RequestID:  l.ID.String(),
			EmployeeID: l.EmployeeID.String(),
			LeaveType:  l.LeaveType,
			Status:     string(l.Status),
			Message:    "an unattended priority leave request has been escalated to you",
		})

	s.logger.Info("escalated request handed off to manager",
		zap.String("request_id", l.ID.String()),
		zap.String("verdict", string(rec.Recommendation)),
	)
	return nil
}
