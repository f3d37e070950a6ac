package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leaveflow/internal/events"
	"leaveflow/internal/notify"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// SLASweeper walks pending requests whose approval deadline has passed.
// A breach at a non-final level skips the silent approver and hands the
// request up the chain on a shortened deadline. A breach at the final
// level has nowhere to go, so the deadline is extended and the HR
// partner is nudged instead.
type SLASweeper struct {
	requests  request.Repository
	config    sysconfig.Provider
	directory orgdir.Directory
	notifier  notify.Dispatcher
	logger    *zap.Logger
}

func NewSLASweeper(
	requests request.Repository,
	config sysconfig.Provider,
	directory orgdir.Directory,
	notifier notify.Dispatcher,
	logger ...*zap.Logger,
) *SLASweeper {
	l := zap.L().Named("approval.sla")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.sla")
	}
	return &SLASweeper{
		requests:  requests,
		config:    config,
		directory: directory,
		notifier:  notifier,
		logger:    l,
	}
}

func (s *SLASweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	s.logger.Info("sla sweeper started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx, time.Now().UTC()); err != nil {
		s.logger.Error("sla sweep failed", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sla sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx, time.Now().UTC()); err != nil {
				s.logger.Error("sla sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *SLASweeper) Sweep(ctx context.Context, now time.Time) error {
	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return err
	}

	breached, err := s.requests.ListSLABreached(ctx, now, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, l := range breached {
		if err := s.handleBreach(ctx, l, cfg, now); err != nil {
			s.logger.Error("sla breach handling failed",
				zap.String("request_id", l.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *SLASweeper) handleBreach(ctx context.Context, l request.LeaveRequest, cfg sysconfig.Snapshot, now time.Time) error {
	if l.CurrentLevel < 1 {
		return nil
	}
	if l.CurrentLevel >= l.RequiredLevels {
		return s.extendFinalLevel(ctx, l, cfg, now)
	}

	nextLevel := l.CurrentLevel + 1
	nextApprover, err := s.directory.ApproverForLevel(ctx, l.EmployeeID, nextLevel)
	if errors.Is(err, orgdir.ErrNoApprover) {
		nextApprover, err = s.directory.HRPartnerOf(ctx, l.EmployeeID)
	}
	if err != nil {
		return err
	}

	deadline := now.Add(cfg.ApprovalEscalatedSLA)
	ok, err := s.requests.EscalateChain(ctx, l.ID, request.ChainEscalation{
		FromLevel:    l.CurrentLevel,
		At:           now,
		NextLevel:    nextLevel,
		NextApprover: nextApprover,
		SLADeadline:  deadline,
		Note:         fmt.Sprintf("approval deadline missed at level %d, escalated to level %d", l.CurrentLevel, nextLevel),
	})
	if err != nil {
		return err
	}
	if !ok {
		// The approver acted between listing and writing.
		return nil
	}

	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientManager, ID: nextApprover},
		events.LeaveSLABreached, events.LeaveNotificationEvent{
			RequestID:  l.ID.String(),
			EmployeeID: l.EmployeeID.String(),
			LeaveType:  l.LeaveType,
			Status:     string(l.Status),
			Message:    fmt.Sprintf("approval deadline missed at level %d, the request is now yours", l.CurrentLevel),
		})

	s.logger.Info("approval chain escalated on sla breach",
		zap.String("request_id", l.ID.String()),
		zap.Int("from_level", l.CurrentLevel),
		zap.Int("to_level", nextLevel),
	)
	return nil
}

func (s *SLASweeper) extendFinalLevel(ctx context.Context, l request.LeaveRequest, cfg sysconfig.Snapshot, now time.Time) error {
	deadline := now.Add(cfg.ApprovalEscalatedSLA)
	ok, err := s.requests.ExtendSLA(ctx, l.ID, l.CurrentLevel, deadline,
		"final-level approval deadline missed, deadline extended and HR notified")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	hrPartner, err := s.directory.HRPartnerOf(ctx, l.EmployeeID)
	if err != nil {
		s.logger.Warn("no hr partner to notify on final-level breach",
			zap.String("request_id", l.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	s.notifier.Notify(ctx, notify.Recipient{Kind: notify.RecipientHR, ID: hrPartner},
		events.LeaveSLABreached, events.LeaveNotificationEvent{
			RequestID:  l.ID.String(),
			EmployeeID: l.EmployeeID.String(),
			LeaveType:  l.LeaveType,
			Status:     string(l.Status),
			Message:    "final approval level has missed its deadline",
		})

	s.logger.Info("final-level sla extended",
		zap.String("request_id", l.ID.String()),
		zap.Int("level", l.CurrentLevel),
	)
	return nil
}
