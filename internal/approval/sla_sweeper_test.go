package approval_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"leaveflow/internal/approval"
	"leaveflow/internal/events"
	"leaveflow/internal/notify"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestRepo struct {
	request.Repository

	listSLABreachedFn func(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error)
	escalateChainFn   func(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error)
	extendSLAFn       func(ctx context.Context, id uuid.UUID, level int, deadline time.Time, note string) (bool, error)
}

func (f *fakeRequestRepo) WithTx(tx *sql.Tx) request.Repository { return f }

func (f *fakeRequestRepo) ListSLABreached(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error) {
	if f.listSLABreachedFn != nil {
		return f.listSLABreachedFn(ctx, now, limit)
	}
	return nil, nil
}

func (f *fakeRequestRepo) EscalateChain(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error) {
	if f.escalateChainFn != nil {
		return f.escalateChainFn(ctx, id, u)
	}
	return true, nil
}

func (f *fakeRequestRepo) ExtendSLA(ctx context.Context, id uuid.UUID, level int, deadline time.Time, note string) (bool, error) {
	if f.extendSLAFn != nil {
		return f.extendSLAFn(ctx, id, level, deadline, note)
	}
	return true, nil
}

type fakeProvider struct {
	snapshot sysconfig.Snapshot
}

func (f *fakeProvider) Snapshot(ctx context.Context) (sysconfig.Snapshot, error) {
	return f.snapshot, nil
}

type fakeDirectory struct {
	manager    uuid.UUID
	hrPartner  uuid.UUID
	noApprover bool
}

func (f *fakeDirectory) ManagerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	return f.manager, nil
}

func (f *fakeDirectory) HRPartnerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	return f.hrPartner, nil
}

func (f *fakeDirectory) ApproverForLevel(ctx context.Context, employeeID uuid.UUID, level int) (uuid.UUID, error) {
	if f.noApprover {
		return uuid.Nil, orgdir.ErrNoApprover
	}
	return f.manager, nil
}

type sentNotification struct {
	recipient notify.Recipient
	eventType string
}

type fakeDispatcher struct {
	sent []sentNotification
}

func (f *fakeDispatcher) Notify(ctx context.Context, recipient notify.Recipient, eventType string, event events.LeaveNotificationEvent) {
	f.sent = append(f.sent, sentNotification{recipient: recipient, eventType: eventType})
}

func breachedRequest(level, required int) request.LeaveRequest {
	deadline := time.Now().UTC().Add(-time.Hour)
	return request.LeaveRequest{
		ID:             uuid.New(),
		EmployeeID:     uuid.New(),
		LeaveType:      "vacation",
		Status:         request.StatusPending,
		RequiredLevels: required,
		CurrentLevel:   level,
		SLADeadline:    &deadline,
	}
}

func testSnapshot() sysconfig.Snapshot {
	return sysconfig.Snapshot{
		ApprovalSLA:          48 * time.Hour,
		ApprovalEscalatedSLA: 24 * time.Hour,
	}
}

func TestSLASweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("mid-chain breach escalates to the next level on a shortened deadline", func(t *testing.T) {
		repo := &fakeRequestRepo{}
		directory := &fakeDirectory{manager: uuid.New(), hrPartner: uuid.New()}
		dispatcher := &fakeDispatcher{}
		sweeper := approval.NewSLASweeper(repo, &fakeProvider{snapshot: testSnapshot()}, directory, dispatcher)

		l := breachedRequest(1, 3)
		repo.listSLABreachedFn = func(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		var escalated *request.ChainEscalation
		repo.escalateChainFn = func(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error) {
			escalated = &u
			return true, nil
		}

		require.NoError(t, sweeper.Sweep(ctx, now))

		require.NotNil(t, escalated)
		assert.Equal(t, 1, escalated.FromLevel)
		assert.Equal(t, 2, escalated.NextLevel)
		assert.Equal(t, directory.manager, escalated.NextApprover)
		assert.WithinDuration(t, now.Add(24*time.Hour), escalated.SLADeadline, time.Minute)

		require.Len(t, dispatcher.sent, 1)
		assert.Equal(t, events.LeaveSLABreached, dispatcher.sent[0].eventType)
		assert.Equal(t, directory.manager, dispatcher.sent[0].recipient.ID)
	})

	t.Run("a hole in the org chart routes the level to the HR partner", func(t *testing.T) {
		repo := &fakeRequestRepo{}
		directory := &fakeDirectory{manager: uuid.New(), hrPartner: uuid.New(), noApprover: true}
		dispatcher := &fakeDispatcher{}
		sweeper := approval.NewSLASweeper(repo, &fakeProvider{snapshot: testSnapshot()}, directory, dispatcher)

		l := breachedRequest(1, 2)
		repo.listSLABreachedFn = func(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		var escalated *request.ChainEscalation
		repo.escalateChainFn = func(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error) {
			escalated = &u
			return true, nil
		}

		require.NoError(t, sweeper.Sweep(ctx, now))

		require.NotNil(t, escalated)
		assert.Equal(t, directory.hrPartner, escalated.NextApprover)
	})

	t.Run("final-level breach extends the deadline and nudges HR", func(t *testing.T) {
		repo := &fakeRequestRepo{}
		directory := &fakeDirectory{manager: uuid.New(), hrPartner: uuid.New()}
		dispatcher := &fakeDispatcher{}
		sweeper := approval.NewSLASweeper(repo, &fakeProvider{snapshot: testSnapshot()}, directory, dispatcher)

		l := breachedRequest(2, 2)
		repo.listSLABreachedFn = func(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		var extendedTo *time.Time
		repo.extendSLAFn = func(ctx context.Context, id uuid.UUID, level int, deadline time.Time, note string) (bool, error) {
			extendedTo = &deadline
			assert.Equal(t, 2, level)
			return true, nil
		}
		repo.escalateChainFn = func(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error) {
			t.Fatal("final level must not escalate further")
			return false, nil
		}

		require.NoError(t, sweeper.Sweep(ctx, now))

		require.NotNil(t, extendedTo)
		assert.WithinDuration(t, now.Add(24*time.Hour), *extendedTo, time.Minute)

		require.Len(t, dispatcher.sent, 1)
		assert.Equal(t, events.LeaveSLABreached, dispatcher.sent[0].eventType)
		assert.Equal(t, notify.RecipientHR, dispatcher.sent[0].recipient.Kind)
		assert.Equal(t, directory.hrPartner, dispatcher.sent[0].recipient.ID)
	})

	t.Run("losing the write race notifies nobody", func(t *testing.T) {
		repo := &fakeRequestRepo{}
		dispatcher := &fakeDispatcher{}
		sweeper := approval.NewSLASweeper(repo, &fakeProvider{snapshot: testSnapshot()},
			&fakeDirectory{manager: uuid.New(), hrPartner: uuid.New()}, dispatcher)

		repo.listSLABreachedFn = func(ctx context.Context, now time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{breachedRequest(1, 2)}, nil
		}
		repo.escalateChainFn = func(ctx context.Context, id uuid.UUID, u request.ChainEscalation) (bool, error) {
			return false, nil
		}

		require.NoError(t, sweeper.Sweep(ctx, now))
		assert.Empty(t, dispatcher.sent)
	})
}
