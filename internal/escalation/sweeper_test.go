package escalation_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"leaveflow/internal/escalation"
	"leaveflow/internal/events"
	"leaveflow/internal/ledger"
	"leaveflow/internal/notify"
	"leaveflow/internal/oracle"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRequestRepo embeds the interface so only the methods a test stubs
// need to exist; an unexpected call panics and fails the test loudly.
type fakeRequestRepo struct {
	request.Repository

	listEligibilityFn      func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error)
	listStaleRedFn         func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error)
	markPriorityEligibleFn func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	markApprovedFn         func(ctx context.Context, id uuid.UUID, u request.ApproveUpdate) (bool, error)
	recordEscalationFn     func(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error)
}

func (f *fakeRequestRepo) WithTx(tx *sql.Tx) request.Repository { return f }

func (f *fakeRequestRepo) ListEligibilityCandidates(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
	if f.listEligibilityFn != nil {
		return f.listEligibilityFn(ctx, cutoff, limit)
	}
	return nil, nil
}

func (f *fakeRequestRepo) ListStaleRedPriority(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
	if f.listStaleRedFn != nil {
		return f.listStaleRedFn(ctx, cutoff, limit)
	}
	return nil, nil
}

func (f *fakeRequestRepo) MarkPriorityEligible(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if f.markPriorityEligibleFn != nil {
		return f.markPriorityEligibleFn(ctx, id, at)
	}
	return true, nil
}

func (f *fakeRequestRepo) MarkApproved(ctx context.Context, id uuid.UUID, u request.ApproveUpdate) (bool, error) {
	if f.markApprovedFn != nil {
		return f.markApprovedFn(ctx, id, u)
	}
	return true, nil
}

func (f *fakeRequestRepo) RecordEscalation(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
	if f.recordEscalationFn != nil {
		return f.recordEscalationFn(ctx, id, at, note)
	}
	return true, nil
}

type fakeHistoryRepo struct {
	entries       []*escalation.HistoryEntry
	resolved      map[uuid.UUID]string
	unresolvedFor map[string]bool
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{
		resolved:      map[uuid.UUID]string{},
		unresolvedFor: map[string]bool{},
	}
}

func (f *fakeHistoryRepo) WithTx(tx *sql.Tx) escalation.Repository { return f }

func (f *fakeHistoryRepo) Create(ctx context.Context, e *escalation.HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistoryRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]escalation.HistoryEntry, error) {
	var out []escalation.HistoryEntry
	for _, e := range f.entries {
		if e.RequestID == requestID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) HasUnresolvedFor(ctx context.Context, requestID uuid.UUID, toActor string) (bool, error) {
	return f.unresolvedFor[toActor], nil
}

func (f *fakeHistoryRepo) Resolve(ctx context.Context, entryID uuid.UUID, resolution string, at time.Time) (bool, error) {
	f.resolved[entryID] = resolution
	return true, nil
}

func (f *fakeHistoryRepo) ResolveAllForRequest(ctx context.Context, requestID uuid.UUID, resolution string) error {
	return nil
}

type fakeOracle struct {
	rec   oracle.Recommendation
	calls []oracle.Facts
}

func (f *fakeOracle) Analyze(ctx context.Context, facts oracle.Facts) oracle.Recommendation {
	f.calls = append(f.calls, facts)
	return f.rec
}

func (f *fakeOracle) WorkingDays(ctx context.Context, start, end time.Time, isHalfDay bool) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeLedger struct {
	bookCalls []decimal.Decimal
}

func (f *fakeLedger) WithTx(tx *sql.Tx) ledger.Ledger { return f }

func (f *fakeLedger) Book(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error {
	f.bookCalls = append(f.bookCalls, days)
	return nil
}

func (f *fakeLedger) Reverse(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error {
	return nil
}

type fakeProvider struct {
	snapshot sysconfig.Snapshot
}

func (f *fakeProvider) Snapshot(ctx context.Context) (sysconfig.Snapshot, error) {
	return f.snapshot, nil
}

type fakeDirectory struct {
	manager   uuid.UUID
	hrPartner uuid.UUID
}

func (f *fakeDirectory) ManagerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	return f.manager, nil
}

func (f *fakeDirectory) HRPartnerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	return f.hrPartner, nil
}

func (f *fakeDirectory) ApproverForLevel(ctx context.Context, employeeID uuid.UUID, level int) (uuid.UUID, error) {
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

type sweeperDeps struct {
	sqlMock    sqlmock.Sqlmock
	requests   *fakeRequestRepo
	history    *fakeHistoryRepo
	oracle     *fakeOracle
	balances   *fakeLedger
	dispatcher *fakeDispatcher
	sweeper    *escalation.Sweeper
}

func setupSweeperTest(t *testing.T) *sweeperDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	d := &sweeperDeps{
		sqlMock:    sqlMock,
		requests:   &fakeRequestRepo{},
		history:    newFakeHistoryRepo(),
		oracle:     &fakeOracle{},
		balances:   &fakeLedger{},
		dispatcher: &fakeDispatcher{},
	}
	d.sweeper = escalation.NewSweeper(escalation.SweeperDeps{
		DB:        db,
		Requests:  d.requests,
		History:   d.history,
		Oracle:    d.oracle,
		Balances:  d.balances,
		Config:    &fakeProvider{snapshot: testSnapshot()},
		Directory: &fakeDirectory{manager: uuid.New(), hrPartner: uuid.New()},
		Notifier:  d.dispatcher,
	})
	return d
}

func testSnapshot() sysconfig.Snapshot {
	return sysconfig.Snapshot{
		Mode:                      sysconfig.ModeNormal,
		HRResponseTimeout:         7 * time.Hour,
		PriorityEscalationTimeout: 24 * time.Hour,
		AutoApproveLeaveTypes:     []string{"sick_leave"},
		ApprovalSLA:               48 * time.Hour,
		ApprovalEscalatedSLA:      24 * time.Hour,
	}
}

func staleRequest(days float64, ageHours int) request.LeaveRequest {
	manager := uuid.New()
	return request.LeaveRequest{
		ID:              uuid.New(),
		EmployeeID:      uuid.New(),
		LeaveType:       "sick_leave",
		TotalDays:       decimal.NewFromFloat(days),
		Status:          request.StatusPending,
		CurrentApprover: &manager,
		CreatedAt:       time.Now().UTC().Add(-time.Duration(ageHours) * time.Hour),
	}
}

func TestSweeper_SweepEligibility(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("flips the flag and notifies the employee", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(2, 8)

		d.requests.listEligibilityFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			// Cutoff reflects the configured 7h window.
			assert.WithinDuration(t, now.Add(-7*time.Hour), cutoff, time.Minute)
			return []request.LeaveRequest{l}, nil
		}

		require.NoError(t, d.sweeper.SweepEligibility(ctx, now))

		require.Len(t, d.dispatcher.sent, 1)
		assert.Equal(t, events.LeavePriorityEligible, d.dispatcher.sent[0].eventType)
		assert.Equal(t, notify.RecipientEmployee, d.dispatcher.sent[0].recipient.Kind)
		assert.Equal(t, l.EmployeeID, d.dispatcher.sent[0].recipient.ID)
	})

	t.Run("a request swept twice notifies only once", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(2, 8)

		d.requests.listEligibilityFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		flipped := false
		d.requests.markPriorityEligibleFn = func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
			if flipped {
				return false, nil
			}
			flipped = true
			return true, nil
		}

		require.NoError(t, d.sweeper.SweepEligibility(ctx, now))
		require.NoError(t, d.sweeper.SweepEligibility(ctx, now))

		assert.Len(t, d.dispatcher.sent, 1)
	})
}

func TestSweeper_SweepEscalations(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("offline fallback auto-approves a short request", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(2, 26)
		d.oracle.rec = oracle.FallbackRecommendation(oracle.Facts{TotalDays: l.TotalDays})

		d.requests.listStaleRedFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		var approved *request.ApproveUpdate
		d.requests.markApprovedFn = func(ctx context.Context, id uuid.UUID, u request.ApproveUpdate) (bool, error) {
			approved = &u
			return true, nil
		}

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectCommit()

		require.NoError(t, d.sweeper.SweepEscalations(ctx, now))

		require.Len(t, d.oracle.calls, 1)
		assert.True(t, d.oracle.calls[0].ForceEscalationCheck)

		require.NotNil(t, approved)
		assert.Equal(t, 0, approved.Level)
		assert.Nil(t, approved.Approver)
		assert.Contains(t, approved.Note, oracle.OfflineTag)

		require.Len(t, d.balances.bookCalls, 1)
		require.Len(t, d.history.entries, 1)
		entry := d.history.entries[0]
		assert.Equal(t, escalation.ActorSystem, entry.FromActor)
		assert.Equal(t, escalation.ActorOracle, entry.ToActor)
		assert.Equal(t, escalation.ResolutionApproved, d.history.resolved[entry.ID])

		require.Len(t, d.dispatcher.sent, 1)
		assert.Equal(t, events.LeaveApproved, d.dispatcher.sent[0].eventType)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("review verdict hands off to the manager", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(10, 26)
		d.oracle.rec = oracle.Recommendation{Recommendation: oracle.RecommendReview, Reason: "long duration"}

		d.requests.listStaleRedFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		escalated := false
		d.requests.recordEscalationFn = func(ctx context.Context, id uuid.UUID, at time.Time, note string) (bool, error) {
			escalated = true
			return true, nil
		}

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectCommit()

		require.NoError(t, d.sweeper.SweepEscalations(ctx, now))

		assert.True(t, escalated)
		assert.Empty(t, d.balances.bookCalls)

		// The oracle consult and the hand-off are distinct entries; the
		// consult stays open until a human acts.
		require.Len(t, d.history.entries, 2)
		consult := d.history.entries[0]
		assert.Equal(t, escalation.ActorSystem, consult.FromActor)
		assert.Equal(t, escalation.ActorOracle, consult.ToActor)
		assert.False(t, consult.Resolved)
		handoff := d.history.entries[1]
		assert.Equal(t, escalation.ActorOracle, handoff.FromActor)
		assert.Equal(t, escalation.ActorManager, handoff.ToActor)
		assert.False(t, handoff.Resolved)

		require.Len(t, d.dispatcher.sent, 1)
		assert.Equal(t, events.LeaveEscalated, d.dispatcher.sent[0].eventType)
		assert.Equal(t, notify.RecipientManager, d.dispatcher.sent[0].recipient.Kind)
		assert.Equal(t, *l.CurrentApprover, d.dispatcher.sent[0].recipient.ID)
	})

	t.Run("every hand-off records the oracle consult", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(10, 26)
		d.oracle.rec = oracle.Recommendation{Recommendation: oracle.RecommendReview, Reason: "long duration"}

		d.requests.listStaleRedFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectCommit()

		require.NoError(t, d.sweeper.SweepEscalations(ctx, now))

		oracleConsults := 0
		for _, e := range d.history.entries {
			if e.FromActor == escalation.ActorSystem && e.ToActor == escalation.ActorOracle {
				oracleConsults++
			}
		}
		assert.Equal(t, 1, oracleConsults)
	})

	t.Run("an open oracle consult suppresses re-escalation", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(10, 26)
		d.history.unresolvedFor[escalation.ActorOracle] = true

		d.requests.listStaleRedFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}

		require.NoError(t, d.sweeper.SweepEscalations(ctx, now))

		assert.Empty(t, d.oracle.calls)
		assert.Empty(t, d.history.entries)
		assert.Empty(t, d.dispatcher.sent)
	})

	t.Run("losing the approve race leaves no trace", func(t *testing.T) {
		d := setupSweeperTest(t)
		l := staleRequest(2, 26)
		d.oracle.rec = oracle.FallbackRecommendation(oracle.Facts{TotalDays: l.TotalDays})

		d.requests.listStaleRedFn = func(ctx context.Context, cutoff time.Time, limit int) ([]request.LeaveRequest, error) {
			return []request.LeaveRequest{l}, nil
		}
		d.requests.markApprovedFn = func(ctx context.Context, id uuid.UUID, u request.ApproveUpdate) (bool, error) {
			return false, nil
		}

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectRollback()

		require.NoError(t, d.sweeper.SweepEscalations(ctx, now))

		assert.Empty(t, d.balances.bookCalls)
		assert.Empty(t, d.history.entries)
		assert.Empty(t, d.dispatcher.sent)
	})
}
