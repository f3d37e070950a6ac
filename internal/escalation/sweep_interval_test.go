package escalation

import (
	"context"
	"errors"
	"testing"
	"time"

	"leaveflow/internal/sysconfig"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubProvider struct {
	snapshot sysconfig.Snapshot
	err      error
}

func (p *stubProvider) Snapshot(ctx context.Context) (sysconfig.Snapshot, error) {
	return p.snapshot, p.err
}

func TestNextIntervalTracksConfigChanges(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{snapshot: sysconfig.Snapshot{
		HRResponseTimeout:         7 * time.Hour,
		PriorityEscalationTimeout: 24 * time.Hour,
	}}
	s := &Sweeper{config: provider, logger: zap.NewNop()}

	// 7h/4 exceeds the ceiling.
	assert.Equal(t, time.Hour, s.nextInterval(ctx))

	// An admin tightening the window takes effect on the next tick.
	provider.snapshot.HRResponseTimeout = 2 * time.Hour
	assert.Equal(t, 30*time.Minute, s.nextInterval(ctx))

	provider.snapshot.HRResponseTimeout = 30 * time.Minute
	assert.Equal(t, 15*time.Minute, s.nextInterval(ctx))
}

func TestNextIntervalSnapshotErrorFallsBack(t *testing.T) {
	provider := &stubProvider{err: errors.New("db down")}
	s := &Sweeper{config: provider, logger: zap.NewNop()}

	assert.Equal(t, 15*time.Minute, s.nextInterval(context.Background()))
}
