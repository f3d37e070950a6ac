package sysconfig_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"leaveflow/internal/sysconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepository struct {
	findAllFn func(ctx context.Context) ([]sysconfig.Setting, error)
	upsertFn  func(ctx context.Context, s *sysconfig.Setting) error
}

func (f *fakeConfigRepository) FindAll(ctx context.Context) ([]sysconfig.Setting, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeConfigRepository) Upsert(ctx context.Context, s *sysconfig.Setting) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, s)
	}
	return nil
}

func TestProvider_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("empty table yields documented defaults", func(t *testing.T) {
		provider := sysconfig.NewProvider(&fakeConfigRepository{})

		snap, err := provider.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, sysconfig.ModeNormal, snap.Mode)
		assert.Equal(t, 7*time.Hour, snap.HRResponseTimeout)
		assert.Equal(t, 24*time.Hour, snap.PriorityEscalationTimeout)
		assert.Equal(t, []string{"sick_leave"}, snap.AutoApproveLeaveTypes)
		assert.True(t, snap.PriorityEmailEnabled)
		assert.Equal(t, 48*time.Hour, snap.ApprovalSLA)
		assert.Equal(t, 24*time.Hour, snap.ApprovalEscalatedSLA)
	})

	t.Run("stored values override defaults", func(t *testing.T) {
		repo := &fakeConfigRepository{
			findAllFn: func(ctx context.Context) ([]sysconfig.Setting, error) {
				return []sysconfig.Setting{
					{Key: sysconfig.KeyMode, Value: "automatic"},
					{Key: sysconfig.KeyHRResponseTimeoutHours, Value: "2"},
					{Key: sysconfig.KeyAutoApproveLeaveTypes, Value: "sick_leave, personal"},
					{Key: sysconfig.KeyPriorityEmailEnabled, Value: "false"},
				}, nil
			},
		}
		provider := sysconfig.NewProvider(repo)

		snap, err := provider.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, sysconfig.ModeAutomatic, snap.Mode)
		assert.Equal(t, 2*time.Hour, snap.HRResponseTimeout)
		assert.Equal(t, []string{"sick_leave", "personal"}, snap.AutoApproveLeaveTypes)
		assert.False(t, snap.PriorityEmailEnabled)
	})

	t.Run("invalid mode value falls back to normal", func(t *testing.T) {
		repo := &fakeConfigRepository{
			findAllFn: func(ctx context.Context) ([]sysconfig.Setting, error) {
				return []sysconfig.Setting{{Key: sysconfig.KeyMode, Value: "turbo"}}, nil
			},
		}
		provider := sysconfig.NewProvider(repo)

		snap, err := provider.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, sysconfig.ModeNormal, snap.Mode)
	})

	t.Run("garbage numeric values fall back to defaults", func(t *testing.T) {
		repo := &fakeConfigRepository{
			findAllFn: func(ctx context.Context) ([]sysconfig.Setting, error) {
				return []sysconfig.Setting{
					{Key: sysconfig.KeyHRResponseTimeoutHours, Value: "soon"},
					{Key: sysconfig.KeyApprovalSLAHours, Value: "-4"},
				}, nil
			},
		}
		provider := sysconfig.NewProvider(repo)

		snap, err := provider.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7*time.Hour, snap.HRResponseTimeout)
		assert.Equal(t, 48*time.Hour, snap.ApprovalSLA)
	})

	t.Run("repository errors surface", func(t *testing.T) {
		repo := &fakeConfigRepository{
			findAllFn: func(ctx context.Context) ([]sysconfig.Setting, error) {
				return nil, errors.New("connection reset")
			},
		}
		provider := sysconfig.NewProvider(repo)

		_, err := provider.Snapshot(ctx)
		assert.Error(t, err)
	})
}

func TestSnapshot_AutoApproveAllowed(t *testing.T) {
	snap := sysconfig.Snapshot{AutoApproveLeaveTypes: []string{"sick_leave"}}

	assert.True(t, snap.AutoApproveAllowed("sick_leave"))
	assert.False(t, snap.AutoApproveAllowed("vacation"))
}
