package sysconfig

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Snapshot is the configuration view a single decision runs against.
// It is fetched fresh at every decision point and never cached across a
// transition boundary, so a mode flip cannot race an in-flight decision.
type Snapshot struct {
	Mode                      Mode
	HRResponseTimeout         time.Duration
	PriorityEscalationTimeout time.Duration
	AutoApproveLeaveTypes     []string
	PriorityEmailEnabled      bool
	ApprovalSLA               time.Duration
	ApprovalEscalatedSLA      time.Duration
}

func (s Snapshot) AutoApproveAllowed(leaveType string) bool {
	for _, t := range s.AutoApproveLeaveTypes {
		if t == leaveType {
			return true
		}
	}
	return false
}

//go:generate mockgen -source=sysconfig_provider.go -destination=mock/sysconfig_provider_mock.go -package=mock
type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

type provider struct {
	repo   Repository
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewProvider(repo Repository, logger ...*zap.Logger) Provider {
	l := zap.L().Named("sysconfig.provider")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("sysconfig.provider")
	}
	return &provider{repo: repo, sf: &singleflight.Group{}, logger: l}
}

// Snapshot loads every setting row. Concurrent callers within one sweep
// tick share a single read via singleflight; nothing is retained after
// the call returns.
func (p *provider) Snapshot(ctx context.Context) (Snapshot, error) {
	v, err, _ := p.sf.Do("snapshot", func() (any, error) {
		settings, err := p.repo.FindAll(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		return p.build(settings), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (p *provider) build(settings []Setting) Snapshot {
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	get := func(key string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		p.logger.Warn("config key missing, using default",
			zap.String("key", key),
			zap.String("default", defaults[key]),
		)
		return defaults[key]
	}

	mode := Mode(get(KeyMode))
	if !mode.Valid() {
		p.logger.Warn("invalid ai_mode value, falling back to normal",
			zap.String("value", string(mode)),
		)
		mode = ModeNormal
	}

	return Snapshot{
		Mode:                      mode,
		HRResponseTimeout:         hours(get(KeyHRResponseTimeoutHours), 7),
		PriorityEscalationTimeout: hours(get(KeyPriorityEscalationHours), 24),
		AutoApproveLeaveTypes:     splitList(get(KeyAutoApproveLeaveTypes)),
		PriorityEmailEnabled:      get(KeyPriorityEmailEnabled) == "true",
		ApprovalSLA:               hours(get(KeyApprovalSLAHours), 48),
		ApprovalEscalatedSLA:      hours(get(KeyApprovalEscalatedSLAHours), 24),
	}
}

func hours(v string, fallback int) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Hour
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
