package bootstrap

import "context"

// AuditLog is one append-only audit record. Writing it is best-effort:
// implementations must never fail the caller's primary operation.
type AuditLog struct {
	Action  string
	Actor   string
	Message string
	Meta    map[string]any
}

//go:generate mockgen -source=audit.go -destination=mock/audit_logger_mock.go -package=mock
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
