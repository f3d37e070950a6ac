package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger debits and credits per-employee leave balances. Bookings that
// push the available balance negative are flagged, not rejected: HR
// corrects them after the fact.
//
//go:generate mockgen -source=ledger.go -destination=mock/ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	Book(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error
	Reverse(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error
}

type ledger struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *zap.Logger
}

func New(db *sql.DB, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger")
	}
	return &ledger{db: db, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{db: l.db, tx: tx, logger: l.logger}
}

func (l *ledger) Book(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error {
	if days.IsZero() {
		return nil
	}

	query := `
INSERT INTO leave_balances (employee_id, leave_type, year, entitlement, used, flagged_negative, updated_at)
VALUES ($1, $2, EXTRACT(YEAR FROM NOW())::int, 0, $3, $3 > 0, NOW())
ON CONFLICT (employee_id, leave_type, year)
DO UPDATE SET
	used = leave_balances.used + EXCLUDED.used,
	flagged_negative = (leave_balances.entitlement - (leave_balances.used + EXCLUDED.used)) < 0,
	updated_at = NOW()
RETURNING flagged_negative
`

	var flagged bool
	if err := l.querier().QueryRowContext(ctx, query, employeeID, leaveType, days).Scan(&flagged); err != nil {
		return err
	}

	if flagged {
		l.logger.Warn("balance booked into negative, flagged for correction",
			zap.String("employee_id", employeeID.String()),
			zap.String("leave_type", leaveType),
			zap.String("days", days.String()),
		)
	} else {
		l.logger.Debug("balance booked",
			zap.String("employee_id", employeeID.String()),
			zap.String("leave_type", leaveType),
			zap.String("days", days.String()),
		)
	}
	return nil
}

func (l *ledger) Reverse(ctx context.Context, employeeID uuid.UUID, leaveType string, days decimal.Decimal) error {
	if days.IsZero() {
		return nil
	}

	query := `
UPDATE leave_balances
SET
	used = GREATEST(used - $3, 0),
	flagged_negative = (entitlement - GREATEST(used - $3, 0)) < 0,
	updated_at = NOW()
WHERE employee_id = $1
	AND leave_type = $2
	AND year = EXTRACT(YEAR FROM NOW())::int
`

	res, err := l.querier().ExecContext(ctx, query, employeeID, leaveType, days)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		l.logger.Warn("reverse on missing balance row, nothing credited",
			zap.String("employee_id", employeeID.String()),
			zap.String("leave_type", leaveType),
		)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (l *ledger) querier() querier {
	if l.tx != nil {
		return l.tx
	}
	return l.db
}
