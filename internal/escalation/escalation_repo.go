package escalation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=escalation_repo.go -destination=mock/escalation_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, e *HistoryEntry) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]HistoryEntry, error)
	HasUnresolvedFor(ctx context.Context, requestID uuid.UUID, toActor string) (bool, error)
	Resolve(ctx context.Context, entryID uuid.UUID, resolution string, at time.Time) (bool, error)
	ResolveAllForRequest(ctx context.Context, requestID uuid.UUID, resolution string) error
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

func (r *repository) execer() interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) Create(ctx context.Context, e *HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
INSERT INTO escalation_history (id, request_id, level, from_actor, to_actor, reason, resolved, created_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
`
	_, err := r.execer().ExecContext(ctx, query,
		e.ID, e.RequestID, e.Level, e.FromActor, e.ToActor, e.Reason, e.CreatedAt,
	)
	return err
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]HistoryEntry, error) {
	var list []HistoryEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// HasUnresolvedFor is the sweep's idempotency guard: an open entry
// targeting the actor means the hand-off already happened.
func (r *repository) HasUnresolvedFor(ctx context.Context, requestID uuid.UUID, toActor string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&HistoryEntry{}).
		Where("request_id = ?", requestID).
		Where("to_actor = ?", toActor).
		Where("resolved = ?", false).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Resolve(ctx context.Context, entryID uuid.UUID, resolution string, at time.Time) (bool, error) {
	query := `
UPDATE escalation_history
SET resolved = TRUE, resolution = $2, resolved_at = $3
WHERE id = $1 AND resolved = FALSE
`
	res, err := r.execer().ExecContext(ctx, query, entryID, resolution, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) ResolveAllForRequest(ctx context.Context, requestID uuid.UUID, resolution string) error {
	query := `
UPDATE escalation_history
SET resolved = TRUE, resolution = $2, resolved_at = NOW()
WHERE request_id = $1 AND resolved = FALSE
`
	_, err := r.execer().ExecContext(ctx, query, requestID, resolution)
	return err
}
