package orgdir

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoApprover = errors.New("no approver defined in org directory")

// Directory resolves the human approver chain for an employee:
// level 1 is the manager, level 2 the manager's manager, level 3 the
// designated HR partner.
//
//go:generate mockgen -source=directory.go -destination=mock/directory_mock.go -package=mock
type Directory interface {
	ManagerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error)
	HRPartnerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error)
	ApproverForLevel(ctx context.Context, employeeID uuid.UUID, level int) (uuid.UUID, error)
}

type directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) Directory {
	return &directory{db: db}
}

func (d *directory) ManagerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	var managerID *uuid.UUID
	err := d.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Where("deleted_at IS NULL").
		Pluck("manager_id", &managerID).Error
	if err != nil {
		return uuid.Nil, err
	}
	if managerID == nil || *managerID == uuid.Nil {
		return uuid.Nil, ErrNoApprover
	}
	return *managerID, nil
}

func (d *directory) HRPartnerOf(ctx context.Context, employeeID uuid.UUID) (uuid.UUID, error) {
	var partnerID *uuid.UUID
	err := d.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Where("deleted_at IS NULL").
		Pluck("hr_partner_id", &partnerID).Error
	if err != nil {
		return uuid.Nil, err
	}
	if partnerID == nil || *partnerID == uuid.Nil {
		return uuid.Nil, ErrNoApprover
	}
	return *partnerID, nil
}

func (d *directory) ApproverForLevel(ctx context.Context, employeeID uuid.UUID, level int) (uuid.UUID, error) {
	switch level {
	case 1:
		return d.ManagerOf(ctx, employeeID)
	case 2:
		manager, err := d.ManagerOf(ctx, employeeID)
		if err != nil {
			return uuid.Nil, err
		}
		return d.ManagerOf(ctx, manager)
	case 3:
		return d.HRPartnerOf(ctx, employeeID)
	default:
		return uuid.Nil, ErrNoApprover
	}
}
