package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditFilter struct {
	Entity   string
	EntityID *uuid.UUID
	UserID   *uuid.UUID
	Action   string
	Page     int
	Limit    int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		db = whereEq(db, "entity", f.Entity)
		db = whereEq(db, "action", f.Action)
		db = whereID(db, "entity_id", f.EntityID)
		return whereID(db, "user_id", f.UserID)
	}

	db := GetDB(ctx, r.db)
	if err := scoped(db.Model(&model.AuditLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := scoped(db).Order("created_at desc").Offset(offset).Limit(f.Limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
