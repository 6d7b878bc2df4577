package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SiteExpenseRepository interface {
	Repository[model.SiteExpense]
	// FindForUpdate loads the expense without associations and locks its row
	// until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.SiteExpense, error)
	// DetachEnquiries unlinks enquiries that reference the expense.
	DetachEnquiries(ctx context.Context, id uuid.UUID) error
}

type siteExpenseRepository struct {
	crud[model.SiteExpense]
}

func NewSiteExpenseRepository(db *gorm.DB) SiteExpenseRepository {
	return &siteExpenseRepository{crud[model.SiteExpense]{
		db:       db,
		preloads: []string{"Job", "Client", "Refunds"},
		order:    "payment_date DESC, created_at DESC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "client_id", f.ClientID)
			db = jobOfCompany(db, f.CompanyID)
			db = betweenDates(db, "payment_date", f.From, f.To)
			return search(db, f.Search, "site_id", "paid_to", "description")
		},
	}}
}

func (r *siteExpenseRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.SiteExpense, error) {
	var expense model.SiteExpense
	if err := forUpdate(GetDB(ctx, r.db)).First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *siteExpenseRepository) DetachEnquiries(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.SiteExpenseEnquiry{}).
		Where("site_expense_id = ?", id).
		Update("site_expense_id", nil).Error
}

type SiteExpenseRefundRepository interface {
	Repository[model.SiteExpenseRefund]
	ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]model.SiteExpenseRefund, error)
	DeleteByExpense(ctx context.Context, expenseID uuid.UUID) error
}

type siteExpenseRefundRepository struct {
	crud[model.SiteExpenseRefund]
}

func NewSiteExpenseRefundRepository(db *gorm.DB) SiteExpenseRefundRepository {
	return &siteExpenseRefundRepository{crud[model.SiteExpenseRefund]{
		db:       db,
		preloads: []string{"SiteExpense"},
		order:    "refund_date DESC, created_at DESC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "site_expense_id", f.SiteExpenseID)
			if f.JobID != nil {
				db = db.Where("site_expense_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
					Model(&model.SiteExpense{}).Select("id").Where("job_id = ?", *f.JobID))
			}
			db = betweenDates(db, "refund_date", f.From, f.To)
			return search(db, f.Search, "remarks")
		},
	}}
}

func (r *siteExpenseRefundRepository) ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]model.SiteExpenseRefund, error) {
	return r.listIn(ctx, "site_expense_id", []uuid.UUID{expenseID})
}

func (r *siteExpenseRefundRepository) DeleteByExpense(ctx context.Context, expenseID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("site_expense_id = ?", expenseID).Delete(&model.SiteExpenseRefund{}).Error
}

type SiteExpenseEnquiryRepository interface {
	Repository[model.SiteExpenseEnquiry]
}

type siteExpenseEnquiryRepository struct {
	crud[model.SiteExpenseEnquiry]
}

func NewSiteExpenseEnquiryRepository(db *gorm.DB) SiteExpenseEnquiryRepository {
	return &siteExpenseEnquiryRepository{crud[model.SiteExpenseEnquiry]{
		db:       db,
		preloads: []string{"Job"},
		order:    "enquiry_date DESC, created_at DESC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "site_expense_id", f.SiteExpenseID)
			db = whereEq(db, "status", f.Status)
			db = betweenDates(db, "enquiry_date", f.From, f.To)
			return search(db, f.Search, "subject", "details", "raised_by")
		},
	}}
}
