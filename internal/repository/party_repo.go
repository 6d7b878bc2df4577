package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Repository[model.Company]
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type companyRepository struct {
	crud[model.Company]
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{crud[model.Company]{
		db:    db,
		order: "name ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			return search(db, f.Search, "name", "code", "gstin")
		},
	}}
}

func (r *companyRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{{"jobs", "company_id", "jobs"}})
}

type ClientRepository interface {
	Repository[model.Client]
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type clientRepository struct {
	crud[model.Client]
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{crud[model.Client]{
		db:    db,
		order: "name ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			return search(db, f.Search, "name", "code", "gstin", "contact_person")
		},
	}}
}

func (r *clientRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{
		{"jobs", "client_id", "jobs"},
		{"client_bills", "client_id", "client bills"},
		{"payment_receipts", "client_id", "payment receipts"},
	})
}

type JobRepository interface {
	Repository[model.Job]
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type jobRepository struct {
	crud[model.Job]
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{crud[model.Job]{
		db:       db,
		preloads: []string{"Client", "Company"},
		order:    "job_no ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "client_id", f.ClientID)
			db = whereID(db, "company_id", f.CompanyID)
			db = whereEq(db, "status", f.Status)
			db = betweenDates(db, "start_date", f.From, f.To)
			return search(db, f.Search, "job_no", "site", "description")
		},
	}}
}

func (r *jobRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{
		{"client_bills", "job_id", "client bills"},
		{"payment_receipts", "job_id", "payment receipts"},
		{"contractor_bills", "job_id", "contractor bills"},
		{"contractor_payments", "job_id", "contractor payments"},
		{"site_expenses", "job_id", "site expenses"},
		{"site_expense_enquiries", "job_id", "site expense enquiries"},
	})
}

type ContractorSupplierRepository interface {
	Repository[model.ContractorSupplier]
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type contractorSupplierRepository struct {
	crud[model.ContractorSupplier]
}

func NewContractorSupplierRepository(db *gorm.DB) ContractorSupplierRepository {
	return &contractorSupplierRepository{crud[model.ContractorSupplier]{
		db:    db,
		order: "name ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereEq(db, "type", f.Type)
			return search(db, f.Search, "name", "code", "gstin", "contact_person", "phone")
		},
	}}
}

func (r *contractorSupplierRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{
		{"contractor_bills", "contractor_supplier_id", "contractor bills"},
		{"contractor_payments", "contractor_supplier_id", "contractor payments"},
	})
}

type MaterialCodeRepository interface {
	Repository[model.MaterialCode]
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type materialCodeRepository struct {
	crud[model.MaterialCode]
}

func NewMaterialCodeRepository(db *gorm.DB) MaterialCodeRepository {
	return &materialCodeRepository{crud[model.MaterialCode]{
		db:    db,
		order: "code ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			return search(db, f.Search, "code", "description")
		},
	}}
}

func (r *materialCodeRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{{"contractor_bills", "material_code_id", "contractor bills"}})
}
