package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientBillRepository interface {
	Repository[model.ClientBill]
	FindByBillNo(ctx context.Context, jobID uuid.UUID, billNo string) (*model.ClientBill, error)
	ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ClientBill, error)
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type clientBillRepository struct {
	crud[model.ClientBill]
}

func NewClientBillRepository(db *gorm.DB) ClientBillRepository {
	return &clientBillRepository{crud[model.ClientBill]{
		db:       db,
		preloads: []string{"Job", "Client"},
		order:    "bill_date DESC, bill_no ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "client_id", f.ClientID)
			db = jobOfCompany(db, f.CompanyID)
			db = betweenDates(db, "bill_date", f.From, f.To)
			return search(db, f.Search, "bill_no", "remarks")
		},
	}}
}

func (r *clientBillRepository) FindByBillNo(ctx context.Context, jobID uuid.UUID, billNo string) (*model.ClientBill, error) {
	var bill model.ClientBill
	if err := GetDB(ctx, r.db).First(&bill, "job_id = ? AND bill_no = ?", jobID, billNo).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *clientBillRepository) ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ClientBill, error) {
	return r.listIn(ctx, "job_id", jobIDs)
}

func (r *clientBillRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{{"payment_receipts", "client_bill_id", "payment receipts"}})
}

type PaymentReceiptRepository interface {
	Repository[model.PaymentReceipt]
	ListByBills(ctx context.Context, billIDs []uuid.UUID) ([]model.PaymentReceipt, error)
	ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.PaymentReceipt, error)
}

type paymentReceiptRepository struct {
	crud[model.PaymentReceipt]
}

func NewPaymentReceiptRepository(db *gorm.DB) PaymentReceiptRepository {
	return &paymentReceiptRepository{crud[model.PaymentReceipt]{
		db:       db,
		preloads: []string{"Job", "Client", "Deductions"},
		order:    "payment_date DESC, created_at DESC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "client_id", f.ClientID)
			db = jobOfCompany(db, f.CompanyID)
			db = whereEq(db, "payment_mode", f.Type)
			db = betweenDates(db, "payment_date", f.From, f.To)
			return search(db, f.Search, "bill_no", "reference_no", "remarks")
		},
	}}
}

func (r *paymentReceiptRepository) ListByBills(ctx context.Context, billIDs []uuid.UUID) ([]model.PaymentReceipt, error) {
	return r.listIn(ctx, "client_bill_id", billIDs)
}

func (r *paymentReceiptRepository) ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.PaymentReceipt, error) {
	return r.listIn(ctx, "job_id", jobIDs)
}

type ContractorBillRepository interface {
	Repository[model.ContractorBill]
	ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ContractorBill, error)
	ListByContractors(ctx context.Context, contractorIDs []uuid.UUID) ([]model.ContractorBill, error)
	Dependents(ctx context.Context, id uuid.UUID) ([]string, error)
}

type contractorBillRepository struct {
	crud[model.ContractorBill]
}

func NewContractorBillRepository(db *gorm.DB) ContractorBillRepository {
	return &contractorBillRepository{crud[model.ContractorBill]{
		db:       db,
		preloads: []string{"Job", "Client", "ContractorSupplier", "MaterialCode"},
		order:    "bill_date DESC, bill_no ASC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "client_id", f.ClientID)
			db = whereID(db, "contractor_supplier_id", f.ContractorID)
			db = jobOfCompany(db, f.CompanyID)
			db = betweenDates(db, "bill_date", f.From, f.To)
			return search(db, f.Search, "bill_no", "remarks")
		},
	}}
}

func (r *contractorBillRepository) ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ContractorBill, error) {
	return r.listIn(ctx, "job_id", jobIDs)
}

func (r *contractorBillRepository) ListByContractors(ctx context.Context, contractorIDs []uuid.UUID) ([]model.ContractorBill, error) {
	return r.listIn(ctx, "contractor_supplier_id", contractorIDs)
}

func (r *contractorBillRepository) Dependents(ctx context.Context, id uuid.UUID) ([]string, error) {
	return referencedBy(ctx, r.db, id, []reference{{"contractor_payments", "contractor_bill_id", "contractor payments"}})
}

type ContractorPaymentRepository interface {
	Repository[model.ContractorPayment]
	ListByBills(ctx context.Context, billIDs []uuid.UUID) ([]model.ContractorPayment, error)
	ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ContractorPayment, error)
	ListByContractors(ctx context.Context, contractorIDs []uuid.UUID) ([]model.ContractorPayment, error)
}

type contractorPaymentRepository struct {
	crud[model.ContractorPayment]
}

func NewContractorPaymentRepository(db *gorm.DB) ContractorPaymentRepository {
	return &contractorPaymentRepository{crud[model.ContractorPayment]{
		db:       db,
		preloads: []string{"Job", "ContractorBill", "ContractorSupplier", "Deductions"},
		order:    "payment_date DESC, created_at DESC",
		scope: func(db *gorm.DB, f Filter) *gorm.DB {
			db = whereID(db, "job_id", f.JobID)
			db = whereID(db, "contractor_supplier_id", f.ContractorID)
			db = jobOfCompany(db, f.CompanyID)
			db = whereEq(db, "payment_mode", f.Type)
			db = betweenDates(db, "payment_date", f.From, f.To)
			return search(db, f.Search, "reference_no", "remarks")
		},
	}}
}

func (r *contractorPaymentRepository) ListByBills(ctx context.Context, billIDs []uuid.UUID) ([]model.ContractorPayment, error) {
	return r.listIn(ctx, "contractor_bill_id", billIDs)
}

func (r *contractorPaymentRepository) ListByJobs(ctx context.Context, jobIDs []uuid.UUID) ([]model.ContractorPayment, error) {
	return r.listIn(ctx, "job_id", jobIDs)
}

func (r *contractorPaymentRepository) ListByContractors(ctx context.Context, contractorIDs []uuid.UUID) ([]model.ContractorPayment, error) {
	return r.listIn(ctx, "contractor_supplier_id", contractorIDs)
}

// DeductionRepository replaces and removes the deductions of a receipt or a
// contractor payment.
type DeductionRepository interface {
	ReplaceForReceipt(ctx context.Context, receiptID uuid.UUID, deductions []model.Deduction) ([]model.Deduction, error)
	ReplaceForContractorPayment(ctx context.Context, paymentID uuid.UUID, deductions []model.Deduction) ([]model.Deduction, error)
	DeleteForReceipt(ctx context.Context, receiptID uuid.UUID) error
	DeleteForContractorPayment(ctx context.Context, paymentID uuid.UUID) error
}

type deductionRepository struct {
	db *gorm.DB
}

func NewDeductionRepository(db *gorm.DB) DeductionRepository {
	return &deductionRepository{db: db}
}

func (r *deductionRepository) ReplaceForReceipt(ctx context.Context, receiptID uuid.UUID, deductions []model.Deduction) ([]model.Deduction, error) {
	for i := range deductions {
		deductions[i].PaymentReceiptID = &receiptID
		deductions[i].ContractorPaymentID = nil
	}
	return r.replace(ctx, "payment_receipt_id", receiptID, deductions)
}

func (r *deductionRepository) ReplaceForContractorPayment(ctx context.Context, paymentID uuid.UUID, deductions []model.Deduction) ([]model.Deduction, error) {
	for i := range deductions {
		deductions[i].ContractorPaymentID = &paymentID
		deductions[i].PaymentReceiptID = nil
	}
	return r.replace(ctx, "contractor_payment_id", paymentID, deductions)
}

func (r *deductionRepository) DeleteForReceipt(ctx context.Context, receiptID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("payment_receipt_id = ?", receiptID).Delete(&model.Deduction{}).Error
}

func (r *deductionRepository) DeleteForContractorPayment(ctx context.Context, paymentID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("contractor_payment_id = ?", paymentID).Delete(&model.Deduction{}).Error
}

// replace deletes the owner's deductions and re-creates the given set.
func (r *deductionRepository) replace(ctx context.Context, column string, ownerID uuid.UUID, deductions []model.Deduction) ([]model.Deduction, error) {
	db := GetDB(ctx, r.db)
	if err := db.Where(column+" = ?", ownerID).Delete(&model.Deduction{}).Error; err != nil {
		return nil, err
	}
	if len(deductions) == 0 {
		return []model.Deduction{}, nil
	}
	if err := db.Create(&deductions).Error; err != nil {
		return nil, err
	}
	return deductions, nil
}
