package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePaymentReceiptRequest struct {
	JobID        string             `json:"job_id" binding:"required"`
	ClientBillID string             `json:"client_bill_id"`
	BillNo       string             `json:"bill_no"`
	PaymentDate  string             `json:"payment_date" binding:"required"`
	PaymentMode  string             `json:"payment_mode" binding:"required"`
	ReferenceNo  string             `json:"reference_no"`
	BaseAmount   *decimal.Decimal   `json:"base_amount" swaggertype:"string"`
	GST          decimal.Decimal    `json:"gst" swaggertype:"string"`
	Deductions   []DeductionPayload `json:"deductions"`
	Remarks      string             `json:"remarks"`
}

type UpdatePaymentReceiptRequest struct {
	JobID        *string             `json:"job_id"`
	ClientBillID *string             `json:"client_bill_id"`
	BillNo       *string             `json:"bill_no"`
	PaymentDate  *string             `json:"payment_date"`
	PaymentMode  *string             `json:"payment_mode"`
	ReferenceNo  *string             `json:"reference_no"`
	BaseAmount   *decimal.Decimal    `json:"base_amount" swaggertype:"string"`
	GST          *decimal.Decimal    `json:"gst" swaggertype:"string"`
	Deductions   *[]DeductionPayload `json:"deductions"` // nil = unchanged, [] = clear all
	Remarks      *string             `json:"remarks"`
}

type PaymentReceiptResponse struct {
	ID           uuid.UUID  `json:"id"`
	JobID        uuid.UUID  `json:"job_id"`
	JobNo        string     `json:"job_no"`
	ClientID     uuid.UUID  `json:"client_id"`
	ClientName   string     `json:"client_name"`
	ClientBillID *uuid.UUID `json:"client_bill_id"`
	BillNo       string     `json:"bill_no"`
	PaymentDate  string     `json:"payment_date"`
	PaymentMode  string     `json:"payment_mode"`
	ReferenceNo  string     `json:"reference_no"`
	BaseAmount   string     `json:"base_amount"`
	GST          string     `json:"gst"`
	paymentFigures
	Deductions []DeductionResponse `json:"deductions"`
	Remarks    string              `json:"remarks"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type PaymentReceiptService interface {
	List(ctx context.Context, f repository.Filter) ([]PaymentReceiptResponse, int64, error)
	Get(ctx context.Context, id string) (PaymentReceiptResponse, error)
	Create(ctx context.Context, req CreatePaymentReceiptRequest) (PaymentReceiptResponse, error)
	Update(ctx context.Context, id string, req UpdatePaymentReceiptRequest) (PaymentReceiptResponse, error)
	Delete(ctx context.Context, id string) error
}

type paymentReceiptService struct {
	repo          repository.PaymentReceiptRepository
	jobRepo       repository.JobRepository
	billRepo      repository.ClientBillRepository
	deductionRepo repository.DeductionRepository
	rec           recorder
}

func NewPaymentReceiptService(
	repo repository.PaymentReceiptRepository,
	jobRepo repository.JobRepository,
	billRepo repository.ClientBillRepository,
	deductionRepo repository.DeductionRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) PaymentReceiptService {
	return &paymentReceiptService{
		repo:          repo,
		jobRepo:       jobRepo,
		billRepo:      billRepo,
		deductionRepo: deductionRepo,
		rec:           newRecorder(txManager, auditRepo, notifier),
	}
}

func (s *paymentReceiptService) List(ctx context.Context, f repository.Filter) ([]PaymentReceiptResponse, int64, error) {
	receipts, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(receipts, toPaymentReceiptResponse), total, nil
}

func (s *paymentReceiptService) Get(ctx context.Context, id string) (PaymentReceiptResponse, error) {
	receipt, err := load(ctx, s.repo.FindByID, "payment receipt", id)
	if err != nil {
		return PaymentReceiptResponse{}, err
	}
	return toPaymentReceiptResponse(*receipt), nil
}

func (s *paymentReceiptService) Create(ctx context.Context, req CreatePaymentReceiptRequest) (PaymentReceiptResponse, error) {
	receipt := model.PaymentReceipt{
		BillNo:      strings.TrimSpace(req.BillNo),
		PaymentMode: req.PaymentMode,
		ReferenceNo: req.ReferenceNo,
		Remarks:     req.Remarks,
	}

	var err error
	if receipt.JobID, err = parseID("job_id", req.JobID); err != nil {
		return PaymentReceiptResponse{}, err
	}
	if receipt.ClientBillID, err = parseOptionalID("client_bill_id", req.ClientBillID); err != nil {
		return PaymentReceiptResponse{}, err
	}
	if receipt.PaymentDate, err = ParseDate("payment_date", req.PaymentDate); err != nil {
		return PaymentReceiptResponse{}, err
	}
	if err = oneOf("payment_mode", receipt.PaymentMode, paymentModes...); err != nil {
		return PaymentReceiptResponse{}, err
	}
	if receipt.BaseAmount, err = requiredAmount("base_amount", req.BaseAmount); err != nil {
		return PaymentReceiptResponse{}, err
	}
	if receipt.GST, err = amount("gst", req.GST); err != nil {
		return PaymentReceiptResponse{}, err
	}
	deductions, err := toDeductionModels(req.Deductions)
	if err != nil {
		return PaymentReceiptResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityPaymentReceipt, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, &receipt); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &receipt); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "payment receipt", "")
		}
		saved, err := s.deductionRepo.ReplaceForReceipt(txCtx, receipt.ID, deductions)
		if err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		receipt.Deductions = saved
		return receipt.ID, toPaymentReceiptResponse(receipt), nil
	})
	if err != nil {
		return PaymentReceiptResponse{}, err
	}
	return toPaymentReceiptResponse(receipt), nil
}

func (s *paymentReceiptService) Update(ctx context.Context, id string, req UpdatePaymentReceiptRequest) (PaymentReceiptResponse, error) {
	receipt, err := load(ctx, s.repo.FindByID, "payment receipt", id)
	if err != nil {
		return PaymentReceiptResponse{}, err
	}

	if req.JobID != nil {
		if receipt.JobID, err = parseID("job_id", *req.JobID); err != nil {
			return PaymentReceiptResponse{}, err
		}
	}
	switch {
	case req.ClientBillID != nil:
		if receipt.ClientBillID, err = parseOptionalID("client_bill_id", *req.ClientBillID); err != nil {
			return PaymentReceiptResponse{}, err
		}
		if req.BillNo != nil {
			receipt.BillNo = strings.TrimSpace(*req.BillNo)
		}
	case req.BillNo != nil:
		// a new bill number is resolved again within the job
		receipt.BillNo = strings.TrimSpace(*req.BillNo)
		receipt.ClientBillID = nil
	case req.JobID != nil:
		receipt.ClientBillID = nil
	}
	if req.PaymentDate != nil {
		if receipt.PaymentDate, err = ParseDate("payment_date", *req.PaymentDate); err != nil {
			return PaymentReceiptResponse{}, err
		}
	}
	setString(&receipt.PaymentMode, req.PaymentMode)
	if err = oneOf("payment_mode", receipt.PaymentMode, paymentModes...); err != nil {
		return PaymentReceiptResponse{}, err
	}
	setString(&receipt.ReferenceNo, req.ReferenceNo)
	if req.BaseAmount != nil {
		if receipt.BaseAmount, err = amount("base_amount", *req.BaseAmount); err != nil {
			return PaymentReceiptResponse{}, err
		}
	}
	if req.GST != nil {
		if receipt.GST, err = amount("gst", *req.GST); err != nil {
			return PaymentReceiptResponse{}, err
		}
	}
	setString(&receipt.Remarks, req.Remarks)

	var deductions []model.Deduction
	if req.Deductions != nil {
		if deductions, err = toDeductionModels(*req.Deductions); err != nil {
			return PaymentReceiptResponse{}, err
		}
	}

	err = s.rec.write(ctx, model.EntityPaymentReceipt, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, receipt); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, receipt); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "payment receipt", id)
		}
		if req.Deductions != nil {
			saved, err := s.deductionRepo.ReplaceForReceipt(txCtx, receipt.ID, deductions)
			if err != nil {
				return uuid.Nil, nil, apperror.Internal(err)
			}
			receipt.Deductions = saved
		}
		return receipt.ID, toPaymentReceiptResponse(*receipt), nil
	})
	if err != nil {
		return PaymentReceiptResponse{}, err
	}
	return toPaymentReceiptResponse(*receipt), nil
}

// Delete removes the receipt and its deductions in one transaction.
func (s *paymentReceiptService) Delete(ctx context.Context, id string) error {
	receipt, err := load(ctx, s.repo.FindByID, "payment receipt", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityPaymentReceipt, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.deductionRepo.DeleteForReceipt(txCtx, receipt.ID); err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if err := s.repo.Delete(txCtx, receipt.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "payment receipt", id)
		}
		return receipt.ID, toPaymentReceiptResponse(*receipt), nil
	})
}

// resolve takes the client from the job and links the receipt to a bill of
// the same job. An explicit client_bill_id must belong to the job; a bill
// number with no matching bill is kept as text and counts at job level only.
func (s *paymentReceiptService) resolve(ctx context.Context, receipt *model.PaymentReceipt) error {
	job, err := reference(ctx, s.jobRepo.FindByID, "job_id", receipt.JobID)
	if err != nil {
		return err
	}
	receipt.Job = job
	receipt.ClientID = job.ClientID
	receipt.Client = job.Client

	if receipt.ClientBillID != nil {
		bill, err := reference(ctx, s.billRepo.FindByID, "client_bill_id", *receipt.ClientBillID)
		if err != nil {
			return err
		}
		if bill.JobID != job.ID {
			return apperror.Validation("client_bill_id belongs to a different job").
				WithDetail("client_bill_id", bill.ID.String())
		}
		receipt.BillNo = bill.BillNo
		return nil
	}

	if receipt.BillNo == "" {
		return nil
	}
	bill, err := s.billRepo.FindByBillNo(ctx, job.ID, receipt.BillNo)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return apperror.Internal(err)
	}
	receipt.ClientBillID = &bill.ID
	return nil
}

func toPaymentReceiptResponse(r model.PaymentReceipt) PaymentReceiptResponse {
	res := PaymentReceiptResponse{
		ID:             r.ID,
		JobID:          r.JobID,
		ClientID:       r.ClientID,
		ClientBillID:   r.ClientBillID,
		BillNo:         r.BillNo,
		PaymentDate:    formatDate(r.PaymentDate),
		PaymentMode:    r.PaymentMode,
		ReferenceNo:    r.ReferenceNo,
		BaseAmount:     money(r.BaseAmount),
		GST:            money(r.GST),
		paymentFigures: figuresOf(r.Ledger()),
		Deductions:     toDeductionResponses(r.Deductions),
		Remarks:        r.Remarks,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.Job != nil {
		res.JobNo = r.Job.JobNo
	}
	if r.Client != nil {
		res.ClientName = r.Client.Name
	}
	return res
}
