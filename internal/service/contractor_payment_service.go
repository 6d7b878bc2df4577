package service

import (
	"context"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateContractorPaymentRequest struct {
	ContractorBillID     string             `json:"contractor_bill_id" binding:"required"`
	JobID                string             `json:"job_id"`
	ContractorSupplierID string             `json:"contractor_supplier_id"`
	PaymentDate          string             `json:"payment_date" binding:"required"`
	PaymentMode          string             `json:"payment_mode" binding:"required"`
	ReferenceNo          string             `json:"reference_no"`
	BaseAmount           *decimal.Decimal   `json:"base_amount" swaggertype:"string"`
	GST                  decimal.Decimal    `json:"gst" swaggertype:"string"`
	Deductions           []DeductionPayload `json:"deductions"`
	Remarks              string             `json:"remarks"`
}

type UpdateContractorPaymentRequest struct {
	ContractorBillID     *string             `json:"contractor_bill_id"`
	JobID                *string             `json:"job_id"`
	ContractorSupplierID *string             `json:"contractor_supplier_id"`
	PaymentDate          *string             `json:"payment_date"`
	PaymentMode          *string             `json:"payment_mode"`
	ReferenceNo          *string             `json:"reference_no"`
	BaseAmount           *decimal.Decimal    `json:"base_amount" swaggertype:"string"`
	GST                  *decimal.Decimal    `json:"gst" swaggertype:"string"`
	Deductions           *[]DeductionPayload `json:"deductions"`
	Remarks              *string             `json:"remarks"`
}

type ContractorPaymentResponse struct {
	ID                   uuid.UUID `json:"id"`
	JobID                uuid.UUID `json:"job_id"`
	JobNo                string    `json:"job_no"`
	ContractorBillID     uuid.UUID `json:"contractor_bill_id"`
	BillNo               string    `json:"bill_no"`
	ContractorSupplierID uuid.UUID `json:"contractor_supplier_id"`
	ContractorName       string    `json:"contractor_name"`
	PaymentDate          string    `json:"payment_date"`
	PaymentMode          string    `json:"payment_mode"`
	ReferenceNo          string    `json:"reference_no"`
	BaseAmount           string    `json:"base_amount"`
	GST                  string    `json:"gst"`
	paymentFigures
	Deductions []DeductionResponse `json:"deductions"`
	Remarks    string              `json:"remarks"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type ContractorPaymentService interface {
	List(ctx context.Context, f repository.Filter) ([]ContractorPaymentResponse, int64, error)
	Get(ctx context.Context, id string) (ContractorPaymentResponse, error)
	Create(ctx context.Context, req CreateContractorPaymentRequest) (ContractorPaymentResponse, error)
	Update(ctx context.Context, id string, req UpdateContractorPaymentRequest) (ContractorPaymentResponse, error)
	Delete(ctx context.Context, id string) error
}

type contractorPaymentService struct {
	repo          repository.ContractorPaymentRepository
	billRepo      repository.ContractorBillRepository
	deductionRepo repository.DeductionRepository
	rec           recorder
}

func NewContractorPaymentService(
	repo repository.ContractorPaymentRepository,
	billRepo repository.ContractorBillRepository,
	deductionRepo repository.DeductionRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) ContractorPaymentService {
	return &contractorPaymentService{
		repo:          repo,
		billRepo:      billRepo,
		deductionRepo: deductionRepo,
		rec:           newRecorder(txManager, auditRepo, notifier),
	}
}

func (s *contractorPaymentService) List(ctx context.Context, f repository.Filter) ([]ContractorPaymentResponse, int64, error) {
	payments, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(payments, toContractorPaymentResponse), total, nil
}

func (s *contractorPaymentService) Get(ctx context.Context, id string) (ContractorPaymentResponse, error) {
	payment, err := load(ctx, s.repo.FindByID, "contractor payment", id)
	if err != nil {
		return ContractorPaymentResponse{}, err
	}
	return toContractorPaymentResponse(*payment), nil
}

func (s *contractorPaymentService) Create(ctx context.Context, req CreateContractorPaymentRequest) (ContractorPaymentResponse, error) {
	payment := model.ContractorPayment{
		PaymentMode: req.PaymentMode,
		ReferenceNo: req.ReferenceNo,
		Remarks:     req.Remarks,
	}

	var err error
	if payment.ContractorBillID, err = parseID("contractor_bill_id", req.ContractorBillID); err != nil {
		return ContractorPaymentResponse{}, err
	}
	claims, err := parseClaims(req.JobID, req.ContractorSupplierID)
	if err != nil {
		return ContractorPaymentResponse{}, err
	}
	if payment.PaymentDate, err = ParseDate("payment_date", req.PaymentDate); err != nil {
		return ContractorPaymentResponse{}, err
	}
	if err = oneOf("payment_mode", payment.PaymentMode, paymentModes...); err != nil {
		return ContractorPaymentResponse{}, err
	}
	if payment.BaseAmount, err = requiredAmount("base_amount", req.BaseAmount); err != nil {
		return ContractorPaymentResponse{}, err
	}
	if payment.GST, err = amount("gst", req.GST); err != nil {
		return ContractorPaymentResponse{}, err
	}
	deductions, err := toDeductionModels(req.Deductions)
	if err != nil {
		return ContractorPaymentResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityContractorPayment, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachBill(txCtx, &payment, claims); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &payment); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor payment", "")
		}
		saved, err := s.deductionRepo.ReplaceForContractorPayment(txCtx, payment.ID, deductions)
		if err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		payment.Deductions = saved
		return payment.ID, toContractorPaymentResponse(payment), nil
	})
	if err != nil {
		return ContractorPaymentResponse{}, err
	}
	return toContractorPaymentResponse(payment), nil
}

func (s *contractorPaymentService) Update(ctx context.Context, id string, req UpdateContractorPaymentRequest) (ContractorPaymentResponse, error) {
	payment, err := load(ctx, s.repo.FindByID, "contractor payment", id)
	if err != nil {
		return ContractorPaymentResponse{}, err
	}

	if req.ContractorBillID != nil {
		if payment.ContractorBillID, err = parseID("contractor_bill_id", *req.ContractorBillID); err != nil {
			return ContractorPaymentResponse{}, err
		}
	}
	var jobID, contractorID string
	if req.JobID != nil {
		jobID = *req.JobID
	}
	if req.ContractorSupplierID != nil {
		contractorID = *req.ContractorSupplierID
	}
	claims, err := parseClaims(jobID, contractorID)
	if err != nil {
		return ContractorPaymentResponse{}, err
	}
	if req.PaymentDate != nil {
		if payment.PaymentDate, err = ParseDate("payment_date", *req.PaymentDate); err != nil {
			return ContractorPaymentResponse{}, err
		}
	}
	setString(&payment.PaymentMode, req.PaymentMode)
	if err = oneOf("payment_mode", payment.PaymentMode, paymentModes...); err != nil {
		return ContractorPaymentResponse{}, err
	}
	setString(&payment.ReferenceNo, req.ReferenceNo)
	if req.BaseAmount != nil {
		if payment.BaseAmount, err = amount("base_amount", *req.BaseAmount); err != nil {
			return ContractorPaymentResponse{}, err
		}
	}
	if req.GST != nil {
		if payment.GST, err = amount("gst", *req.GST); err != nil {
			return ContractorPaymentResponse{}, err
		}
	}
	setString(&payment.Remarks, req.Remarks)

	var deductions []model.Deduction
	if req.Deductions != nil {
		if deductions, err = toDeductionModels(*req.Deductions); err != nil {
			return ContractorPaymentResponse{}, err
		}
	}

	err = s.rec.write(ctx, model.EntityContractorPayment, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachBill(txCtx, payment, claims); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, payment); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor payment", id)
		}
		if req.Deductions != nil {
			saved, err := s.deductionRepo.ReplaceForContractorPayment(txCtx, payment.ID, deductions)
			if err != nil {
				return uuid.Nil, nil, apperror.Internal(err)
			}
			payment.Deductions = saved
		}
		return payment.ID, toContractorPaymentResponse(*payment), nil
	})
	if err != nil {
		return ContractorPaymentResponse{}, err
	}
	return toContractorPaymentResponse(*payment), nil
}

// Delete removes the payment and its deductions in one transaction.
func (s *contractorPaymentService) Delete(ctx context.Context, id string) error {
	payment, err := load(ctx, s.repo.FindByID, "contractor payment", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityContractorPayment, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.deductionRepo.DeleteForContractorPayment(txCtx, payment.ID); err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if err := s.repo.Delete(txCtx, payment.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor payment", id)
		}
		return payment.ID, toContractorPaymentResponse(*payment), nil
	})
}

// billClaims are the job and contractor a client sent along with the bill id.
// They are only checked against the bill, never stored as given.
type billClaims struct {
	jobID        *uuid.UUID
	contractorID *uuid.UUID
}

func parseClaims(jobID, contractorID string) (billClaims, error) {
	var (
		c   billClaims
		err error
	)
	if c.jobID, err = parseOptionalID("job_id", jobID); err != nil {
		return c, err
	}
	if c.contractorID, err = parseOptionalID("contractor_supplier_id", contractorID); err != nil {
		return c, err
	}
	return c, nil
}

// attachBill copies job and contractor from the bill being paid.
func (s *contractorPaymentService) attachBill(ctx context.Context, payment *model.ContractorPayment, claims billClaims) error {
	bill, err := reference(ctx, s.billRepo.FindByID, "contractor_bill_id", payment.ContractorBillID)
	if err != nil {
		return err
	}
	if claims.jobID != nil && *claims.jobID != bill.JobID {
		return apperror.Validation("contractor bill belongs to a different job").
			WithDetail("job_id", claims.jobID.String())
	}
	if claims.contractorID != nil && *claims.contractorID != bill.ContractorSupplierID {
		return apperror.Validation("contractor bill belongs to a different contractor").
			WithDetail("contractor_supplier_id", claims.contractorID.String())
	}

	payment.ContractorBill = bill
	payment.JobID = bill.JobID
	payment.Job = bill.Job
	payment.ContractorSupplierID = bill.ContractorSupplierID
	payment.ContractorSupplier = bill.ContractorSupplier
	return nil
}

func toContractorPaymentResponse(p model.ContractorPayment) ContractorPaymentResponse {
	res := ContractorPaymentResponse{
		ID:                   p.ID,
		JobID:                p.JobID,
		ContractorBillID:     p.ContractorBillID,
		ContractorSupplierID: p.ContractorSupplierID,
		PaymentDate:          formatDate(p.PaymentDate),
		PaymentMode:          p.PaymentMode,
		ReferenceNo:          p.ReferenceNo,
		BaseAmount:           money(p.BaseAmount),
		GST:                  money(p.GST),
		paymentFigures:       figuresOf(p.Ledger()),
		Deductions:           toDeductionResponses(p.Deductions),
		Remarks:              p.Remarks,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Job != nil {
		res.JobNo = p.Job.JobNo
	}
	if p.ContractorBill != nil {
		res.BillNo = p.ContractorBill.BillNo
	}
	if p.ContractorSupplier != nil {
		res.ContractorName = p.ContractorSupplier.Name
	}
	return res
}
