package service

import (
	"context"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/ledger"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateContractorBillRequest struct {
	JobID                string           `json:"job_id" binding:"required"`
	ContractorSupplierID string           `json:"contractor_supplier_id" binding:"required"`
	MaterialCodeID       string           `json:"material_code_id"`
	BillNo               string           `json:"bill_no" binding:"required"`
	BillDate             string           `json:"bill_date" binding:"required"`
	BaseAmount           *decimal.Decimal `json:"base_amount" swaggertype:"string"`
	GST                  decimal.Decimal  `json:"gst" swaggertype:"string"`
	Remarks              string           `json:"remarks"`
}

type UpdateContractorBillRequest struct {
	JobID                *string          `json:"job_id"`
	ContractorSupplierID *string          `json:"contractor_supplier_id"`
	MaterialCodeID       *string          `json:"material_code_id"` // "" clears the material code
	BillNo               *string          `json:"bill_no"`
	BillDate             *string          `json:"bill_date"`
	BaseAmount           *decimal.Decimal `json:"base_amount" swaggertype:"string"`
	GST                  *decimal.Decimal `json:"gst" swaggertype:"string"`
	Remarks              *string          `json:"remarks"`
}

type ContractorBillResponse struct {
	ID                   uuid.UUID  `json:"id"`
	JobID                uuid.UUID  `json:"job_id"`
	JobNo                string     `json:"job_no"`
	ClientID             uuid.UUID  `json:"client_id"`
	ClientName           string     `json:"client_name"`
	ContractorSupplierID uuid.UUID  `json:"contractor_supplier_id"`
	ContractorName       string     `json:"contractor_name"`
	MaterialCodeID       *uuid.UUID `json:"material_code_id"`
	MaterialCode         string     `json:"material_code"`
	BillNo               string     `json:"bill_no"`
	BillDate             string     `json:"bill_date"`
	BaseAmount           string     `json:"base_amount"`
	GST                  string     `json:"gst"`
	Amount               string     `json:"amount"`
	Remarks              string     `json:"remarks"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type ContractorBillService interface {
	List(ctx context.Context, f repository.Filter) ([]ContractorBillResponse, int64, error)
	Get(ctx context.Context, id string) (ContractorBillResponse, error)
	Create(ctx context.Context, req CreateContractorBillRequest) (ContractorBillResponse, error)
	Update(ctx context.Context, id string, req UpdateContractorBillRequest) (ContractorBillResponse, error)
	Delete(ctx context.Context, id string) error
}

type contractorBillService struct {
	repo           repository.ContractorBillRepository
	jobRepo        repository.JobRepository
	contractorRepo repository.ContractorSupplierRepository
	materialRepo   repository.MaterialCodeRepository
	rec            recorder
}

func NewContractorBillService(
	repo repository.ContractorBillRepository,
	jobRepo repository.JobRepository,
	contractorRepo repository.ContractorSupplierRepository,
	materialRepo repository.MaterialCodeRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) ContractorBillService {
	return &contractorBillService{
		repo:           repo,
		jobRepo:        jobRepo,
		contractorRepo: contractorRepo,
		materialRepo:   materialRepo,
		rec:            newRecorder(txManager, auditRepo, notifier),
	}
}

func (s *contractorBillService) List(ctx context.Context, f repository.Filter) ([]ContractorBillResponse, int64, error) {
	bills, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(bills, toContractorBillResponse), total, nil
}

func (s *contractorBillService) Get(ctx context.Context, id string) (ContractorBillResponse, error) {
	bill, err := load(ctx, s.repo.FindByID, "contractor bill", id)
	if err != nil {
		return ContractorBillResponse{}, err
	}
	return toContractorBillResponse(*bill), nil
}

func (s *contractorBillService) Create(ctx context.Context, req CreateContractorBillRequest) (ContractorBillResponse, error) {
	bill := model.ContractorBill{
		BillNo:  strings.TrimSpace(req.BillNo),
		Remarks: req.Remarks,
	}

	var err error
	if bill.JobID, err = parseID("job_id", req.JobID); err != nil {
		return ContractorBillResponse{}, err
	}
	if bill.ContractorSupplierID, err = parseID("contractor_supplier_id", req.ContractorSupplierID); err != nil {
		return ContractorBillResponse{}, err
	}
	if bill.MaterialCodeID, err = parseOptionalID("material_code_id", req.MaterialCodeID); err != nil {
		return ContractorBillResponse{}, err
	}
	if err = required("bill_no", bill.BillNo); err != nil {
		return ContractorBillResponse{}, err
	}
	if bill.BillDate, err = ParseDate("bill_date", req.BillDate); err != nil {
		return ContractorBillResponse{}, err
	}
	if bill.BaseAmount, err = requiredAmount("base_amount", req.BaseAmount); err != nil {
		return ContractorBillResponse{}, err
	}
	if bill.GST, err = amount("gst", req.GST); err != nil {
		return ContractorBillResponse{}, err
	}
	bill.Amount = ledger.BillTotal(bill.Ledger())

	err = s.rec.write(ctx, model.EntityContractorBill, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, &bill); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &bill); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor bill", "")
		}
		return bill.ID, toContractorBillResponse(bill), nil
	})
	if err != nil {
		return ContractorBillResponse{}, err
	}
	return toContractorBillResponse(bill), nil
}

func (s *contractorBillService) Update(ctx context.Context, id string, req UpdateContractorBillRequest) (ContractorBillResponse, error) {
	bill, err := load(ctx, s.repo.FindByID, "contractor bill", id)
	if err != nil {
		return ContractorBillResponse{}, err
	}

	if req.JobID != nil {
		if bill.JobID, err = parseID("job_id", *req.JobID); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	if req.ContractorSupplierID != nil {
		if bill.ContractorSupplierID, err = parseID("contractor_supplier_id", *req.ContractorSupplierID); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	if req.MaterialCodeID != nil {
		if bill.MaterialCodeID, err = parseOptionalID("material_code_id", *req.MaterialCodeID); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	setString(&bill.BillNo, req.BillNo)
	if err = required("bill_no", bill.BillNo); err != nil {
		return ContractorBillResponse{}, err
	}
	if req.BillDate != nil {
		if bill.BillDate, err = ParseDate("bill_date", *req.BillDate); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	if req.BaseAmount != nil {
		if bill.BaseAmount, err = amount("base_amount", *req.BaseAmount); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	if req.GST != nil {
		if bill.GST, err = amount("gst", *req.GST); err != nil {
			return ContractorBillResponse{}, err
		}
	}
	setString(&bill.Remarks, req.Remarks)
	bill.Amount = ledger.BillTotal(bill.Ledger())

	err = s.rec.write(ctx, model.EntityContractorBill, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, bill); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, bill); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor bill", id)
		}
		return bill.ID, toContractorBillResponse(*bill), nil
	})
	if err != nil {
		return ContractorBillResponse{}, err
	}
	return toContractorBillResponse(*bill), nil
}

func (s *contractorBillService) Delete(ctx context.Context, id string) error {
	bill, err := load(ctx, s.repo.FindByID, "contractor bill", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityContractorBill, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "contractor bill", bill.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, bill.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor bill", id)
		}
		return bill.ID, toContractorBillResponse(*bill), nil
	})
}

// resolve checks every reference of the bill and takes the client from the job.
func (s *contractorBillService) resolve(ctx context.Context, bill *model.ContractorBill) error {
	job, err := reference(ctx, s.jobRepo.FindByID, "job_id", bill.JobID)
	if err != nil {
		return err
	}
	bill.Job = job
	bill.ClientID = job.ClientID
	bill.Client = job.Client

	if bill.ContractorSupplier, err = reference(ctx, s.contractorRepo.FindByID, "contractor_supplier_id", bill.ContractorSupplierID); err != nil {
		return err
	}

	bill.MaterialCode = nil
	if bill.MaterialCodeID != nil {
		if bill.MaterialCode, err = reference(ctx, s.materialRepo.FindByID, "material_code_id", *bill.MaterialCodeID); err != nil {
			return err
		}
	}
	return nil
}

func toContractorBillResponse(b model.ContractorBill) ContractorBillResponse {
	res := ContractorBillResponse{
		ID:                   b.ID,
		JobID:                b.JobID,
		ClientID:             b.ClientID,
		ContractorSupplierID: b.ContractorSupplierID,
		MaterialCodeID:       b.MaterialCodeID,
		BillNo:               b.BillNo,
		BillDate:             formatDate(b.BillDate),
		BaseAmount:           money(b.BaseAmount),
		GST:                  money(b.GST),
		Amount:               money(ledger.BillTotal(b.Ledger())),
		Remarks:              b.Remarks,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if b.Job != nil {
		res.JobNo = b.Job.JobNo
	}
	if b.Client != nil {
		res.ClientName = b.Client.Name
	}
	if b.ContractorSupplier != nil {
		res.ContractorName = b.ContractorSupplier.Name
	}
	if b.MaterialCode != nil {
		res.MaterialCode = b.MaterialCode.Code
	}
	return res
}
