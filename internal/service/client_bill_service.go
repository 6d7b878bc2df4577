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

type CreateClientBillRequest struct {
	JobID      string           `json:"job_id" binding:"required"`
	BillNo     string           `json:"bill_no" binding:"required"`
	BillDate   string           `json:"bill_date" binding:"required"`
	BaseAmount *decimal.Decimal `json:"base_amount" swaggertype:"string"`
	GST        decimal.Decimal  `json:"gst" swaggertype:"string"`
	Remarks    string           `json:"remarks"`
}

type UpdateClientBillRequest struct {
	JobID      *string          `json:"job_id"`
	BillNo     *string          `json:"bill_no"`
	BillDate   *string          `json:"bill_date"`
	BaseAmount *decimal.Decimal `json:"base_amount" swaggertype:"string"`
	GST        *decimal.Decimal `json:"gst" swaggertype:"string"`
	Remarks    *string          `json:"remarks"`
}

type ClientBillResponse struct {
	ID         uuid.UUID `json:"id"`
	JobID      uuid.UUID `json:"job_id"`
	JobNo      string    `json:"job_no"`
	ClientID   uuid.UUID `json:"client_id"`
	ClientName string    `json:"client_name"`
	BillNo     string    `json:"bill_no"`
	BillDate   string    `json:"bill_date"`
	BaseAmount string    `json:"base_amount"`
	GST        string    `json:"gst"`
	Amount     string    `json:"amount"`
	Remarks    string    `json:"remarks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ClientBillService interface {
	List(ctx context.Context, f repository.Filter) ([]ClientBillResponse, int64, error)
	Get(ctx context.Context, id string) (ClientBillResponse, error)
	Create(ctx context.Context, req CreateClientBillRequest) (ClientBillResponse, error)
	Update(ctx context.Context, id string, req UpdateClientBillRequest) (ClientBillResponse, error)
	Delete(ctx context.Context, id string) error
}

type clientBillService struct {
	repo    repository.ClientBillRepository
	jobRepo repository.JobRepository
	rec     recorder
}

func NewClientBillService(
	repo repository.ClientBillRepository,
	jobRepo repository.JobRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) ClientBillService {
	return &clientBillService{repo: repo, jobRepo: jobRepo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *clientBillService) List(ctx context.Context, f repository.Filter) ([]ClientBillResponse, int64, error) {
	bills, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(bills, toClientBillResponse), total, nil
}

func (s *clientBillService) Get(ctx context.Context, id string) (ClientBillResponse, error) {
	bill, err := load(ctx, s.repo.FindByID, "client bill", id)
	if err != nil {
		return ClientBillResponse{}, err
	}
	return toClientBillResponse(*bill), nil
}

func (s *clientBillService) Create(ctx context.Context, req CreateClientBillRequest) (ClientBillResponse, error) {
	bill := model.ClientBill{
		BillNo:  strings.TrimSpace(req.BillNo),
		Remarks: req.Remarks,
	}

	var err error
	if bill.JobID, err = parseID("job_id", req.JobID); err != nil {
		return ClientBillResponse{}, err
	}
	if err = required("bill_no", bill.BillNo); err != nil {
		return ClientBillResponse{}, err
	}
	if bill.BillDate, err = ParseDate("bill_date", req.BillDate); err != nil {
		return ClientBillResponse{}, err
	}
	if bill.BaseAmount, err = requiredAmount("base_amount", req.BaseAmount); err != nil {
		return ClientBillResponse{}, err
	}
	if bill.GST, err = amount("gst", req.GST); err != nil {
		return ClientBillResponse{}, err
	}
	bill.Amount = ledger.BillTotal(bill.Ledger())

	err = s.rec.write(ctx, model.EntityClientBill, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachJob(txCtx, &bill); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &bill); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client bill", "")
		}
		return bill.ID, toClientBillResponse(bill), nil
	})
	if err != nil {
		return ClientBillResponse{}, err
	}
	return toClientBillResponse(bill), nil
}

func (s *clientBillService) Update(ctx context.Context, id string, req UpdateClientBillRequest) (ClientBillResponse, error) {
	bill, err := load(ctx, s.repo.FindByID, "client bill", id)
	if err != nil {
		return ClientBillResponse{}, err
	}

	if req.JobID != nil {
		if bill.JobID, err = parseID("job_id", *req.JobID); err != nil {
			return ClientBillResponse{}, err
		}
	}
	setString(&bill.BillNo, req.BillNo)
	if err = required("bill_no", bill.BillNo); err != nil {
		return ClientBillResponse{}, err
	}
	if req.BillDate != nil {
		if bill.BillDate, err = ParseDate("bill_date", *req.BillDate); err != nil {
			return ClientBillResponse{}, err
		}
	}
	if req.BaseAmount != nil {
		if bill.BaseAmount, err = amount("base_amount", *req.BaseAmount); err != nil {
			return ClientBillResponse{}, err
		}
	}
	if req.GST != nil {
		if bill.GST, err = amount("gst", *req.GST); err != nil {
			return ClientBillResponse{}, err
		}
	}
	setString(&bill.Remarks, req.Remarks)
	bill.Amount = ledger.BillTotal(bill.Ledger())

	err = s.rec.write(ctx, model.EntityClientBill, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachJob(txCtx, bill); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, bill); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client bill", id)
		}
		return bill.ID, toClientBillResponse(*bill), nil
	})
	if err != nil {
		return ClientBillResponse{}, err
	}
	return toClientBillResponse(*bill), nil
}

func (s *clientBillService) Delete(ctx context.Context, id string) error {
	bill, err := load(ctx, s.repo.FindByID, "client bill", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityClientBill, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "client bill", bill.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, bill.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client bill", id)
		}
		return bill.ID, toClientBillResponse(*bill), nil
	})
}

// attachJob loads the bill's job and takes the client from it.
func (s *clientBillService) attachJob(ctx context.Context, bill *model.ClientBill) error {
	job, err := reference(ctx, s.jobRepo.FindByID, "job_id", bill.JobID)
	if err != nil {
		return err
	}
	bill.Job = job
	bill.ClientID = job.ClientID
	bill.Client = job.Client
	return nil
}

func toClientBillResponse(b model.ClientBill) ClientBillResponse {
	res := ClientBillResponse{
		ID:         b.ID,
		JobID:      b.JobID,
		ClientID:   b.ClientID,
		BillNo:     b.BillNo,
		BillDate:   formatDate(b.BillDate),
		BaseAmount: money(b.BaseAmount),
		GST:        money(b.GST),
		Amount:     money(ledger.BillTotal(b.Ledger())),
		Remarks:    b.Remarks,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if b.Job != nil {
		res.JobNo = b.Job.JobNo
	}
	if b.Client != nil {
		res.ClientName = b.Client.Name
	}
	return res
}
