package service

import (
	"context"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
)

type CreateEnquiryRequest struct {
	JobID         string `json:"job_id" binding:"required"`
	SiteExpenseID string `json:"site_expense_id"`
	EnquiryDate   string `json:"enquiry_date" binding:"required"`
	RaisedBy      string `json:"raised_by"`
	Subject       string `json:"subject" binding:"required"`
	Details       string `json:"details"`
	Status        string `json:"status"`
	Response      string `json:"response"`
}

type UpdateEnquiryRequest struct {
	JobID         *string `json:"job_id"`
	SiteExpenseID *string `json:"site_expense_id"`
	EnquiryDate   *string `json:"enquiry_date"`
	RaisedBy      *string `json:"raised_by"`
	Subject       *string `json:"subject"`
	Details       *string `json:"details"`
	Status        *string `json:"status"`
	Response      *string `json:"response"`
}

type EnquiryResponse struct {
	ID            uuid.UUID  `json:"id"`
	JobID         uuid.UUID  `json:"job_id"`
	JobNo         string     `json:"job_no"`
	SiteExpenseID *uuid.UUID `json:"site_expense_id"`
	EnquiryDate   string     `json:"enquiry_date"`
	RaisedBy      string     `json:"raised_by"`
	Subject       string     `json:"subject"`
	Details       string     `json:"details"`
	Status        string     `json:"status"`
	Response      string     `json:"response"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type EnquiryService interface {
	List(ctx context.Context, f repository.Filter) ([]EnquiryResponse, int64, error)
	Get(ctx context.Context, id string) (EnquiryResponse, error)
	Create(ctx context.Context, req CreateEnquiryRequest) (EnquiryResponse, error)
	Update(ctx context.Context, id string, req UpdateEnquiryRequest) (EnquiryResponse, error)
	Delete(ctx context.Context, id string) error
}

var enquiryStatuses = []string{model.EnquiryStatusOpen, model.EnquiryStatusAnswered, model.EnquiryStatusClosed}

type enquiryService struct {
	repo        repository.SiteExpenseEnquiryRepository
	jobRepo     repository.JobRepository
	expenseRepo repository.SiteExpenseRepository
	rec         recorder
}

func NewEnquiryService(
	repo repository.SiteExpenseEnquiryRepository,
	jobRepo repository.JobRepository,
	expenseRepo repository.SiteExpenseRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) EnquiryService {
	return &enquiryService{repo: repo, jobRepo: jobRepo, expenseRepo: expenseRepo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *enquiryService) List(ctx context.Context, f repository.Filter) ([]EnquiryResponse, int64, error) {
	enquiries, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(enquiries, toEnquiryResponse), total, nil
}

func (s *enquiryService) Get(ctx context.Context, id string) (EnquiryResponse, error) {
	enquiry, err := load(ctx, s.repo.FindByID, "site expense enquiry", id)
	if err != nil {
		return EnquiryResponse{}, err
	}
	return toEnquiryResponse(*enquiry), nil
}

func (s *enquiryService) Create(ctx context.Context, req CreateEnquiryRequest) (EnquiryResponse, error) {
	enquiry := model.SiteExpenseEnquiry{
		RaisedBy: strings.TrimSpace(req.RaisedBy),
		Subject:  strings.TrimSpace(req.Subject),
		Details:  req.Details,
		Status:   strings.TrimSpace(req.Status),
		Response: req.Response,
	}
	if enquiry.Status == "" {
		enquiry.Status = model.EnquiryStatusOpen
	}

	var err error
	if enquiry.JobID, err = parseID("job_id", req.JobID); err != nil {
		return EnquiryResponse{}, err
	}
	if enquiry.SiteExpenseID, err = parseOptionalID("site_expense_id", req.SiteExpenseID); err != nil {
		return EnquiryResponse{}, err
	}
	if enquiry.EnquiryDate, err = ParseDate("enquiry_date", req.EnquiryDate); err != nil {
		return EnquiryResponse{}, err
	}
	if err = validateEnquiry(&enquiry); err != nil {
		return EnquiryResponse{}, err
	}

	err = s.rec.write(ctx, model.EntitySiteExpenseEnquiry, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, &enquiry); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &enquiry); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense enquiry", "")
		}
		return enquiry.ID, toEnquiryResponse(enquiry), nil
	})
	if err != nil {
		return EnquiryResponse{}, err
	}
	return toEnquiryResponse(enquiry), nil
}

func (s *enquiryService) Update(ctx context.Context, id string, req UpdateEnquiryRequest) (EnquiryResponse, error) {
	enquiry, err := load(ctx, s.repo.FindByID, "site expense enquiry", id)
	if err != nil {
		return EnquiryResponse{}, err
	}

	if req.JobID != nil {
		if enquiry.JobID, err = parseID("job_id", *req.JobID); err != nil {
			return EnquiryResponse{}, err
		}
	}
	if req.SiteExpenseID != nil {
		if enquiry.SiteExpenseID, err = parseOptionalID("site_expense_id", *req.SiteExpenseID); err != nil {
			return EnquiryResponse{}, err
		}
	}
	if req.EnquiryDate != nil {
		if enquiry.EnquiryDate, err = ParseDate("enquiry_date", *req.EnquiryDate); err != nil {
			return EnquiryResponse{}, err
		}
	}
	setString(&enquiry.RaisedBy, req.RaisedBy)
	setString(&enquiry.Subject, req.Subject)
	setString(&enquiry.Details, req.Details)
	setString(&enquiry.Status, req.Status)
	setString(&enquiry.Response, req.Response)
	if err = validateEnquiry(enquiry); err != nil {
		return EnquiryResponse{}, err
	}

	err = s.rec.write(ctx, model.EntitySiteExpenseEnquiry, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolve(txCtx, enquiry); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, enquiry); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense enquiry", id)
		}
		return enquiry.ID, toEnquiryResponse(*enquiry), nil
	})
	if err != nil {
		return EnquiryResponse{}, err
	}
	return toEnquiryResponse(*enquiry), nil
}

func (s *enquiryService) Delete(ctx context.Context, id string) error {
	enquiry, err := load(ctx, s.repo.FindByID, "site expense enquiry", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntitySiteExpenseEnquiry, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Delete(txCtx, enquiry.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense enquiry", id)
		}
		return enquiry.ID, toEnquiryResponse(*enquiry), nil
	})
}

// resolve checks the job and, when linked, that the expense is one of the job's.
func (s *enquiryService) resolve(ctx context.Context, enquiry *model.SiteExpenseEnquiry) error {
	job, err := reference(ctx, s.jobRepo.FindByID, "job_id", enquiry.JobID)
	if err != nil {
		return err
	}
	enquiry.Job = job

	if enquiry.SiteExpenseID == nil {
		return nil
	}
	expense, err := reference(ctx, s.expenseRepo.FindByID, "site_expense_id", *enquiry.SiteExpenseID)
	if err != nil {
		return err
	}
	if expense.JobID != job.ID {
		return apperror.Validation("site expense belongs to a different job").
			WithDetail("site_expense_id", expense.ID.String())
	}
	return nil
}

func validateEnquiry(e *model.SiteExpenseEnquiry) error {
	if err := required("subject", e.Subject); err != nil {
		return err
	}
	return oneOf("status", e.Status, enquiryStatuses...)
}

func toEnquiryResponse(e model.SiteExpenseEnquiry) EnquiryResponse {
	res := EnquiryResponse{
		ID:            e.ID,
		JobID:         e.JobID,
		SiteExpenseID: e.SiteExpenseID,
		EnquiryDate:   formatDate(e.EnquiryDate),
		RaisedBy:      e.RaisedBy,
		Subject:       e.Subject,
		Details:       e.Details,
		Status:        e.Status,
		Response:      e.Response,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.Job != nil {
		res.JobNo = e.Job.JobNo
	}
	return res
}
