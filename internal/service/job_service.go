package service

import (
	"context"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateJobRequest struct {
	JobNo          string          `json:"job_no" binding:"required"`
	Site           string          `json:"site" binding:"required"`
	Description    string          `json:"description"`
	WorkOrderValue decimal.Decimal `json:"work_order_value" swaggertype:"string"`
	StartDate      string          `json:"start_date"`
	Status         string          `json:"status"`
	ClientID       string          `json:"client_id" binding:"required"`
	CompanyID      string          `json:"company_id" binding:"required"`
}

type UpdateJobRequest struct {
	JobNo          *string          `json:"job_no"`
	Site           *string          `json:"site"`
	Description    *string          `json:"description"`
	WorkOrderValue *decimal.Decimal `json:"work_order_value" swaggertype:"string"`
	StartDate      *string          `json:"start_date"`
	Status         *string          `json:"status"`
	ClientID       *string          `json:"client_id"`
	CompanyID      *string          `json:"company_id"`
}

type JobResponse struct {
	ID             uuid.UUID `json:"id"`
	JobNo          string    `json:"job_no"`
	Site           string    `json:"site"`
	Description    string    `json:"description"`
	WorkOrderValue string    `json:"work_order_value"`
	StartDate      string    `json:"start_date,omitempty"`
	Status         string    `json:"status"`
	ClientID       uuid.UUID `json:"client_id"`
	ClientName     string    `json:"client_name"`
	CompanyID      uuid.UUID `json:"company_id"`
	CompanyName    string    `json:"company_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type JobService interface {
	List(ctx context.Context, f repository.Filter) ([]JobResponse, int64, error)
	Get(ctx context.Context, id string) (JobResponse, error)
	Create(ctx context.Context, req CreateJobRequest) (JobResponse, error)
	Update(ctx context.Context, id string, req UpdateJobRequest) (JobResponse, error)
	Delete(ctx context.Context, id string) error
}

type jobService struct {
	repo        repository.JobRepository
	clientRepo  repository.ClientRepository
	companyRepo repository.CompanyRepository
	rec         recorder
}

func NewJobService(
	repo repository.JobRepository,
	clientRepo repository.ClientRepository,
	companyRepo repository.CompanyRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) JobService {
	return &jobService{
		repo:        repo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		rec:         newRecorder(txManager, auditRepo, notifier),
	}
}

func (s *jobService) List(ctx context.Context, f repository.Filter) ([]JobResponse, int64, error) {
	jobs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(jobs, toJobResponse), total, nil
}

func (s *jobService) Get(ctx context.Context, id string) (JobResponse, error) {
	job, err := load(ctx, s.repo.FindByID, "job", id)
	if err != nil {
		return JobResponse{}, err
	}
	return toJobResponse(*job), nil
}

func (s *jobService) Create(ctx context.Context, req CreateJobRequest) (JobResponse, error) {
	job := model.Job{
		JobNo:       strings.TrimSpace(req.JobNo),
		Site:        strings.TrimSpace(req.Site),
		Description: req.Description,
		Status:      req.Status,
	}
	if job.Status == "" {
		job.Status = model.JobStatusActive
	}

	var err error
	if job.WorkOrderValue, err = amount("work_order_value", req.WorkOrderValue); err != nil {
		return JobResponse{}, err
	}
	if job.StartDate, err = parseOptionalDate("start_date", req.StartDate); err != nil {
		return JobResponse{}, err
	}
	if job.ClientID, err = parseID("client_id", req.ClientID); err != nil {
		return JobResponse{}, err
	}
	if job.CompanyID, err = parseID("company_id", req.CompanyID); err != nil {
		return JobResponse{}, err
	}
	if err := validateJob(job); err != nil {
		return JobResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityJob, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolveParties(txCtx, &job); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &job); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "job", "")
		}
		return job.ID, toJobResponse(job), nil
	})
	if err != nil {
		return JobResponse{}, err
	}
	return toJobResponse(job), nil
}

func (s *jobService) Update(ctx context.Context, id string, req UpdateJobRequest) (JobResponse, error) {
	job, err := load(ctx, s.repo.FindByID, "job", id)
	if err != nil {
		return JobResponse{}, err
	}

	setString(&job.JobNo, req.JobNo)
	setString(&job.Site, req.Site)
	setString(&job.Description, req.Description)
	setString(&job.Status, req.Status)
	if req.WorkOrderValue != nil {
		if job.WorkOrderValue, err = amount("work_order_value", *req.WorkOrderValue); err != nil {
			return JobResponse{}, err
		}
	}
	if req.StartDate != nil {
		if job.StartDate, err = parseOptionalDate("start_date", *req.StartDate); err != nil {
			return JobResponse{}, err
		}
	}
	if req.ClientID != nil {
		if job.ClientID, err = parseID("client_id", *req.ClientID); err != nil {
			return JobResponse{}, err
		}
	}
	if req.CompanyID != nil {
		if job.CompanyID, err = parseID("company_id", *req.CompanyID); err != nil {
			return JobResponse{}, err
		}
	}
	if err := validateJob(*job); err != nil {
		return JobResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityJob, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.resolveParties(txCtx, job); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, job); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "job", id)
		}
		return job.ID, toJobResponse(*job), nil
	})
	if err != nil {
		return JobResponse{}, err
	}
	return toJobResponse(*job), nil
}

func (s *jobService) Delete(ctx context.Context, id string) error {
	job, err := load(ctx, s.repo.FindByID, "job", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityJob, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "job", job.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, job.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "job", id)
		}
		return job.ID, toJobResponse(*job), nil
	})
}

// resolveParties checks the client and company exist and attaches them for the response.
func (s *jobService) resolveParties(ctx context.Context, job *model.Job) error {
	client, err := reference(ctx, s.clientRepo.FindByID, "client_id", job.ClientID)
	if err != nil {
		return err
	}
	company, err := reference(ctx, s.companyRepo.FindByID, "company_id", job.CompanyID)
	if err != nil {
		return err
	}
	job.Client, job.Company = client, company
	return nil
}

func validateJob(j model.Job) error {
	if err := required("job_no", j.JobNo); err != nil {
		return err
	}
	if err := required("site", j.Site); err != nil {
		return err
	}
	return oneOf("status", j.Status, model.JobStatusActive, model.JobStatusCompleted, model.JobStatusOnHold)
}

func toJobResponse(j model.Job) JobResponse {
	res := JobResponse{
		ID:             j.ID,
		JobNo:          j.JobNo,
		Site:           j.Site,
		Description:    j.Description,
		WorkOrderValue: money(j.WorkOrderValue),
		StartDate:      formatOptionalDate(j.StartDate),
		Status:         j.Status,
		ClientID:       j.ClientID,
		CompanyID:      j.CompanyID,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
	if j.Client != nil {
		res.ClientName = j.Client.Name
	}
	if j.Company != nil {
		res.CompanyName = j.Company.Name
	}
	return res
}
