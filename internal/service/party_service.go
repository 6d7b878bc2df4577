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

// --- Company DTOs ---

type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required"`
	GSTIN   string `json:"gstin"`
	PAN     string `json:"pan"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	Code    *string `json:"code"`
	GSTIN   *string `json:"gstin"`
	PAN     *string `json:"pan"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

type CompanyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	GSTIN     string    `json:"gstin"`
	PAN       string    `json:"pan"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CompanyService interface {
	List(ctx context.Context, f repository.Filter) ([]CompanyResponse, int64, error)
	Get(ctx context.Context, id string) (CompanyResponse, error)
	Create(ctx context.Context, req CreateCompanyRequest) (CompanyResponse, error)
	Update(ctx context.Context, id string, req UpdateCompanyRequest) (CompanyResponse, error)
	Delete(ctx context.Context, id string) error
}

type companyService struct {
	repo repository.CompanyRepository
	rec  recorder
}

func NewCompanyService(repo repository.CompanyRepository, txManager repository.TransactionManager, auditRepo repository.AuditRepository, notifier Notifier) CompanyService {
	return &companyService{repo: repo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *companyService) List(ctx context.Context, f repository.Filter) ([]CompanyResponse, int64, error) {
	companies, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(companies, toCompanyResponse), total, nil
}

func (s *companyService) Get(ctx context.Context, id string) (CompanyResponse, error) {
	company, err := load(ctx, s.repo.FindByID, "company", id)
	if err != nil {
		return CompanyResponse{}, err
	}
	return toCompanyResponse(*company), nil
}

func (s *companyService) Create(ctx context.Context, req CreateCompanyRequest) (CompanyResponse, error) {
	company := model.Company{
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.TrimSpace(req.Code),
		GSTIN:   req.GSTIN,
		PAN:     req.PAN,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   strings.TrimSpace(req.Email),
	}
	if err := validateCompany(company); err != nil {
		return CompanyResponse{}, err
	}

	err := s.rec.write(ctx, model.EntityCompany, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Create(txCtx, &company); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "company", "")
		}
		return company.ID, toCompanyResponse(company), nil
	})
	if err != nil {
		return CompanyResponse{}, err
	}
	return toCompanyResponse(company), nil
}

func (s *companyService) Update(ctx context.Context, id string, req UpdateCompanyRequest) (CompanyResponse, error) {
	company, err := load(ctx, s.repo.FindByID, "company", id)
	if err != nil {
		return CompanyResponse{}, err
	}

	setString(&company.Name, req.Name)
	setString(&company.Code, req.Code)
	setString(&company.GSTIN, req.GSTIN)
	setString(&company.PAN, req.PAN)
	setString(&company.Address, req.Address)
	setString(&company.Phone, req.Phone)
	setString(&company.Email, req.Email)
	if err := validateCompany(*company); err != nil {
		return CompanyResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityCompany, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Update(txCtx, company); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "company", id)
		}
		return company.ID, toCompanyResponse(*company), nil
	})
	if err != nil {
		return CompanyResponse{}, err
	}
	return toCompanyResponse(*company), nil
}

func (s *companyService) Delete(ctx context.Context, id string) error {
	company, err := load(ctx, s.repo.FindByID, "company", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityCompany, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "company", company.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, company.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "company", id)
		}
		return company.ID, toCompanyResponse(*company), nil
	})
}

func validateCompany(c model.Company) error {
	if err := required("name", c.Name); err != nil {
		return err
	}
	if err := required("code", c.Code); err != nil {
		return err
	}
	return validEmail("email", c.Email)
}

func toCompanyResponse(c model.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Code:      c.Code,
		GSTIN:     c.GSTIN,
		PAN:       c.PAN,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// --- Client DTOs ---

type CreateClientRequest struct {
	Name          string `json:"name" binding:"required"`
	Code          string `json:"code" binding:"required"`
	GSTIN         string `json:"gstin"`
	ContactPerson string `json:"contact_person"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type UpdateClientRequest struct {
	Name          *string `json:"name"`
	Code          *string `json:"code"`
	GSTIN         *string `json:"gstin"`
	ContactPerson *string `json:"contact_person"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
}

type ClientResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	GSTIN         string    `json:"gstin"`
	ContactPerson string    `json:"contact_person"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ClientService interface {
	List(ctx context.Context, f repository.Filter) ([]ClientResponse, int64, error)
	Get(ctx context.Context, id string) (ClientResponse, error)
	Create(ctx context.Context, req CreateClientRequest) (ClientResponse, error)
	Update(ctx context.Context, id string, req UpdateClientRequest) (ClientResponse, error)
	Delete(ctx context.Context, id string) error
}

type clientService struct {
	repo repository.ClientRepository
	rec  recorder
}

func NewClientService(repo repository.ClientRepository, txManager repository.TransactionManager, auditRepo repository.AuditRepository, notifier Notifier) ClientService {
	return &clientService{repo: repo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *clientService) List(ctx context.Context, f repository.Filter) ([]ClientResponse, int64, error) {
	clients, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(clients, toClientResponse), total, nil
}

func (s *clientService) Get(ctx context.Context, id string) (ClientResponse, error) {
	client, err := load(ctx, s.repo.FindByID, "client", id)
	if err != nil {
		return ClientResponse{}, err
	}
	return toClientResponse(*client), nil
}

func (s *clientService) Create(ctx context.Context, req CreateClientRequest) (ClientResponse, error) {
	client := model.Client{
		Name:          strings.TrimSpace(req.Name),
		Code:          strings.TrimSpace(req.Code),
		GSTIN:         req.GSTIN,
		ContactPerson: req.ContactPerson,
		Address:       req.Address,
		Phone:         req.Phone,
		Email:         strings.TrimSpace(req.Email),
	}
	if err := validateClient(client); err != nil {
		return ClientResponse{}, err
	}

	err := s.rec.write(ctx, model.EntityClient, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Create(txCtx, &client); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client", "")
		}
		return client.ID, toClientResponse(client), nil
	})
	if err != nil {
		return ClientResponse{}, err
	}
	return toClientResponse(client), nil
}

func (s *clientService) Update(ctx context.Context, id string, req UpdateClientRequest) (ClientResponse, error) {
	client, err := load(ctx, s.repo.FindByID, "client", id)
	if err != nil {
		return ClientResponse{}, err
	}

	setString(&client.Name, req.Name)
	setString(&client.Code, req.Code)
	setString(&client.GSTIN, req.GSTIN)
	setString(&client.ContactPerson, req.ContactPerson)
	setString(&client.Address, req.Address)
	setString(&client.Phone, req.Phone)
	setString(&client.Email, req.Email)
	if err := validateClient(*client); err != nil {
		return ClientResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityClient, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Update(txCtx, client); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client", id)
		}
		return client.ID, toClientResponse(*client), nil
	})
	if err != nil {
		return ClientResponse{}, err
	}
	return toClientResponse(*client), nil
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	client, err := load(ctx, s.repo.FindByID, "client", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityClient, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "client", client.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, client.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "client", id)
		}
		return client.ID, toClientResponse(*client), nil
	})
}

func validateClient(c model.Client) error {
	if err := required("name", c.Name); err != nil {
		return err
	}
	if err := required("code", c.Code); err != nil {
		return err
	}
	return validEmail("email", c.Email)
}

func toClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Name:          c.Name,
		Code:          c.Code,
		GSTIN:         c.GSTIN,
		ContactPerson: c.ContactPerson,
		Address:       c.Address,
		Phone:         c.Phone,
		Email:         c.Email,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
