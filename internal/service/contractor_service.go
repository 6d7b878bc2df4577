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

// --- Contractor / supplier ---

type CreateContractorSupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	Code          string `json:"code" binding:"required"`
	Type          string `json:"type"`
	GSTIN         string `json:"gstin"`
	PAN           string `json:"pan"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	BankAccount   string `json:"bank_account"`
	IFSC          string `json:"ifsc"`
}

type UpdateContractorSupplierRequest struct {
	Name          *string `json:"name"`
	Code          *string `json:"code"`
	Type          *string `json:"type"`
	GSTIN         *string `json:"gstin"`
	PAN           *string `json:"pan"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	BankAccount   *string `json:"bank_account"`
	IFSC          *string `json:"ifsc"`
}

type ContractorSupplierResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Type          string    `json:"type"`
	GSTIN         string    `json:"gstin"`
	PAN           string    `json:"pan"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	BankAccount   string    `json:"bank_account"`
	IFSC          string    `json:"ifsc"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ContractorSupplierService interface {
	List(ctx context.Context, f repository.Filter) ([]ContractorSupplierResponse, int64, error)
	Get(ctx context.Context, id string) (ContractorSupplierResponse, error)
	Create(ctx context.Context, req CreateContractorSupplierRequest) (ContractorSupplierResponse, error)
	Update(ctx context.Context, id string, req UpdateContractorSupplierRequest) (ContractorSupplierResponse, error)
	Delete(ctx context.Context, id string) error
}

type contractorSupplierService struct {
	repo repository.ContractorSupplierRepository
	rec  recorder
}

func NewContractorSupplierService(repo repository.ContractorSupplierRepository, txManager repository.TransactionManager, auditRepo repository.AuditRepository, notifier Notifier) ContractorSupplierService {
	return &contractorSupplierService{repo: repo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *contractorSupplierService) List(ctx context.Context, f repository.Filter) ([]ContractorSupplierResponse, int64, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(items, toContractorSupplierResponse), total, nil
}

func (s *contractorSupplierService) Get(ctx context.Context, id string) (ContractorSupplierResponse, error) {
	cs, err := load(ctx, s.repo.FindByID, "contractor/supplier", id)
	if err != nil {
		return ContractorSupplierResponse{}, err
	}
	return toContractorSupplierResponse(*cs), nil
}

func (s *contractorSupplierService) Create(ctx context.Context, req CreateContractorSupplierRequest) (ContractorSupplierResponse, error) {
	cs := model.ContractorSupplier{
		Name:          strings.TrimSpace(req.Name),
		Code:          strings.TrimSpace(req.Code),
		Type:          req.Type,
		GSTIN:         req.GSTIN,
		PAN:           req.PAN,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         strings.TrimSpace(req.Email),
		Address:       req.Address,
		BankAccount:   req.BankAccount,
		IFSC:          req.IFSC,
	}
	if cs.Type == "" {
		cs.Type = model.SupplierTypeContractor
	}
	if err := validateContractorSupplier(cs); err != nil {
		return ContractorSupplierResponse{}, err
	}

	err := s.rec.write(ctx, model.EntityContractorSupplier, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Create(txCtx, &cs); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor/supplier", "")
		}
		return cs.ID, toContractorSupplierResponse(cs), nil
	})
	if err != nil {
		return ContractorSupplierResponse{}, err
	}
	return toContractorSupplierResponse(cs), nil
}

func (s *contractorSupplierService) Update(ctx context.Context, id string, req UpdateContractorSupplierRequest) (ContractorSupplierResponse, error) {
	cs, err := load(ctx, s.repo.FindByID, "contractor/supplier", id)
	if err != nil {
		return ContractorSupplierResponse{}, err
	}

	setString(&cs.Name, req.Name)
	setString(&cs.Code, req.Code)
	setString(&cs.Type, req.Type)
	setString(&cs.GSTIN, req.GSTIN)
	setString(&cs.PAN, req.PAN)
	setString(&cs.ContactPerson, req.ContactPerson)
	setString(&cs.Phone, req.Phone)
	setString(&cs.Email, req.Email)
	setString(&cs.Address, req.Address)
	setString(&cs.BankAccount, req.BankAccount)
	setString(&cs.IFSC, req.IFSC)
	if err := validateContractorSupplier(*cs); err != nil {
		return ContractorSupplierResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityContractorSupplier, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Update(txCtx, cs); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor/supplier", id)
		}
		return cs.ID, toContractorSupplierResponse(*cs), nil
	})
	if err != nil {
		return ContractorSupplierResponse{}, err
	}
	return toContractorSupplierResponse(*cs), nil
}

func (s *contractorSupplierService) Delete(ctx context.Context, id string) error {
	cs, err := load(ctx, s.repo.FindByID, "contractor/supplier", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityContractorSupplier, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "contractor/supplier", cs.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, cs.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "contractor/supplier", id)
		}
		return cs.ID, toContractorSupplierResponse(*cs), nil
	})
}

func validateContractorSupplier(cs model.ContractorSupplier) error {
	if err := required("name", cs.Name); err != nil {
		return err
	}
	if err := required("code", cs.Code); err != nil {
		return err
	}
	if err := oneOf("type", cs.Type, model.SupplierTypeContractor, model.SupplierTypeSupplier, model.SupplierTypeBoth); err != nil {
		return err
	}
	return validEmail("email", cs.Email)
}

func toContractorSupplierResponse(cs model.ContractorSupplier) ContractorSupplierResponse {
	return ContractorSupplierResponse{
		ID:            cs.ID,
		Name:          cs.Name,
		Code:          cs.Code,
		Type:          cs.Type,
		GSTIN:         cs.GSTIN,
		PAN:           cs.PAN,
		ContactPerson: cs.ContactPerson,
		Phone:         cs.Phone,
		Email:         cs.Email,
		Address:       cs.Address,
		BankAccount:   cs.BankAccount,
		IFSC:          cs.IFSC,
		CreatedAt:     cs.CreatedAt,
		UpdatedAt:     cs.UpdatedAt,
	}
}

// --- Material codes ---

type CreateMaterialCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

type UpdateMaterialCodeRequest struct {
	Code        *string `json:"code"`
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
}

type MaterialCodeResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MaterialCodeService interface {
	List(ctx context.Context, f repository.Filter) ([]MaterialCodeResponse, int64, error)
	Get(ctx context.Context, id string) (MaterialCodeResponse, error)
	Create(ctx context.Context, req CreateMaterialCodeRequest) (MaterialCodeResponse, error)
	Update(ctx context.Context, id string, req UpdateMaterialCodeRequest) (MaterialCodeResponse, error)
	Delete(ctx context.Context, id string) error
}

type materialCodeService struct {
	repo repository.MaterialCodeRepository
	rec  recorder
}

func NewMaterialCodeService(repo repository.MaterialCodeRepository, txManager repository.TransactionManager, auditRepo repository.AuditRepository, notifier Notifier) MaterialCodeService {
	return &materialCodeService{repo: repo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *materialCodeService) List(ctx context.Context, f repository.Filter) ([]MaterialCodeResponse, int64, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(items, toMaterialCodeResponse), total, nil
}

func (s *materialCodeService) Get(ctx context.Context, id string) (MaterialCodeResponse, error) {
	mc, err := load(ctx, s.repo.FindByID, "material code", id)
	if err != nil {
		return MaterialCodeResponse{}, err
	}
	return toMaterialCodeResponse(*mc), nil
}

func (s *materialCodeService) Create(ctx context.Context, req CreateMaterialCodeRequest) (MaterialCodeResponse, error) {
	mc := model.MaterialCode{
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
		Unit:        req.Unit,
	}
	if err := required("code", mc.Code); err != nil {
		return MaterialCodeResponse{}, err
	}

	err := s.rec.write(ctx, model.EntityMaterialCode, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Create(txCtx, &mc); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "material code", "")
		}
		return mc.ID, toMaterialCodeResponse(mc), nil
	})
	if err != nil {
		return MaterialCodeResponse{}, err
	}
	return toMaterialCodeResponse(mc), nil
}

func (s *materialCodeService) Update(ctx context.Context, id string, req UpdateMaterialCodeRequest) (MaterialCodeResponse, error) {
	mc, err := load(ctx, s.repo.FindByID, "material code", id)
	if err != nil {
		return MaterialCodeResponse{}, err
	}

	setString(&mc.Code, req.Code)
	setString(&mc.Description, req.Description)
	setString(&mc.Unit, req.Unit)
	if err := required("code", mc.Code); err != nil {
		return MaterialCodeResponse{}, err
	}

	err = s.rec.write(ctx, model.EntityMaterialCode, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Update(txCtx, mc); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "material code", id)
		}
		return mc.ID, toMaterialCodeResponse(*mc), nil
	})
	if err != nil {
		return MaterialCodeResponse{}, err
	}
	return toMaterialCodeResponse(*mc), nil
}

func (s *materialCodeService) Delete(ctx context.Context, id string) error {
	mc, err := load(ctx, s.repo.FindByID, "material code", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntityMaterialCode, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := unreferenced(txCtx, s.repo.Dependents, "material code", mc.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Delete(txCtx, mc.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "material code", id)
		}
		return mc.ID, toMaterialCodeResponse(*mc), nil
	})
}

func toMaterialCodeResponse(mc model.MaterialCode) MaterialCodeResponse {
	return MaterialCodeResponse{
		ID:          mc.ID,
		Code:        mc.Code,
		Description: mc.Description,
		Unit:        mc.Unit,
		CreatedAt:   mc.CreatedAt,
		UpdatedAt:   mc.UpdatedAt,
	}
}
