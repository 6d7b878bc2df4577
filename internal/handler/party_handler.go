package handler

import (
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
)

// CompanyHandler serves /api/companies.
type CompanyHandler struct {
	resource[service.CreateCompanyRequest, service.UpdateCompanyRequest, service.CompanyResponse]
}

func NewCompanyHandler(svc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{resource: resource[service.CreateCompanyRequest, service.UpdateCompanyRequest, service.CompanyResponse]{svc: svc}}
}

func (h *CompanyHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/companies"))
}

// ClientHandler serves /api/clients. Lists filter by company_id and search.
type ClientHandler struct {
	resource[service.CreateClientRequest, service.UpdateClientRequest, service.ClientResponse]
}

func NewClientHandler(svc service.ClientService) *ClientHandler {
	return &ClientHandler{resource: resource[service.CreateClientRequest, service.UpdateClientRequest, service.ClientResponse]{svc: svc}}
}

func (h *ClientHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/clients"))
}

// JobHandler serves /api/jobs.
type JobHandler struct {
	resource[service.CreateJobRequest, service.UpdateJobRequest, service.JobResponse]
}

func NewJobHandler(svc service.JobService) *JobHandler {
	return &JobHandler{resource: resource[service.CreateJobRequest, service.UpdateJobRequest, service.JobResponse]{svc: svc}}
}

func (h *JobHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/jobs"))
}

type ContractorSupplierHandler struct {
	resource[service.CreateContractorSupplierRequest, service.UpdateContractorSupplierRequest, service.ContractorSupplierResponse]
}

func NewContractorSupplierHandler(svc service.ContractorSupplierService) *ContractorSupplierHandler {
	return &ContractorSupplierHandler{resource: resource[service.CreateContractorSupplierRequest, service.UpdateContractorSupplierRequest, service.ContractorSupplierResponse]{svc: svc}}
}

func (h *ContractorSupplierHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/contractor-suppliers"))
}

type MaterialCodeHandler struct {
	resource[service.CreateMaterialCodeRequest, service.UpdateMaterialCodeRequest, service.MaterialCodeResponse]
}

func NewMaterialCodeHandler(svc service.MaterialCodeService) *MaterialCodeHandler {
	return &MaterialCodeHandler{resource: resource[service.CreateMaterialCodeRequest, service.UpdateMaterialCodeRequest, service.MaterialCodeResponse]{svc: svc}}
}

func (h *MaterialCodeHandler) RegisterRoutes(api *gin.RouterGroup) {
	h.register(api.Group("/material-codes"))
}
