package handler

import (
	"context"
	"net/http"
	"strings"

	"sitebooks/internal/apperror"
	"sitebooks/internal/middleware"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"
	"sitebooks/pkg/pagination"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// crudService is the surface shared by every ledger entity service.
type crudService[C, U, R any] interface {
	List(ctx context.Context, f repository.Filter) ([]R, int64, error)
	Get(ctx context.Context, id string) (R, error)
	Create(ctx context.Context, req C) (R, error)
	Update(ctx context.Context, id string, req U) (R, error)
	Delete(ctx context.Context, id string) error
}

// resource serves the five CRUD routes of one entity group.
type resource[C, U, R any] struct {
	svc crudService[C, U, R]
}

// register mounts the group. Deletes need a manager or admin.
func (h resource[C, U, R]) register(group *gin.RouterGroup) {
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.POST("", h.create)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", managerOnly, h.delete)
}

func (h resource[C, U, R]) list(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	p := pagination.ParseOrAll(c)
	f.Page, f.Limit = p.Page, p.Limit

	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

func (h resource[C, U, R]) get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h resource[C, U, R]) create(c *gin.Context) {
	var req C
	if !bind(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

func (h resource[C, U, R]) update(c *gin.Context) {
	var req U
	if !bind(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h resource[C, U, R]) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes the JSON body, failing the request on malformed input.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.Fail(c, apperror.Validation("invalid request payload: %s", err.Error()))
		return false
	}
	return true
}

var filterIDs = []struct {
	param string
	set   func(f *repository.Filter, id *uuid.UUID)
}{
	{"job_id", func(f *repository.Filter, id *uuid.UUID) { f.JobID = id }},
	{"client_id", func(f *repository.Filter, id *uuid.UUID) { f.ClientID = id }},
	{"company_id", func(f *repository.Filter, id *uuid.UUID) { f.CompanyID = id }},
	{"contractor_id", func(f *repository.Filter, id *uuid.UUID) { f.ContractorID = id }},
	{"site_expense_id", func(f *repository.Filter, id *uuid.UUID) { f.SiteExpenseID = id }},
}

// parseFilter reads the list filters shared by every endpoint. Paging is left
// unset so reports can return every row.
func parseFilter(c *gin.Context) (repository.Filter, error) {
	f := repository.Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: strings.TrimSpace(c.Query("status")),
		Type:   strings.TrimSpace(c.Query("type")),
	}

	for _, p := range filterIDs {
		raw := strings.TrimSpace(c.Query(p.param))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperror.Validation("%s must be a valid UUID", p.param).WithDetail(p.param, raw)
		}
		p.set(&f, &id)
	}

	if raw := c.Query("from"); raw != "" {
		from, err := service.ParseDate("from", raw)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := service.ParseDate("to", raw)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperror.Validation("to must not be before from")
	}
	return f, nil
}

var managerOnly = middleware.RequireRole(model.RoleAdmin, model.RoleManager)
