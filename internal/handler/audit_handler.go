package handler

import (
	"net/http"

	"sitebooks/internal/middleware"
	"sitebooks/internal/model"
	"sitebooks/internal/service"
	"sitebooks/pkg/pagination"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/audit-logs")
	group.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns the change history, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entity     query     string  false  "Entity name, e.g. client_bill"
// @Param        entity_id  query     string  false  "Changed record"
// @Param        user_id    query     string  false  "Acting user"
// @Param        action     query     string  false  "CREATE, UPDATE or DELETE"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.List(c.Request.Context(), service.AuditQuery{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
