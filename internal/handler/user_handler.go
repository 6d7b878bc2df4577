package handler

import (
	"sitebooks/internal/middleware"
	"sitebooks/internal/model"
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler manages accounts. Every route is admin only.
type UserHandler struct {
	resource[service.CreateUserRequest, service.UpdateUserRequest, service.UserResponse]
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{resource: resource[service.CreateUserRequest, service.UpdateUserRequest, service.UserResponse]{svc: userService}}
}

func (h *UserHandler) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.Use(middleware.RequireRole(model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.get)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.delete)
	}
}

// ListUsers
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by username or email"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     string  false  "Items per page, or all"
// @Success      200     {object}  response.Response{data=[]service.UserResponse}
// @Failure      403     {object}  response.Response
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) { h.list(c) }

// CreateUser creates an account with the given role
// @Summary      Create user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUserRequest  true  "User payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) { h.create(c) }

// UpdateUser signs the user out everywhere when the password or role changes.
// @Summary      Update user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) { h.update(c) }
