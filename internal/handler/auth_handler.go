package handler

import (
	"net/http"

	"sitebooks/internal/middleware"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	auth        *middleware.Auth
	tokens      *service.TokenManager
}

func NewAuthHandler(authService service.AuthService, auth *middleware.Auth, tokens *service.TokenManager) *AuthHandler {
	return &AuthHandler{authService: authService, auth: auth, tokens: tokens}
}

// RegisterRoutes mounts signup, signin and refresh on the public group and
// the rest behind authentication.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	authPublic := public.Group("/auth")
	{
		authPublic.POST("/signup", h.SignUp)
		authPublic.POST("/signin", h.SignIn)
		authPublic.POST("/refresh", h.Refresh)
	}
	authProtected := protected.Group("/auth")
	{
		authProtected.POST("/signout", h.SignOut)
		authProtected.GET("/me", h.Me)
	}
}

// SignUp registers a user. The first account becomes admin, later ones staff.
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignUpRequest  true  "New account"
// @Success      201      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req service.SignUpRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.setCookies(c, tokens)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokens))
}

// SignIn accepts a username or email as login
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignInRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req service.SignInRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.authService.SignIn(c.Request.Context(), req)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.setCookies(c, tokens)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh exchanges a refresh token, from the body or the cookie, for a new
// pair. The old refresh token stops working.
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token when not sent as cookie"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	tokens, err := h.authService.Refresh(c.Request.Context(), refreshToken(c))
	if err != nil {
		h.auth.ClearTokenCookies(c)
		middleware.Fail(c, err)
		return
	}
	h.setCookies(c, tokens)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Router       /api/auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c.Request.Context(), refreshToken(c)); err != nil {
		middleware.Fail(c, err)
		return
	}
	h.auth.ClearTokenCookies(c)
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in user
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

func (h *AuthHandler) setCookies(c *gin.Context, tokens service.TokenResponse) {
	h.auth.SetTokenCookies(c, tokens.AccessToken, tokens.RefreshToken, h.tokens.AccessTTL(), h.tokens.RefreshTTL())
}

// refreshToken prefers the JSON body and falls back to the cookie. An empty
// body is not an error.
func refreshToken(c *gin.Context) string {
	var req service.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	return token
}
