package middleware

import (
	"net/http"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	contextKeyActor = "actor"
)

// Auth validates access tokens and enforces roles.
type Auth struct {
	tokens *service.TokenManager
	// secureCookies marks cookies Secure and SameSite=None for cross-site
	// production front ends.
	secureCookies bool
}

func NewAuth(tokens *service.TokenManager, secureCookies bool) *Auth {
	return &Auth{tokens: tokens, secureCookies: secureCookies}
}

// RequireAuth accepts a Bearer header or the access_token cookie and puts the
// actor on the request context for services to attribute changes to.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			Fail(c, err)
			return
		}
		actor, err := a.tokens.Parse(token)
		if err != nil {
			Fail(c, err)
			return
		}

		c.Set(contextKeyActor, actor)
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			Fail(c, apperror.Unauthorized(""))
			return
		}
		for _, role := range allowedRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		Fail(c, apperror.Forbidden("insufficient permissions"))
	}
}

// RequireRoleFor applies RequireRole only to the listed HTTP methods.
func RequireRoleFor(methods []string, allowedRoles ...string) gin.HandlerFunc {
	check := RequireRole(allowedRoles...)
	return func(c *gin.Context) {
		for _, m := range methods {
			if c.Request.Method == m {
				check(c)
				return
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", apperror.Unauthorized("invalid authorization format, expected 'Bearer <token>'")
		}
		return strings.TrimSpace(token), nil
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	return "", apperror.Unauthorized("authorization is missing")
}

func actorOf(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(contextKeyActor)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// SetTokenCookies stores both tokens as HttpOnly cookies.
func (a *Auth) SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	a.cookieMode(c)
	c.SetCookie(AccessTokenCookie, accessToken, int(accessTTL.Seconds()), "/", "", a.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, int(refreshTTL.Seconds()), "/", "", a.secureCookies, true)
}

func (a *Auth) ClearTokenCookies(c *gin.Context) {
	a.cookieMode(c)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", a.secureCookies, true)
}

func (a *Auth) cookieMode(c *gin.Context) {
	if a.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}
