package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims are carried by every access token. Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Issue signs an access token for the user.
func (m *TokenManager) Issue(user *model.User) (string, time.Time, error) {
	now := m.now().UTC()
	expires := now.Add(m.accessTTL)
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse verifies the token and returns the actor it was issued to.
func (m *TokenManager) Parse(token string) (Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Actor{}, apperror.Unauthorized("invalid or expired token").Wrap(err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, apperror.Unauthorized("invalid token subject").Wrap(err)
	}
	return Actor{ID: id, Username: claims.Username, Role: claims.Role}, nil
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (TokenResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	SignOut(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	txManager repository.TransactionManager
	rec       recorder
	jwt       *TokenManager
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	tokenManager *TokenManager,
) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		txManager: txManager,
		rec:       newRecorder(txManager, auditRepo, nil),
		jwt:       tokenManager,
	}
}

// SignUp registers a user. The very first account becomes admin so a fresh
// install can be bootstrapped; everyone after that starts as staff.
func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (TokenResponse, error) {
	user := &model.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     model.RoleStaff,
	}
	if err := validateUser(user); err != nil {
		return TokenResponse{}, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	user.Password = hash

	var res TokenResponse
	err = s.rec.write(ctx, model.EntityUser, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		n, err := s.users.Count(txCtx)
		if err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if n == 0 {
			user.Role = model.RoleAdmin
		}
		if err := s.users.Create(txCtx, user); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "user", "")
		}
		if res, err = s.issue(txCtx, user); err != nil {
			return uuid.Nil, nil, err
		}
		return user.ID, toUserResponse(*user), nil
	})
	if err != nil {
		return TokenResponse{}, err
	}
	return res, nil
}

func (s *authService) SignIn(ctx context.Context, req SignInRequest) (TokenResponse, error) {
	login := strings.TrimSpace(req.Login)
	user, err := s.users.GetByLogin(ctx, login)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return TokenResponse{}, apperror.Unauthorized("invalid username or password")
		}
		return TokenResponse{}, apperror.Internal(err)
	}
	return s.issue(ctx, user)
}

// Refresh rotates the refresh token: the presented token is consumed and a new
// pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	if refreshToken == "" {
		return TokenResponse{}, apperror.Unauthorized("refresh token is required")
	}
	var res TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stored, err := s.tokens.FindValid(txCtx, refreshToken, time.Now().UTC())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("invalid or expired refresh token")
		}
		if err != nil {
			return apperror.Internal(err)
		}
		if err := s.tokens.Delete(txCtx, refreshToken); err != nil {
			return apperror.Internal(err)
		}
		user, err := s.users.GetByID(txCtx, stored.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("account no longer exists")
		}
		if err != nil {
			return apperror.Internal(err)
		}
		res, err = s.issue(txCtx, user)
		return err
	})
	return res, err
}

// SignOut revokes the refresh token. Unknown tokens are ignored.
func (s *authService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context) (UserResponse, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return UserResponse{}, apperror.Unauthorized("")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserResponse{}, apperror.Unauthorized("account no longer exists")
	}
	if err != nil {
		return UserResponse{}, apperror.Internal(err)
	}
	return toUserResponse(*user), nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (TokenResponse, error) {
	access, expires, err := s.jwt.Issue(user)
	if err != nil {
		return TokenResponse{}, apperror.Internal(err)
	}
	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(s.jwt.RefreshTTL()),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return TokenResponse{}, apperror.Internal(err)
	}
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    "Bearer",
		ExpiresAt:    expires,
		User:         toUserResponse(*user),
	}, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 6 || len(password) > 72 {
		return "", apperror.Validation("password must be between 6 and 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return string(hash), nil
}
