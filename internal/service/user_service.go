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

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserService interface {
	List(ctx context.Context, f repository.Filter) ([]UserResponse, int64, error)
	Get(ctx context.Context, id string) (UserResponse, error)
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)
	Delete(ctx context.Context, id string) error
}

var roles = []string{model.RoleAdmin, model.RoleManager, model.RoleStaff}

type userService struct {
	repo   repository.UserRepository
	tokens repository.RefreshTokenRepository
	rec    recorder
}

func NewUserService(
	repo repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
) UserService {
	return &userService{repo: repo, tokens: tokens, rec: newRecorder(txManager, auditRepo, nil)}
}

func (s *userService) List(ctx context.Context, f repository.Filter) ([]UserResponse, int64, error) {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	users, total, err := s.repo.List(ctx, page, f.Limit, f.Search)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(users, toUserResponse), total, nil
}

func (s *userService) Get(ctx context.Context, id string) (UserResponse, error) {
	user, err := load(ctx, s.repo.GetByID, "user", id)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(*user), nil
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	user := &model.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     strings.TrimSpace(req.Role),
	}
	if err := validateUser(user); err != nil {
		return UserResponse{}, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return UserResponse{}, err
	}
	user.Password = hash

	err = s.rec.write(ctx, model.EntityUser, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Create(txCtx, user); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "user", "")
		}
		return user.ID, toUserResponse(*user), nil
	})
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(*user), nil
}

func (s *userService) Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	user, err := load(ctx, s.repo.GetByID, "user", id)
	if err != nil {
		return UserResponse{}, err
	}

	setString(&user.Username, req.Username)
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	setString(&user.Phone, req.Phone)
	setString(&user.Role, req.Role)
	if err := validateUser(user); err != nil {
		return UserResponse{}, err
	}
	if req.Password != nil {
		if user.Password, err = hashPassword(*req.Password); err != nil {
			return UserResponse{}, err
		}
	}

	err = s.rec.write(ctx, model.EntityUser, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Update(txCtx, user); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "user", id)
		}
		// a new password or role signs the user out everywhere
		if req.Password != nil || req.Role != nil {
			if err := s.tokens.DeleteByUser(txCtx, user.ID); err != nil {
				return uuid.Nil, nil, apperror.Internal(err)
			}
		}
		return user.ID, toUserResponse(*user), nil
	})
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(*user), nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	user, err := load(ctx, s.repo.GetByID, "user", id)
	if err != nil {
		return err
	}
	if actor, ok := ActorFrom(ctx); ok && actor.ID == user.ID {
		return apperror.Validation("you cannot delete your own account")
	}
	return s.rec.write(ctx, model.EntityUser, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.tokens.DeleteByUser(txCtx, user.ID); err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "user", id)
		}
		return user.ID, toUserResponse(*user), nil
	})
}

func validateUser(u *model.User) error {
	if err := required("username", u.Username); err != nil {
		return err
	}
	if err := required("email", u.Email); err != nil {
		return err
	}
	if err := validEmail("email", u.Email); err != nil {
		return err
	}
	return oneOf("role", u.Role, roles...)
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
