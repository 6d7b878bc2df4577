package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    *uuid.UUID      `json:"user_id"`
	Username  string          `json:"username"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  uuid.UUID       `json:"entity_id"`
	Details   json.RawMessage `json:"details" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditQuery holds the raw query parameters of the audit log listing.
type AuditQuery struct {
	Entity   string
	EntityID string
	UserID   string
	Action   string
	Page     int
	Limit    int
}

type AuditService interface {
	List(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, q AuditQuery) ([]AuditLogResponse, int64, error) {
	f := repository.AuditFilter{
		Entity: strings.TrimSpace(q.Entity),
		Action: strings.ToUpper(strings.TrimSpace(q.Action)),
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	var err error
	if f.EntityID, err = parseOptionalID("entity_id", q.EntityID); err != nil {
		return nil, 0, err
	}
	if f.UserID, err = parseOptionalID("user_id", q.UserID); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := l.Username
		if username == "" {
			username = "System"
		}
		res = append(res, AuditLogResponse{
			ID:        l.ID,
			UserID:    l.UserID,
			Username:  username,
			Action:    l.Action,
			Entity:    l.Entity,
			EntityID:  l.EntityID,
			Details:   json.RawMessage(l.Details),
			CreatedAt: l.CreatedAt,
		})
	}
	return res, total, nil
}
