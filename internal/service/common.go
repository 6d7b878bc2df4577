package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/ledger"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// --- Actor ---

// Actor is the authenticated user a change is attributed to.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// --- Change notification ---

// Notifier is told about every committed write.
type Notifier interface {
	Publish(change model.Change)
}

// Notifiers fans a change out to several notifiers.
type Notifiers []Notifier

func (n Notifiers) Publish(change model.Change) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Publish(change)
		}
	}
}

// recorder runs a write in a transaction, appends the audit row inside it and
// publishes the change once the transaction has committed.
type recorder struct {
	txManager repository.TransactionManager
	auditRepo repository.AuditRepository
	notifier  Notifier
}

func newRecorder(txManager repository.TransactionManager, auditRepo repository.AuditRepository, notifier Notifier) recorder {
	return recorder{txManager: txManager, auditRepo: auditRepo, notifier: notifier}
}

// write calls fn inside a transaction. fn returns the id of the record it
// touched and a snapshot stored as audit details.
func (r recorder) write(ctx context.Context, entity, action string, fn func(txCtx context.Context) (uuid.UUID, any, error)) error {
	var id uuid.UUID
	err := r.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var (
			details any
			err     error
		)
		id, details, err = fn(txCtx)
		if err != nil {
			return err
		}
		return r.audit(txCtx, entity, action, id, details)
	})
	if err != nil {
		return err
	}

	if r.notifier != nil {
		r.notifier.Publish(model.Change{Entity: entity, Action: action, ID: id})
	}
	return nil
}

func (r recorder) audit(ctx context.Context, entity, action string, id uuid.UUID, details any) error {
	entry := &model.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: id,
	}
	if actor, ok := ActorFrom(ctx); ok {
		entry.UserID = &actor.ID
		entry.Username = actor.Username
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return apperror.Internal(err)
		}
		entry.Details = datatypes.JSON(raw)
	}
	if err := r.auditRepo.Log(ctx, entry); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// --- Input parsing ---

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation("%s must be a valid UUID", field).WithDetail(field, raw)
	}
	return id, nil
}

// parseOptionalID returns nil for an empty string.
func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns midnight UTC of that day.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperror.Validation("%s is required", field)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperror.Validation("%s must be an ISO-8601 date (YYYY-MM-DD)", field).WithDetail(field, raw)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// amount validates a money input: negative values are rejected and the value
// is rounded to two places.
func amount(field string, d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, apperror.Validation("%s must not be negative", field).WithDetail(field, d.String())
	}
	return ledger.Round(d), nil
}

// requiredAmount is amount for a field that must be present.
func requiredAmount(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, apperror.Validation("%s is required", field)
	}
	return amount(field, *d)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(ledger.Places)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation("%s is required", field)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apperror.Validation("%s must be one of: %s", field, strings.Join(allowed, ", ")).WithDetail(field, value)
}

func validEmail(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return apperror.Validation("invalid %s format", field).WithDetail(field, value)
	}
	return nil
}

// setString applies an optional update, trimming surrounding whitespace.
func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// --- Store helpers ---

// reference loads a record a write refers to. A missing record is a validation
// error naming the field rather than a 404 for the request.
func reference[T any](ctx context.Context, find func(context.Context, uuid.UUID) (*T, error), field string, id uuid.UUID) (*T, error) {
	v, err := find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Validation("%s does not reference an existing record", field).WithDetail(field, id.String())
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return v, nil
}

// load finds the record addressed by a path id.
func load[T any](ctx context.Context, find func(context.Context, uuid.UUID) (*T, error), resource, rawID string) (*T, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}
	v, err := find(ctx, id)
	if err != nil {
		return nil, apperror.FromStore(err, resource, rawID)
	}
	return v, nil
}

// unreferenced fails when other records still point at the one being deleted.
func unreferenced(ctx context.Context, dependents func(context.Context, uuid.UUID) ([]string, error), resource string, id uuid.UUID) error {
	found, err := dependents(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if len(found) > 0 {
		return apperror.Validation("%s is still referenced by %s", resource, strings.Join(found, ", "))
	}
	return nil
}

func mapAll[M, R any](items []M, fn func(M) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
