package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows list queries. Zero fields are ignored; each repository
// applies the fields that make sense for its table.
type Filter struct {
	JobID         *uuid.UUID
	ClientID      *uuid.UUID
	CompanyID     *uuid.UUID
	ContractorID  *uuid.UUID
	SiteExpenseID *uuid.UUID
	From          *time.Time
	To            *time.Time
	Search        string
	Status        string
	Type          string
	Page          int
	Limit         int // 0 returns every matching row
}

// Repository is the CRUD surface every ledger entity repository offers.
type Repository[T any] interface {
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, f Filter) ([]T, int64, error)
}

type crud[T any] struct {
	db       *gorm.DB
	preloads []string
	order    string
	scope    func(db *gorm.DB, f Filter) *gorm.DB
}

// Create and Update never cascade into associations; children are written
// explicitly by the owning service.
func (r crud[T]) Create(ctx context.Context, v *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(v).Error
}

func (r crud[T]) Update(ctx context.Context, v *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(v).Error
}

func (r crud[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r crud[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var v T
	if err := r.preload(GetDB(ctx, r.db)).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r crud[T]) List(ctx context.Context, f Filter) ([]T, int64, error) {
	var (
		items []T
		total int64
	)

	db := GetDB(ctx, r.db)
	if err := r.filtered(db, f).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.preload(r.filtered(db, f)).Order(r.order)
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// listIn loads every row whose column matches one of ids.
func (r crud[T]) listIn(ctx context.Context, column string, ids []uuid.UUID) ([]T, error) {
	var items []T
	if len(ids) == 0 {
		return items, nil
	}
	err := r.preload(GetDB(ctx, r.db)).Where(column+" IN ?", ids).Order(r.order).Find(&items).Error
	return items, err
}

func (r crud[T]) filtered(db *gorm.DB, f Filter) *gorm.DB {
	if r.scope == nil {
		return db
	}
	return r.scope(db, f)
}

func (r crud[T]) preload(db *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

// --- scope helpers ---

func whereID(db *gorm.DB, column string, id *uuid.UUID) *gorm.DB {
	if id == nil {
		return db
	}
	return db.Where(column+" = ?", *id)
}

func whereEq(db *gorm.DB, column, value string) *gorm.DB {
	if value == "" {
		return db
	}
	return db.Where(column+" = ?", value)
}

func betweenDates(db *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		db = db.Where(column+" >= ?", *from)
	}
	if to != nil {
		db = db.Where(column+" <= ?", *to)
	}
	return db
}

// jobOfCompany restricts rows carrying a job_id to jobs of the given company.
func jobOfCompany(db *gorm.DB, companyID *uuid.UUID) *gorm.DB {
	if companyID == nil {
		return db
	}
	return db.Where("job_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
		Model(&jobRow{}).Select("id").Where("company_id = ?", *companyID))
}

// jobRow names the jobs table for subqueries without pulling in the model's hooks.
type jobRow struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
}

func (jobRow) TableName() string { return "jobs" }

// search matches term case-insensitively against any of columns. LOWER+LIKE
// is used instead of ILIKE so the query runs on sqlite too.
func search(db *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return db
	}
	pattern := "%" + strings.ToLower(term) + "%"

	conds := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, c := range columns {
		conds = append(conds, "LOWER("+c+") LIKE ?")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// referencedBy reports, for each named table and column, whether any row still
// points at id. The names of referencing tables are returned in order.
func referencedBy(ctx context.Context, root *gorm.DB, id uuid.UUID, refs []reference) ([]string, error) {
	db := GetDB(ctx, root)
	var found []string
	for _, ref := range refs {
		var n int64
		if err := db.Table(ref.table).Where(ref.column+" = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			found = append(found, ref.label)
		}
	}
	return found, nil
}

type reference struct {
	table  string
	column string
	label  string
}
