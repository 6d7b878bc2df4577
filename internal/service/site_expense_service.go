package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/ledger"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateSiteExpenseRequest struct {
	JobID       string           `json:"job_id" binding:"required"`
	SiteID      string           `json:"site_id" binding:"required"`
	PaymentDate string           `json:"payment_date" binding:"required"`
	PaidTo      string           `json:"paid_to"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
}

type UpdateSiteExpenseRequest struct {
	JobID       *string          `json:"job_id"`
	SiteID      *string          `json:"site_id"`
	PaymentDate *string          `json:"payment_date"`
	PaidTo      *string          `json:"paid_to"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string"`
}

type SiteExpenseResponse struct {
	ID          uuid.UUID                   `json:"id"`
	JobID       uuid.UUID                   `json:"job_id"`
	JobNo       string                      `json:"job_no"`
	ClientID    uuid.UUID                   `json:"client_id"`
	ClientName  string                      `json:"client_name"`
	SiteID      string                      `json:"site_id"`
	PaymentDate string                      `json:"payment_date"`
	PaidTo      string                      `json:"paid_to"`
	Description string                      `json:"description"`
	Amount      string                      `json:"amount"`
	RefundTotal string                      `json:"refund_total"`
	NetExpense  string                      `json:"net_expense"`
	Refunds     []SiteExpenseRefundResponse `json:"refunds"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// ExpenseSummaryRow aggregates the site expenses of one job.
type ExpenseSummaryRow struct {
	JobID        uuid.UUID `json:"job_id"`
	JobNo        string    `json:"job_no"`
	Site         string    `json:"site"`
	ExpenseCount int       `json:"expense_count"`
	ExpenseTotal string    `json:"expense_total"`
	RefundTotal  string    `json:"refund_total"`
	NetExpense   string    `json:"net_expense"`
}

type ExpenseSummaryTotals struct {
	ExpenseTotal string `json:"expense_total"`
	RefundTotal  string `json:"refund_total"`
	NetExpense   string `json:"net_expense"`
}

type ExpenseSummary struct {
	Rows   []ExpenseSummaryRow  `json:"rows"`
	Totals ExpenseSummaryTotals `json:"totals"`
}

type SiteExpenseService interface {
	List(ctx context.Context, f repository.Filter) ([]SiteExpenseResponse, int64, error)
	Get(ctx context.Context, id string) (SiteExpenseResponse, error)
	Create(ctx context.Context, req CreateSiteExpenseRequest) (SiteExpenseResponse, error)
	Update(ctx context.Context, id string, req UpdateSiteExpenseRequest) (SiteExpenseResponse, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, f repository.Filter) (ExpenseSummary, error)
}

type siteExpenseService struct {
	repo       repository.SiteExpenseRepository
	refundRepo repository.SiteExpenseRefundRepository
	jobRepo    repository.JobRepository
	rec        recorder
}

func NewSiteExpenseService(
	repo repository.SiteExpenseRepository,
	refundRepo repository.SiteExpenseRefundRepository,
	jobRepo repository.JobRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) SiteExpenseService {
	return &siteExpenseService{
		repo:       repo,
		refundRepo: refundRepo,
		jobRepo:    jobRepo,
		rec:        newRecorder(txManager, auditRepo, notifier),
	}
}

func (s *siteExpenseService) List(ctx context.Context, f repository.Filter) ([]SiteExpenseResponse, int64, error) {
	expenses, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(expenses, toSiteExpenseResponse), total, nil
}

func (s *siteExpenseService) Get(ctx context.Context, id string) (SiteExpenseResponse, error) {
	expense, err := load(ctx, s.repo.FindByID, "site expense", id)
	if err != nil {
		return SiteExpenseResponse{}, err
	}
	return toSiteExpenseResponse(*expense), nil
}

func (s *siteExpenseService) Create(ctx context.Context, req CreateSiteExpenseRequest) (SiteExpenseResponse, error) {
	expense := model.SiteExpense{
		SiteID:      strings.TrimSpace(req.SiteID),
		PaidTo:      strings.TrimSpace(req.PaidTo),
		Description: req.Description,
	}

	var err error
	if expense.JobID, err = parseID("job_id", req.JobID); err != nil {
		return SiteExpenseResponse{}, err
	}
	if err = required("site_id", expense.SiteID); err != nil {
		return SiteExpenseResponse{}, err
	}
	if expense.PaymentDate, err = ParseDate("payment_date", req.PaymentDate); err != nil {
		return SiteExpenseResponse{}, err
	}
	if expense.Amount, err = requiredAmount("amount", req.Amount); err != nil {
		return SiteExpenseResponse{}, err
	}

	err = s.rec.write(ctx, model.EntitySiteExpense, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachJob(txCtx, &expense); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &expense); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense", "")
		}
		return expense.ID, toSiteExpenseResponse(expense), nil
	})
	if err != nil {
		return SiteExpenseResponse{}, err
	}
	return toSiteExpenseResponse(expense), nil
}

func (s *siteExpenseService) Update(ctx context.Context, id string, req UpdateSiteExpenseRequest) (SiteExpenseResponse, error) {
	expense, err := load(ctx, s.repo.FindByID, "site expense", id)
	if err != nil {
		return SiteExpenseResponse{}, err
	}

	if req.JobID != nil {
		if expense.JobID, err = parseID("job_id", *req.JobID); err != nil {
			return SiteExpenseResponse{}, err
		}
	}
	setString(&expense.SiteID, req.SiteID)
	if err = required("site_id", expense.SiteID); err != nil {
		return SiteExpenseResponse{}, err
	}
	if req.PaymentDate != nil {
		if expense.PaymentDate, err = ParseDate("payment_date", *req.PaymentDate); err != nil {
			return SiteExpenseResponse{}, err
		}
	}
	setString(&expense.PaidTo, req.PaidTo)
	setString(&expense.Description, req.Description)
	if req.Amount != nil {
		if expense.Amount, err = amount("amount", *req.Amount); err != nil {
			return SiteExpenseResponse{}, err
		}
	}

	err = s.rec.write(ctx, model.EntitySiteExpense, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.attachJob(txCtx, expense); err != nil {
			return uuid.Nil, nil, err
		}
		// lock the row so no refund lands between the check and the write
		if _, err := s.repo.FindForUpdate(txCtx, expense.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense", id)
		}
		refunds, err := s.refundRepo.ListByExpense(txCtx, expense.ID)
		if err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		expense.Refunds = refunds
		if refunded := ledger.RefundTotal(expense.Ledger(), uuid.Nil); expense.Amount.LessThan(refunded) {
			return uuid.Nil, nil, apperror.Validation("amount cannot be less than the refunded total of %s", money(refunded)).
				WithDetail("amount", money(expense.Amount))
		}
		if err := s.repo.Update(txCtx, expense); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense", id)
		}
		return expense.ID, toSiteExpenseResponse(*expense), nil
	})
	if err != nil {
		return SiteExpenseResponse{}, err
	}
	return toSiteExpenseResponse(*expense), nil
}

// Delete removes the expense together with its refunds. Enquiries about the
// expense stay on the job and lose the link.
func (s *siteExpenseService) Delete(ctx context.Context, id string) error {
	expense, err := load(ctx, s.repo.FindByID, "site expense", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntitySiteExpense, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.refundRepo.DeleteByExpense(txCtx, expense.ID); err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if err := s.repo.DetachEnquiries(txCtx, expense.ID); err != nil {
			return uuid.Nil, nil, apperror.Internal(err)
		}
		if err := s.repo.Delete(txCtx, expense.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense", id)
		}
		return expense.ID, toSiteExpenseResponse(*expense), nil
	})
}

// Summary groups the filtered expenses by job. Rows are ordered by job number.
func (s *siteExpenseService) Summary(ctx context.Context, f repository.Filter) (ExpenseSummary, error) {
	f.Page, f.Limit = 0, 0
	expenses, _, err := s.repo.List(ctx, f)
	if err != nil {
		return ExpenseSummary{}, apperror.Internal(err)
	}

	type jobTotals struct {
		row                   ExpenseSummaryRow
		spent, refunded, net decimal.Decimal
	}
	groups := make(map[uuid.UUID]*jobTotals)
	for _, e := range expenses {
		g, ok := groups[e.JobID]
		if !ok {
			g = &jobTotals{row: ExpenseSummaryRow{JobID: e.JobID}}
			if e.Job != nil {
				g.row.JobNo = e.Job.JobNo
				g.row.Site = e.Job.Site
			}
			groups[e.JobID] = g
		}
		exp := e.Ledger()
		g.row.ExpenseCount++
		g.spent = g.spent.Add(exp.Amount)
		g.refunded = g.refunded.Add(ledger.RefundTotal(exp, uuid.Nil))
		g.net = g.net.Add(ledger.NetExpense(exp))
	}

	summary := ExpenseSummary{Rows: make([]ExpenseSummaryRow, 0, len(groups))}
	var spent, refunded, net decimal.Decimal
	for _, g := range groups {
		g.row.ExpenseTotal = money(g.spent)
		g.row.RefundTotal = money(g.refunded)
		g.row.NetExpense = money(g.net)
		summary.Rows = append(summary.Rows, g.row)
		spent = spent.Add(g.spent)
		refunded = refunded.Add(g.refunded)
		net = net.Add(g.net)
	}
	sort.Slice(summary.Rows, func(i, j int) bool { return summary.Rows[i].JobNo < summary.Rows[j].JobNo })
	summary.Totals = ExpenseSummaryTotals{
		ExpenseTotal: money(spent),
		RefundTotal:  money(refunded),
		NetExpense:   money(net),
	}
	return summary, nil
}

func (s *siteExpenseService) attachJob(ctx context.Context, expense *model.SiteExpense) error {
	job, err := reference(ctx, s.jobRepo.FindByID, "job_id", expense.JobID)
	if err != nil {
		return err
	}
	expense.Job = job
	expense.ClientID = job.ClientID
	expense.Client = job.Client
	return nil
}

func toSiteExpenseResponse(e model.SiteExpense) SiteExpenseResponse {
	exp := e.Ledger()
	res := SiteExpenseResponse{
		ID:          e.ID,
		JobID:       e.JobID,
		ClientID:    e.ClientID,
		SiteID:      e.SiteID,
		PaymentDate: formatDate(e.PaymentDate),
		PaidTo:      e.PaidTo,
		Description: e.Description,
		Amount:      money(e.Amount),
		RefundTotal: money(ledger.RefundTotal(exp, uuid.Nil)),
		NetExpense:  money(ledger.NetExpense(exp)),
		Refunds:     mapAll(e.Refunds, toSiteExpenseRefundResponse),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Job != nil {
		res.JobNo = e.Job.JobNo
	}
	if e.Client != nil {
		res.ClientName = e.Client.Name
	}
	return res
}

// --- Refunds ---

type CreateSiteExpenseRefundRequest struct {
	SiteExpenseID string           `json:"site_expense_id" binding:"required"`
	RefundDate    string           `json:"refund_date" binding:"required"`
	Amount        *decimal.Decimal `json:"amount" swaggertype:"string"`
	Remarks       string           `json:"remarks"`
}

type UpdateSiteExpenseRefundRequest struct {
	SiteExpenseID *string          `json:"site_expense_id"`
	RefundDate    *string          `json:"refund_date"`
	Amount        *decimal.Decimal `json:"amount" swaggertype:"string"`
	Remarks       *string          `json:"remarks"`
}

type SiteExpenseRefundResponse struct {
	ID            uuid.UUID `json:"id"`
	SiteExpenseID uuid.UUID `json:"site_expense_id"`
	SiteID        string    `json:"site_id,omitempty"`
	RefundDate    string    `json:"refund_date"`
	Amount        string    `json:"amount"`
	Remarks       string    `json:"remarks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SiteExpenseRefundService interface {
	List(ctx context.Context, f repository.Filter) ([]SiteExpenseRefundResponse, int64, error)
	Get(ctx context.Context, id string) (SiteExpenseRefundResponse, error)
	Create(ctx context.Context, req CreateSiteExpenseRefundRequest) (SiteExpenseRefundResponse, error)
	Update(ctx context.Context, id string, req UpdateSiteExpenseRefundRequest) (SiteExpenseRefundResponse, error)
	Delete(ctx context.Context, id string) error
}

type siteExpenseRefundService struct {
	repo        repository.SiteExpenseRefundRepository
	expenseRepo repository.SiteExpenseRepository
	rec         recorder
}

func NewSiteExpenseRefundService(
	repo repository.SiteExpenseRefundRepository,
	expenseRepo repository.SiteExpenseRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) SiteExpenseRefundService {
	return &siteExpenseRefundService{repo: repo, expenseRepo: expenseRepo, rec: newRecorder(txManager, auditRepo, notifier)}
}

func (s *siteExpenseRefundService) List(ctx context.Context, f repository.Filter) ([]SiteExpenseRefundResponse, int64, error) {
	refunds, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapAll(refunds, toSiteExpenseRefundResponse), total, nil
}

func (s *siteExpenseRefundService) Get(ctx context.Context, id string) (SiteExpenseRefundResponse, error) {
	refund, err := load(ctx, s.repo.FindByID, "site expense refund", id)
	if err != nil {
		return SiteExpenseRefundResponse{}, err
	}
	return toSiteExpenseRefundResponse(*refund), nil
}

func (s *siteExpenseRefundService) Create(ctx context.Context, req CreateSiteExpenseRefundRequest) (SiteExpenseRefundResponse, error) {
	refund := model.SiteExpenseRefund{Remarks: req.Remarks}

	var err error
	if refund.SiteExpenseID, err = parseID("site_expense_id", req.SiteExpenseID); err != nil {
		return SiteExpenseRefundResponse{}, err
	}
	if refund.RefundDate, err = ParseDate("refund_date", req.RefundDate); err != nil {
		return SiteExpenseRefundResponse{}, err
	}
	if refund.Amount, err = requiredAmount("amount", req.Amount); err != nil {
		return SiteExpenseRefundResponse{}, err
	}

	err = s.rec.write(ctx, model.EntitySiteExpenseRefund, model.ActionCreate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.checkLimit(txCtx, &refund, uuid.Nil); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Create(txCtx, &refund); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense refund", "")
		}
		return refund.ID, toSiteExpenseRefundResponse(refund), nil
	})
	if err != nil {
		return SiteExpenseRefundResponse{}, err
	}
	return toSiteExpenseRefundResponse(refund), nil
}

func (s *siteExpenseRefundService) Update(ctx context.Context, id string, req UpdateSiteExpenseRefundRequest) (SiteExpenseRefundResponse, error) {
	refund, err := load(ctx, s.repo.FindByID, "site expense refund", id)
	if err != nil {
		return SiteExpenseRefundResponse{}, err
	}

	if req.SiteExpenseID != nil {
		if refund.SiteExpenseID, err = parseID("site_expense_id", *req.SiteExpenseID); err != nil {
			return SiteExpenseRefundResponse{}, err
		}
	}
	if req.RefundDate != nil {
		if refund.RefundDate, err = ParseDate("refund_date", *req.RefundDate); err != nil {
			return SiteExpenseRefundResponse{}, err
		}
	}
	if req.Amount != nil {
		if refund.Amount, err = amount("amount", *req.Amount); err != nil {
			return SiteExpenseRefundResponse{}, err
		}
	}
	setString(&refund.Remarks, req.Remarks)

	err = s.rec.write(ctx, model.EntitySiteExpenseRefund, model.ActionUpdate, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.checkLimit(txCtx, refund, refund.ID); err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.repo.Update(txCtx, refund); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense refund", id)
		}
		return refund.ID, toSiteExpenseRefundResponse(*refund), nil
	})
	if err != nil {
		return SiteExpenseRefundResponse{}, err
	}
	return toSiteExpenseRefundResponse(*refund), nil
}

func (s *siteExpenseRefundService) Delete(ctx context.Context, id string) error {
	refund, err := load(ctx, s.repo.FindByID, "site expense refund", id)
	if err != nil {
		return err
	}
	return s.rec.write(ctx, model.EntitySiteExpenseRefund, model.ActionDelete, func(txCtx context.Context) (uuid.UUID, any, error) {
		if err := s.repo.Delete(txCtx, refund.ID); err != nil {
			return uuid.Nil, nil, apperror.FromStore(err, "site expense refund", id)
		}
		return refund.ID, toSiteExpenseRefundResponse(*refund), nil
	})
}

// checkLimit locks the parent expense and verifies the refunds, including this
// one, stay within its amount. excluding is the id of the refund being edited.
func (s *siteExpenseRefundService) checkLimit(ctx context.Context, refund *model.SiteExpenseRefund, excluding uuid.UUID) error {
	expense, err := reference(ctx, s.expenseRepo.FindForUpdate, "site_expense_id", refund.SiteExpenseID)
	if err != nil {
		return err
	}
	if expense.Refunds, err = s.repo.ListByExpense(ctx, expense.ID); err != nil {
		return apperror.Internal(err)
	}
	if err := checkRefund(*expense, refund.Amount, excluding); err != nil {
		return err
	}
	refund.SiteExpense = &model.SiteExpense{Base: expense.Base, SiteID: expense.SiteID}
	return nil
}

// checkRefund runs the refund rule and turns a breach into a validation error.
func checkRefund(expense model.SiteExpense, candidate decimal.Decimal, excluding uuid.UUID) error {
	err := ledger.ValidateRefund(expense.Ledger(), candidate, excluding)
	if errors.Is(err, ledger.ErrRefundExceedsExpense) {
		return apperror.Validation("%s", err.Error()).
			WithDetail("amount", money(candidate)).
			WithDetail("remaining", money(expense.Amount.Sub(ledger.RefundTotal(expense.Ledger(), excluding))))
	}
	return err
}

func toSiteExpenseRefundResponse(r model.SiteExpenseRefund) SiteExpenseRefundResponse {
	res := SiteExpenseRefundResponse{
		ID:            r.ID,
		SiteExpenseID: r.SiteExpenseID,
		RefundDate:    formatDate(r.RefundDate),
		Amount:        money(r.Amount),
		Remarks:       r.Remarks,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.SiteExpense != nil {
		res.SiteID = r.SiteExpense.SiteID
	}
	return res
}
