package service

import (
	"testing"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) refund(t *testing.T, expense SiteExpenseResponse, amount string) (SiteExpenseRefundResponse, error) {
	t.Helper()
	return f.refunds.Create(f.ctx, CreateSiteExpenseRefundRequest{
		SiteExpenseID: expense.ID.String(),
		RefundDate:    "2024-04-10",
		Amount:        decp(amount),
	})
}

func TestRefundLimitOnCreate(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-700")
	expense := f.expense(t, job.ID, "5000")

	_, err := f.refund(t, expense, "2000")
	require.NoError(t, err)

	_, err = f.refund(t, expense, "3001")
	appErr := requireCode(t, err, apperror.CodeValidation)
	assert.Equal(t, "3000.00", appErr.Details["remaining"])

	_, err = f.refund(t, expense, "3000")
	require.NoError(t, err, "refunds may add up to the expense amount")

	loaded, err := f.expenses.Get(f.ctx, expense.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "5000.00", loaded.RefundTotal)
	assert.Equal(t, "0.00", loaded.NetExpense)
	assert.Len(t, loaded.Refunds, 2)
}

func TestRefundLimitOnUpdateExcludesEditedRefund(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-701")
	expense := f.expense(t, job.ID, "5000")

	_, err := f.refund(t, expense, "3000")
	require.NoError(t, err)
	edited, err := f.refund(t, expense, "1000")
	require.NoError(t, err)

	updated, err := f.refunds.Update(f.ctx, edited.ID.String(), UpdateSiteExpenseRefundRequest{Amount: decp("1999")})
	require.NoError(t, err)
	assert.Equal(t, "1999.00", updated.Amount)

	_, err = f.refunds.Update(f.ctx, edited.ID.String(), UpdateSiteExpenseRefundRequest{Amount: decp("2001")})
	requireCode(t, err, apperror.CodeValidation)

	stored, err := f.refunds.Get(f.ctx, edited.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1999.00", stored.Amount, "rejected update leaves the refund unchanged")
}

func TestRefundRejectsUnknownExpense(t *testing.T) {
	f := newFixture(t)

	_, err := f.refunds.Create(f.ctx, CreateSiteExpenseRefundRequest{
		SiteExpenseID: "4c0d1b3e-8a7f-4e0e-9b64-2d1f7a0c5e93",
		RefundDate:    "2024-04-10",
		Amount:        decp("10"),
	})
	appErr := requireCode(t, err, apperror.CodeValidation)
	assert.Contains(t, appErr.Message, "site_expense_id")
}

func TestSiteExpenseAmountNotBelowRefunds(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-702")
	expense := f.expense(t, job.ID, "5000")
	_, err := f.refund(t, expense, "2000")
	require.NoError(t, err)

	_, err = f.expenses.Update(f.ctx, expense.ID.String(), UpdateSiteExpenseRequest{Amount: decp("1999.99")})
	requireCode(t, err, apperror.CodeValidation)

	updated, err := f.expenses.Update(f.ctx, expense.ID.String(), UpdateSiteExpenseRequest{Amount: decp("2000")})
	require.NoError(t, err)
	assert.Equal(t, "0.00", updated.NetExpense)
}

func TestSiteExpenseDeleteRemovesRefundsAndDetachesEnquiries(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-703")
	expense := f.expense(t, job.ID, "800")
	refund, err := f.refund(t, expense, "100")
	require.NoError(t, err)

	enquiry, err := f.enquiries.Create(f.ctx, CreateEnquiryRequest{
		JobID:         job.ID.String(),
		SiteExpenseID: expense.ID.String(),
		EnquiryDate:   "2024-04-11",
		Subject:       "Receipt missing",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EnquiryStatusOpen, enquiry.Status)

	require.NoError(t, f.expenses.Delete(f.ctx, expense.ID.String()))

	_, err = f.refunds.Get(f.ctx, refund.ID.String())
	requireCode(t, err, apperror.CodeNotFound)

	kept, err := f.enquiries.Get(f.ctx, enquiry.ID.String())
	require.NoError(t, err)
	assert.Nil(t, kept.SiteExpenseID)
}

func TestEnquiryValidation(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-704")
	other := f.job(t, "J-705")
	expense := f.expense(t, other.ID, "100")

	_, err := f.enquiries.Create(f.ctx, CreateEnquiryRequest{
		JobID:       job.ID.String(),
		EnquiryDate: "2024-04-11",
		Subject:     "Rate query",
		Status:      "PENDING",
	})
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.enquiries.Create(f.ctx, CreateEnquiryRequest{
		JobID:         job.ID.String(),
		SiteExpenseID: expense.ID.String(),
		EnquiryDate:   "2024-04-11",
		Subject:       "Rate query",
	})
	requireCode(t, err, apperror.CodeValidation)

	answered, err := f.enquiries.Create(f.ctx, CreateEnquiryRequest{
		JobID:       job.ID.String(),
		EnquiryDate: "2024-04-11",
		Subject:     "Rate query",
		Status:      model.EnquiryStatusAnswered,
		Response:    "Rate confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EnquiryStatusAnswered, answered.Status)
}

func TestExpenseSummary(t *testing.T) {
	f := newFixture(t)
	a := f.job(t, "J-710")
	b := f.job(t, "J-711")
	e1 := f.expense(t, a.ID, "5000")
	f.expense(t, a.ID, "1000")
	f.expense(t, b.ID, "250.50")
	_, err := f.refund(t, e1, "1250.50")
	require.NoError(t, err)

	summary, err := f.expenses.Summary(f.ctx, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)

	assert.Equal(t, "J-710", summary.Rows[0].JobNo)
	assert.Equal(t, 2, summary.Rows[0].ExpenseCount)
	assert.Equal(t, "6000.00", summary.Rows[0].ExpenseTotal)
	assert.Equal(t, "1250.50", summary.Rows[0].RefundTotal)
	assert.Equal(t, "4749.50", summary.Rows[0].NetExpense)

	assert.Equal(t, "6250.50", summary.Totals.ExpenseTotal)
	assert.Equal(t, "1250.50", summary.Totals.RefundTotal)
	assert.Equal(t, "5000.00", summary.Totals.NetExpense)

	filtered, err := f.expenses.Summary(f.ctx, repository.Filter{JobID: &b.ID})
	require.NoError(t, err)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "250.50", filtered.Totals.NetExpense)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-720")
	expense := f.expense(t, job.ID, "5000")
	_, err := f.refund(t, expense, "3000")
	require.NoError(t, err)
	edited, err := f.refund(t, expense, "1000")
	require.NoError(t, err)

	res, err := f.preview.Preview(f.ctx, PreviewRequest{
		BaseAmount: dec("1180"),
		Deductions: []DeductionPayload{{Type: model.DeductionITTDS, Amount: dec("100")}, {Type: model.DeductionOther, Amount: dec("20")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1180.00", res.BillTotal)
	assert.Equal(t, "120.00", res.DeductionTotal)
	assert.Equal(t, "1060.00", res.NetAmount)
	assert.Nil(t, res.Refund)

	res, err = f.preview.Preview(f.ctx, PreviewRequest{SiteExpenseID: expense.ID.String(), RefundID: edited.ID.String(), RefundAmount: dec("1999")})
	require.NoError(t, err)
	require.NotNil(t, res.Refund)
	assert.True(t, res.Refund.Valid)
	assert.Equal(t, "2000.00", res.Refund.Remaining)

	res, err = f.preview.Preview(f.ctx, PreviewRequest{SiteExpenseID: expense.ID.String(), RefundAmount: dec("1001")})
	require.NoError(t, err)
	require.NotNil(t, res.Refund)
	assert.False(t, res.Refund.Valid)
	assert.NotEmpty(t, res.Refund.Message)

	// nothing was written
	stored, err := f.expenses.Get(f.ctx, expense.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "4000.00", stored.RefundTotal)
}
