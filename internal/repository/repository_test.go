package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitebooks/internal/model"
	"sitebooks/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seed struct {
	db       *gorm.DB
	jobs     JobRepository
	bills    ClientBillRepository
	receipts PaymentReceiptRepository
}

func newSeed(t *testing.T) *seed {
	db := testutil.NewDB(t)
	return &seed{
		db:       db,
		jobs:     NewJobRepository(db),
		bills:    NewClientBillRepository(db),
		receipts: NewPaymentReceiptRepository(db),
	}
}

// job creates a company, a client and a job under them.
func (s *seed) job(t *testing.T, code string) *model.Job {
	t.Helper()
	ctx := context.Background()

	company := &model.Company{Name: "Company " + code, Code: "CO-" + code}
	require.NoError(t, NewCompanyRepository(s.db).Create(ctx, company))
	client := &model.Client{Name: "Client " + code, Code: "CL-" + code}
	require.NoError(t, NewClientRepository(s.db).Create(ctx, client))

	job := &model.Job{JobNo: "J-" + code, Site: "Site " + code, ClientID: client.ID, CompanyID: company.ID, Status: model.JobStatusActive}
	require.NoError(t, s.jobs.Create(ctx, job))
	return job
}

func (s *seed) bill(t *testing.T, job *model.Job, billNo string, date time.Time) *model.ClientBill {
	t.Helper()
	b := &model.ClientBill{
		JobID:      job.ID,
		ClientID:   job.ClientID,
		BillNo:     billNo,
		BillDate:   date,
		BaseAmount: decimal.NewFromInt(100),
		GST:        decimal.NewFromInt(18),
		Amount:     decimal.NewFromInt(118),
	}
	require.NoError(t, s.bills.Create(context.Background(), b))
	return b
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func billNos(bills []model.ClientBill) []string {
	out := make([]string, 0, len(bills))
	for _, b := range bills {
		out = append(out, b.BillNo)
	}
	return out
}

func TestClientBillListFilters(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()

	north := s.job(t, "N")
	south := s.job(t, "S")
	s.bill(t, north, "N-1", day("2024-01-10"))
	s.bill(t, north, "N-2", day("2024-02-10"))
	s.bill(t, south, "S-1", day("2024-02-15"))

	from, to := day("2024-02-01"), day("2024-02-28")
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"S-1", "N-2", "N-1"}},
		{"by job", Filter{JobID: &north.ID}, []string{"N-2", "N-1"}},
		{"by client", Filter{ClientID: &south.ClientID}, []string{"S-1"}},
		{"by company", Filter{CompanyID: &north.CompanyID}, []string{"N-2", "N-1"}},
		{"date range", Filter{From: &from, To: &to}, []string{"S-1", "N-2"}},
		{"company and dates", Filter{CompanyID: &north.CompanyID, From: &from}, []string{"N-2"}},
		{"search", Filter{Search: "s-"}, []string{"S-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.bills.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, billNos(got))
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}

func TestListPaging(t *testing.T) {
	s := newSeed(t)
	job := s.job(t, "P")
	for i, no := range []string{"P-1", "P-2", "P-3"} {
		s.bill(t, job, no, day("2024-03-01").AddDate(0, 0, i))
	}

	got, total, err := s.bills.List(context.Background(), Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total, "total counts every match, not just the page")
	assert.Equal(t, []string{"P-1"}, billNos(got))
	require.NotNil(t, got[0].Job, "job is preloaded")
	assert.Equal(t, "J-P", got[0].Job.JobNo)
}

func TestDependents(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	job := s.job(t, "D")

	deps, err := s.jobs.Dependents(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)

	b := s.bill(t, job, "D-1", day("2024-04-01"))
	require.NoError(t, s.receipts.Create(ctx, &model.PaymentReceipt{
		JobID:        job.ID,
		ClientID:     job.ClientID,
		ClientBillID: &b.ID,
		BillNo:       b.BillNo,
		PaymentDate:  day("2024-04-05"),
		BaseAmount:   decimal.NewFromInt(118),
		GST:          decimal.Zero,
		PaymentMode:  model.PaymentModeNEFT,
	}))

	deps, err = s.jobs.Dependents(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"client bills", "payment receipts"}, deps)

	deps, err = s.bills.Dependents(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"payment receipts"}, deps)
}

func TestDeleteMissingRow(t *testing.T) {
	s := newSeed(t)
	err := s.bills.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = s.bills.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunInTxRollsBack(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	job := s.job(t, "T")
	s.bill(t, job, "T-1", day("2024-05-01"))
	tx := NewTransactionManager(s.db)

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		b := &model.ClientBill{JobID: job.ID, ClientID: job.ClientID, BillNo: "T-2", BillDate: day("2024-05-02"),
			BaseAmount: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1)}
		if err := s.bills.Create(txCtx, b); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, _, err := s.bills.List(ctx, Filter{JobID: &job.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"T-1"}, billNos(got), "the write inside the transaction is rolled back")
}

func TestRunInTxJoinsOuterTransaction(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	job := s.job(t, "O")
	tx := NewTransactionManager(s.db)

	err := tx.RunInTx(ctx, func(outer context.Context) error {
		inner := tx.RunInTx(outer, func(innerCtx context.Context) error {
			b := &model.ClientBill{JobID: job.ID, ClientID: job.ClientID, BillNo: "O-1", BillDate: day("2024-06-01"),
				BaseAmount: decimal.NewFromInt(1), Amount: decimal.NewFromInt(1)}
			return s.bills.Create(innerCtx, b)
		})
		require.NoError(t, inner)
		return errors.New("abort outer")
	})
	require.Error(t, err)

	_, total, err := s.bills.List(ctx, Filter{JobID: &job.ID})
	require.NoError(t, err)
	assert.Zero(t, total, "the inner write belongs to the outer transaction")
}
