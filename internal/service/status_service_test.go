package service

import (
	"testing"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioD records bills of 1180 and 500 on one job and a receipt netting
// 1060 against the first bill.
func scenarioD(t *testing.T, f *fixture) JobResponse {
	t.Helper()
	job := f.job(t, "J-800")
	f.clientBill(t, job.ID, "B-1", "1000", "180")
	f.clientBill(t, job.ID, "B-2", "500", "0")
	_, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:       job.ID.String(),
		BillNo:      "B-1",
		PaymentDate: "2024-05-01",
		PaymentMode: model.PaymentModeNEFT,
		BaseAmount:  decp("1180"),
		Deductions: []DeductionPayload{
			{Type: model.DeductionITTDS, Amount: dec("100")},
			{Type: model.DeductionGSTTDS, Amount: dec("20")},
		},
	})
	require.NoError(t, err)
	return job
}

func TestClientStatusByJob(t *testing.T) {
	f := newFixture(t)
	job := scenarioD(t, f)

	report, err := f.status.ClientStatus(f.ctx, GroupByJob, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, job.ID, *row.JobID)
	assert.Equal(t, "J-800", row.JobNo)
	assert.Equal(t, 2, row.BillCount)
	assert.Equal(t, 1, row.PaymentCount)
	assert.Equal(t, "1680.00", row.BillTotal)
	assert.Equal(t, "1060.00", row.AmountPaid)
	assert.Equal(t, "620.00", row.BalanceDue)
	assert.Equal(t, "620.00", report.Totals.BalanceDue)
}

func TestClientStatusByBill(t *testing.T) {
	f := newFixture(t)
	scenarioD(t, f)

	report, err := f.status.ClientStatus(f.ctx, "", repository.Filter{})
	require.NoError(t, err)
	assert.Equal(t, GroupByBill, report.GroupBy)
	require.Len(t, report.Rows, 2)

	byNo := map[string]StatusRow{}
	for _, r := range report.Rows {
		byNo[r.BillNo] = r
	}
	assert.Equal(t, "120.00", byNo["B-1"].BalanceDue)
	assert.Equal(t, "500.00", byNo["B-2"].BalanceDue)
	assert.Equal(t, "0.00", byNo["B-2"].AmountPaid)

	// per-bill rows add up to the job balance
	assert.Equal(t, "620.00", report.Totals.BalanceDue)
	assert.Equal(t, "1680.00", report.Totals.BillTotal)
}

func TestClientStatusUnlinkedReceiptCountsAtJobLevel(t *testing.T) {
	f := newFixture(t)
	job := scenarioD(t, f)
	_, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:       job.ID.String(),
		BillNo:      "ADV",
		PaymentDate: "2024-05-02",
		PaymentMode: model.PaymentModeCash,
		BaseAmount:  decp("20"),
	})
	require.NoError(t, err)

	byJob, err := f.status.ClientStatus(f.ctx, GroupByJob, repository.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "600.00", byJob.Totals.BalanceDue)

	byBill, err := f.status.ClientStatus(f.ctx, GroupByBill, repository.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "620.00", byBill.Totals.BalanceDue)
}

func TestClientStatusFilters(t *testing.T) {
	f := newFixture(t)
	job := scenarioD(t, f)
	other := f.job(t, "J-801")
	f.clientBill(t, other.ID, "X-1", "999", "0")

	report, err := f.status.ClientStatus(f.ctx, GroupByJob, repository.Filter{JobID: &job.ID})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "620.00", report.Totals.BalanceDue)

	report, err = f.status.ClientStatus(f.ctx, GroupByJob, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "J-800", report.Rows[0].JobNo)
	assert.Equal(t, "1619.00", report.Totals.BalanceDue)

	_, err = f.status.ClientStatus(f.ctx, GroupByContractor, repository.Filter{})
	requireCode(t, err, apperror.CodeValidation)
}

func TestContractorStatus(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-810")
	other := f.job(t, "J-811")
	mason := f.contractor(t, "MASON")
	plumber := f.contractor(t, "PLUMB")

	b1 := f.contractorBill(t, job.ID, mason.ID, "M-1", "1000", "180")
	f.contractorBill(t, other.ID, mason.ID, "M-2", "400", "0")
	f.contractorBill(t, job.ID, plumber.ID, "P-1", "300", "0")

	_, err := f.contractorPayments.Create(f.ctx, CreateContractorPaymentRequest{
		ContractorBillID: b1.ID.String(),
		PaymentDate:      "2024-06-01",
		PaymentMode:      model.PaymentModeNEFT,
		BaseAmount:       decp("1180"),
		Deductions:       []DeductionPayload{{Type: model.DeductionITTDS, Amount: dec("118")}},
	})
	require.NoError(t, err)

	byContractor, err := f.status.ContractorStatus(f.ctx, GroupByContractor, repository.Filter{})
	require.NoError(t, err)
	require.Len(t, byContractor.Rows, 2)
	rows := map[string]StatusRow{}
	for _, r := range byContractor.Rows {
		rows[r.ContractorName] = r
	}
	assert.Equal(t, "1580.00", rows["Contractor MASON"].BillTotal)
	assert.Equal(t, "1062.00", rows["Contractor MASON"].AmountPaid)
	assert.Equal(t, "518.00", rows["Contractor MASON"].BalanceDue)
	assert.Equal(t, "300.00", rows["Contractor PLUMB"].BalanceDue)

	// narrowing to a job narrows the payments counted for the contractor too
	onJob, err := f.status.ContractorStatus(f.ctx, GroupByContractor, repository.Filter{JobID: &other.ID})
	require.NoError(t, err)
	require.Len(t, onJob.Rows, 1)
	assert.Equal(t, "400.00", onJob.Rows[0].BalanceDue)

	byJob, err := f.status.ContractorStatus(f.ctx, GroupByJob, repository.Filter{ContractorID: &plumber.ID})
	require.NoError(t, err)
	require.Len(t, byJob.Rows, 1)
	assert.Equal(t, "300.00", byJob.Rows[0].BalanceDue, "the mason's payment on the same job is not counted")

	table := byContractor.Table()
	assert.Equal(t, "Contractor payment status", table.Title)
	assert.Equal(t, "Total", table.Footer[0])
	assert.Equal(t, byContractor.Totals.BalanceDue, table.Footer[len(table.Footer)-1])
}
