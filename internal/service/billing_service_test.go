package service

import (
	"testing"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBillAmountIsDerived(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-100")

	bill := f.clientBill(t, job.ID, "B-1", "1000", "180")
	assert.Equal(t, "1180.00", bill.Amount)
	assert.Equal(t, job.ClientID, bill.ClientID)

	updated, err := f.clientBills.Update(f.ctx, bill.ID.String(), UpdateClientBillRequest{GST: decp("0")})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", updated.Amount)

	// repeating the same update leaves the record unchanged
	again, err := f.clientBills.Update(f.ctx, bill.ID.String(), UpdateClientBillRequest{GST: decp("0")})
	require.NoError(t, err)
	assert.Equal(t, updated.Amount, again.Amount)
	assert.Equal(t, updated.BillNo, again.BillNo)
}

func TestClientBillValidation(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-101")
	f.clientBill(t, job.ID, "B-1", "100", "0")

	tests := []struct {
		name string
		req  CreateClientBillRequest
		code string
	}{
		{"negative base", CreateClientBillRequest{JobID: job.ID.String(), BillNo: "B-2", BillDate: "2024-04-01", BaseAmount: decp("-1")}, apperror.CodeValidation},
		{"missing base", CreateClientBillRequest{JobID: job.ID.String(), BillNo: "B-2", BillDate: "2024-04-01"}, apperror.CodeValidation},
		{"bad date", CreateClientBillRequest{JobID: job.ID.String(), BillNo: "B-2", BillDate: "01/04/2024", BaseAmount: decp("1")}, apperror.CodeValidation},
		{"unknown job", CreateClientBillRequest{JobID: "7f1c9a8e-3a52-4a4b-9d59-8f0c3f1e2b11", BillNo: "B-2", BillDate: "2024-04-01", BaseAmount: decp("1")}, apperror.CodeValidation},
		{"duplicate bill number in job", CreateClientBillRequest{JobID: job.ID.String(), BillNo: "B-1", BillDate: "2024-04-01", BaseAmount: decp("1")}, apperror.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.clientBills.Create(f.ctx, tt.req)
			requireCode(t, err, tt.code)
		})
	}

	// the same number is fine on another job
	other := f.job(t, "J-102")
	f.clientBill(t, other.ID, "B-1", "100", "0")
}

func TestPaymentReceiptNetAmount(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-200")
	f.clientBill(t, job.ID, "B-1", "1000", "180")

	receipt, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
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
	assert.Equal(t, "1180.00", receipt.Gross)
	assert.Equal(t, "120.00", receipt.DeductionTotal)
	assert.Equal(t, "1060.00", receipt.NetAmount)
	require.NotNil(t, receipt.ClientBillID, "bill_no resolves to the bill of the job")
	assert.Len(t, receipt.Deductions, 2)

	loaded, err := f.receipts.Get(f.ctx, receipt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1060.00", loaded.NetAmount)

	// clearing deductions restores the gross amount
	cleared, err := f.receipts.Update(f.ctx, receipt.ID.String(), UpdatePaymentReceiptRequest{Deductions: &[]DeductionPayload{}})
	require.NoError(t, err)
	assert.Equal(t, "1180.00", cleared.NetAmount)
	assert.Empty(t, cleared.Deductions)
}

func TestPaymentReceiptUnknownBillNo(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-201")

	receipt, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:       job.ID.String(),
		BillNo:      "ADV-1",
		PaymentDate: "2024-05-01",
		PaymentMode: model.PaymentModeCheque,
		BaseAmount:  decp("500"),
	})
	require.NoError(t, err)
	assert.Nil(t, receipt.ClientBillID)
	assert.Equal(t, "ADV-1", receipt.BillNo)
}

func TestPaymentReceiptRejectsBillOfOtherJob(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-202")
	other := f.job(t, "J-203")
	bill := f.clientBill(t, other.ID, "B-9", "100", "0")

	_, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:        job.ID.String(),
		ClientBillID: bill.ID.String(),
		PaymentDate:  "2024-05-01",
		PaymentMode:  model.PaymentModeCash,
		BaseAmount:   decp("100"),
	})
	requireCode(t, err, apperror.CodeValidation)
}

func TestPaymentReceiptDeductionValidation(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-204")

	_, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:       job.ID.String(),
		PaymentDate: "2024-05-01",
		PaymentMode: model.PaymentModeCash,
		BaseAmount:  decp("100"),
		Deductions:  []DeductionPayload{{Type: "BRIBE", Amount: dec("1")}},
	})
	appErr := requireCode(t, err, apperror.CodeValidation)
	assert.Contains(t, appErr.Message, "deductions[0].type")

	_, err = f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:       job.ID.String(),
		PaymentDate: "2024-05-01",
		PaymentMode: "BARTER",
		BaseAmount:  decp("100"),
	})
	requireCode(t, err, apperror.CodeValidation)
}

func TestContractorPaymentTakesJobFromBill(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-300")
	other := f.job(t, "J-301")
	contractor := f.contractor(t, "CON-1")
	bill := f.contractorBill(t, job.ID, contractor.ID, "CB-1", "2000", "360")
	assert.Equal(t, "2360.00", bill.Amount)

	payment, err := f.contractorPayments.Create(f.ctx, CreateContractorPaymentRequest{
		ContractorBillID: bill.ID.String(),
		PaymentDate:      "2024-06-01",
		PaymentMode:      model.PaymentModeRTGS,
		BaseAmount:       decp("2360"),
		Deductions:       []DeductionPayload{{Type: model.DeductionSDRetention, Amount: dec("236")}},
	})
	require.NoError(t, err)
	assert.Equal(t, job.ID, payment.JobID)
	assert.Equal(t, contractor.ID, payment.ContractorSupplierID)
	assert.Equal(t, "2124.00", payment.NetAmount)

	_, err = f.contractorPayments.Create(f.ctx, CreateContractorPaymentRequest{
		ContractorBillID: bill.ID.String(),
		JobID:            other.ID.String(),
		PaymentDate:      "2024-06-01",
		PaymentMode:      model.PaymentModeRTGS,
		BaseAmount:       decp("1"),
	})
	appErr := requireCode(t, err, apperror.CodeValidation)
	assert.Contains(t, appErr.Message, "different job")
}

func TestDeleteWithDependents(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-400")
	bill := f.clientBill(t, job.ID, "B-1", "100", "0")
	receipt, err := f.receipts.Create(f.ctx, CreatePaymentReceiptRequest{
		JobID:        job.ID.String(),
		ClientBillID: bill.ID.String(),
		PaymentDate:  "2024-05-01",
		PaymentMode:  model.PaymentModeUPI,
		BaseAmount:   decp("100"),
		Deductions:   []DeductionPayload{{Type: model.DeductionOther, Amount: dec("5")}},
	})
	require.NoError(t, err)

	requireCode(t, f.clientBills.Delete(f.ctx, bill.ID.String()), apperror.CodeValidation)
	requireCode(t, f.jobs.Delete(f.ctx, job.ID.String()), apperror.CodeValidation)
	requireCode(t, f.clients.Delete(f.ctx, job.ClientID.String()), apperror.CodeValidation)

	// receipt and its deductions go together, then the bill is free
	require.NoError(t, f.receipts.Delete(f.ctx, receipt.ID.String()))
	require.NoError(t, f.clientBills.Delete(f.ctx, bill.ID.String()))
	require.NoError(t, f.jobs.Delete(f.ctx, job.ID.String()))

	_, err = f.receipts.Get(f.ctx, receipt.ID.String())
	requireCode(t, err, apperror.CodeNotFound)
	requireCode(t, f.jobs.Delete(f.ctx, job.ID.String()), apperror.CodeNotFound)
}

func TestWritesAreAuditedAndPublished(t *testing.T) {
	f := newFixture(t)
	job := f.job(t, "J-500")
	bill := f.clientBill(t, job.ID, "B-1", "10", "0")
	require.NoError(t, f.clientBills.Delete(f.ctx, bill.ID.String()))

	changes := f.changes.all()
	require.NotEmpty(t, changes)
	last := changes[len(changes)-1]
	assert.Equal(t, model.EntityClientBill, last.Entity)
	assert.Equal(t, model.ActionDelete, last.Action)
	assert.Equal(t, bill.ID, last.ID)

	logs, total, err := f.audit.List(f.ctx, AuditQuery{Entity: model.EntityClientBill, EntityID: bill.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, "site-admin", l.Username)
	}

	// a failed write leaves no audit row and publishes nothing
	before := len(f.changes.all())
	_, err = f.clientBills.Create(f.ctx, CreateClientBillRequest{JobID: job.ID.String(), BillNo: "B-2", BillDate: "2024-01-01", BaseAmount: decp("-5")})
	require.Error(t, err)
	assert.Len(t, f.changes.all(), before)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	a := f.job(t, "J-600")
	b := f.job(t, "J-601")
	f.clientBill(t, a.ID, "A-1", "100", "0")
	f.clientBill(t, a.ID, "A-2", "100", "0")
	f.clientBill(t, b.ID, "B-1", "100", "0")

	bills, total, err := f.clientBills.List(f.ctx, repository.Filter{JobID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, bills, 2)

	bills, total, err = f.clientBills.List(f.ctx, repository.Filter{Search: "B-"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bills, 1)
	assert.Equal(t, b.ID, bills[0].JobID)

	bills, total, err = f.clientBills.List(f.ctx, repository.Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, bills, 1)
}
