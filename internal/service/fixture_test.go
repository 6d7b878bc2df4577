package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"
	"sitebooks/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = time.Minute

// changeLog collects published changes.
type changeLog struct {
	mu      sync.Mutex
	changes []model.Change
}

func (l *changeLog) Publish(c model.Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, c)
}

func (l *changeLog) all() []model.Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Change(nil), l.changes...)
}

type fixture struct {
	ctx     context.Context
	changes *changeLog

	companies          CompanyService
	clients            ClientService
	jobs               JobService
	contractors        ContractorSupplierService
	materials          MaterialCodeService
	clientBills        ClientBillService
	receipts           PaymentReceiptService
	contractorBills    ContractorBillService
	contractorPayments ContractorPaymentService
	expenses           SiteExpenseService
	refunds            SiteExpenseRefundService
	enquiries          EnquiryService
	status             StatusService
	preview            PreviewService
	audit              AuditService
	users              UserService
	auth               AuthService
	tokens             *TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	tx := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	clientRepo := repository.NewClientRepository(db)
	jobRepo := repository.NewJobRepository(db)
	contractorRepo := repository.NewContractorSupplierRepository(db)
	materialRepo := repository.NewMaterialCodeRepository(db)
	clientBillRepo := repository.NewClientBillRepository(db)
	receiptRepo := repository.NewPaymentReceiptRepository(db)
	contractorBillRepo := repository.NewContractorBillRepository(db)
	contractorPaymentRepo := repository.NewContractorPaymentRepository(db)
	deductionRepo := repository.NewDeductionRepository(db)
	expenseRepo := repository.NewSiteExpenseRepository(db)
	refundRepo := repository.NewSiteExpenseRefundRepository(db)
	enquiryRepo := repository.NewSiteExpenseEnquiryRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	changes := &changeLog{}
	tokens := NewTokenManager("fixture-secret", testTTL, 10*testTTL)
	actor := Actor{ID: uuid.New(), Username: "site-admin", Role: model.RoleAdmin}

	return &fixture{
		ctx:                WithActor(context.Background(), actor),
		changes:            changes,
		companies:          NewCompanyService(companyRepo, tx, auditRepo, changes),
		clients:            NewClientService(clientRepo, tx, auditRepo, changes),
		jobs:               NewJobService(jobRepo, clientRepo, companyRepo, tx, auditRepo, changes),
		contractors:        NewContractorSupplierService(contractorRepo, tx, auditRepo, changes),
		materials:          NewMaterialCodeService(materialRepo, tx, auditRepo, changes),
		clientBills:        NewClientBillService(clientBillRepo, jobRepo, tx, auditRepo, changes),
		receipts:           NewPaymentReceiptService(receiptRepo, jobRepo, clientBillRepo, deductionRepo, tx, auditRepo, changes),
		contractorBills:    NewContractorBillService(contractorBillRepo, jobRepo, contractorRepo, materialRepo, tx, auditRepo, changes),
		contractorPayments: NewContractorPaymentService(contractorPaymentRepo, contractorBillRepo, deductionRepo, tx, auditRepo, changes),
		expenses:           NewSiteExpenseService(expenseRepo, refundRepo, jobRepo, tx, auditRepo, changes),
		refunds:            NewSiteExpenseRefundService(refundRepo, expenseRepo, tx, auditRepo, changes),
		enquiries:          NewEnquiryService(enquiryRepo, jobRepo, expenseRepo, tx, auditRepo, changes),
		status:             NewStatusService(clientBillRepo, receiptRepo, contractorBillRepo, contractorPaymentRepo),
		preview:            NewPreviewService(expenseRepo),
		audit:              NewAuditService(auditRepo),
		users:              NewUserService(userRepo, tokenRepo, tx, auditRepo),
		auth:               NewAuthService(userRepo, tokenRepo, tx, auditRepo, tokens),
		tokens:             tokens,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strp(s string) *string {
	return &s
}

// job creates a company, a client and a job for them.
func (f *fixture) job(t *testing.T, jobNo string) JobResponse {
	t.Helper()
	company, err := f.companies.Create(f.ctx, CreateCompanyRequest{Name: "Sree Builders", Code: "CO-" + jobNo})
	require.NoError(t, err)
	client, err := f.clients.Create(f.ctx, CreateClientRequest{Name: "Metro Rail " + jobNo, Code: "CL-" + jobNo})
	require.NoError(t, err)
	job, err := f.jobs.Create(f.ctx, CreateJobRequest{
		JobNo:     jobNo,
		Site:      "Site " + jobNo,
		ClientID:  client.ID.String(),
		CompanyID: company.ID.String(),
	})
	require.NoError(t, err)
	return job
}

func (f *fixture) clientBill(t *testing.T, jobID uuid.UUID, billNo, base, gst string) ClientBillResponse {
	t.Helper()
	bill, err := f.clientBills.Create(f.ctx, CreateClientBillRequest{
		JobID:      jobID.String(),
		BillNo:     billNo,
		BillDate:   "2024-04-01",
		BaseAmount: decp(base),
		GST:        dec(gst),
	})
	require.NoError(t, err)
	return bill
}

func (f *fixture) expense(t *testing.T, jobID uuid.UUID, amount string) SiteExpenseResponse {
	t.Helper()
	e, err := f.expenses.Create(f.ctx, CreateSiteExpenseRequest{
		JobID:       jobID.String(),
		SiteID:      "S-1",
		PaymentDate: "2024-04-02",
		PaidTo:      "Hardware store",
		Amount:      decp(amount),
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) contractorBill(t *testing.T, jobID, contractorID uuid.UUID, billNo, base, gst string) ContractorBillResponse {
	t.Helper()
	bill, err := f.contractorBills.Create(f.ctx, CreateContractorBillRequest{
		JobID:                jobID.String(),
		ContractorSupplierID: contractorID.String(),
		BillNo:               billNo,
		BillDate:             "2024-04-03",
		BaseAmount:           decp(base),
		GST:                  dec(gst),
	})
	require.NoError(t, err)
	return bill
}

func (f *fixture) contractor(t *testing.T, code string) ContractorSupplierResponse {
	t.Helper()
	c, err := f.contractors.Create(f.ctx, CreateContractorSupplierRequest{Name: "Contractor " + code, Code: code})
	require.NoError(t, err)
	return c
}

// requireCode asserts err is an AppError with the given code.
func requireCode(t *testing.T, err error, code string) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}
