package service

import (
	"context"
	"sort"
	"strconv"

	"sitebooks/internal/apperror"
	"sitebooks/internal/export"
	"sitebooks/internal/ledger"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
)

const (
	GroupByBill       = "bill"
	GroupByJob        = "job"
	GroupByContractor = "contractor"
)

// StatusRow is one line of a payment-status report. Which identifying fields
// are filled depends on the grouping.
type StatusRow struct {
	BillID         *uuid.UUID `json:"bill_id,omitempty"`
	BillNo         string     `json:"bill_no,omitempty"`
	BillDate       string     `json:"bill_date,omitempty"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
	JobNo          string     `json:"job_no,omitempty"`
	ClientName     string     `json:"client_name,omitempty"`
	ContractorID   *uuid.UUID `json:"contractor_id,omitempty"`
	ContractorName string     `json:"contractor_name,omitempty"`
	BillCount      int        `json:"bill_count"`
	PaymentCount   int        `json:"payment_count"`
	BillTotal      string     `json:"bill_total"`
	AmountPaid     string     `json:"amount_paid"`
	BalanceDue     string     `json:"balance_due"`
}

type StatusTotals struct {
	BillTotal  string `json:"bill_total"`
	AmountPaid string `json:"amount_paid"`
	BalanceDue string `json:"balance_due"`
}

type StatusReport struct {
	Kind    string       `json:"kind"`
	GroupBy string       `json:"group_by"`
	Rows    []StatusRow  `json:"rows"`
	Totals  StatusTotals `json:"totals"`
}

type StatusService interface {
	ClientStatus(ctx context.Context, groupBy string, f repository.Filter) (StatusReport, error)
	ContractorStatus(ctx context.Context, groupBy string, f repository.Filter) (StatusReport, error)
}

type statusService struct {
	clientBills        repository.ClientBillRepository
	receipts           repository.PaymentReceiptRepository
	contractorBills    repository.ContractorBillRepository
	contractorPayments repository.ContractorPaymentRepository
}

func NewStatusService(
	clientBills repository.ClientBillRepository,
	receipts repository.PaymentReceiptRepository,
	contractorBills repository.ContractorBillRepository,
	contractorPayments repository.ContractorPaymentRepository,
) StatusService {
	return &statusService{
		clientBills:        clientBills,
		receipts:           receipts,
		contractorBills:    contractorBills,
		contractorPayments: contractorPayments,
	}
}

// group collects the bills and payments behind one report row.
type group struct {
	row      StatusRow
	bills    []ledger.Bill
	payments []ledger.Payment
}

// ClientStatus reports what clients owe. Bills are selected by the filter
// (dates apply to bill_date). A bill row counts the receipts linked to that
// bill; a job row counts every receipt of the job, linked or not.
func (s *statusService) ClientStatus(ctx context.Context, groupBy string, f repository.Filter) (StatusReport, error) {
	if groupBy == "" {
		groupBy = GroupByBill
	}
	if err := oneOf("group_by", groupBy, GroupByBill, GroupByJob); err != nil {
		return StatusReport{}, err
	}

	f.Page, f.Limit = 0, 0
	bills, _, err := s.clientBills.List(ctx, f)
	if err != nil {
		return StatusReport{}, apperror.Internal(err)
	}

	var groups []*group
	switch groupBy {
	case GroupByBill:
		receipts, err := s.receipts.ListByBills(ctx, idsOf(bills, func(b model.ClientBill) uuid.UUID { return b.ID }))
		if err != nil {
			return StatusReport{}, apperror.Internal(err)
		}
		byBill := make(map[uuid.UUID][]ledger.Payment)
		for _, r := range receipts {
			if r.ClientBillID != nil {
				byBill[*r.ClientBillID] = append(byBill[*r.ClientBillID], r.Ledger())
			}
		}
		for _, b := range bills {
			g := &group{row: StatusRow{BillID: &b.ID, BillNo: b.BillNo, BillDate: formatDate(b.BillDate), JobID: &b.JobID}}
			fillJob(&g.row, b.Job, b.Client)
			g.bills = []ledger.Bill{b.Ledger()}
			g.payments = byBill[b.ID]
			groups = append(groups, g)
		}

	case GroupByJob:
		index := make(map[uuid.UUID]*group)
		for _, b := range bills {
			g, ok := index[b.JobID]
			if !ok {
				g = &group{row: StatusRow{JobID: &b.JobID}}
				fillJob(&g.row, b.Job, b.Client)
				index[b.JobID] = g
				groups = append(groups, g)
			}
			g.bills = append(g.bills, b.Ledger())
		}
		receipts, err := s.receipts.ListByJobs(ctx, keysOf(index))
		if err != nil {
			return StatusReport{}, apperror.Internal(err)
		}
		for _, r := range receipts {
			if g, ok := index[r.JobID]; ok {
				g.payments = append(g.payments, r.Ledger())
			}
		}
		sortByJob(groups)
	}

	return buildReport("client", groupBy, groups), nil
}

// ContractorStatus reports what is owed to contractors. Job and contractor rows
// count the payments of that job or contractor; when the filter also narrows
// the other dimension the payments are narrowed the same way.
func (s *statusService) ContractorStatus(ctx context.Context, groupBy string, f repository.Filter) (StatusReport, error) {
	if groupBy == "" {
		groupBy = GroupByBill
	}
	if err := oneOf("group_by", groupBy, GroupByBill, GroupByJob, GroupByContractor); err != nil {
		return StatusReport{}, err
	}

	f.Page, f.Limit = 0, 0
	bills, _, err := s.contractorBills.List(ctx, f)
	if err != nil {
		return StatusReport{}, apperror.Internal(err)
	}

	var (
		groups   []*group
		index    = make(map[uuid.UUID]*group)
		payments []model.ContractorPayment
		keyOf    func(p model.ContractorPayment) uuid.UUID
	)

	switch groupBy {
	case GroupByBill:
		for _, b := range bills {
			g := &group{row: StatusRow{BillID: &b.ID, BillNo: b.BillNo, BillDate: formatDate(b.BillDate), JobID: &b.JobID}}
			fillJob(&g.row, b.Job, b.Client)
			fillContractor(&g.row, b.ContractorSupplierID, b.ContractorSupplier)
			g.bills = []ledger.Bill{b.Ledger()}
			index[b.ID] = g
			groups = append(groups, g)
		}
		payments, err = s.contractorPayments.ListByBills(ctx, keysOf(index))
		keyOf = func(p model.ContractorPayment) uuid.UUID { return p.ContractorBillID }

	case GroupByJob:
		for _, b := range bills {
			g, ok := index[b.JobID]
			if !ok {
				g = &group{row: StatusRow{JobID: &b.JobID}}
				fillJob(&g.row, b.Job, b.Client)
				index[b.JobID] = g
				groups = append(groups, g)
			}
			g.bills = append(g.bills, b.Ledger())
		}
		payments, err = s.contractorPayments.ListByJobs(ctx, keysOf(index))
		keyOf = func(p model.ContractorPayment) uuid.UUID { return p.JobID }
		if f.ContractorID != nil {
			payments = filterPayments(payments, func(p model.ContractorPayment) bool {
				return p.ContractorSupplierID == *f.ContractorID
			})
		}
		sortByJob(groups)

	case GroupByContractor:
		jobs := make(map[uuid.UUID]bool)
		for _, b := range bills {
			jobs[b.JobID] = true
			g, ok := index[b.ContractorSupplierID]
			if !ok {
				g = &group{}
				fillContractor(&g.row, b.ContractorSupplierID, b.ContractorSupplier)
				index[b.ContractorSupplierID] = g
				groups = append(groups, g)
			}
			g.bills = append(g.bills, b.Ledger())
		}
		payments, err = s.contractorPayments.ListByContractors(ctx, keysOf(index))
		keyOf = func(p model.ContractorPayment) uuid.UUID { return p.ContractorSupplierID }
		if f.JobID != nil || f.ClientID != nil || f.CompanyID != nil {
			payments = filterPayments(payments, func(p model.ContractorPayment) bool { return jobs[p.JobID] })
		}
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].row.ContractorName < groups[j].row.ContractorName })
	}
	if err != nil {
		return StatusReport{}, apperror.Internal(err)
	}

	for _, p := range payments {
		if g, ok := index[keyOf(p)]; ok {
			g.payments = append(g.payments, p.Ledger())
		}
	}
	return buildReport("contractor", groupBy, groups), nil
}

func buildReport(kind, groupBy string, groups []*group) StatusReport {
	report := StatusReport{Kind: kind, GroupBy: groupBy, Rows: make([]StatusRow, 0, len(groups))}
	rows := make([]ledger.Row, 0, len(groups))
	for _, g := range groups {
		r := ledger.NewRow(g.bills, g.payments)
		rows = append(rows, r)

		g.row.BillCount = len(g.bills)
		g.row.PaymentCount = len(g.payments)
		g.row.BillTotal = money(r.BillTotal)
		g.row.AmountPaid = money(r.AmountPaid)
		g.row.BalanceDue = money(r.BalanceDue)
		report.Rows = append(report.Rows, g.row)
	}
	totals := ledger.SummaryTotals(rows)
	report.Totals = StatusTotals{
		BillTotal:  money(totals.BillTotal),
		AmountPaid: money(totals.AmountPaid),
		BalanceDue: money(totals.BalanceDue),
	}
	return report
}

// Table renders the report for export.
func (r StatusReport) Table() export.Table {
	var (
		headers []string
		cells   func(StatusRow) []string
	)
	switch r.GroupBy {
	case GroupByJob:
		headers = []string{"Job No", "Client", "Bills", "Payments"}
		cells = func(row StatusRow) []string {
			return []string{row.JobNo, row.ClientName, strconv.Itoa(row.BillCount), strconv.Itoa(row.PaymentCount)}
		}
	case GroupByContractor:
		headers = []string{"Contractor", "Bills", "Payments"}
		cells = func(row StatusRow) []string {
			return []string{row.ContractorName, strconv.Itoa(row.BillCount), strconv.Itoa(row.PaymentCount)}
		}
	default:
		headers = []string{"Bill No", "Bill Date", "Job No", "Client"}
		if r.Kind == "contractor" {
			headers = append(headers, "Contractor")
		}
		cells = func(row StatusRow) []string {
			out := []string{row.BillNo, row.BillDate, row.JobNo, row.ClientName}
			if r.Kind == "contractor" {
				out = append(out, row.ContractorName)
			}
			return out
		}
	}

	lead := len(headers)
	t := export.Table{
		Title:   "Client payment status",
		Headers: append(headers, "Bill Total", "Amount Paid", "Balance Due"),
		Rows:    make([][]string, 0, len(r.Rows)),
		Money:   []int{lead, lead + 1, lead + 2},
	}
	if r.Kind == "contractor" {
		t.Title = "Contractor payment status"
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, append(cells(row), row.BillTotal, row.AmountPaid, row.BalanceDue))
	}
	t.Footer = make([]string, lead, lead+3)
	t.Footer[0] = "Total"
	t.Footer = append(t.Footer, r.Totals.BillTotal, r.Totals.AmountPaid, r.Totals.BalanceDue)
	return t
}

func fillJob(row *StatusRow, job *model.Job, client *model.Client) {
	if job != nil {
		row.JobNo = job.JobNo
	}
	if client != nil {
		row.ClientName = client.Name
	}
}

func fillContractor(row *StatusRow, id uuid.UUID, c *model.ContractorSupplier) {
	row.ContractorID = &id
	if c != nil {
		row.ContractorName = c.Name
	}
}

func sortByJob(groups []*group) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].row.JobNo < groups[j].row.JobNo })
}

func filterPayments(payments []model.ContractorPayment, keep func(model.ContractorPayment) bool) []model.ContractorPayment {
	out := payments[:0]
	for _, p := range payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func idsOf[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func keysOf(index map[uuid.UUID]*group) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(index))
	for id := range index {
		out = append(out, id)
	}
	return out
}
