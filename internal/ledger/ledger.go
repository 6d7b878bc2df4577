// Package ledger derives bill totals, net payments, balances and refund limits.
//
// Every figure shown by the payment-status, summary and preview endpoints is
// computed here. Functions are pure: they never touch the store and never fail,
// except ValidateRefund which is the one rule that rejects input.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places money is rounded to at the API boundary.
const Places = 2

// ErrRefundExceedsExpense is returned when refunds would add up to more than the
// expense they belong to.
var ErrRefundExceedsExpense = errors.New("refund exceeds remaining expense amount")

// Bill is the taxable part of a client or contractor bill.
type Bill struct {
	BaseAmount decimal.Decimal
	GST        decimal.Decimal
}

// Payment is a receipt from a client or a payment to a contractor.
type Payment struct {
	BaseAmount decimal.Decimal
	GST        decimal.Decimal
	Deductions []decimal.Decimal
}

// Refund is a partial return against a site expense.
type Refund struct {
	ID     uuid.UUID
	Amount decimal.Decimal
}

// Expense is a site expense together with its refunds.
type Expense struct {
	Amount  decimal.Decimal
	Refunds []Refund
}

// Row is one line of a payment-status report.
type Row struct {
	BillTotal  decimal.Decimal
	AmountPaid decimal.Decimal
	BalanceDue decimal.Decimal
}

// Totals aggregates a list of rows.
type Totals struct {
	BillTotal  decimal.Decimal
	AmountPaid decimal.Decimal
	BalanceDue decimal.Decimal
}

// Round rounds half away from zero to Places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// BillTotal is base amount plus GST.
func BillTotal(b Bill) decimal.Decimal {
	return b.BaseAmount.Add(b.GST)
}

// DeductionTotal sums deduction amounts. Deduction types never matter here.
func DeductionTotal(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// NetReceived is the gross payment less its deductions. It is not clamped and
// goes negative when deductions exceed the gross amount.
func NetReceived(p Payment) decimal.Decimal {
	return p.BaseAmount.Add(p.GST).Sub(DeductionTotal(p.Deductions))
}

// AmountPaid sums NetReceived over payments. Callers pass the payments of a
// single bill for bill-level figures or of a whole job for job-level figures.
func AmountPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(NetReceived(p))
	}
	return total
}

// BalanceDue is the bill total less what has been paid against it. Overpayment
// yields a negative balance.
func BalanceDue(b Bill, payments []Payment) decimal.Decimal {
	return BillTotal(b).Sub(AmountPaid(payments))
}

// JobBalanceDue is the balance across every bill of a job and every payment
// recorded for that job, including payments not tied to a bill.
func JobBalanceDue(bills []Bill, payments []Payment) decimal.Decimal {
	billed := decimal.Zero
	for _, b := range bills {
		billed = billed.Add(BillTotal(b))
	}
	return billed.Sub(AmountPaid(payments))
}

// RefundTotal sums the refunds of an expense, skipping the refund with id
// excluding. Pass uuid.Nil to include all of them.
func RefundTotal(e Expense, excluding uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, r := range e.Refunds {
		if excluding != uuid.Nil && r.ID == excluding {
			continue
		}
		total = total.Add(r.Amount)
	}
	return total
}

// NetExpense is the expense amount less all refunds.
func NetExpense(e Expense) decimal.Decimal {
	return e.Amount.Sub(RefundTotal(e, uuid.Nil))
}

// ValidateRefund reports whether a refund of candidate can be recorded against e.
// When editing an existing refund pass its id as excluding so its current amount
// is not counted twice. Refunds may add up to exactly the expense amount.
func ValidateRefund(e Expense, candidate decimal.Decimal, excluding uuid.UUID) error {
	others := RefundTotal(e, excluding)
	if others.Add(candidate).GreaterThan(e.Amount) {
		remaining := e.Amount.Sub(others)
		return fmt.Errorf("%w: requested %s, remaining %s",
			ErrRefundExceedsExpense, candidate.StringFixed(Places), remaining.StringFixed(Places))
	}
	return nil
}

// NewRow builds a status row for a group of bills (one bill, a job, a contractor)
// and the payments counted against that group.
func NewRow(bills []Bill, paid []Payment) Row {
	billed := decimal.Zero
	for _, b := range bills {
		billed = billed.Add(BillTotal(b))
	}
	return Row{
		BillTotal:  billed,
		AmountPaid: AmountPaid(paid),
		BalanceDue: JobBalanceDue(bills, paid),
	}
}

// SummaryTotals adds up rows element-wise. An empty list gives zero totals.
func SummaryTotals(rows []Row) Totals {
	t := Totals{BillTotal: decimal.Zero, AmountPaid: decimal.Zero, BalanceDue: decimal.Zero}
	for _, r := range rows {
		t.BillTotal = t.BillTotal.Add(r.BillTotal)
		t.AmountPaid = t.AmountPaid.Add(r.AmountPaid)
		t.BalanceDue = t.BalanceDue.Add(r.BalanceDue)
	}
	return t
}
