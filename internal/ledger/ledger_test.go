package ledger

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBillTotal(t *testing.T) {
	tests := []struct {
		name string
		bill Bill
		want string
	}{
		{"base and gst", Bill{BaseAmount: d("1000"), GST: d("180")}, "1180"},
		{"zero gst", Bill{BaseAmount: d("500")}, "500"},
		{"two decimals", Bill{BaseAmount: d("0.10"), GST: d("0.20")}, "0.30"},
		{"zero value", Bill{}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(BillTotal(tt.bill)), "got %s", BillTotal(tt.bill))
		})
	}
}

func TestNetReceived(t *testing.T) {
	p := Payment{
		BaseAmount: d("1180"),
		GST:        decimal.Zero,
		Deductions: []decimal.Decimal{d("100"), d("20")},
	}
	assert.Equal(t, "1060.00", NetReceived(p).StringFixed(2))

	t.Run("no deductions", func(t *testing.T) {
		assert.Equal(t, "1180.00", NetReceived(Payment{BaseAmount: d("1000"), GST: d("180")}).StringFixed(2))
	})

	t.Run("deductions above gross stay negative", func(t *testing.T) {
		p := Payment{BaseAmount: d("100"), Deductions: []decimal.Decimal{d("150")}}
		assert.Equal(t, "-50.00", NetReceived(p).StringFixed(2))
	})
}

func TestDeductionTotalEmpty(t *testing.T) {
	assert.True(t, DeductionTotal(nil).IsZero())
}

func TestBalanceDue(t *testing.T) {
	bill := Bill{BaseAmount: d("1000"), GST: d("180")}

	assert.Equal(t, "1180.00", BalanceDue(bill, nil).StringFixed(2))

	paid := []Payment{{BaseAmount: d("1180"), Deductions: []decimal.Decimal{d("100"), d("20")}}}
	assert.Equal(t, "120.00", BalanceDue(bill, paid).StringFixed(2))

	overpaid := []Payment{{BaseAmount: d("1500")}}
	assert.Equal(t, "-320.00", BalanceDue(bill, overpaid).StringFixed(2))
}

func TestJobBalanceDue(t *testing.T) {
	bills := []Bill{
		{BaseAmount: d("1000"), GST: d("180")},
		{BaseAmount: d("500")},
	}
	payments := []Payment{
		{BaseAmount: d("1180"), Deductions: []decimal.Decimal{d("100"), d("20")}},
	}

	got := JobBalanceDue(bills, payments)
	assert.Equal(t, "620.00", got.StringFixed(2))

	// per-bill balances add up to the job balance
	perBill := BalanceDue(bills[0], payments).Add(BalanceDue(bills[1], nil))
	assert.True(t, got.Equal(perBill))
}

func TestValidateRefund(t *testing.T) {
	existing := uuid.New()
	expense := Expense{
		Amount:  d("5000"),
		Refunds: []Refund{{ID: existing, Amount: d("2000")}},
	}

	require.NoError(t, ValidateRefund(expense, d("3000"), uuid.Nil), "refunds may reach the expense amount")

	err := ValidateRefund(expense, d("3001"), uuid.Nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefundExceedsExpense)
	assert.Contains(t, err.Error(), "remaining 3000.00")
}

func TestValidateRefundExcludesEditedRefund(t *testing.T) {
	edited := uuid.New()
	expense := Expense{
		Amount: d("5000"),
		Refunds: []Refund{
			{ID: uuid.New(), Amount: d("3000")},
			{ID: edited, Amount: d("1000")},
		},
	}

	assert.NoError(t, ValidateRefund(expense, d("1999"), edited))
	assert.ErrorIs(t, ValidateRefund(expense, d("2001"), edited), ErrRefundExceedsExpense)

	// without the exclusion the current 1000 would be counted twice
	assert.Error(t, ValidateRefund(expense, d("1999"), uuid.Nil))
}

func TestNetExpense(t *testing.T) {
	e := Expense{Amount: d("5000"), Refunds: []Refund{{ID: uuid.New(), Amount: d("1250.50")}}}
	assert.Equal(t, "1250.50", RefundTotal(e, uuid.Nil).StringFixed(2))
	assert.Equal(t, "3749.50", NetExpense(e).StringFixed(2))
	assert.Equal(t, "5000.00", NetExpense(Expense{Amount: d("5000")}).StringFixed(2))
}

func TestSummaryTotalsEmpty(t *testing.T) {
	totals := SummaryTotals(nil)
	assert.True(t, totals.AmountPaid.IsZero())
	assert.True(t, totals.BalanceDue.IsZero())
	assert.True(t, totals.BillTotal.IsZero())
}

// Totals over any sublist equal the sum of the rows shown, and no drift appears
// for two-decimal inputs.
func TestSummaryTotalsMatchesRows(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cents := func() decimal.Decimal { return decimal.New(rng.Int63n(1_000_000), -2) }

	rows := make([]Row, 0, 200)
	for i := 0; i < 200; i++ {
		bill := Bill{BaseAmount: cents(), GST: cents()}
		var payments []Payment
		n := rng.Intn(3)
		for j := 0; j < n; j++ {
			payments = append(payments, Payment{
				BaseAmount: cents(),
				GST:        cents(),
				Deductions: []decimal.Decimal{cents()},
			})
		}
		rows = append(rows, NewRow([]Bill{bill}, payments))

		assert.True(t, BillTotal(bill).Equal(bill.BaseAmount.Add(bill.GST)))
		assert.True(t, BillTotal(bill).Equal(Round(BillTotal(bill))), "no rounding drift")
	}

	for _, sub := range [][]Row{rows, rows[:1], rows[17:93], rows[:0]} {
		paid, due := decimal.Zero, decimal.Zero
		for _, r := range sub {
			paid = paid.Add(r.AmountPaid)
			due = due.Add(r.BalanceDue)
		}
		totals := SummaryTotals(sub)
		assert.True(t, paid.Equal(totals.AmountPaid))
		assert.True(t, due.Equal(totals.BalanceDue))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, "2.35", Round(d("2.345")).String())
	assert.Equal(t, "-2.35", Round(d("-2.345")).String())
	assert.Equal(t, "2.34", Round(d("2.344")).String())
}
