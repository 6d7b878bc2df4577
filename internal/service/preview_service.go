package service

import (
	"context"

	"sitebooks/internal/apperror"
	"sitebooks/internal/ledger"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreviewRequest carries an unsaved form. Every field is optional; missing
// amounts count as zero.
type PreviewRequest struct {
	BaseAmount    decimal.Decimal    `json:"base_amount" swaggertype:"string"`
	GST           decimal.Decimal    `json:"gst" swaggertype:"string"`
	Deductions    []DeductionPayload `json:"deductions"`
	SiteExpenseID string             `json:"site_expense_id"`
	RefundID      string             `json:"refund_id"` // refund being edited, if any
	RefundAmount  decimal.Decimal    `json:"refund_amount" swaggertype:"string"`
}

type RefundPreview struct {
	ExpenseAmount string `json:"expense_amount"`
	RefundTotal   string `json:"refund_total"`
	Remaining     string `json:"remaining"`
	Valid         bool   `json:"valid"`
	Message       string `json:"message,omitempty"`
}

type PreviewResponse struct {
	BillTotal      string         `json:"bill_total"`
	DeductionTotal string         `json:"deduction_total"`
	NetAmount      string         `json:"net_amount"`
	Refund         *RefundPreview `json:"refund,omitempty"`
}

type PreviewService interface {
	Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error)
}

type previewService struct {
	expenseRepo repository.SiteExpenseRepository
}

func NewPreviewService(expenseRepo repository.SiteExpenseRepository) PreviewService {
	return &previewService{expenseRepo: expenseRepo}
}

// Preview computes the figures a form would be saved with. It never writes.
func (s *previewService) Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	base, err := amount("base_amount", req.BaseAmount)
	if err != nil {
		return PreviewResponse{}, err
	}
	gst, err := amount("gst", req.GST)
	if err != nil {
		return PreviewResponse{}, err
	}
	deductions, err := toDeductionModels(req.Deductions)
	if err != nil {
		return PreviewResponse{}, err
	}

	payment := ledger.Payment{BaseAmount: base, GST: gst}
	for _, d := range deductions {
		payment.Deductions = append(payment.Deductions, d.Amount)
	}
	res := PreviewResponse{
		BillTotal:      money(ledger.BillTotal(ledger.Bill{BaseAmount: base, GST: gst})),
		DeductionTotal: money(ledger.DeductionTotal(payment.Deductions)),
		NetAmount:      money(ledger.NetReceived(payment)),
	}

	expenseID, err := parseOptionalID("site_expense_id", req.SiteExpenseID)
	if err != nil || expenseID == nil {
		return res, err
	}
	refundID, err := parseOptionalID("refund_id", req.RefundID)
	if err != nil {
		return PreviewResponse{}, err
	}
	candidate, err := amount("refund_amount", req.RefundAmount)
	if err != nil {
		return PreviewResponse{}, err
	}

	expense, err := reference(ctx, s.expenseRepo.FindByID, "site_expense_id", *expenseID)
	if err != nil {
		return PreviewResponse{}, err
	}
	excluding := uuid.Nil
	if refundID != nil {
		excluding = *refundID
	}
	exp := expense.Ledger()
	others := ledger.RefundTotal(exp, excluding)
	preview := &RefundPreview{
		ExpenseAmount: money(exp.Amount),
		RefundTotal:   money(others),
		Remaining:     money(exp.Amount.Sub(others)),
		Valid:         true,
	}
	if err := checkRefund(*expense, candidate, excluding); err != nil {
		appErr, ok := apperror.As(err)
		if !ok {
			return PreviewResponse{}, apperror.Internal(err)
		}
		preview.Valid = false
		preview.Message = appErr.Message
	}
	res.Refund = preview
	return res, nil
}
