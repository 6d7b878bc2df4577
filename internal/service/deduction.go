package service

import (
	"fmt"

	"sitebooks/internal/ledger"
	"sitebooks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeductionPayload struct {
	Type    string          `json:"type"`
	Amount  decimal.Decimal `json:"amount" swaggertype:"string"`
	Remarks string          `json:"remarks"`
}

type DeductionResponse struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	Amount  string    `json:"amount"`
	Remarks string    `json:"remarks"`
}

var deductionTypes = []string{
	model.DeductionITTDS,
	model.DeductionGSTTDS,
	model.DeductionSDRetention,
	model.DeductionOther,
}

var paymentModes = []string{
	model.PaymentModeCash,
	model.PaymentModeCheque,
	model.PaymentModeNEFT,
	model.PaymentModeRTGS,
	model.PaymentModeUPI,
	model.PaymentModeOther,
}

func toDeductionModels(payloads []DeductionPayload) ([]model.Deduction, error) {
	deductions := make([]model.Deduction, 0, len(payloads))
	for i, p := range payloads {
		if err := oneOf(fmt.Sprintf("deductions[%d].type", i), p.Type, deductionTypes...); err != nil {
			return nil, err
		}
		amt, err := amount(fmt.Sprintf("deductions[%d].amount", i), p.Amount)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, model.Deduction{Type: p.Type, Amount: amt, Remarks: p.Remarks})
	}
	return deductions, nil
}

func toDeductionResponses(ds []model.Deduction) []DeductionResponse {
	return mapAll(ds, func(d model.Deduction) DeductionResponse {
		return DeductionResponse{ID: d.ID, Type: d.Type, Amount: money(d.Amount), Remarks: d.Remarks}
	})
}

// paymentFigures are the derived amounts shown with every receipt and contractor payment.
type paymentFigures struct {
	Gross          string `json:"gross_amount"`
	DeductionTotal string `json:"deduction_total"`
	NetAmount      string `json:"net_amount"`
}

func figuresOf(p ledger.Payment) paymentFigures {
	return paymentFigures{
		Gross:          money(p.BaseAmount.Add(p.GST)),
		DeductionTotal: money(ledger.DeductionTotal(p.Deductions)),
		NetAmount:      money(ledger.NetReceived(p)),
	}
}
