package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sitebooks/internal/ledger"
)

const (
	PaymentModeCash   = "CASH"
	PaymentModeCheque = "CHEQUE"
	PaymentModeNEFT   = "NEFT"
	PaymentModeRTGS   = "RTGS"
	PaymentModeUPI    = "UPI"
	PaymentModeOther  = "OTHER"
)

const (
	DeductionITTDS       = "IT_TDS"
	DeductionGSTTDS      = "GST_TDS"
	DeductionSDRetention = "SD_RETENTION"
	DeductionOther       = "OTHER"
)

// ClientBill is a bill raised on the client for work done on a job.
// Amount always equals BaseAmount + GST.
type ClientBill struct {
	Base
	JobID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_client_bills_job_bill_no" json:"job_id"`
	Job        *Job            `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ClientID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client     *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	BillNo     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_client_bills_job_bill_no" json:"bill_no"`
	BillDate   time.Time       `gorm:"type:date;not null;index" json:"bill_date"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"base_amount"`
	GST        decimal.Decimal `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Remarks    string          `gorm:"type:text" json:"remarks"`
}

func (b ClientBill) Ledger() ledger.Bill {
	return ledger.Bill{BaseAmount: b.BaseAmount, GST: b.GST}
}

// PaymentReceipt is money received from the client against a job, optionally
// tied to one of its bills.
type PaymentReceipt struct {
	Base
	JobID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	Job          *Job            `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client       *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ClientBillID *uuid.UUID      `gorm:"type:uuid;index" json:"client_bill_id"`
	ClientBill   *ClientBill     `gorm:"foreignKey:ClientBillID" json:"client_bill,omitempty"`
	BillNo       string          `gorm:"type:varchar(50)" json:"bill_no"`
	PaymentDate  time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	PaymentMode  string          `gorm:"type:varchar(20);not null" json:"payment_mode"`
	ReferenceNo  string          `gorm:"type:varchar(100)" json:"reference_no"`
	BaseAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"base_amount"`
	GST          decimal.Decimal `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	Remarks      string          `gorm:"type:text" json:"remarks"`
	Deductions   []Deduction     `gorm:"foreignKey:PaymentReceiptID" json:"deductions"`
}

func (p PaymentReceipt) Ledger() ledger.Payment {
	return ledger.Payment{BaseAmount: p.BaseAmount, GST: p.GST, Deductions: deductionAmounts(p.Deductions)}
}

// Deduction is withheld from a receipt or a contractor payment. Exactly one of
// the two owner ids is set.
type Deduction struct {
	Base
	PaymentReceiptID    *uuid.UUID      `gorm:"type:uuid;index" json:"payment_receipt_id,omitempty"`
	ContractorPaymentID *uuid.UUID      `gorm:"type:uuid;index" json:"contractor_payment_id,omitempty"`
	Type                string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Remarks             string          `gorm:"type:text" json:"remarks"`
}

func deductionAmounts(ds []Deduction) []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(ds))
	for _, d := range ds {
		amounts = append(amounts, d.Amount)
	}
	return amounts
}

// ContractorBill is a bill received from a contractor or supplier for a job.
// ClientID is taken from the job.
type ContractorBill struct {
	Base
	JobID                uuid.UUID           `gorm:"type:uuid;not null;index" json:"job_id"`
	Job                  *Job                `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ClientID             uuid.UUID           `gorm:"type:uuid;not null;index" json:"client_id"`
	Client               *Client             `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ContractorSupplierID uuid.UUID           `gorm:"type:uuid;not null;index" json:"contractor_supplier_id"`
	ContractorSupplier   *ContractorSupplier `gorm:"foreignKey:ContractorSupplierID" json:"contractor_supplier,omitempty"`
	MaterialCodeID       *uuid.UUID          `gorm:"type:uuid;index" json:"material_code_id"`
	MaterialCode         *MaterialCode       `gorm:"foreignKey:MaterialCodeID" json:"material_code,omitempty"`
	BillNo               string              `gorm:"type:varchar(50);not null" json:"bill_no"`
	BillDate             time.Time           `gorm:"type:date;not null;index" json:"bill_date"`
	BaseAmount           decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"base_amount"`
	GST                  decimal.Decimal     `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	Amount               decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	Remarks              string              `gorm:"type:text" json:"remarks"`
}

func (b ContractorBill) Ledger() ledger.Bill {
	return ledger.Bill{BaseAmount: b.BaseAmount, GST: b.GST}
}

// ContractorPayment settles a contractor bill. Job and contractor always match
// the bill's.
type ContractorPayment struct {
	Base
	JobID                uuid.UUID           `gorm:"type:uuid;not null;index" json:"job_id"`
	Job                  *Job                `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ContractorBillID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"contractor_bill_id"`
	ContractorBill       *ContractorBill     `gorm:"foreignKey:ContractorBillID" json:"contractor_bill,omitempty"`
	ContractorSupplierID uuid.UUID           `gorm:"type:uuid;not null;index" json:"contractor_supplier_id"`
	ContractorSupplier   *ContractorSupplier `gorm:"foreignKey:ContractorSupplierID" json:"contractor_supplier,omitempty"`
	PaymentDate          time.Time           `gorm:"type:date;not null;index" json:"payment_date"`
	PaymentMode          string              `gorm:"type:varchar(20);not null" json:"payment_mode"`
	ReferenceNo          string              `gorm:"type:varchar(100)" json:"reference_no"`
	BaseAmount           decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"base_amount"`
	GST                  decimal.Decimal     `gorm:"column:gst;type:decimal(18,2);not null;default:0" json:"gst"`
	Remarks              string              `gorm:"type:text" json:"remarks"`
	Deductions           []Deduction         `gorm:"foreignKey:ContractorPaymentID" json:"deductions"`
}

func (p ContractorPayment) Ledger() ledger.Payment {
	return ledger.Payment{BaseAmount: p.BaseAmount, GST: p.GST, Deductions: deductionAmounts(p.Deductions)}
}
