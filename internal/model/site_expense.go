package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sitebooks/internal/ledger"
)

const (
	EnquiryStatusOpen     = "OPEN"
	EnquiryStatusAnswered = "ANSWERED"
	EnquiryStatusClosed   = "CLOSED"
)

// SiteExpense is cash spent at a job site. Refunds never add up to more than Amount.
type SiteExpense struct {
	Base
	JobID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"job_id"`
	Job         *Job                `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ClientID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"client_id"`
	Client      *Client             `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	SiteID      string              `gorm:"type:varchar(50);not null;index" json:"site_id"`
	PaymentDate time.Time           `gorm:"type:date;not null;index" json:"payment_date"`
	PaidTo      string              `gorm:"type:varchar(255)" json:"paid_to"`
	Description string              `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	Refunds     []SiteExpenseRefund `gorm:"foreignKey:SiteExpenseID" json:"refunds"`
}

func (e SiteExpense) Ledger() ledger.Expense {
	refunds := make([]ledger.Refund, 0, len(e.Refunds))
	for _, r := range e.Refunds {
		refunds = append(refunds, ledger.Refund{ID: r.ID, Amount: r.Amount})
	}
	return ledger.Expense{Amount: e.Amount, Refunds: refunds}
}

type SiteExpenseRefund struct {
	Base
	SiteExpenseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"site_expense_id"`
	SiteExpense   *SiteExpense    `gorm:"foreignKey:SiteExpenseID" json:"site_expense,omitempty"`
	RefundDate    time.Time       `gorm:"type:date;not null" json:"refund_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Remarks       string          `gorm:"type:text" json:"remarks"`
}

// SiteExpenseEnquiry is a query raised about site spending on a job.
type SiteExpenseEnquiry struct {
	Base
	JobID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"job_id"`
	Job           *Job         `gorm:"foreignKey:JobID" json:"job,omitempty"`
	SiteExpenseID *uuid.UUID   `gorm:"type:uuid;index" json:"site_expense_id"`
	SiteExpense   *SiteExpense `gorm:"foreignKey:SiteExpenseID" json:"site_expense,omitempty"`
	EnquiryDate   time.Time    `gorm:"type:date;not null" json:"enquiry_date"`
	RaisedBy      string       `gorm:"type:varchar(255)" json:"raised_by"`
	Subject       string       `gorm:"type:varchar(255);not null" json:"subject"`
	Details       string       `gorm:"type:text" json:"details"`
	Status        string       `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	Response      string       `gorm:"type:text" json:"response"`
}
