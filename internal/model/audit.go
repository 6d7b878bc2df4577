package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Entity names used in audit rows, change events and metrics labels.
const (
	EntityCompany            = "company"
	EntityClient             = "client"
	EntityJob                = "job"
	EntityContractorSupplier = "contractor_supplier"
	EntityMaterialCode       = "material_code"
	EntityClientBill         = "client_bill"
	EntityPaymentReceipt     = "payment_receipt"
	EntityContractorBill     = "contractor_bill"
	EntityContractorPayment  = "contractor_payment"
	EntitySiteExpense        = "site_expense"
	EntitySiteExpenseRefund  = "site_expense_refund"
	EntitySiteExpenseEnquiry = "site_expense_enquiry"
	EntityUser               = "user"
)

// AuditLog tracks who changed which ledger record and when. UserID is nil for
// changes made without an authenticated user.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Username  string         `gorm:"type:varchar(255)" json:"username"`
	Action    string         `gorm:"type:varchar(20);not null;index" json:"action"`
	Entity    string         `gorm:"type:varchar(50);not null;index" json:"entity"`
	EntityID  uuid.UUID      `gorm:"type:uuid;index" json:"entity_id"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Change is published after a write commits so connected clients can re-fetch.
type Change struct {
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     uuid.UUID `json:"id"`
}
