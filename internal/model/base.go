package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by every ledger table.
// IDs are generated here rather than by the database so sqlite and postgres
// behave the same.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&AuditLog{},
		&Company{},
		&Client{},
		&Job{},
		&ContractorSupplier{},
		&MaterialCode{},
		&ClientBill{},
		&PaymentReceipt{},
		&ContractorBill{},
		&ContractorPayment{},
		&Deduction{},
		&SiteExpense{},
		&SiteExpenseRefund{},
		&SiteExpenseEnquiry{},
	}
}
