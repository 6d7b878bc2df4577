package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	JobStatusActive    = "ACTIVE"
	JobStatusCompleted = "COMPLETED"
	JobStatusOnHold    = "ON_HOLD"
)

// Job is a work order at one site for one client, executed under one company.
type Job struct {
	Base
	JobNo          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"job_no"`
	Site           string          `gorm:"type:varchar(255);not null" json:"site"`
	Description    string          `gorm:"type:text" json:"description"`
	WorkOrderValue decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"work_order_value"`
	StartDate      *time.Time      `gorm:"type:date" json:"start_date"`
	Status         string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`

	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client    *Client   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}
