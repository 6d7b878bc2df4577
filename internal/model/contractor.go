package model

const (
	SupplierTypeContractor = "CONTRACTOR"
	SupplierTypeSupplier   = "SUPPLIER"
	SupplierTypeBoth       = "BOTH"
)

// ContractorSupplier is a subcontractor or material supplier billing against jobs.
type ContractorSupplier struct {
	Base
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	Code          string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Type          string `gorm:"type:varchar(20);not null;default:'CONTRACTOR'" json:"type"`
	GSTIN         string `gorm:"column:gstin;type:varchar(20)" json:"gstin"`
	PAN           string `gorm:"column:pan;type:varchar(20)" json:"pan"`
	ContactPerson string `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string `gorm:"type:varchar(20)" json:"phone"`
	Email         string `gorm:"type:varchar(255)" json:"email"`
	Address       string `gorm:"type:text" json:"address"`
	BankAccount   string `gorm:"type:varchar(50)" json:"bank_account"`
	IFSC          string `gorm:"column:ifsc;type:varchar(20)" json:"ifsc"`
}

// MaterialCode classifies what a contractor bill is for.
type MaterialCode struct {
	Base
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
	Unit        string `gorm:"type:varchar(20)" json:"unit"`
}
