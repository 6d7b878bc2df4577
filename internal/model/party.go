package model

// Company is the contracting firm a job is executed under.
type Company struct {
	Base
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Code    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	GSTIN   string `gorm:"column:gstin;type:varchar(20)" json:"gstin"`
	PAN     string `gorm:"column:pan;type:varchar(20)" json:"pan"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
}

// Client is the party that awards jobs and pays client bills.
type Client struct {
	Base
	Name          string `gorm:"type:varchar(255);not null" json:"name"`
	Code          string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	GSTIN         string `gorm:"column:gstin;type:varchar(20)" json:"gstin"`
	ContactPerson string `gorm:"type:varchar(255)" json:"contact_person"`
	Address       string `gorm:"type:text" json:"address"`
	Phone         string `gorm:"type:varchar(20)" json:"phone"`
	Email         string `gorm:"type:varchar(255)" json:"email"`
}
