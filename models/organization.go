package models

// Organization is owned, for authorization purposes, by the Account that
// created it.
type Organization struct {
	Base

	Name        string `gorm:"size:255;not null" json:"name"`
	Domain      string `gorm:"size:255;uniqueIndex;not null" json:"domain"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `gorm:"size:30" json:"phone,omitempty"`
	CreatedBy   string `gorm:"type:varchar(36);index;not null" json:"created_by"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}
