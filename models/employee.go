package models

import "time"

// Employee is a worker principal. It belongs to exactly one organization and
// logs time against that organization's projects and tasks.
type Employee struct {
	Base

	OrganizationID string `gorm:"type:varchar(36);index;not null" json:"organization_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Email          string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string `gorm:"not null" json:"-"`
	Phone          string `gorm:"size:30" json:"phone,omitempty"`
	Designation    string `gorm:"size:100" json:"designation,omitempty"`

	IsActive   bool `gorm:"not null;default:true" json:"is_active"`
	IsVerified bool `gorm:"not null;default:false" json:"email_verified"`

	OTP          string     `gorm:"size:10" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	TokenVersion int        `gorm:"not null;default:0" json:"-"`
}

func (e *Employee) PrincipalID() string    { return e.ID }
func (e *Employee) PrincipalEmail() string { return e.Email }
func (e *Employee) PrincipalRole() Role    { return RoleEmployee }
func (e *Employee) Kind() AccountType      { return AccountTypeEmployee }
func (e *Employee) IsAdmin() bool          { return false }
func (e *Employee) Version() int           { return e.TokenVersion }
func (e *Employee) sealed()                {}
