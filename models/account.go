package models

import "time"

// Account is an organization owner or global administrator.
type Account struct {
	Base

	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"size:20;not null;default:'user'" json:"role"`

	IsActive   bool `gorm:"not null;default:true" json:"is_active"`
	IsVerified bool `gorm:"not null;default:false" json:"email_verified"`

	OTP          string     `gorm:"size:10" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	TokenVersion int        `gorm:"not null;default:0" json:"-"`
}

func (a *Account) PrincipalID() string    { return a.ID }
func (a *Account) PrincipalEmail() string { return a.Email }
func (a *Account) PrincipalRole() Role    { return a.Role }
func (a *Account) Kind() AccountType      { return AccountTypeUser }
func (a *Account) IsAdmin() bool          { return a.Role == RoleAdmin }
func (a *Account) Version() int           { return a.TokenVersion }
func (a *Account) sealed()                {}
