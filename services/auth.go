package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

// AuthService covers signup, email verification, password reset and token
// issuance for both principal kinds.
type AuthService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, notifier Notifier) *AuthService {
	return &AuthService{db: db, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

type SignupInput struct {
	Name     string      `json:"name" validate:"required,min=2,max=255"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,password"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user manager"`
}

type SignupResult struct {
	User    *models.Account `json:"user"`
	OTPSent bool            `json:"otp_sent"`
}

type VerifyEmailInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordInput struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,password"`
}

type LoginInput struct {
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required"`
	AccountType models.AccountType `json:"account_type" validate:"omitempty,oneof=user employee"`
}

// Session is what a successful login, verification or refresh returns.
type Session struct {
	*utils.TokenPair
	AccountType   models.AccountType    `json:"account_type"`
	User          models.Principal      `json:"user"`
	Organizations []models.Organization `json:"organizations,omitempty"`
}

type Profile struct {
	AccountType   models.AccountType    `json:"account_type"`
	User          models.Principal      `json:"user"`
	Organization  *models.Organization  `json:"organization,omitempty"`
	Organizations []models.Organization `json:"organizations,omitempty"`
}

var errBadCredentials = utils.ErrUnauthorized("Invalid email or password")

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, utils.ErrInternal("Failed to create account", err)
	}
	if count > 0 {
		return nil, utils.ErrConflict("Email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, utils.ErrInternal("Failed to create account", err)
	}
	otp, err := utils.GenerateOTP()
	if err != nil {
		return nil, utils.ErrInternal("Failed to create account", err)
	}
	expires := s.now().Add(utils.OTPExpiry)
	account := models.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		OTP:          otp,
		OTPExpiresAt: &expires,
	}
	if err := db.Create(&account).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, utils.ErrConflict("Email already registered")
		}
		return nil, utils.ErrInternal("Failed to create account", err)
	}
	utils.LogEvent("account_registered", map[string]interface{}{
		"account_id": account.ID,
		"role":       account.Role,
	})

	result := &SignupResult{User: &account, OTPSent: true}
	if err := s.notifier.SendOTP(ctx, account.Email, account.Name, otp); err != nil {
		utils.LogError("signup_otp_failed", err, map[string]interface{}{"account_id": account.ID})
		result.OTPSent = false
	}
	return result, nil
}

// SendOTP issues a fresh code to an Account or, failing that, a Worker.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email, err := utils.NormalizeEmail(email)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	principal, err := findByEmail(db, email, "")
	if err != nil {
		return err
	}
	if err := checkWorkerActive(principal); err != nil {
		return err
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return utils.ErrInternal("Failed to generate OTP", err)
	}
	expires := s.now().Add(utils.OTPExpiry)
	if err := db.Model(principal).Updates(map[string]interface{}{"otp": otp, "otp_expires_at": expires}).Error; err != nil {
		return utils.ErrInternal("Failed to generate OTP", err)
	}
	if err := s.notifier.SendOTP(ctx, principal.PrincipalEmail(), displayName(principal), otp); err != nil {
		return utils.ErrInternal("Failed to send OTP", err)
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, in VerifyEmailInput) (*Session, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	principal, err := s.checkOTP(ctx, in.Email, in.OTP)
	if err != nil {
		return nil, err
	}
	if verified(principal) {
		return nil, utils.ErrInvalidState("Email already verified")
	}

	updates := map[string]interface{}{
		"is_verified":    true,
		"otp":            "",
		"otp_expires_at": nil,
	}
	// Workers are activated and deactivated by their managers only.
	if principal.Kind() == models.AccountTypeUser {
		updates["is_active"] = true
	}
	db := s.db.WithContext(ctx)
	err = db.Model(principal).Updates(updates).Error
	if err != nil {
		return nil, utils.ErrInternal("Failed to verify email", err)
	}
	fresh, err := loadPrincipal(db, principal.Kind(), principal.PrincipalID())
	if err != nil {
		return nil, serviceError(err, "Failed to verify email")
	}
	utils.LogEvent("email_verified", map[string]interface{}{
		"principal_id": fresh.PrincipalID(),
		"account_type": fresh.Kind(),
	})
	return s.session(db, fresh)
}

// ResetPassword sets a new password and revokes every token issued so far.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return err
	}
	principal, err := s.checkOTP(ctx, in.Email, in.OTP)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return utils.ErrInternal("Failed to reset password", err)
	}
	err = s.db.WithContext(ctx).Model(principal).Updates(map[string]interface{}{
		"password_hash":  hash,
		"otp":            "",
		"otp_expires_at": nil,
		"token_version":  gorm.Expr("token_version + 1"),
	}).Error
	if err != nil {
		return utils.ErrInternal("Failed to reset password", err)
	}
	utils.LogEvent("password_reset", map[string]interface{}{
		"principal_id": principal.PrincipalID(),
		"account_type": principal.Kind(),
	})
	return nil
}

// Login tries the Account table first and falls back to Workers unless the
// caller pinned account_type. An Account that exists but fails the password
// check still lets a Worker with the same email sign in.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if in.AccountType != models.AccountTypeEmployee {
		var account models.Account
		err := db.Where("email = ?", email).Take(&account).Error
		switch {
		case err == nil:
			if utils.CheckPassword(in.Password, account.PasswordHash) {
				if !account.IsActive {
					return nil, utils.ErrForbidden("Account is not active")
				}
				if !account.IsVerified {
					return nil, utils.ErrForbidden("Email not verified")
				}
				return s.login(db, &account)
			}
		case !isNotFound(err):
			return nil, utils.ErrInternal("Failed to log in", err)
		}
		if in.AccountType == models.AccountTypeUser {
			return nil, errBadCredentials
		}
	}

	var emp models.Employee
	if err := db.Where("email = ?", email).Take(&emp).Error; err != nil {
		if isNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, utils.ErrInternal("Failed to log in", err)
	}
	if !utils.CheckPassword(in.Password, emp.PasswordHash) {
		return nil, errBadCredentials
	}
	if !emp.IsActive {
		return nil, utils.ErrForbidden("Employee account is not active")
	}
	return s.login(db, &emp)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := utils.ParseJWTToken(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, utils.ErrUnauthorized("Invalid or expired refresh token")
	}
	principal, err := s.ResolvePrincipal(ctx, claims)
	if err != nil {
		return nil, err
	}
	tokens, err := utils.GenerateTokenPair(principal)
	if err != nil {
		return nil, utils.ErrInternal("Failed to generate tokens", err)
	}
	return &Session{TokenPair: tokens, AccountType: principal.Kind(), User: principal}, nil
}

// ResolvePrincipal loads the principal named by verified claims and rejects
// inactive principals and revoked token versions.
func (s *AuthService) ResolvePrincipal(ctx context.Context, claims *utils.Claims) (models.Principal, error) {
	principal, err := loadPrincipal(s.db.WithContext(ctx), claims.AccountType, claims.ID)
	if err != nil {
		if utils.IsKind(err, utils.KindNotFound) {
			return nil, utils.ErrUnauthorized("User not found")
		}
		return nil, utils.ErrInternal("Failed to authenticate", err)
	}
	if !active(principal) {
		return nil, utils.ErrUnauthorized("Account is not active")
	}
	if principal.Version() != claims.TokenVersion {
		return nil, utils.ErrUnauthorized("Token has been revoked")
	}
	return principal, nil
}

func (s *AuthService) Me(ctx context.Context, principal models.Principal) (*Profile, error) {
	if !present(principal) {
		return nil, utils.ErrUnauthorized("Authentication required")
	}
	db := s.db.WithContext(ctx)
	profile := &Profile{AccountType: principal.Kind(), User: principal}

	switch p := principal.(type) {
	case *models.Employee:
		var org models.Organization
		err := db.Where("id = ?", p.OrganizationID).Take(&org).Error
		if err == nil {
			profile.Organization = &org
		} else if !isNotFound(err) {
			return nil, utils.ErrInternal("Failed to load profile", err)
		}
	case *models.Account:
		orgs, err := ownedOrganizations(db, p)
		if err != nil {
			return nil, utils.ErrInternal("Failed to load profile", err)
		}
		profile.Organizations = orgs
	}
	return profile, nil
}

func (s *AuthService) login(db *gorm.DB, principal models.Principal) (*Session, error) {
	session, err := s.session(db, principal)
	if err != nil {
		return nil, err
	}
	utils.LogEvent("login", map[string]interface{}{
		"principal_id": principal.PrincipalID(),
		"account_type": principal.Kind(),
	})
	return session, nil
}

func (s *AuthService) session(db *gorm.DB, principal models.Principal) (*Session, error) {
	tokens, err := utils.GenerateTokenPair(principal)
	if err != nil {
		return nil, utils.ErrInternal("Failed to generate tokens", err)
	}
	session := &Session{TokenPair: tokens, AccountType: principal.Kind(), User: principal}
	if account, ok := principal.(*models.Account); ok {
		orgs, err := ownedOrganizations(db, account)
		if err != nil {
			return nil, utils.ErrInternal("Failed to load organizations", err)
		}
		session.Organizations = orgs
	}
	return session, nil
}

func (s *AuthService) checkOTP(ctx context.Context, email, otp string) (models.Principal, error) {
	email, err := utils.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	principal, err := findByEmail(s.db.WithContext(ctx), email, "")
	if err != nil {
		return nil, err
	}
	if err := checkWorkerActive(principal); err != nil {
		return nil, err
	}

	var stored string
	var expires *time.Time
	switch p := principal.(type) {
	case *models.Account:
		stored, expires = p.OTP, p.OTPExpiresAt
	case *models.Employee:
		stored, expires = p.OTP, p.OTPExpiresAt
	}
	ok, expired := utils.CheckOTP(stored, otp, expires, s.now())
	if expired {
		return nil, utils.ErrInvalidState("OTP expired")
	}
	if !ok {
		return nil, utils.ErrInvalidState("Invalid OTP")
	}
	return principal, nil
}

// findByEmail looks up an Account first, then a Worker. kind restricts the search.
func findByEmail(db *gorm.DB, email string, kind models.AccountType) (models.Principal, error) {
	if kind != models.AccountTypeEmployee {
		var account models.Account
		err := db.Where("email = ?", email).Take(&account).Error
		if err == nil {
			return &account, nil
		}
		if !isNotFound(err) {
			return nil, utils.ErrInternal("Failed to load user", err)
		}
	}
	if kind != models.AccountTypeUser {
		var emp models.Employee
		err := db.Where("email = ?", email).Take(&emp).Error
		if err == nil {
			return &emp, nil
		}
		if !isNotFound(err) {
			return nil, utils.ErrInternal("Failed to load user", err)
		}
	}
	return nil, utils.ErrNotFound("User not found")
}

func loadPrincipal(db *gorm.DB, kind models.AccountType, id string) (models.Principal, error) {
	switch kind {
	case models.AccountTypeUser:
		var account models.Account
		if err := db.Where("id = ?", id).Take(&account).Error; err != nil {
			return nil, notFound(err, "User not found")
		}
		return &account, nil
	case models.AccountTypeEmployee:
		var emp models.Employee
		if err := db.Where("id = ?", id).Take(&emp).Error; err != nil {
			return nil, notFound(err, "User not found")
		}
		return &emp, nil
	}
	return nil, utils.ErrNotFound("User not found")
}

func ownedOrganizations(db *gorm.DB, account *models.Account) ([]models.Organization, error) {
	var orgs []models.Organization
	q := db.Where("is_active = ?", true)
	if !account.IsAdmin() {
		q = q.Where("created_by = ?", account.ID)
	}
	err := q.Order("created_at DESC").Find(&orgs).Error
	return orgs, err
}

func displayName(p models.Principal) string {
	switch v := p.(type) {
	case *models.Account:
		return v.Name
	case *models.Employee:
		return v.Name
	}
	return ""
}

func active(p models.Principal) bool {
	switch v := p.(type) {
	case *models.Account:
		return v.IsActive
	case *models.Employee:
		return v.IsActive
	}
	return false
}

func verified(p models.Principal) bool {
	switch v := p.(type) {
	case *models.Account:
		return v.IsVerified
	case *models.Employee:
		return v.IsVerified
	}
	return false
}

func checkWorkerActive(p models.Principal) error {
	if p.Kind() == models.AccountTypeEmployee && !active(p) {
		return utils.ErrForbidden("Account is deactivated")
	}
	return nil
}
