package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/models"
	"momentum/utils"
)

func newAuthService(t *testing.T) (*AuthService, *fixture, *fakeNotifier, *fakeClock) {
	t.Helper()
	fx := newFixture(t)
	notifier := &fakeNotifier{}
	clock := newFakeClock()
	return NewAuthService(fx.db, notifier).WithClock(clock.Now), fx, notifier, clock
}

func TestSignupAndVerify(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier, clock := newAuthService(t)

	result, err := svc.Signup(ctx, SignupInput{Name: "New Owner", Email: "New@Example.com", Password: testPassword})
	require.NoError(t, err)
	assert.True(t, result.OTPSent)
	assert.Equal(t, "new@example.com", result.User.Email)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.False(t, result.User.IsVerified)

	_, err = svc.Login(ctx, LoginInput{Email: "new@example.com", Password: testPassword})
	requireKind(t, err, utils.KindForbidden)

	otp := notifier.lastOTP("new@example.com")
	require.Len(t, otp, utils.OTPLength)

	_, err = svc.VerifyEmail(ctx, VerifyEmailInput{Email: "new@example.com", OTP: wrongOTP(otp)})
	requireKind(t, err, utils.KindInvalidState)

	session, err := svc.VerifyEmail(ctx, VerifyEmailInput{Email: "new@example.com", OTP: otp})
	require.NoError(t, err)
	assert.Equal(t, models.AccountTypeUser, session.AccountType)
	assert.NotEmpty(t, session.AccessToken)

	_, err = svc.VerifyEmail(ctx, VerifyEmailInput{Email: "new@example.com", OTP: otp})
	requireKind(t, err, utils.KindInvalidState)

	clock.Advance(time.Minute)
	login, err := svc.Login(ctx, LoginInput{Email: "new@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, models.AccountTypeUser, login.AccountType)
}

func TestSignupRules(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier, _ := newAuthService(t)

	_, err := svc.Signup(ctx, SignupInput{Name: "Weak", Email: "weak@example.com", Password: "password"})
	requireKind(t, err, utils.KindValidation)

	_, err = svc.Signup(ctx, SignupInput{Name: "Admin", Email: "root@example.com", Password: testPassword, Role: models.RoleAdmin})
	requireKind(t, err, utils.KindValidation)

	_, err = svc.Signup(ctx, SignupInput{Name: "Dup", Email: "owner@example.com", Password: testPassword})
	requireKind(t, err, utils.KindConflict)

	notifier.err = errors.New("smtp down")
	result, err := svc.Signup(ctx, SignupInput{Name: "Offline", Email: "offline@example.com", Password: testPassword, Role: models.RoleManager})
	require.NoError(t, err)
	assert.False(t, result.OTPSent)
	assert.Equal(t, models.RoleManager, result.User.Role)
}

func TestOTPExpiry(t *testing.T) {
	ctx := context.Background()
	svc, fx, notifier, clock := newAuthService(t)

	require.NoError(t, svc.SendOTP(ctx, fx.worker.Email))
	otp := notifier.lastOTP(fx.worker.Email)

	clock.Advance(utils.OTPExpiry + time.Second)
	_, err := svc.VerifyEmail(ctx, VerifyEmailInput{Email: fx.worker.Email, OTP: otp})
	requireKind(t, err, utils.KindInvalidState)

	err = svc.SendOTP(ctx, "nobody@example.com")
	requireKind(t, err, utils.KindNotFound)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, fx, _, _ := newAuthService(t)

	t.Run("account gets its organizations", func(t *testing.T) {
		session, err := svc.Login(ctx, LoginInput{Email: fx.owner.Email, Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, models.AccountTypeUser, session.AccountType)
		require.Len(t, session.Organizations, 1)
		assert.Equal(t, fx.org.ID, session.Organizations[0].ID)
	})

	t.Run("worker", func(t *testing.T) {
		session, err := svc.Login(ctx, LoginInput{Email: fx.worker.Email, Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, models.AccountTypeEmployee, session.AccountType)
		assert.Empty(t, session.Organizations)

		claims, err := utils.ParseJWTToken(session.AccessToken, utils.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, fx.worker.ID, claims.ID)
		assert.Equal(t, models.AccountTypeEmployee, claims.AccountType)
	})

	t.Run("bad password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: fx.worker.Email, Password: "Wrong1!pass"})
		requireKind(t, err, utils.KindUnauthorized)
	})

	t.Run("pinned account type", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: fx.worker.Email, Password: testPassword, AccountType: models.AccountTypeUser})
		requireKind(t, err, utils.KindUnauthorized)
	})

	t.Run("inactive worker", func(t *testing.T) {
		require.NoError(t, fx.db.Model(fx.peer).Update("is_active", false).Error)
		_, err := svc.Login(ctx, LoginInput{Email: fx.peer.Email, Password: testPassword})
		requireKind(t, err, utils.KindForbidden)
	})
}

func TestVerifyEmailKeepsWorkerDeactivated(t *testing.T) {
	ctx := context.Background()
	svc, fx, notifier, clock := newAuthService(t)
	employees := NewEmployeeService(fx.db, fx.policy, notifier, "https://app.example/login")

	t.Run("active worker is verified in place", func(t *testing.T) {
		require.NoError(t, svc.SendOTP(ctx, fx.worker.Email))
		session, err := svc.VerifyEmail(ctx, VerifyEmailInput{Email: fx.worker.Email, OTP: notifier.lastOTP(fx.worker.Email)})
		require.NoError(t, err)
		assert.Equal(t, models.AccountTypeEmployee, session.AccountType)

		var stored models.Employee
		require.NoError(t, fx.db.First(&stored, "id = ?", fx.worker.ID).Error)
		assert.True(t, stored.IsVerified)
		assert.True(t, stored.IsActive)
	})

	t.Run("deactivated worker cannot verify back in", func(t *testing.T) {
		_, err := employees.SetActive(ctx, fx.owner, fx.peer.ID, false)
		require.NoError(t, err)

		err = svc.SendOTP(ctx, fx.peer.Email)
		requireKind(t, err, utils.KindForbidden)

		expires := clock.Now().Add(5 * time.Minute)
		require.NoError(t, fx.db.Model(&models.Employee{}).Where("id = ?", fx.peer.ID).
			Updates(map[string]interface{}{"otp": "482913", "otp_expires_at": expires}).Error)

		_, err = svc.VerifyEmail(ctx, VerifyEmailInput{Email: fx.peer.Email, OTP: "482913"})
		requireKind(t, err, utils.KindForbidden)

		err = svc.ResetPassword(ctx, ResetPasswordInput{Email: fx.peer.Email, OTP: "482913", Password: "Another1!pass"})
		requireKind(t, err, utils.KindForbidden)

		var stored models.Employee
		require.NoError(t, fx.db.First(&stored, "id = ?", fx.peer.ID).Error)
		assert.False(t, stored.IsActive)
		assert.False(t, stored.IsVerified)
	})
}

func TestRefreshAndRevocation(t *testing.T) {
	ctx := context.Background()
	svc, fx, notifier, _ := newAuthService(t)

	session, err := svc.Login(ctx, LoginInput{Email: fx.worker.Email, Password: testPassword})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, session.AccessToken)
	requireKind(t, err, utils.KindUnauthorized)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.SendOTP(ctx, fx.worker.Email))
	otp := notifier.lastOTP(fx.worker.Email)
	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Email: fx.worker.Email, OTP: otp, Password: "Fresh2@pass"}))

	_, err = svc.Refresh(ctx, session.RefreshToken)
	requireKind(t, err, utils.KindUnauthorized)

	claims, err := utils.ParseJWTToken(session.AccessToken, utils.TokenTypeAccess)
	require.NoError(t, err)
	_, err = svc.ResolvePrincipal(ctx, claims)
	requireKind(t, err, utils.KindUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: fx.worker.Email, Password: "Fresh2@pass"})
	require.NoError(t, err)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	svc, fx, _, _ := newAuthService(t)

	profile, err := svc.Me(ctx, fx.worker)
	require.NoError(t, err)
	require.NotNil(t, profile.Organization)
	assert.Equal(t, fx.org.ID, profile.Organization.ID)

	profile, err = svc.Me(ctx, fx.admin)
	require.NoError(t, err)
	assert.Len(t, profile.Organizations, 1)

	_, err = svc.Me(ctx, nil)
	requireKind(t, err, utils.KindUnauthorized)
}

func wrongOTP(otp string) string {
	last := otp[len(otp)-1]
	if last == '9' {
		return otp[:len(otp)-1] + "0"
	}
	return otp[:len(otp)-1] + string(last+1)
}
