package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/config"
	"momentum/models"
)

func withJWTConfig(t *testing.T) {
	t.Helper()
	saved := config.AppConfig
	config.AppConfig.JWTSecret = "unit-test-secret"
	config.AppConfig.AccessTTL = time.Hour
	config.AppConfig.RefreshTTL = 24 * time.Hour
	t.Cleanup(func() { config.AppConfig = saved })
}

func TestTokenPairRoundTrip(t *testing.T) {
	withJWTConfig(t)
	emp := &models.Employee{Base: models.Base{ID: "emp-1"}, Email: "w@acme.example", TokenVersion: 3}

	pair, err := GenerateTokenPair(emp)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	claims, err := ParseJWTToken(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.ID)
	assert.Equal(t, models.AccountTypeEmployee, claims.AccountType)
	assert.Equal(t, models.RoleEmployee, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)

	_, err = ParseJWTToken(pair.AccessToken, TokenTypeRefresh)
	assert.Error(t, err)
	_, err = ParseJWTToken(pair.RefreshToken, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	withJWTConfig(t)
	account := &models.Account{Base: models.Base{ID: "acc-1"}, Role: models.RoleUser}
	pair, err := GenerateTokenPair(account)
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "another-secret"
	_, err = ParseJWTToken(pair.AccessToken, TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	withJWTConfig(t)
	config.AppConfig.AccessTTL = -time.Minute
	pair, err := GenerateTokenPair(&models.Account{Base: models.Base{ID: "acc-1"}})
	require.NoError(t, err)

	_, err = ParseJWTToken(pair.AccessToken, TokenTypeAccess)
	assert.Error(t, err)
}

func TestGenerateWithoutSecret(t *testing.T) {
	withJWTConfig(t)
	config.AppConfig.JWTSecret = ""
	_, err := GenerateTokenPair(&models.Account{Base: models.Base{ID: "acc-1"}})
	assert.Error(t, err)
}
