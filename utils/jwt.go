package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"momentum/config"
	"momentum/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	Role         models.Role        `json:"role"`
	AccountType  models.AccountType `json:"account_type"`
	TokenType    string             `json:"typ"`
	TokenVersion int                `json:"token_version"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func GenerateTokenPair(p models.Principal) (*TokenPair, error) {
	access, err := signToken(p, TokenTypeAccess, config.AppConfig.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(p, TokenTypeRefresh, config.AppConfig.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(config.AppConfig.AccessTTL.Seconds()),
	}, nil
}

func signToken(p models.Principal, tokenType string, ttl time.Duration) (string, error) {
	if config.AppConfig.JWTSecret == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		ID:           p.PrincipalID(),
		Email:        p.PrincipalEmail(),
		Role:         p.PrincipalRole(),
		AccountType:  p.Kind(),
		TokenType:    tokenType,
		TokenVersion: p.Version(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.PrincipalID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseJWTToken verifies signature and expiry and checks the token type.
func ParseJWTToken(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != wantType {
		return nil, errors.New("wrong token type")
	}
	if claims.ID == "" || !claims.AccountType.Valid() {
		return nil, errors.New("malformed token claims")
	}
	return claims, nil
}
