package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"time"
)

const (
	OTPLength = 6
	OTPExpiry = 10 * time.Minute
)

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

// CheckOTP compares in constant time. An empty stored code never matches.
func CheckOTP(stored, given string, expiresAt *time.Time, now time.Time) (ok bool, expired bool) {
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(given)) != 1 {
		return false, false
	}
	if expiresAt == nil || now.After(*expiresAt) {
		return false, true
	}
	return true, false
}
