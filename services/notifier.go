package services

import "context"

// Notifier delivers account emails. SendOTP is awaited by callers;
// SendCredentials may be queued.
type Notifier interface {
	SendOTP(ctx context.Context, email, name, otp string) error
	SendCredentials(ctx context.Context, email, name, loginURL, password string) error
}
