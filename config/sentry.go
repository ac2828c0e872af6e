package config

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// InitSentry is a no-op without SENTRY_DSN; the returned func flushes
// buffered events and is always safe to call.
func InitSentry() (func(), error) {
	if AppConfig.SentryDSN == "" {
		logrus.Info("Sentry disabled")
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              AppConfig.SentryDSN,
		Environment:      AppConfig.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, fmt.Errorf("sentry init: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
