package worker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"momentum/metrics"
	"momentum/utils"
)

const (
	kindOTP         = "otp"
	kindCredentials = "credentials"
)

var ErrQueueFull = errors.New("mail queue is full")

// MailDispatcher delivers account emails. OTP mails are sent inline so the
// caller can report delivery; credential mails go through a queue drained by
// Start.
type MailDispatcher struct {
	mailer  utils.Mailer
	queue   chan utils.EmailData
	timeout time.Duration
	logger  *logrus.Entry
}

func NewMailDispatcher(mailer utils.Mailer, queueSize int) *MailDispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &MailDispatcher{
		mailer:  mailer,
		queue:   make(chan utils.EmailData, queueSize),
		timeout: 30 * time.Second,
		logger:  logrus.WithField("component", "mail_worker"),
	}
}

func (d *MailDispatcher) SendOTP(ctx context.Context, email, name, otp string) error {
	err := d.mailer.Send(ctx, utils.OTPEmail(email, name, otp))
	record(kindOTP, err)
	return err
}

// SendCredentials enqueues the welcome mail. It fails only when the queue is full.
func (d *MailDispatcher) SendCredentials(ctx context.Context, email, name, loginURL, password string) error {
	select {
	case d.queue <- utils.CredentialsEmail(email, name, loginURL, password):
		return nil
	default:
		metrics.Notifications.WithLabelValues(kindCredentials, "dropped").Inc()
		return ErrQueueFull
	}
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (d *MailDispatcher) Start(ctx context.Context) {
	d.logger.Info("Mail worker started")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Mail worker shutting down...")
			return
		case data := <-d.queue:
			d.deliver(context.Background(), data)
		}
	}
}

func (d *MailDispatcher) drain() {
	for {
		select {
		case data := <-d.queue:
			d.deliver(context.Background(), data)
		default:
			return
		}
	}
}

func (d *MailDispatcher) deliver(parent context.Context, data utils.EmailData) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	err := d.mailer.Send(ctx, data)
	record(kindCredentials, err)
	if err != nil {
		utils.LogError("credentials_email_failed", err, map[string]interface{}{
			"to":       data.To,
			"template": data.Template,
		})
		return
	}
	d.logger.WithField("template", data.Template).Debug("Email delivered")
}

func record(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	metrics.Notifications.WithLabelValues(kind, result).Inc()
}
