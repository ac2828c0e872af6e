package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"momentum/config"
)

const (
	TemplateOTP         = "otp"
	TemplateCredentials = "credentials"
)

type EmailData struct {
	Subject  string
	To       []string
	Template string
	Data     interface{}
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, data EmailData) error
}

// Embedded email templates
var emailTemplates = map[string]*template.Template{
	TemplateOTP: template.Must(template.New(TemplateOTP).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Your Verification Code</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2c3e50;">Your Verification Code</h2>
    <p>Hello {{.Name}},</p>
    <p>Here is your one-time verification code:</p>
    <div style="font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center;">{{.OTP}}</div>
    <p>This code will expire in {{.ExpiryMinutes}} minutes. Please don't share this code with anyone.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center;">&copy; {{.Year}} Momentum</p>
</body>
</html>`)),

	TemplateCredentials: template.Must(template.New(TemplateCredentials).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Your Momentum account</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2c3e50;">Welcome to Momentum</h2>
    <p>Hello {{.Name}},</p>
    <p>An account has been created for you. Sign in with:</p>
    <p>Email: <b>{{.Email}}</b><br>Password: <b>{{.Password}}</b></p>
    <p style="text-align: center;"><a href="{{.LoginURL}}" style="display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px;">Sign in</a></p>
    <p>Please change your password after your first login.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center;">&copy; {{.Year}} Momentum</p>
</body>
</html>`)),
}

func renderTemplate(name string, data interface{}) (string, error) {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("template '%s' not found", name)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("error executing template: %w", err)
	}
	return body.String(), nil
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, data EmailData) error {
	body, err := renderTemplate(data.Template, data.Data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", data.To...)
	msg.SetHeader("Subject", data.Subject)
	msg.SetBody("text/html", body)

	return Retry(ctx, DefaultRetryConfig(), func(ctx context.Context) error {
		if err := m.dialer.DialAndSend(msg); err != nil {
			return fmt.Errorf("error sending email: %w", err)
		}
		return nil
	})
}

// APIMailer posts messages to an HTTP mail provider.
type APIMailer struct {
	client *APIClient
	cfg    config.MailConfig
}

func NewAPIMailer(cfg config.MailConfig) *APIMailer {
	return &APIMailer{client: NewAPIClient(DefaultRetryConfig()), cfg: cfg}
}

func (m *APIMailer) Send(ctx context.Context, data EmailData) error {
	body, err := renderTemplate(data.Template, data.Data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]interface{}{
		"from":    map[string]string{"email": m.cfg.FromEmail, "name": m.cfg.FromName},
		"to":      data.To,
		"subject": data.Subject,
		"html":    body,
	})
	if err != nil {
		return err
	}
	_, err = m.client.Call(ctx, "POST", m.cfg.APIURL, map[string]string{
		"Authorization": "Bearer " + m.cfg.APIKey,
	}, payload)
	return err
}

// NewMailer picks the transport configured by MAIL_TRANSPORT.
func NewMailer(cfg config.MailConfig) Mailer {
	if cfg.Transport == "api" {
		return NewAPIMailer(cfg)
	}
	return NewSMTPMailer(cfg)
}

func OTPEmail(to, name, otp string) EmailData {
	return EmailData{
		Subject:  "Your Verification Code",
		To:       []string{to},
		Template: TemplateOTP,
		Data: map[string]interface{}{
			"Name":          name,
			"OTP":           otp,
			"ExpiryMinutes": int(OTPExpiry.Minutes()),
			"Year":          time.Now().Year(),
		},
	}
}

func CredentialsEmail(to, name, loginURL, password string) EmailData {
	return EmailData{
		Subject:  "Your Momentum account",
		To:       []string{to},
		Template: TemplateCredentials,
		Data: map[string]interface{}{
			"Name":     name,
			"Email":    to,
			"Password": password,
			"LoginURL": loginURL,
			"Year":     time.Now().Year(),
		},
	}
}
