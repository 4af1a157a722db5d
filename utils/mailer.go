package utils

import (
	"context"
	"fmt"
	"log/slog"

	"hostelgrievance-be/models"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the relay settings for outgoing mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers OTP codes over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendOTP mails code to the recipient.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := otpMessage(code, purpose)
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

func otpMessage(code string, purpose models.OTPPurpose) (string, string) {
	if purpose == models.PurposeForgotPassword {
		return "Password reset code",
			fmt.Sprintf("<p>Your password reset code is <b>%s</b>. It expires in 5 minutes.</p>", code)
	}
	return "Verify your hostel grievance account",
		fmt.Sprintf("<p>Your verification code is <b>%s</b>. It expires in 5 minutes.</p>", code)
}

// LogMailer writes codes to the log instead of sending them. It is used when
// no SMTP host is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// SendOTP logs the recipient and code.
func (m LogMailer) SendOTP(_ context.Context, to, code string, purpose models.OTPPurpose) error {
	m.Logger.Warn("smtp not configured, otp written to log", "to", to, "purpose", purpose, "otp", code)
	return nil
}
