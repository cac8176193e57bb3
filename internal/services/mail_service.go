package services

import (
	"fmt"

	"github.com/resendlabs/resend-go"
	"github.com/sirupsen/logrus"

	"github.com/example/storehub/internal/metrics"
)

// MailSender delivers transactional email. Implementations must be safe for
// concurrent use.
type MailSender interface {
	SendVerificationCode(email, code string) error
	SendPasswordReset(email, resetURL string) error
}

// ResendMailer sends through the Resend API.
type ResendMailer struct {
	client  *resend.Client
	from    string
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

// NewResendMailer creates a ResendMailer. With an empty API key it returns a
// disabled sender that only logs, so local development works without keys.
func NewResendMailer(apiKey, from string, m *metrics.Metrics, logger *logrus.Logger) MailSender {
	if apiKey == "" {
		return &logMailer{logger: logger.WithField("component", "mail")}
	}
	return &ResendMailer{
		client:  resend.NewClient(apiKey),
		from:    from,
		metrics: m,
		logger:  logger.WithField("component", "mail"),
	}
}

// SendVerificationCode emails a 6-digit verification code.
func (s *ResendMailer) SendVerificationCode(email, code string) error {
	return s.send("verification", &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email},
		Subject: "Verify your StoreHub account",
		Html:    fmt.Sprintf("<p>Your verification code is:</p><h2>%s</h2><p>It expires in 10 minutes.</p>", code),
		Text:    fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code),
	})
}

// SendPasswordReset emails a password reset link.
func (s *ResendMailer) SendPasswordReset(email, resetURL string) error {
	return s.send("password_reset", &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email},
		Subject: "Reset your StoreHub password",
		Html:    fmt.Sprintf("<p>Click to reset your password:</p><p><a href=%q>Reset Password</a></p>", resetURL),
		Text:    fmt.Sprintf("Reset your password: %s", resetURL),
	})
}

func (s *ResendMailer) send(mailType string, req *resend.SendEmailRequest) error {
	_, err := s.client.Emails.Send(req)
	if err != nil {
		s.metrics.MailSent.WithLabelValues(mailType, "error").Inc()
		s.logger.WithError(err).Error("failed to send email")
		return External("failed to send email", err)
	}
	s.metrics.MailSent.WithLabelValues(mailType, "ok").Inc()
	return nil
}

// logMailer stands in when no API key is configured.
type logMailer struct {
	logger *logrus.Entry
}

func (s *logMailer) SendVerificationCode(email, code string) error {
	s.logger.WithFields(logrus.Fields{"email": email, "code": code}).Info("mail disabled, verification code logged")
	return nil
}

func (s *logMailer) SendPasswordReset(email, resetURL string) error {
	s.logger.WithFields(logrus.Fields{"email": email, "url": resetURL}).Info("mail disabled, reset link logged")
	return nil
}
