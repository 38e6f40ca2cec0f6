package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("notification channel not configured")

type EmailSender interface {
	SendEmail(toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(toNumber, body string) error
}

// SendGridMailer sends email through SendGrid.
type SendGridMailer struct {
	APIKey    string
	FromEmail string
	FromName  string
	Log       *zap.Logger
}

func NewSendGridMailer(apiKey, fromEmail, fromName string, log *zap.Logger) *SendGridMailer {
	return &SendGridMailer{APIKey: apiKey, FromEmail: fromEmail, FromName: fromName, Log: log}
}

func (m *SendGridMailer) SendEmail(toEmail, toName, subject, plainText, html string) error {
	if m.APIKey == "" || m.FromEmail == "" {
		m.Log.Warn("sendgrid is not configured, email not sent", zap.String("to", toEmail))
		return fmt.Errorf("sendgrid: %w", ErrNotConfigured)
	}

	from := mail.NewEmail(m.FromName, m.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	response, err := sendgrid.NewSendClient(m.APIKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toEmail, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	m.Log.Info("email sent", zap.String("to", toEmail), zap.String("subject", subject), zap.Int("status", response.StatusCode))
	return nil
}

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Log        *zap.Logger
}

func NewTwilioSender(accountSID, authToken, fromNumber string, log *zap.Logger) *TwilioSender {
	return &TwilioSender{AccountSID: accountSID, AuthToken: authToken, FromNumber: fromNumber, Log: log}
}

func (s *TwilioSender) SendSMS(toNumber, body string) error {
	if s.AccountSID == "" || s.AuthToken == "" || s.FromNumber == "" {
		s.Log.Warn("twilio is not configured, sms not sent", zap.String("to", toNumber))
		return fmt.Errorf("twilio: %w", ErrNotConfigured)
	}
	if !strings.HasPrefix(toNumber, "+") {
		s.Log.Warn("destination number is not in E.164 format", zap.String("to", toNumber))
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   s.AccountSID,
		Password:   s.AuthToken,
		AccountSid: s.AccountSID,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.FromNumber)
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", toNumber, err)
	}
	if resp != nil && resp.Sid != nil {
		s.Log.Info("sms sent", zap.String("to", toNumber), zap.String("sid", *resp.Sid))
	}
	return nil
}
