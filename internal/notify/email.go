package notify

import (
	"fmt"

	"github.com/rs/zerolog"
)

// EmailSender defines the contract for sending notification emails.
type EmailSender interface {
	Send(to, subject, body string) error
}

// Email represents a single message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	Body    string
}

// InMemoryEmail records messages for tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Send records the email in memory.
func (m *InMemoryEmail) Send(to, subject, body string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, Body: body})
	return nil
}

// LogEmail writes the message to the service log instead of a mailbox. Used
// until a real mail integration exists.
type LogEmail struct {
	Logger zerolog.Logger
}

// Send logs the email at info level.
func (l LogEmail) Send(to, subject, body string) error {
	l.Logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("merchant notification")
	return nil
}

// NopEmailSender implements EmailSender without performing any action.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }

func subjectFor(status string) string {
	switch status {
	case "done":
		return "Payment received"
	case "canceled":
		return "Payment canceled"
	default:
		return "Payment failed"
	}
}

func bodyFor(res Result) string {
	body := fmt.Sprintf("Payment for reference %s finished with status %s (%s %s).",
		res.Reference, res.Status, res.Amount, res.Currency)
	if res.Message != "" {
		body += "\n" + res.Message
	}
	return body
}
