package mailer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers one message to a list of recipients.
type Sender interface {
	Send(to []string, subject, plain, html string) error
}

type Message struct {
	Subject string
	Plain   string
	HTML    string
}

// ErrorReport renders the alert sent to admins when the server logs an error.
func ErrorReport(product, link, summary string, fields map[string]string) (Message, error) {
	h := hermes.Hermes{
		Product: hermes.Product{
			Name:      product,
			Link:      link,
			Copyright: "Automated alert from " + product,
		},
	}

	entries := make([]hermes.Entry, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		entries = append(entries, hermes.Entry{Key: key, Value: fields[key]})
	}

	email := hermes.Email{
		Body: hermes.Body{
			Title:      "Application error",
			Intros:     []string{summary},
			Dictionary: entries,
			Outros:     []string{"Check the server logs for the full context."},
			Signature:  "Sent by",
		},
	}

	html, err := h.GenerateHTML(email)
	if err != nil {
		return Message{}, fmt.Errorf("render error report: %w", err)
	}
	plain, err := h.GeneratePlainText(email)
	if err != nil {
		return Message{}, fmt.Errorf("render error report: %w", err)
	}
	return Message{
		Subject: fmt.Sprintf("[%s] %s", product, firstLine(summary)),
		Plain:   plain,
		HTML:    html,
	}, nil
}

// SendGrid sends through the SendGrid v3 API, one request per recipient.
type SendGrid struct {
	APIKey   string
	From     string
	FromName string
}

func NewSendGrid(apiKey, from, fromName string) *SendGrid {
	return &SendGrid{APIKey: apiKey, From: from, FromName: fromName}
}

func (s *SendGrid) Send(to []string, subject, plain, html string) error {
	if s.APIKey == "" {
		return fmt.Errorf("sendgrid api key not configured")
	}
	client := sendgrid.NewSendClient(s.APIKey)
	from := mail.NewEmail(s.FromName, s.From)

	for _, addr := range to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", addr), plain, html)
		resp, err := client.Send(message)
		if err != nil {
			return fmt.Errorf("send to %s: %w", addr, err)
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("send to %s: sendgrid status %d", addr, resp.StatusCode)
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
