package notifier

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridEmailSender implements EmailSender on the SendGrid API.
type SendGridEmailSender struct {
	apiKey string
	from   string
}

func NewSendGridEmailSender(apiKey, from string) *SendGridEmailSender {
	return &SendGridEmailSender{apiKey: apiKey, from: from}
}

func (s *SendGridEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	if s.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail("Artstr", s.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<p>%s</p>", body),
	)

	response, err := sendgrid.NewSendClient(s.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded with status %d: %s", response.StatusCode, response.Body)
	}

	return nil
}
