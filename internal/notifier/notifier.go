package notifier

import "context"

// PushSender delivers an in-app/push notification. Delivery transport (FCM
// or otherwise) is an external collaborator; implementations here only hand
// the message over.
type PushSender interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

// EmailSender delivers a status email to the order's contact address.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}
