package service

import "context"

// MailKind selects the template a mail task renders.
type MailKind string

const (
	// MailVerification carries an email verification link.
	MailVerification MailKind = "verification"
	// MailEnrollment confirms course access after a completed payment.
	MailEnrollment MailKind = "enrollment"
)

// MailTask is the payload handed to the mail dispatcher. It is small and
// self-contained so it can cross a message broker as JSON.
type MailTask struct {
	Kind        MailKind `json:"kind"`
	To          string   `json:"to"`
	Name        string   `json:"name"`
	Token       string   `json:"token,omitempty"`
	CourseTitle string   `json:"courseTitle,omitempty"`
}

// MailService renders and sends a single mail synchronously.
type MailService interface {
	Send(ctx context.Context, task *MailTask) error
}

// MailDispatcher hands a mail task off for asynchronous delivery. Dispatch
// must not block on SMTP; the HTTP response never waits for the mail.
// Failures are logged by the consumer, never surfaced to the original caller.
type MailDispatcher interface {
	Dispatch(ctx context.Context, task *MailTask) error
}
