// Package mail is the outbound-email collaborator. The service never
// renders or delivers mail itself; it publishes a job describing the
// message and a downstream worker owns templating and SMTP.
package mail

import (
	"context"
	"time"
)

type Template string

const (
	TemplateEmailVerification Template = "email-verification"
	TemplatePasswordReset     Template = "password-reset"
)

type Mailer interface {
	Send(ctx context.Context, to string, template Template, data map[string]string) error
}

// Job is the wire payload published for each outbound message.
type Job struct {
	To       string            `msgpack:"to"`
	Template string            `msgpack:"template"`
	Data     map[string]string `msgpack:"data"`
	QueuedAt time.Time         `msgpack:"queued_at"`
}
