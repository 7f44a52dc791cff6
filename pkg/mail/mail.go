package mail

import (
	"context"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers transactional email. Delivery failures are reported
// to the caller, which decides whether they abort the operation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errMissingRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errMissingSubject
	}
	return nil
}
