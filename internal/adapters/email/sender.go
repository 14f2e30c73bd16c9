// Package email delivers transactional mail: check-in confirmations and
// walk-in welcome notes.
package email

import (
	"context"
	"errors"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string // Recipient email addresses
	From    string   // Sender address; empty uses the sender's default
	Subject string
	HTML    string
	Text    string // plain-text alternative
	ReplyTo string
	Tags    map[string]string // provider-side labels, e.g. {"kind": "checkin"}
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// ErrNoRecipient is returned when a request has no usable recipient.
var ErrNoRecipient = errors.New("email has no recipient")

// Validate checks the request carries what every provider needs.
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range r.To {
		if to == "" {
			return ErrNoRecipient
		}
	}
	if r.Subject == "" {
		return errors.New("email subject cannot be empty")
	}
	if r.HTML == "" && r.Text == "" {
		return errors.New("email body cannot be empty")
	}
	return nil
}
