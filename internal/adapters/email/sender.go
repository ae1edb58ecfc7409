package email

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when no delivery credential is available.
var ErrNotConfigured = errors.New("email service not configured")

// SendRequest is one outbound message.
type SendRequest struct {
	To       []string // Recipient addresses
	From     string   // Display sender, e.g. "Aurora N&N <noreply@aurorabusiness.ca>"
	Subject  string
	HTML     string
	ReplyTo  string
	Category string // Provider tag for filtering, e.g. "contact_notification"
}

// SendResult is the provider's acknowledgement of one message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers mail through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
