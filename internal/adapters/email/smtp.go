package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through an SMTP relay. It is the fallback when
// no Resend key is configured but a mailbox is.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	domain string
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a sender over host:port with plain auth.
// PRE: host is non-empty
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		domain: messageIDDomain(from, host),
	}
}

// Send dials the relay and delivers one message. gomail has no context
// support, so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)

	m := gomail.NewMessage()
	m.SetHeader("From", firstNonEmpty(req.From, s.from))
	m.SetHeader("To", req.To...)
	m.SetHeader("Subject", req.Subject)
	m.SetHeader("Message-ID", id)
	if req.ReplyTo != "" {
		m.SetHeader("Reply-To", req.ReplyTo)
	}
	if req.Category != "" {
		m.SetHeader("X-Aurora-Category", req.Category)
	}
	m.SetBody("text/html", req.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		slog.Error("smtp_send_failed", "error", err, "category", req.Category)
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}
	slog.Info("smtp_sent", "message_id", id, "category", req.Category)
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}

// messageIDDomain picks the right-hand side for generated Message-IDs:
// the sender's domain when it has one, the relay host otherwise.
func messageIDDomain(from, host string) string {
	addr := from
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return host
}
