package orchestrators

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"aurora/internal/adapters/email"
	"aurora/internal/domain/contact"
)

//go:embed mail/*.html
var mailFS embed.FS

var mailTemplates = template.Must(template.ParseFS(mailFS, "mail/*.html"))

var (
	ErrEmailNotConfigured = email.ErrNotConfigured
	ErrDispatchFailed     = errors.New("contact email dispatch failed")
)

// ContactMail holds the addresses and links used in contact emails.
type ContactMail struct {
	Inbox       string // Business inbox that receives leads
	NotifyFrom  string
	ConfirmFrom string
	SiteURL     string // Base for links in the confirmation, no trailing slash
}

// DefaultContactMail returns the production addresses.
func DefaultContactMail() ContactMail {
	return ContactMail{
		Inbox:       "n@aurorabusiness.ca",
		NotifyFrom:  "Aurora N&N Contact Form <noreply@aurorabusiness.ca>",
		ConfirmFrom: "Aurora N&N <noreply@aurorabusiness.ca>",
		SiteURL:     "https://aurorabusiness.ca",
	}
}

// SubmitContactInput carries the decoded form.
type SubmitContactInput struct {
	Submission contact.Submission
}

// SubmitContactDeps holds dependencies for SubmitContact.
type SubmitContactDeps struct {
	Sender email.Sender // nil when no provider is configured
	Mail   ContactMail
}

// DispatchResult records each send independently.
type DispatchResult struct {
	NotificationSent bool
	ConfirmationSent bool
	NotificationID   string
	ConfirmationID   string
}

// ExecuteSubmitContact validates a submission and sends the business
// notification, then the customer confirmation.
// PRE: input.Submission decoded from the request body
// POST: *contact.ValidationError and no sends for an invalid submission;
// ErrEmailNotConfigured and no sends without a sender; otherwise both sends
// are attempted in order and any failure wraps ErrDispatchFailed
func ExecuteSubmitContact(ctx context.Context, input SubmitContactInput, deps SubmitContactDeps) (DispatchResult, error) {
	sub := input.Submission
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return DispatchResult{}, err
	}
	if deps.Sender == nil {
		slog.Error("contact_dispatch", "error", "email sender not configured")
		return DispatchResult{}, ErrEmailNotConfigured
	}

	notification, err := renderNotification(sub)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("render notification: %w", err)
	}
	confirmation, err := renderConfirmation(sub, deps.Mail)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("render confirmation: %w", err)
	}

	var res DispatchResult
	var errs []error

	sent, err := deps.Sender.Send(ctx, email.SendRequest{
		To:       []string{deps.Mail.Inbox},
		From:     deps.Mail.NotifyFrom,
		ReplyTo:  sub.Email,
		Subject:  fmt.Sprintf("New %s Inquiry from %s", sub.ServiceLabel(), sub.Name),
		HTML:     notification,
		Category: "contact_notification",
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notification: %w", err))
	} else {
		res.NotificationSent, res.NotificationID = true, sent.MessageID
	}

	sent, err = deps.Sender.Send(ctx, email.SendRequest{
		To:       []string{sub.Email},
		From:     deps.Mail.ConfirmFrom,
		Subject:  "Thank you for contacting Aurora N&N Business Solutions",
		HTML:     confirmation,
		Category: "contact_confirmation",
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("confirmation: %w", err))
	} else {
		res.ConfirmationSent, res.ConfirmationID = true, sent.MessageID
	}

	attrs := []any{
		"service", sub.Service,
		"notification_sent", res.NotificationSent,
		"confirmation_sent", res.ConfirmationSent,
		"notification_id", res.NotificationID,
	}
	if len(errs) > 0 {
		joined := errors.Join(errs...)
		slog.Error("contact_dispatch", append(attrs, "error", joined)...)
		return res, fmt.Errorf("%w: %w", ErrDispatchFailed, joined)
	}
	slog.Info("contact_dispatch", attrs...)
	return res, nil
}

type notificationView struct {
	contact.Submission
	ServiceLabel  string
	BudgetLabel   string
	TimelineLabel string
}

func renderNotification(sub contact.Submission) (string, error) {
	view := notificationView{
		Submission:    sub,
		ServiceLabel:  sub.ServiceLabel(),
		BudgetLabel:   sub.BudgetLabel(),
		TimelineLabel: sub.TimelineLabel(),
	}
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, "contact_notification.html", view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderConfirmation(sub contact.Submission, mail ContactMail) (string, error) {
	view := map[string]any{
		"Name":              sub.Name,
		"ServiceLabelLower": strings.ToLower(sub.ServiceLabel()),
		"SiteURL":           strings.TrimSuffix(mail.SiteURL, "/"),
		"Inbox":             mail.Inbox,
	}
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, "contact_confirmation.html", view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
