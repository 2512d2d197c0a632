package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierConfig says who is notified and how long each send may take.
type NotifierConfig struct {
	OwnerEmail string
	OwnerName  string
	// Signature closes the acknowledgment email; OwnerName is used when empty.
	Signature string
	Timeout   time.Duration
}

// Notifier tells the site owner about a submission and, optionally, thanks
// the sender.
type Notifier struct {
	mailer Mailer
	cfg    NotifierConfig
	log    *zap.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(mailer Mailer, cfg NotifierConfig, log *zap.Logger) *Notifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOutboundTimeout
	}
	return &Notifier{mailer: mailer, cfg: cfg, log: log.Named("notifier")}
}

// Notify sends the owner notification and, when acknowledge is set, the
// sender acknowledgment. Both are attempted concurrently whatever the other's
// outcome; the returned error joins every failure.
func (n *Notifier) Notify(ctx context.Context, sub *domain.Submission, acknowledge bool) error {
	var (
		g                errgroup.Group
		ownerErr, ackErr error
	)
	g.Go(func() error {
		ownerErr = n.send(ctx, "owner", n.ownerMessage(sub))
		return ownerErr
	})
	if acknowledge {
		g.Go(func() error {
			ackErr = n.send(ctx, "acknowledgment", n.acknowledgmentMessage(sub))
			return ackErr
		})
	}
	if err := g.Wait(); err != nil {
		return NewNotificationError(errors.Join(ownerErr, ackErr))
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.mailer.Send(ctx, msg)
	metrics.RecordNotification(kind, err == nil)
	if err != nil {
		n.log.Warn("notification failed", zap.String("kind", kind), zap.Error(err))
		return fmt.Errorf("%s: %w", kind, err)
	}
	n.log.Debug("notification sent", zap.String("kind", kind))
	return nil
}

func (n *Notifier) ownerMessage(sub *domain.Submission) Message {
	submitted := sub.CreatedAt.Format(time.RFC3339)

	text := fmt.Sprintf(`New message from your portfolio website:

From: %s
Email: %s
Message: %s

Submitted: %s
Message ID: %s

---
This message was sent from your portfolio contact form.`, sub.Name, sub.Email, sub.Message, submitted, sub.ID)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1C5D99;">New Contact Form Submission</h2>
        <div style="background: #F8FAFC; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p><strong>Name:</strong> %s</p>
            <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
            <p><strong>Submitted:</strong> %s</p>
        </div>
        <div style="background: #FFFFFF; padding: 20px; border-left: 4px solid #1C5D99; margin: 20px 0;">
            <h3 style="margin-top: 0;">Message:</h3>
            <p style="white-space: pre-wrap;">%s</p>
        </div>
        <p style="color: #64748B; font-size: 14px;">Message ID: %s</p>
    </div>
</body>
</html>`,
		html.EscapeString(sub.Name), html.EscapeString(sub.Email), html.EscapeString(sub.Email),
		submitted, html.EscapeString(sub.Message), sub.ID)

	return Message{
		To:      n.cfg.OwnerEmail,
		Subject: "New Portfolio Contact: " + singleLine(sub.Name),
		Text:    text,
		HTML:    htmlBody,
	}
}

func (n *Notifier) acknowledgmentMessage(sub *domain.Submission) Message {
	signature := n.cfg.Signature
	if signature == "" {
		signature = n.cfg.OwnerName
	}

	text := fmt.Sprintf(`Hi %s,

Thank you for reaching out through my portfolio website! I've received your message and will get back to you within 24 hours.

Your message:
"%s"

Best regards,
%s

---
This is an automated response. Please do not reply to this email.`, sub.Name, sub.Message, signature)

	return Message{
		To:      sub.Email,
		Subject: "Thanks for contacting " + n.cfg.OwnerName,
		Text:    text,
	}
}

// singleLine keeps visitor text from spilling across header lines.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
