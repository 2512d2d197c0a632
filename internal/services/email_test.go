package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio/internal/config"
)

func smtpConfig() *config.EmailConfig {
	return &config.EmailConfig{
		Enabled:   true,
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		Username:  "mailer",
		Password:  "secret",
		FromEmail: "noreply@example.com",
		FromName:  "Portfolio Café",
	}
}

func TestEmailService_DisabledOnlyLogs(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: false}, zap.NewNop())
	assert.False(t, s.IsEnabled())
	assert.NoError(t, s.Send(context.Background(), Message{To: "a@b.co", Subject: "hi", Text: "hello"}))
}

func TestEmailService_Misconfigured(t *testing.T) {
	cfg := smtpConfig()
	cfg.Password = ""
	s := NewEmailService(cfg, zap.NewNop())

	err := s.Send(context.Background(), Message{To: "a@b.co", Subject: "hi", Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not properly configured")
}

func TestEmailService_SendHonoursContext(t *testing.T) {
	cfg := smtpConfig()
	cfg.SMTPHost = "127.0.0.1"
	cfg.SMTPPort = 1
	s := NewEmailService(cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{To: "a@b.co", Subject: "hi", Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}

func TestEmailService_BuildPlainMessage(t *testing.T) {
	s := NewEmailService(smtpConfig(), zap.NewNop())

	raw, err := s.buildMessage(Message{To: "ada@example.com", Subject: "Thanks for contacting Zoë", Text: "Hi Ada,\nthanks!"})
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, "To: ada@example.com\r\n")
	assert.Contains(t, body, "From: =?utf-8?q?Portfolio_Caf=C3=A9?= <noreply@example.com>\r\n")
	assert.Contains(t, body, "Subject: =?utf-8?q?Thanks_for_contacting_Zo=C3=AB?=\r\n")
	assert.Contains(t, body, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.NotContains(t, body, "multipart")
	assert.Contains(t, body, "thanks!")
}

func TestEmailService_BuildMultipartMessage(t *testing.T) {
	s := NewEmailService(smtpConfig(), zap.NewNop())

	raw, err := s.buildMessage(Message{To: "owner@example.com", Subject: "New", Text: "plain body", HTML: "<p>html body</p>"})
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=\"----=_Part_")
	assert.Contains(t, body, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
	assert.Less(t, strings.Index(body, "plain body"), strings.Index(body, "html body"))
	assert.True(t, strings.HasSuffix(body, "--\r\n"))
}
