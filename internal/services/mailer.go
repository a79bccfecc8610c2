package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

const resendBaseURL = "https://api.resend.com"

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewResendMailer constructs a ResendMailer sending from the given address.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey:  apiKey,
		from:    from,
		baseURL: resendBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// WithBaseURL points the mailer at a different API host.
func (m *ResendMailer) WithBaseURL(baseURL string) *ResendMailer {
	m.baseURL = baseURL
	return m
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendEmail posts one message and fails on any non-2xx response.
func (m *ResendMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return nil
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no mail provider is configured.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	m.log.InfoContext(ctx, "email not sent, no provider configured", "to", to, "subject", subject, "body", htmlBody)
	return nil
}

// OTPEmailHTML renders the body of the verification email.
func OTPEmailHTML(otp string) string {
	return fmt.Sprintf(`<div style="max-width:700px;margin:auto;border:8px solid #ddd;padding:50px 20px;font-size:110%%;">
<h2 style="text-align:center;text-transform:uppercase;color:teal;">Welcome</h2>
<p>Your verification code is:</p>
<h1 style="letter-spacing:4px;">%s</h1>
<p>The code expires shortly. If you did not request it, ignore this email.</p>
</div>`, html.EscapeString(otp))
}

// PasswordResetEmailHTML renders the body of the password reset email.
func PasswordResetEmailHTML(link string) string {
	escaped := html.EscapeString(link)
	return fmt.Sprintf(`<div style="max-width:700px;margin:auto;padding:50px 20px;">
<p>We received a request to reset your password.</p>
<p><a href="%s">Reset password</a></p>
<p>If the button does not work, open %s in your browser. The link expires in 10 minutes.</p>
</div>`, escaped, escaped)
}
