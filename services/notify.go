package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// Notifier mails developer alerts through Resend. A Notifier built from a
// config without RESEND_API_KEY, RESEND_FROM_EMAIL and ALERT_EMAILS drops
// every alert.
type Notifier struct {
	apiKey     string
	from       string
	recipients []string
	endpoint   string
	client     *http.Client
	wg         sync.WaitGroup
}

func NewNotifier(cfg *config.Config) *Notifier {
	n := &Notifier{
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	if cfg != nil && cfg.AlertsEnabled() {
		n.apiKey = cfg.ResendAPIKey
		n.from = cfg.ResendFromEmail
		n.recipients = cfg.AlertEmails
	}
	return n
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.apiKey != "" && n.from != "" && len(n.recipients) > 0
}

// Alert sends the alert in the background. Failures are logged.
func (n *Notifier) Alert(subject, body string) {
	if !n.Enabled() {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.SendEmail(ctx, subject, "<pre>"+html.EscapeString(body)+"</pre>"); err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("failed to send developer alert")
		}
	}()
}

// SendEmail sends an email using the Resend API to the configured recipients.
func (n *Notifier) SendEmail(ctx context.Context, subject, htmlBody string) error {
	if len(n.recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	payload := ResendEmailRequest{
		From:    n.from,
		To:      n.recipients,
		Subject: subject,
		Html:    htmlBody,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}
	return nil
}

// Wait blocks until queued alerts have been sent.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}
