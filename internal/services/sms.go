package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"activation/internal/config"
	"activation/internal/ids"
)

// ErrSMSNotConfigured is returned when the SMS provider has no credentials.
var ErrSMSNotConfigured = errors.New("SMS gateway credentials are not configured")

const smsTimeout = 10 * time.Second

// SMSService sends text messages through the configured provider
type SMSService struct {
	cfg    *config.SMSConfig
	client *http.Client
}

// NewSMSService creates a new SMS service
func NewSMSService(cfg *config.SMSConfig) *SMSService {
	return &SMSService{
		cfg:    cfg,
		client: &http.Client{Timeout: smsTimeout},
	}
}

// IsEnabled returns whether SMS notifications are switched on
func (s *SMSService) IsEnabled() bool {
	return s.cfg.Enabled
}

// IsConfigured reports whether the provider has everything it needs to send
func (s *SMSService) IsConfigured() bool {
	switch strings.ToLower(s.cfg.Provider) {
	case "twilio":
		return s.cfg.TwilioSID != "" && s.cfg.TwilioAuth != "" && s.cfg.TwilioMessagingServiceSID != ""
	case "console", "dev", "development":
		return true
	default:
		return false
	}
}

// Send delivers body to an E.164 phone number and returns the provider
// message id.
func (s *SMSService) Send(ctx context.Context, to, body string) (string, error) {
	if !s.IsConfigured() {
		return "", ErrSMSNotConfigured
	}

	switch strings.ToLower(s.cfg.Provider) {
	case "twilio":
		return s.sendViaTwilio(ctx, to, body)
	case "console", "dev", "development":
		// Development mode - just log
		log.Printf("[SMS] Message to %s:\n%s", to, body)
		return "console-" + ids.New(), nil
	default:
		return "", fmt.Errorf("unsupported SMS provider: %s", s.cfg.Provider)
	}
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendViaTwilio sends SMS via the Twilio Messages API using a messaging service
func (s *SMSService) sendViaTwilio(ctx context.Context, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.TwilioAPIBase, "/"), url.PathEscape(s.cfg.TwilioSID))

	form := url.Values{}
	form.Set("To", to)
	form.Set("Body", body)
	form.Set("MessagingServiceSid", s.cfg.TwilioMessagingServiceSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.TwilioSID, s.cfg.TwilioAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	var msg twilioMessage
	decodeErr := json.NewDecoder(resp.Body).Decode(&msg)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		if decodeErr == nil && msg.Message != "" {
			return "", fmt.Errorf("Twilio API error (status %d, code %d): %s", resp.StatusCode, msg.Code, msg.Message)
		}
		return "", fmt.Errorf("Twilio API error (status %d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode Twilio response: %w", decodeErr)
	}

	return msg.SID, nil
}
