package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lapzone/lapzone-backend/pkg/config"
	"github.com/lapzone/lapzone-backend/pkg/logger"
)

const sendPath = "/v3/mail/send"

var (
	errMissingRecipient = errors.New("mail recipient is required")
	errMissingSubject   = errors.New("mail subject is required")
)

// Client sends email through the SendGrid v3 HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
}

// NewClient builds an API-backed sender. When no API key is configured it
// falls back to a log-only sender so local environments never need
// outbound credentials.
func NewClient(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	if cfg.DefaultFrom == "" {
		return nil, errors.New("mail from address is required")
	}
	if cfg.APIKey == "" {
		return NewLogSender(cfg.DefaultFrom, logg), nil
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:     cfg.APIKey,
		from:       cfg.DefaultFrom,
	}, nil
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send delivers the message through the provider API.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: c.from},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/plain", Value: msg.Body}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return fmt.Errorf("mail send failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return fmt.Errorf("mail send failed: %s", resp.Status)
	}
	return nil
}

// LogSender writes mail to the log instead of delivering it.
type LogSender struct {
	from string
	logg *logger.Logger
}

func NewLogSender(from string, logg *logger.Logger) *LogSender {
	return &LogSender{from: from, logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"mail_to":      msg.To,
			"mail_from":    s.from,
			"mail_subject": msg.Subject,
		})
		s.logg.Info(ctx, "mail delivery skipped, no api key configured")
	}
	return nil
}
