package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventIDHeader   = "X-Webhook-Event-ID"
	TimestampHeader = "X-Webhook-Timestamp"
)

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a SignatureHeader value ("sha256=<hex>").
func VerifySignature(payload []byte, secret, header string) bool {
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	return hmac.Equal([]byte(SignPayload(payload, secret)), []byte(header[len(prefix):]))
}

// WebhookPublisher POSTs each event as signed JSON to a single endpoint,
// retrying non-2xx answers and transport failures up to maxAttempts times.
type WebhookPublisher struct {
	url         string
	secret      string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
}

func NewWebhookPublisher(url, secret string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookPublisher{
		url:         url,
		secret:      secret,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff * time.Duration(attempt-1)):
			}
		}
		if lastErr = p.deliver(ctx, evt, payload); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("deliver %s after %d attempts: %w", evt.Type, p.maxAttempts, lastErr)
}

func (p *WebhookPublisher) deliver(ctx context.Context, evt Event, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventIDHeader, evt.ID)
	req.Header.Set(TimestampHeader, time.Now().UTC().Format(time.RFC3339))
	if p.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+SignPayload(payload, p.secret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx response: %d", resp.StatusCode)
	}
	return nil
}

func (p *WebhookPublisher) Close() error { return nil }

// Multi fans an event out to several publishers. Every publisher is tried;
// the errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
