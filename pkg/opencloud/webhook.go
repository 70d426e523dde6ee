package opencloud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxWebhookAge rejects replayed notifications older than this.
const maxWebhookAge = 10 * time.Minute

// WebhookNotification is the decoded body of a webhook delivery.
type WebhookNotification struct {
	NotificationID string          `json:"NotificationId"`
	EventType      string          `json:"EventType"`
	EventTime      time.Time       `json:"EventTime"`
	EventPayload   json.RawMessage `json:"EventPayload"`
}

// ValidateWebhookSignature checks the roblox-signature header against the
// raw request body. The header carries a unix timestamp and a base64
// HMAC-SHA256 of "<timestamp>.<body>" keyed by the webhook secret.
// Deliveries older than ten minutes are rejected even when the digest
// matches, to block replays.
func ValidateWebhookSignature(body []byte, signatureHeader string, secret []byte) error {
	if signatureHeader == "" {
		return fmt.Errorf("missing signature header: %w", ErrInvalidSignature)
	}

	timestamp, digest, err := splitSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)

	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return ErrInvalidSignature
	}

	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp: %w", ErrInvalidSignature)
	}

	if time.Since(time.Unix(issued, 0)) > maxWebhookAge {
		return fmt.Errorf("notification is too old: %w", ErrInvalidSignature)
	}

	return nil
}

// ParseWebhookNotification validates the signature and decodes the body.
// Pass a nil secret to skip signature validation (never in production).
func ParseWebhookNotification(body []byte, signatureHeader string, secret []byte) (*WebhookNotification, error) {
	if secret != nil {
		err := ValidateWebhookSignature(body, signatureHeader, secret)
		if err != nil {
			return nil, err
		}
	}

	var notification WebhookNotification

	err := json.Unmarshal(body, &notification)
	if err != nil {
		return nil, fmt.Errorf("decoding webhook body: %w", err)
	}

	return &notification, nil
}

// splitSignatureHeader parses "t=<timestamp>,v1=<digest>".
func splitSignatureHeader(header string) (timestamp, digest string, err error) {
	parts := strings.Split(header, ",")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed signature header: %w", ErrInvalidSignature)
	}

	for _, part := range parts {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			timestamp = value
		case "v1":
			digest = value
		}
	}

	if timestamp == "" || digest == "" {
		return "", "", fmt.Errorf("malformed signature header: %w", ErrInvalidSignature)
	}

	return timestamp, digest, nil
}
