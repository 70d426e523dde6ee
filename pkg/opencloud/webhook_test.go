package opencloud

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWebhook(t *testing.T, body []byte, secret []byte, issued time.Time) string {
	t.Helper()

	timestamp := fmt.Sprintf("%d", issued.Unix())

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)

	return fmt.Sprintf("t=%s,v1=%s", timestamp, base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func TestValidateWebhookSignature(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"NotificationId": "n-1", "EventType": "RightToErasureRequest"}`)

	header := signWebhook(t, body, secret, time.Now())
	assert.NoError(t, ValidateWebhookSignature(body, header, secret))
}

func TestValidateWebhookSignature_Failures(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"NotificationId": "n-1"}`)

	tests := []struct {
		name   string
		body   []byte
		header string
		secret []byte
	}{
		{
			name:   "missing header",
			body:   body,
			header: "",
			secret: secret,
		},
		{
			name:   "tampered body",
			body:   []byte(`{"NotificationId": "n-2"}`),
			header: signWebhook(t, body, secret, time.Now()),
			secret: secret,
		},
		{
			name:   "wrong secret",
			body:   body,
			header: signWebhook(t, body, []byte("other-secret"), time.Now()),
			secret: secret,
		},
		{
			name:   "stale timestamp",
			body:   body,
			header: signWebhook(t, body, secret, time.Now().Add(-11*time.Minute)),
			secret: secret,
		},
		{
			name:   "malformed header",
			body:   body,
			header: "v1=abc",
			secret: secret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWebhookSignature(tt.body, tt.header, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestParseWebhookNotification(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{
		"NotificationId": "7f9a1b",
		"EventType": "RightToErasureRequest",
		"EventTime": "2024-03-01T12:00:00Z",
		"EventPayload": {"UserId": 287113233, "GameIds": [3260133]}
	}`)

	header := signWebhook(t, body, secret, time.Now())

	notification, err := ParseWebhookNotification(body, header, secret)
	require.NoError(t, err)
	assert.Equal(t, "7f9a1b", notification.NotificationID)
	assert.Equal(t, "RightToErasureRequest", notification.EventType)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), notification.EventTime)
	assert.JSONEq(t, `{"UserId": 287113233, "GameIds": [3260133]}`, string(notification.EventPayload))
}

func TestParseWebhookNotification_BadSignature(t *testing.T) {
	_, err := ParseWebhookNotification([]byte(`{}`), "t=1,v1=bogus", []byte("secret"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhookNotification_NilSecretSkipsValidation(t *testing.T) {
	notification, err := ParseWebhookNotification([]byte(`{"EventType": "Test"}`), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Test", notification.EventType)
}
