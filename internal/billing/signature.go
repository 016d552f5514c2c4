package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Webhook signature headers, HMAC-SHA256 over "timestamp.payload" with the
// shared endpoint secret. Timestamp binding bounds the replay window.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"

	// DefaultSignatureMaxAge is the accepted delivery age.
	DefaultSignatureMaxAge = 5 * time.Minute
)

// ErrInvalidSignature is returned for any verification failure. The webhook
// handler rejects these with 400 before touching the event.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignPayload computes the signature for a payload at the given timestamp.
// Exposed for tests and for the provider simulator used in development.
func SignPayload(secret string, payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook delivery against the shared secret using
// a constant-time comparison, rejecting stale and far-future timestamps.
func VerifySignature(secret string, payload []byte, signature string, timestamp int64, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: endpoint secret not configured", ErrInvalidSignature)
	}
	if signature == "" {
		return fmt.Errorf("%w: signature header missing", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: timestamp too old (%s)", ErrInvalidSignature, age)
		}
		if age < -1*time.Minute {
			return fmt.Errorf("%w: timestamp in the future", ErrInvalidSignature)
		}
	}

	expected := SignPayload(secret, payload, timestamp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}
