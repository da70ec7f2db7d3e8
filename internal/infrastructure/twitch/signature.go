package twitch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"twitchbridge/internal/core/domain"
)

// EventSub webhook headers.
const (
	HeaderMessageID   = "Twitch-Eventsub-Message-Id"
	HeaderTimestamp   = "Twitch-Eventsub-Message-Timestamp"
	HeaderSignature   = "Twitch-Eventsub-Message-Signature"
	HeaderMessageType = "Twitch-Eventsub-Message-Type"
)

// Message type values carried by HeaderMessageType.
const (
	MessageTypeVerification = "webhook_callback_verification"
	MessageTypeNotification = "notification"
	MessageTypeRevocation   = "revocation"
)

const signaturePrefix = "sha256="

// Verifier checks EventSub webhook signatures. The HMAC covers the raw
// request bytes exactly as received; any reserialization before hashing
// would break verification.
type Verifier struct {
	window time.Duration
	now    func() time.Time
}

// NewVerifier builds a verifier rejecting messages whose timestamp is more
// than window away from now, in either direction.
func NewVerifier(window time.Duration) *Verifier {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Verifier{window: window, now: time.Now}
}

// Verify checks the signature header against HMAC-SHA256(secret,
// messageID || timestamp || body). All failure modes map to
// domain.ErrSignatureInvalid so callers answer them identically.
func (v *Verifier) Verify(messageID, timestamp, signature string, body []byte, secret string) error {
	if messageID == "" || timestamp == "" || signature == "" {
		return fmt.Errorf("%w: missing signature headers", domain.ErrSignatureInvalid)
	}

	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return fmt.Errorf("%w: unparseable timestamp", domain.ErrSignatureInvalid)
	}

	skew := v.now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.window {
		return fmt.Errorf("%w: message timestamp outside replay window", domain.ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// Sign computes the signature header value for the given message parts.
// Used by tests and local tooling to produce valid webhook requests.
func Sign(messageID, timestamp string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
