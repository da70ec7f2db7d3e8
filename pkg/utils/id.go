package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateTenantID generates a unique tenant ID
func GenerateTenantID() string {
	return uuid.New().String()
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("evt_%d_%s", timestamp, hex.EncodeToString(b))
}

// GenerateListenerID generates a unique feed listener ID
func GenerateListenerID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("lst_%d_%s", timestamp, hex.EncodeToString(b))
}

// GenerateAPIKey generates a 64-char hex API key
func GenerateAPIKey() string {
	return GenerateSecret()
}

// GenerateSecret generates a 64-char hex secret suitable for webhook signing
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
