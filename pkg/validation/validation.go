package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// UsernameRegex validates registered account names
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// ClientIDRegex validates Twitch client identifiers
	ClientIDRegex = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ValidateUsername validates username
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateSinkURL validates a downstream sink base address
func ValidateSinkURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("sink URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid sink URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("sink URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("sink URL must include a host")
	}
	return nil
}

// ValidateClientCredentials validates a Twitch client id/secret pair shape
func ValidateClientCredentials(clientID, clientSecret string) error {
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("twitch client id is required")
	}
	if strings.TrimSpace(clientSecret) == "" {
		return fmt.Errorf("twitch client secret is required")
	}
	if len(clientID) > 100 || len(clientSecret) > 100 {
		return fmt.Errorf("twitch credentials are too long (max 100 characters)")
	}
	return nil
}
