package domain

import "errors"

var (
	ErrTenantNotFound        = errors.New("tenant not found")
	ErrTenantExists          = errors.New("tenant already exists")
	ErrTenantInactive        = errors.New("tenant account is inactive")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrCredentialRejected    = errors.New("credential exchange rejected")
	ErrAuthorizationRequired = errors.New("no user access token available, interactive authorization required")
	ErrSignatureInvalid      = errors.New("invalid webhook signature")
	ErrForwardingFailed      = errors.New("forwarding to downstream sink failed")
)
