package services

import (
	"context"
	"errors"
	"testing"

	"twitchbridge/internal/core/domain"

	"go.uber.org/zap/zaptest"
)

func registerParams() RegisterParams {
	return RegisterParams{
		Username:     "streamer",
		Password:     "correct horse battery",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		SinkBaseURL:  "http://game.example.com:8080/",
	}
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := NewAccountService(repo, zaptest.NewLogger(t).Sugar())

	tenant, err := svc.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if tenant.ID == "" || tenant.APIKey == "" || tenant.EventSubSecret == "" {
		t.Errorf("Register() left identifiers empty: %+v", tenant)
	}
	if tenant.PasswordHash == "" || tenant.PasswordHash == "correct horse battery" {
		t.Error("password must be stored hashed")
	}
	if tenant.SinkBaseURL != "http://game.example.com:8080" {
		t.Errorf("SinkBaseURL = %q, want trailing slash trimmed", tenant.SinkBaseURL)
	}
	if !tenant.Active {
		t.Error("new tenants start active")
	}

	got, err := svc.Login(context.Background(), "streamer", "correct horse battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != tenant.ID {
		t.Errorf("Login() tenant = %s, want %s", got.ID, tenant.ID)
	}
}

func TestAccountService_Register_DuplicateUsername(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := NewAccountService(repo, zaptest.NewLogger(t).Sugar())

	if _, err := svc.Register(context.Background(), registerParams()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), registerParams())
	if !errors.Is(err, domain.ErrTenantExists) {
		t.Errorf("Register() error = %v, want ErrTenantExists", err)
	}
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := NewAccountService(repo, zaptest.NewLogger(t).Sugar())

	if _, err := svc.Register(context.Background(), registerParams()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "streamer", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAccountService_Login_UnknownUser(t *testing.T) {
	svc := NewAccountService(newFakeTenantRepo(), zaptest.NewLogger(t).Sugar())

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials (no user enumeration)", err)
	}
}

func TestAccountService_Update(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := NewAccountService(repo, zaptest.NewLogger(t).Sugar())

	tenant, err := svc.Register(context.Background(), registerParams())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	newSink := "https://other.example.com/"
	updated, err := svc.Update(context.Background(), tenant.ID, domain.TenantUpdate{SinkBaseURL: &newSink})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.SinkBaseURL != "https://other.example.com" {
		t.Errorf("SinkBaseURL = %q, want https://other.example.com", updated.SinkBaseURL)
	}
	if updated.ClientID != "client-id" {
		t.Errorf("ClientID changed unexpectedly to %q", updated.ClientID)
	}
}
