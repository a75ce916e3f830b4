package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmailProviderDeliver(t *testing.T) {
	var captured sgMailPayload
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("payload not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewEmailDeliveryProvider("sg-key", "digest@lakonic.dev", "Daily Brief")
	p.endpoint = srv.URL

	html := "<html><body><h1>Your Daily News Digest</h1><p>Hello reader.</p></body></html>"
	if err := p.Deliver(context.Background(), "reader@example.com", "Your Digest", html); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if authHeader != "Bearer sg-key" {
		t.Errorf("Authorization = %q", authHeader)
	}
	if len(captured.Personalizations) != 1 || captured.Personalizations[0].To[0].Email != "reader@example.com" {
		t.Errorf("personalizations = %+v", captured.Personalizations)
	}
	if captured.From.Email != "digest@lakonic.dev" || captured.From.Name != "Daily Brief" {
		t.Errorf("from = %+v", captured.From)
	}
	if len(captured.Content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(captured.Content))
	}
	if captured.Content[0].Type != "text/plain" || captured.Content[1].Type != "text/html" {
		t.Errorf("content order = %q, %q", captured.Content[0].Type, captured.Content[1].Type)
	}
	if !strings.Contains(captured.Content[0].Value, "Hello reader.") {
		t.Errorf("plain part = %q", captured.Content[0].Value)
	}
}

func TestEmailProviderDeliverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewEmailDeliveryProvider("bad", "digest@lakonic.dev", "Daily Brief")
	p.endpoint = srv.URL

	err := p.Deliver(context.Background(), "reader@example.com", "Subject", "<p>hi</p>")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want the status code surfaced", err)
	}
}

type stubProvider struct {
	err   error
	calls int
}

func (s *stubProvider) Type() string { return "email" }

func (s *stubProvider) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	s.calls++
	return s.err
}

func TestDeliveryServiceReturnsProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	svc := NewDeliveryService(nil, provider)

	err := svc.Deliver(context.Background(), "reader@example.com", "Subject", "<p>hi</p>")
	if !errors.Is(err, provider.err) {
		t.Errorf("err = %v, want provider error", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times", provider.calls)
	}
}

func TestDeliveryServiceNoProvider(t *testing.T) {
	svc := NewDeliveryService(nil)

	if err := svc.Deliver(context.Background(), "reader@example.com", "Subject", "<p>hi</p>"); err == nil {
		t.Fatal("expected error when no provider is registered")
	}
}
