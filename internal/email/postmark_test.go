package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendPasswordReset(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://helpline.test", WithAPIURL(server.URL), WithHTTPClient(server.Client()))

	err := client.SendPasswordReset(context.Background(), "alice@example.com", "abc+123", time.Hour)
	if err != nil {
		t.Fatalf("send password reset: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "Reset your Helpline password" {
		t.Errorf("Subject = %q, want %q", received.Subject, "Reset your Helpline password")
	}
	if !strings.Contains(received.TextBody, "https://helpline.test/reset-password?token=abc%2B123") {
		t.Errorf("TextBody missing escaped link: %q", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "1 hour") {
		t.Errorf("TextBody missing expiry: %q", received.TextBody)
	}
}

func TestSendPasswordResetNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://helpline.test")

	err := client.SendPasswordReset(context.Background(), "alice@example.com", "abc123", time.Hour)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSendPasswordResetAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode": 300, "Message": "Invalid email request"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://helpline.test", WithAPIURL(server.URL))

	err := client.SendPasswordReset(context.Background(), "alice@example.com", "abc123", time.Hour)
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "Invalid email request") {
		t.Errorf("err = %v, want postmark message", err)
	}
}

func TestSendPasswordResetCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://helpline.test", WithAPIURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.SendPasswordReset(ctx, "alice@example.com", "abc123", time.Hour); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
		{15 * time.Minute, "15 minutes"},
		{90 * time.Minute, "90 minutes"},
		{30 * time.Second, "30s"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.in); got != tt.want {
			t.Errorf("humanDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
