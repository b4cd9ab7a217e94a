package telephony

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/juru/server/domain/repositories"
)

func TestWebhookSay(t *testing.T) {
	var gotBody, gotContentType, gotCallSID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		gotCallSID = r.Header.Get("X-Call-Sid")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cc, err := NewWebhookCallControl(WebhookConfig{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create call control: %v", err)
	}

	target := repositories.CallTarget{ConnectionID: "es-1", CallSID: "CA1", ResponseURL: server.URL}
	if err := cc.Say(context.Background(), target, "Hello"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotContentType != "text/xml" {
		t.Errorf("Expected text/xml, got %s", gotContentType)
	}
	if gotCallSID != "CA1" {
		t.Errorf("Expected call SID header CA1, got %s", gotCallSID)
	}
	if !strings.Contains(gotBody, "<Say") || !strings.Contains(gotBody, "Hello") {
		t.Errorf("Unexpected body %s", gotBody)
	}
}

func TestWebhookSayFallsBackToDefaultURL(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cc, err := NewWebhookCallControl(WebhookConfig{DefaultURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create call control: %v", err)
	}

	if err := cc.Say(context.Background(), repositories.CallTarget{ConnectionID: "es-1"}, "Hello"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !called {
		t.Error("Expected default URL to receive the TwiML")
	}
}

func TestWebhookSayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	cc, err := NewWebhookCallControl(WebhookConfig{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create call control: %v", err)
	}

	if err := cc.Say(context.Background(), repositories.CallTarget{ConnectionID: "es-1"}, "Hello"); err == nil {
		t.Error("Expected error when no URL is known")
	}
	if err := cc.Say(context.Background(), repositories.CallTarget{ConnectionID: "es-1", ResponseURL: server.URL}, "Hello"); err == nil {
		t.Error("Expected error for non-2xx response")
	}
	if _, err := NewWebhookCallControl(WebhookConfig{Timeout: -1}, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error for negative timeout")
	}
}

func TestLogCallControl(t *testing.T) {
	cc := NewLogCallControl(zaptest.NewLogger(t))
	if err := cc.Say(context.Background(), repositories.CallTarget{ConnectionID: "a"}, "hi"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := cc.Say(context.Background(), repositories.CallTarget{ConnectionID: "a"}, ""); err == nil {
		t.Error("Expected error for empty text")
	}
}
