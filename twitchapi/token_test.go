package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAppTokenSource_Fetch(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.PostForm.Get("client_id"); got != "test-client" {
			t.Errorf("client_id = %q, want test-client", got)
		}
		if got := r.PostForm.Get("client_secret"); got != "test-secret" {
			t.Errorf("client_secret = %q, want test-secret", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token-123",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	ts := &AppTokenSource{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		HTTPClient: &http.Client{
			Transport: &tokenTransport{host: server.URL},
		},
	}

	token, err := ts.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if token != "test-token-123" {
		t.Errorf("Fetch() = %s, want test-token-123", token)
	}
	if callCount != 1 {
		t.Errorf("expected 1 API call, got %d", callCount)
	}
}

func TestAppTokenSource_FetchNeverCaches(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		token := "test-token-1"
		if callCount > 1 {
			token = "test-token-2"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	ts := &AppTokenSource{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		TokenURL:     server.URL + "/oauth2/token",
	}

	token1, err := ts.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	token2, err := ts.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if token1 != "test-token-1" || token2 != "test-token-2" {
		t.Errorf("tokens = %q, %q; want a fresh token per call", token1, token2)
	}
	if callCount != 2 {
		t.Errorf("expected 2 API calls, got %d", callCount)
	}
}

func TestAppTokenSource_FetchMissingCredentials(t *testing.T) {
	ts := &AppTokenSource{}

	_, err := ts.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() with missing credentials should return error")
	}
	if !strings.Contains(err.Error(), "missing client id/secret") {
		t.Errorf("Fetch() error = %v, want error about missing credentials", err)
	}
}

func TestAppTokenSource_FetchServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"bad request", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"status":400,"message":"invalid client"}`))
			}))
			defer server.Close()

			ts := &AppTokenSource{
				ClientID:     "bad-client",
				ClientSecret: "bad-secret",
				TokenURL:     server.URL + "/oauth2/token",
			}

			_, err := ts.Fetch(context.Background())
			if err == nil {
				t.Fatal("Fetch() with server error should return error")
			}
			if !strings.Contains(err.Error(), "twitch token request failed") {
				t.Errorf("Fetch() error = %v, want wrapped token error", err)
			}
		})
	}
}

func TestAppTokenSource_FetchEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	ts := &AppTokenSource{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		TokenURL:     server.URL + "/oauth2/token",
	}

	if _, err := ts.Fetch(context.Background()); err == nil {
		t.Error("Fetch() with empty access_token should return error")
	}
}

func TestAppTokenSource_FetchNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	ts := &AppTokenSource{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		TokenURL:     url + "/oauth2/token",
		HTTPClient:   &http.Client{Timeout: 2 * time.Second},
	}
	if _, err := ts.Fetch(context.Background()); err == nil {
		t.Error("Fetch() against a closed server should return error")
	}
}

// tokenTransport is a custom transport for redirecting token requests
type tokenTransport struct {
	host string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	if t.host != "" {
		req.URL.Host = strings.TrimPrefix(t.host, "http://")
	}
	return http.DefaultTransport.RoundTrip(req)
}
