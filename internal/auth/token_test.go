package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientCredentialsExchange(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "reaper" || pass != "secret" {
			t.Errorf("unexpected basic auth: %s/%s", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("expected client_credentials grant, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	ts := NewClientCredentials(srv.URL, "reaper", "secret", srv.Client())

	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("expected tok-123, got %q", token)
	}

	// Second call inside the expiry window must reuse the cached token.
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("cached Token failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected 1 exchange, got %d", requests)
	}
}

func TestClientCredentialsRefreshAfterExpiry(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"access_token":"tok-456","expires_in":60}`))
	}))
	defer srv.Close()

	ts := NewClientCredentials(srv.URL, "reaper", "secret", srv.Client())
	clock := time.Now()
	ts.now = func() time.Time { return clock }

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	// Advance past the 60s expiry; next call must hit the endpoint again.
	clock = clock.Add(2 * time.Minute)
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("refresh Token failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 exchanges, got %d", requests)
	}
}

func TestClientCredentialsExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad client", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewClientCredentials(srv.URL, "reaper", "wrong", srv.Client())
	if _, err := ts.Token(context.Background()); err == nil {
		t.Fatal("expected error on 401 exchange")
	}
}

func TestStaticTokenSource(t *testing.T) {
	token, err := StaticTokenSource("abc").Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "abc" {
		t.Errorf("expected abc, got %q", token)
	}

	if _, err := StaticTokenSource("").Token(context.Background()); err == nil {
		t.Error("expected error for empty static token")
	}
}
