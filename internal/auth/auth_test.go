package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name, id, secret string
	}{
		{"both empty", "", ""},
		{"missing secret", "id", ""},
		{"missing id", "", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, tt.secret); !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("New() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestAuthenticator_TokenReused(t *testing.T) {
	var calls atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	a, err := New("id", "secret", WithTokenURL(tokenServer.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	client := a.HTTPClient(context.Background())
	for i := 0; i < 3; i++ {
		resp, err := client.Get(api.URL)
		if err != nil {
			t.Fatalf("request %d error = %v", i, err)
		}
		resp.Body.Close()
	}

	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", gotAuth)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}
