package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brgy-santafe/registry/internal/shared/config"
)

func TestCreateLink(t *testing.T) {
	var gotPath, gotUser string
	var gotAmount int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()

		var payload struct {
			Data struct {
				Attributes struct {
					Amount int `json:"amount"`
				} `json:"attributes"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotAmount = payload.Data.Attributes.Amount

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"attributes":{"checkout_url":"https://pm.link/abc123"}}}`))
	}))
	defer srv.Close()

	client := NewClient(config.PayMongoConfig{BaseURL: srv.URL, SecretKey: "sk_test_xyz"})
	link, err := client.CreateLink(context.Background(), 10000, "Certificate Request", "Juan Dela Cruz's Document Request")
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	if link != "https://pm.link/abc123" {
		t.Errorf("link = %q", link)
	}
	if gotPath != "/links" {
		t.Errorf("path = %q, want /links", gotPath)
	}
	if gotUser != "sk_test_xyz" {
		t.Errorf("basic auth user = %q, want the secret key", gotUser)
	}
	if gotAmount != 10000 {
		t.Errorf("amount = %d, want 10000", gotAmount)
	}
}

func TestCreateLinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"invalid key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(config.PayMongoConfig{BaseURL: srv.URL, SecretKey: "bad"})
	if _, err := client.CreateLink(context.Background(), 10000, "x", "y"); err == nil {
		t.Fatal("CreateLink succeeded against an error response")
	}
}
