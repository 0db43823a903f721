package docrequest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/events"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

type fakePayments struct {
	link string
	err  error
}

func (f fakePayments) CreateLink(context.Context, int, string, string) (string, error) {
	return f.link, f.err
}

type fakeDirectory struct {
	emails map[string]string
}

func (f fakeDirectory) FindResidentEmail(_ context.Context, name types.PersonName) (string, error) {
	if email, ok := f.emails[name.Full()]; ok {
		return email, nil
	}
	return "", errors.NotFound("resident", name.Full())
}

func newTestServer(t *testing.T) (*httptest.Server, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(repo,
		IGPNumberDomain(repo, sequence.PaddedFormat("IGP", 6)),
		fakePayments{link: "https://pm.link/test"},
		fakeDirectory{emails: map[string]string{"Juan Dela Cruz": "juan@example.com"}},
		events.NewMemoryBus(), logger)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestCertificationRequestLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]any{
		"requester":   map[string]string{"firstName": "Juan", "lastName": "Dela Cruz"},
		"purpose":     "Employment",
		"requestDate": "2026-09-01",
	}
	status, body := doJSON(t, http.MethodPost, srv.URL+"/add-request-certification", payload)
	if status != http.StatusOK {
		t.Fatalf("add status = %d, body %v", status, body)
	}
	request := body["request"].(map[string]any)
	if request["status"] != "Processing" {
		t.Errorf("status = %v, want Processing", request["status"])
	}
	id := request["id"].(string)

	status, body = doJSON(t, http.MethodPut, srv.URL+"/transfer-request-certification/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("transfer status = %d, body %v", status, body)
	}

	_, live := doJSON(t, http.MethodGet, srv.URL+"/fetch-certification-requests", nil)
	if live["total"] != float64(0) {
		t.Errorf("live total = %v, want 0", live["total"])
	}
	_, archived := doJSON(t, http.MethodGet, srv.URL+"/fetch-certification-requests-complete", nil)
	if archived["total"] != float64(1) {
		t.Errorf("archived total = %v, want 1", archived["total"])
	}
}

func TestRequestKindsAreSeparated(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]any{
		"requester": map[string]string{"firstName": "Maria", "lastName": "Lopez"},
		"purpose":   "Medical assistance",
	}
	if status, _ := doJSON(t, http.MethodPost, srv.URL+"/add-request-indigency", payload); status != http.StatusOK {
		t.Fatalf("add indigency status = %d", status)
	}

	_, clearance := doJSON(t, http.MethodGet, srv.URL+"/fetch-clearance-requests", nil)
	if clearance["total"] != float64(0) {
		t.Errorf("clearance total = %v, want 0", clearance["total"])
	}
	_, indigency := doJSON(t, http.MethodGet, srv.URL+"/fetch-indigency-requests", nil)
	if indigency["total"] != float64(1) {
		t.Errorf("indigency total = %v, want 1", indigency["total"])
	}
}

func TestAddRequestRejectsAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/add-request-clearance", map[string]any{"purpose": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestBarangayIDNumbering(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/next-igp-no", nil)
	if status != http.StatusOK {
		t.Fatalf("next-igp-no status = %d", status)
	}
	if body["nextIgp"] != "IGP-000001" {
		t.Errorf("nextIgp = %v, want IGP-000001", body["nextIgp"])
	}

	payload := map[string]any{
		"holder":    map[string]string{"firstName": "Ana", "lastName": "Torres"},
		"address":   "Purok 3",
		"birthDate": "1990-04-12",
	}
	_, created := doJSON(t, http.MethodPost, srv.URL+"/barangay-ids", payload)
	data := created["data"].(map[string]any)
	if data["igp"] != "IGP-000001" {
		t.Errorf("allocated igp = %v, want IGP-000001", data["igp"])
	}
	id := data["id"].(string)

	// Archiving the card must not free its number.
	if status, _ := doJSON(t, http.MethodPut, srv.URL+"/barangay-ids/transfer/"+id, nil); status != http.StatusOK {
		t.Fatalf("transfer status = %d", status)
	}
	_, next := doJSON(t, http.MethodGet, srv.URL+"/next-igp-no", nil)
	if next["nextIgp"] != "IGP-000002" {
		t.Errorf("nextIgp after archive = %v, want IGP-000002", next["nextIgp"])
	}
}

func TestRequestPayment(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]any{
		"requester": map[string]string{"firstName": "Juan", "lastName": "Dela Cruz"},
	}
	status, body := doJSON(t, http.MethodPost, srv.URL+"/request-cert-payment", payload)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %v", status, body)
	}
	if body["paymentLink"] != "https://pm.link/test" {
		t.Errorf("paymentLink = %v", body["paymentLink"])
	}

	// Unknown residents surface as an error instead of a dangling link.
	payload["requester"] = map[string]string{"firstName": "Ghost", "lastName": "Resident"}
	status, body = doJSON(t, http.MethodPost, srv.URL+"/request-cert-payment", payload)
	if status != http.StatusNotFound {
		t.Fatalf("unknown resident status = %d, body %v", status, body)
	}
}
