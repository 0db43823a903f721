package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brgy-santafe/registry/internal/case/domain"
	"github.com/brgy-santafe/registry/internal/case/infrastructure"
	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/events"
)

func newTestServer(t *testing.T) (*httptest.Server, domain.Stores, *events.MemoryBus) {
	t.Helper()
	stores := infrastructure.NewMemoryStores()
	bus := events.NewMemoryBus()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(stores, domain.NewEngine(stores),
		domain.BlotterNumberDomain(stores, sequence.PrefixFormat("SF")),
		domain.CFANumberDomain(stores, sequence.BareFormat()),
		bus, logger)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, stores, bus
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
	req.Header.Set("Content-Type", "application/json")
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

func samplePayload() map[string]any {
	return map[string]any{
		"complainants": []map[string]string{{"firstName": "Juan", "lastName": "Dela Cruz"}},
		"complainees":  []map[string]string{{"firstName": "Pedro", "lastName": "Reyes"}},
		"narrative":    "Away tungkol sa bakod.",
		"fields":       map[string]string{"reason": "Boundary dispute"},
	}
}

func recordData(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no record data: %v", body)
	}
	return data
}

func TestNextBlotterNoOnEmptySystem(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/next-blotter-no", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["nextBlotterNo"] != "SF-1" {
		t.Errorf("nextBlotterNo = %v, want SF-1", body["nextBlotterNo"])
	}
}

func TestAddBlotterAllocatesNumber(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %v", status, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if got := recordData(t, body)["caseNumber"]; got != "SF-1" {
		t.Errorf("caseNumber = %v, want SF-1", got)
	}

	// The second intake continues the sequence.
	_, body = doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	if got := recordData(t, body)["caseNumber"]; got != "SF-2" {
		t.Errorf("second caseNumber = %v, want SF-2", got)
	}
}

func TestAddBlotterRejectsMissingParties(t *testing.T) {
	srv, _, _ := newTestServer(t)

	payload := samplePayload()
	delete(payload, "complainees")
	status, body := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", payload)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestFetchUnknownRecord(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/fetch-blotter/6b1884f5-0678-44bb-b376-14b67c0b4a8e", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/fetch-blotter/not-a-uuid", nil)
	if status != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", status)
	}
}

func TestUpdateKeepsIdentityFields(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	id := recordData(t, created)["id"].(string)

	payload := samplePayload()
	payload["caseNumber"] = "SF-999"
	payload["narrative"] = "Na-amyendahan ang salaysay."
	status, body := doJSON(t, http.MethodPut, srv.URL+"/update-blotter/"+id, payload)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %v", status, body)
	}

	data := recordData(t, body)
	if data["caseNumber"] != "SF-1" {
		t.Errorf("caseNumber = %v, update must not reassign numbers", data["caseNumber"])
	}
	if data["id"] != id {
		t.Errorf("id = %v, want unchanged %s", data["id"], id)
	}
	if data["narrative"] != "Na-amyendahan ang salaysay." {
		t.Errorf("narrative = %v, want amended text", data["narrative"])
	}
}

func TestDeleteBlotter(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	id := recordData(t, created)["id"].(string)

	status, _ := doJSON(t, http.MethodDelete, srv.URL+"/delete-blotter/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", status)
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/fetch-blotter/"+id, nil)
	if status != http.StatusNotFound {
		t.Errorf("fetch after delete status = %d, want 404", status)
	}

	// Deleting again reports the record missing.
	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/delete-blotter/"+id, nil)
	if status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}

func TestEscalationFlowOverHTTP(t *testing.T) {
	srv, _, bus := newTestServer(t)

	var transferred []events.Event
	err := bus.Subscribe(context.Background(), "case.transferred", "test", func(_ context.Context, e events.Event) error {
		transferred = append(transferred, e)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_, created := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	id := recordData(t, created)["id"].(string)

	status, body := doJSON(t, http.MethodPut, srv.URL+"/transfer-to-lupon/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("transfer status = %d, body %v", status, body)
	}
	data := recordData(t, body)
	if data["caseNumber"] != "SF-1" {
		t.Errorf("hearing caseNumber = %v, want SF-1", data["caseNumber"])
	}
	fields := data["fields"].(map[string]any)
	if fields["hearingStage"] != "1" {
		t.Errorf("hearingStage = %v, want 1", fields["hearingStage"])
	}
	if fields["hearingDate"] != "" {
		t.Errorf("hearingDate = %v, want empty", fields["hearingDate"])
	}

	// The intake ledger is empty and the archive holds the snapshot.
	_, listing := doJSON(t, http.MethodGet, srv.URL+"/fetch-blotter", nil)
	if listing["total"] != float64(0) {
		t.Errorf("fetch-blotter total = %v, want 0", listing["total"])
	}
	_, archive := doJSON(t, http.MethodGet, srv.URL+"/fetch-completed-blotters", nil)
	if archive["total"] != float64(1) {
		t.Errorf("fetch-completed-blotters total = %v, want 1", archive["total"])
	}
	_, hearing := doJSON(t, http.MethodGet, srv.URL+"/fetch-lupon", nil)
	if hearing["total"] != float64(1) {
		t.Errorf("fetch-lupon total = %v, want 1", hearing["total"])
	}

	if len(transferred) != 1 {
		t.Fatalf("published %d case.transferred events, want 1", len(transferred))
	}

	// Advance through both remaining hearings and certify for filing.
	hearingID := data["id"].(string)
	if status, body = doJSON(t, http.MethodPut, srv.URL+"/transfer-to-lupon2/"+hearingID, nil); status != http.StatusOK {
		t.Fatalf("advance to hearing 2: %d %v", status, body)
	}
	if status, body = doJSON(t, http.MethodPut, srv.URL+"/transfer-to-lupon3/"+hearingID, nil); status != http.StatusOK {
		t.Fatalf("advance to hearing 3: %d %v", status, body)
	}
	if status, body = doJSON(t, http.MethodPut, srv.URL+"/transfer-to-cfa/"+hearingID, nil); status != http.StatusOK {
		t.Fatalf("certify to referral: %d %v", status, body)
	}
	if got := recordData(t, body)["caseNumber"]; got != "SF-1" {
		t.Errorf("referral caseNumber = %v, want the hearing number SF-1", got)
	}

	_, hearingArchive := doJSON(t, http.MethodGet, srv.URL+"/fetch-completed-lupon", nil)
	if hearingArchive["total"] != float64(3) {
		t.Errorf("fetch-completed-lupon total = %v, want 3 snapshots", hearingArchive["total"])
	}
}

func TestResolveBlotterOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/add-blotter", samplePayload())
	id := recordData(t, created)["id"].(string)

	status, _ := doJSON(t, http.MethodPut, srv.URL+"/transfer-blotter/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("resolve status = %d", status)
	}
	_, hearing := doJSON(t, http.MethodGet, srv.URL+"/fetch-lupon", nil)
	if hearing["total"] != float64(0) {
		t.Errorf("resolve must not create a hearing record, total = %v", hearing["total"])
	}

	// The number stays burned even though the record left the live store.
	_, next := doJSON(t, http.MethodGet, srv.URL+"/next-blotter-no", nil)
	if next["nextBlotterNo"] != "SF-2" {
		t.Errorf("nextBlotterNo = %v, want SF-2", next["nextBlotterNo"])
	}
}

func TestAddCFADirectFiling(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/add-cfa", samplePayload())
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %v", status, body)
	}
	if got := recordData(t, body)["caseNumber"]; got != "1" {
		t.Errorf("direct filing caseNumber = %v, want bare 1", got)
	}

	_, next := doJSON(t, http.MethodGet, srv.URL+"/next-brgy-case-no-cfa", nil)
	if next["nextBrgyCaseNo"] != "2" {
		t.Errorf("nextBrgyCaseNo = %v, want 2", next["nextBrgyCaseNo"])
	}
}
