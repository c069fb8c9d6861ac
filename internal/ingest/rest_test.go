package ingest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fraudguard/internal/model"
)

func newTestRESTServer() (*RESTServer, *capturingArchive) {
	svc, archive, _, _, _ := newTestService()
	return &RESTServer{svc: svc}, archive
}

func postJSON(t *testing.T, server *RESTServer, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.handleTransactions(rec, req)
	return rec
}

func TestRESTSingleTransaction(t *testing.T) {
	server, archive := newTestRESTServer()

	body := `{"user_id":"u-1","amount":1200,"currency":"AUD","merchant":"acme","country":"US","city":"Austin","device_id":"d-1","channel":"web"}`
	rec := postJSON(t, server, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var decision model.RiskDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decision.Risk != 0.88 {
		t.Fatalf("risk = %v", decision.Risk)
	}
	if !decision.AlertSent {
		t.Fatal("alert_sent = false")
	}
	if len(archive.raw) != 1 {
		t.Fatalf("raw archived %d times", len(archive.raw))
	}
}

func TestRESTStringAmountAccepted(t *testing.T) {
	server, _ := newTestRESTServer()

	body := `{"user_id":"u-1","amount":"600","currency":"AUD","merchant":"acme","country":"AU","city":"Sydney","device_id":"d-1","channel":"web"}`
	rec := postJSON(t, server, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRESTMissingFields(t *testing.T) {
	server, archive := newTestRESTServer()

	body := `{"user_id":"u-1","amount":40,"currency":"AUD","merchant":"acme","country":"AU","city":"Sydney","channel":"web"}`
	rec := postJSON(t, server, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Missing) != 1 || resp.Missing[0] != "device_id" {
		t.Fatalf("missing = %v", resp.Missing)
	}
	if len(archive.raw) != 0 {
		t.Fatal("invalid transaction was archived")
	}
}

func TestRESTBatch(t *testing.T) {
	server, _ := newTestRESTServer()

	body := `[
		{"user_id":"u-1","amount":40,"currency":"AUD","merchant":"acme","country":"AU","city":"Sydney","device_id":"d-1","channel":"web"},
		{"user_id":"u-2","amount":40,"currency":"AUD","merchant":"acme","country":"AU","city":"Sydney","channel":"web"}
	]`
	rec := postJSON(t, server, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Accepted int `json:"accepted"`
		Failed   int `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accepted != 1 || resp.Failed != 1 {
		t.Fatalf("accepted=%d failed=%d", resp.Accepted, resp.Failed)
	}
}

func TestRESTRejectsGarbage(t *testing.T) {
	server, _ := newTestRESTServer()

	if rec := postJSON(t, server, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body status = %d", rec.Code)
	}
	if rec := postJSON(t, server, "not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	server.handleTransactions(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
}
