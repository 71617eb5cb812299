package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/store"
)

type fakeDialer struct {
	to   string
	name string
	sid  string
	err  error
}

func (f *fakeDialer) StartCall(to, customerName string) (string, error) {
	f.to = to
	f.name = customerName
	if f.err != nil {
		return "", f.err
	}
	return f.sid, nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *fakeDialer) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	st := store.New(db, zap.NewNop())
	d := &fakeDialer{sid: "CA1"}
	srv := NewServer(Deps{Store: st, Dialer: d, Log: zap.NewNop()})
	return srv, st, d
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestListAndGetCustomers(t *testing.T) {
	srv, st, _ := newTestServer(t)
	c := store.Customer{Name: "Ramesh Kumar", ContactNumber: "+919800000001"}
	if err := st.CreateCustomer(&c); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list []store.Customer
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("list body: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Ramesh Kumar" {
		t.Fatalf("list = %+v", list)
	}

	r = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/customers/%d", c.ID), nil)
	w = httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/customers/9999", nil)
	w = httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", w.Code)
	}
}

func TestStartCallDialsAndRegisters(t *testing.T) {
	srv, st, d := newTestServer(t)
	c := store.Customer{Name: "Ramesh Kumar", ContactNumber: "+919800000001"}
	if err := st.CreateCustomer(&c); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/call/start/%d", c.ID), nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if d.to != "+919800000001" || d.name != "Ramesh Kumar" {
		t.Fatalf("dialed %q for %q", d.to, d.name)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["call_sid"] != "CA1" {
		t.Fatalf("call_sid = %q", body["call_sid"])
	}
	if name, ok := st.CustomerName("CA1"); !ok || name != "Ramesh Kumar" {
		t.Fatalf("call not registered: %q %v", name, ok)
	}
}

func TestStartCallWithoutContactNumber(t *testing.T) {
	srv, st, _ := newTestServer(t)
	c := store.Customer{Name: "No Phone"}
	if err := st.CreateCustomer(&c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/call/start/%d", c.ID), nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestStartCallDialerFailure(t *testing.T) {
	srv, st, d := newTestServer(t)
	d.err = fmt.Errorf("trunk down")
	c := store.Customer{Name: "Ramesh", ContactNumber: "+919800000001"}
	if err := st.CreateCustomer(&c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/call/start/%d", c.ID), nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestCallSummary(t *testing.T) {
	srv, st, _ := newTestServer(t)
	fs := flow.NewSession("ST1", "Ramesh")
	fs.IdentityConfirmation = "YES"
	fs.CallShouldEnd = true
	fs.CallEndReason = "completed"
	rec, rows := store.Snapshot("CA1", fs)
	if err := st.SaveSnapshot(rec, rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/call/ST1/summary", nil)
	w := httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Session   store.SessionRecord    `json:"session"`
		Responses []store.SurveyResponse `json:"responses"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.Session.EndReason != "completed" || len(body.Responses) != 1 {
		t.Fatalf("summary = %+v", body)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/call/missing/summary", nil)
	w = httptest.NewRecorder()
	srv.Echo.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", w.Code)
	}
}
