package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(":0", services.NewExpenseService(repo, nil), services.NewGroupService(repo))
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postFormJSON(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := get(srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Bilancio") {
		t.Fatal("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(srv, path); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestFormPagesRender(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/add_user", "/add_budget", "/add_expense", "/create_group", "/add_group_expense"} {
		rr := get(srv, path)
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status=%d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "<form") {
			t.Errorf("GET %s: no form in body", path)
		}
	}
}

func TestAddUser(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/add_user", url.Values{"email": {"a@x.com"}})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Duplicate registration conflicts.
	rr = postForm(srv, "/add_user", url.Values{"email": {"a@x.com"}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d, want 409", rr.Code)
	}

	// Invalid address.
	rr = postForm(srv, "/add_user", url.Values{"email": {"bogus"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid email status=%d, want 422", rr.Code)
	}

	// JSON negotiation.
	rr = postFormJSON(srv, "/add_user", url.Values{"email": {"b@x.com"}})
	if rr.Code != http.StatusCreated {
		t.Fatalf("json create status=%d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["email"] != "b@x.com" {
		t.Fatalf("unexpected json body: %v", body)
	}
}

func TestAddBudget(t *testing.T) {
	srv := newTestServer(t)

	// Unknown user.
	rr := postForm(srv, "/add_budget", url.Values{
		"email": {"ghost@x.com"}, "category": {"food"}, "month": {"2025-01"}, "limit": {"100.00"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown user status=%d, want 404", rr.Code)
	}

	postForm(srv, "/add_user", url.Values{"email": {"a@x.com"}})

	// Unparsable limit.
	rr = postForm(srv, "/add_budget", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "month": {"2025-01"}, "limit": {"abc"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status=%d, want 400", rr.Code)
	}

	// Malformed month.
	rr = postForm(srv, "/add_budget", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "month": {"2025-1"}, "limit": {"100.00"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad month status=%d, want 422", rr.Code)
	}

	rr = postForm(srv, "/add_budget", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "month": {"2025-01"}, "limit": {"100.00"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAddExpenseAndReport(t *testing.T) {
	srv := newTestServer(t)
	postForm(srv, "/add_user", url.Values{"email": {"a@x.com"}})

	rr := postForm(srv, "/add_expense", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "amount": {"12.50"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = postForm(srv, "/add_expense", url.Values{
		"email": {"a@x.com"}, "category": {"travel"}, "amount": {"7.50"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("dated create status=%d", rr.Code)
	}

	// Unknown user cannot spend.
	rr = postForm(srv, "/add_expense", url.Values{
		"email": {"ghost@x.com"}, "category": {"food"}, "amount": {"1.00"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown user status=%d, want 404", rr.Code)
	}

	// HTML report.
	rr = get(srv, "/report/a@x.com")
	if rr.Code != http.StatusOK {
		t.Fatalf("report status=%d", rr.Code)
	}
	for _, want := range []string{"food", "travel", "€20.00"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("report body missing %q", want)
		}
	}

	// JSON report.
	req := httptest.NewRequest(http.MethodGet, "/report/a@x.com", nil)
	req.Header.Set("Accept", "application/json")
	jr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(jr, req)
	var report struct {
		Email string `json:"email"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(jr.Body.Bytes(), &report); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if report.Email != "a@x.com" || report.Total != "20.00" {
		t.Fatalf("unexpected json report: %+v", report)
	}

	if rr := get(srv, "/report/ghost@x.com"); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown report status=%d, want 404", rr.Code)
	}
}

func TestExpenseAlertShownInResponse(t *testing.T) {
	srv := newTestServer(t)
	postForm(srv, "/add_user", url.Values{"email": {"a@x.com"}})

	// Budget for the current month so the evaluation applies to this write.
	rr := postForm(srv, "/add_budget", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "limit": {"10.00"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("budget status=%d", rr.Code)
	}

	rr = postFormJSON(srv, "/add_expense", url.Values{
		"email": {"a@x.com"}, "category": {"food"}, "amount": {"15.00"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expense status=%d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if body["budget_status"] != "exceeded" {
		t.Fatalf("budget_status = %q, want exceeded", body["budget_status"])
	}
}

func TestReportRedirect(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/report_redirect", url.Values{"email": {"a@x.com"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/report/a@x.com" {
		t.Fatalf("location = %q", loc)
	}

	if rr := postForm(srv, "/report_redirect", url.Values{"email": {"bogus"}}); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid email status=%d, want 422", rr.Code)
	}
}

func TestGroupEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/create_group", url.Values{
		"group_name": {"trip"}, "members": {"a@x.com, b@x.com, c@x.com"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create group status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Duplicate name conflicts.
	rr = postForm(srv, "/create_group", url.Values{
		"group_name": {"trip"}, "members": {"d@x.com"},
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate group status=%d, want 409", rr.Code)
	}

	// Payer outside the group.
	rr = postForm(srv, "/add_group_expense", url.Values{
		"group_name": {"trip"}, "description": {"taxi"}, "paid_by": {"outsider@x.com"}, "amount": {"10.00"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("outsider payer status=%d, want 422", rr.Code)
	}

	rr = postForm(srv, "/add_group_expense", url.Values{
		"group_name": {"trip"}, "description": {"hotel"}, "paid_by": {"a@x.com"}, "amount": {"90.00"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("group expense status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Unknown group.
	rr = postForm(srv, "/add_group_expense", url.Values{
		"group_name": {"nope"}, "description": {"x"}, "paid_by": {"a@x.com"}, "amount": {"1.00"},
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown group status=%d, want 404", rr.Code)
	}

	// Settlement JSON.
	req := httptest.NewRequest(http.MethodGet, "/group_report?group_name=trip", nil)
	req.Header.Set("Accept", "application/json")
	jr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(jr, req)
	if jr.Code != http.StatusOK {
		t.Fatalf("group report status=%d", jr.Code)
	}
	var settlement struct {
		Total     string            `json:"total"`
		FairShare string            `json:"fair_share"`
		Balances  map[string]string `json:"balances"`
	}
	if err := json.Unmarshal(jr.Body.Bytes(), &settlement); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if settlement.Total != "90.00" || settlement.FairShare != "30.00" {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}
	if settlement.Balances["a@x.com"] != "60.00" || settlement.Balances["c@x.com"] != "-30.00" {
		t.Fatalf("unexpected balances: %v", settlement.Balances)
	}

	// HTML settlement.
	rr = get(srv, "/group_report?group_name=trip")
	if rr.Code != http.StatusOK {
		t.Fatalf("html group report status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "b@x.com") {
		t.Fatal("html report missing member")
	}

	// Missing query parameter.
	if rr := get(srv, "/group_report"); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing group_name status=%d, want 400", rr.Code)
	}
}
