package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/export"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	admin  string
}

func newTestEnv(t *testing.T, snapshots Snapshotter) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(Options{
		DB:        database,
		JWTSecret: testJWTSecret,
		Admins:    auth.ParseAdminList("admin"),
		Metrics:   metrics.New(),
		Labels:    export.Labels{Yes: "Yes", No: "No"},
		Snapshots: snapshots,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, db: database}
	env.createUser(t, "admin", "password")
	env.admin = env.login(t, "admin", "password")
	return env
}

func (e *testEnv) createUser(t *testing.T, username, password string) int64 {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u, err := store.CreateUser(context.Background(), e.db, username, string(hash), "")
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return u.ID
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

// do sends an authenticated JSON request and returns the response.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	claims, err := auth.ValidateToken(testJWTSecret, env.admin)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !claims.Admin {
		t.Error("allowlisted user should get an admin session")
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, "POST", "/api/auth/register", "", map[string]string{
		"username": "ana", "password": "longenough", "full_name": "Ana Novak",
	})
	expectStatus(t, resp, http.StatusCreated)

	token := env.login(t, "ana", "longenough")
	claims, _ := auth.ValidateToken(testJWTSecret, token)
	if claims.Admin {
		t.Error("registered user should not be admin")
	}

	resp = env.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "ana", "password": "longenough"})
	expectStatus(t, resp, http.StatusConflict)

	resp = env.do(t, "POST", "/api/auth/register", "", map[string]string{"username": "bor", "password": "short"})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := http.Get(env.server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminOnlyRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "user1", "password")
	userToken := env.login(t, "user1", "password")

	for _, route := range []struct{ method, path string }{
		{"POST", "/api/items"},
		{"GET", "/api/users"},
		{"POST", "/api/requests/1/approve"},
		{"GET", "/api/export/csv"},
		{"GET", "/api/logs"},
	} {
		resp := env.do(t, route.method, route.path, userToken, map[string]string{})
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, nil)

	expectStatus(t, env.do(t, "POST", "/api/auth/logout", env.admin, nil), http.StatusOK)
	expectStatus(t, env.do(t, "GET", "/api/items", env.admin, nil), http.StatusUnauthorized)
}

func TestRequestWorkflowAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	anaID := env.createUser(t, "ana", "password")
	ana := env.login(t, "ana", "password")

	resp := env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001", "name": "Ball"})
	expectStatus(t, resp, http.StatusCreated)
	item := decode[model.Item](t, resp)

	resp = env.do(t, "POST", "/api/requests", ana, map[string]string{
		"request_type": model.RequestGetItem, "inventory_number": "2024-001",
	})
	expectStatus(t, resp, http.StatusCreated)
	req := decode[model.Request](t, resp)

	resp = env.do(t, "GET", "/api/requests", ana, nil)
	expectStatus(t, resp, http.StatusOK)
	if reqs := decode[[]model.Request](t, resp); len(reqs) != 1 || reqs[0].Status != model.RequestPending {
		t.Fatalf("expected one pending request, got %+v", reqs)
	}

	resp = env.do(t, "POST", "/api/requests/"+itoa(req.ID)+"/approve", env.admin, nil)
	expectStatus(t, resp, http.StatusOK)
	approved := decode[model.Item](t, resp)
	if approved.IsAvailable || approved.AssignedTo == nil || *approved.AssignedTo != anaID {
		t.Errorf("item not assigned to requester: %+v", approved)
	}

	expectStatus(t, env.do(t, "POST", "/api/requests/"+itoa(req.ID)+"/approve", env.admin, nil), http.StatusConflict)
	expectStatus(t, env.do(t, "POST", "/api/requests/"+itoa(req.ID)+"/reject", env.admin, nil), http.StatusConflict)

	resp = env.do(t, "GET", "/api/me/items", ana, nil)
	expectStatus(t, resp, http.StatusOK)
	if mine := decode[[]model.Item](t, resp); len(mine) != 1 {
		t.Errorf("expected 1 assigned item, got %d", len(mine))
	}

	expectStatus(t, env.do(t, "POST", "/api/items/"+itoa(item.ID)+"/return", env.admin, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, "POST", "/api/items/"+itoa(item.ID)+"/return", ana, nil), http.StatusOK)

	resp = env.do(t, "GET", "/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `inventar_workflow_outcomes_total{operation="approve",outcome="already_processed"} 1`) {
		t.Error("metrics missing already_processed approval outcome")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "ana", "password")
	ana := env.login(t, "ana", "password")

	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "AB-12"}), http.StatusBadRequest)
	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001"}), http.StatusCreated)
	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001"}), http.StatusConflict)

	resp := env.do(t, "POST", "/api/requests", ana, map[string]string{"request_type": "borrow", "inventory_number": "2024-001"})
	expectStatus(t, resp, http.StatusCreated)
	unknown := decode[model.Request](t, resp)
	expectStatus(t, env.do(t, "POST", "/api/requests/"+itoa(unknown.ID)+"/approve", env.admin, nil), http.StatusUnprocessableEntity)

	resp = env.do(t, "POST", "/api/requests", ana, map[string]string{"request_type": model.RequestGetItem, "inventory_number": "9999"})
	expectStatus(t, resp, http.StatusCreated)
	missing := decode[model.Request](t, resp)
	expectStatus(t, env.do(t, "POST", "/api/requests/"+itoa(missing.ID)+"/approve", env.admin, nil), http.StatusNotFound)

	expectStatus(t, env.do(t, "GET", "/api/items/12345", env.admin, nil), http.StatusNotFound)
	expectStatus(t, env.do(t, "DELETE", "/api/users/1", env.admin, nil), http.StatusForbidden)
}

func TestPurchasesAPI(t *testing.T) {
	env := newTestEnv(t, nil)

	expectStatus(t, env.do(t, "POST", "/api/purchases", env.admin, map[string]string{
		"item_name": "Net", "supplier_name": "Sport d.o.o.", "planned_price": "abc",
	}), http.StatusBadRequest)

	resp := env.do(t, "POST", "/api/purchases", env.admin, map[string]string{
		"item_name": "Net", "supplier_name": "Sport d.o.o.", "planned_price": "129.90",
	})
	expectStatus(t, resp, http.StatusCreated)
	plan := decode[model.PurchasePlan](t, resp)

	expectStatus(t, env.do(t, "POST", "/api/purchases/"+itoa(plan.ID)+"/receive", env.admin, nil), http.StatusOK)
	expectStatus(t, env.do(t, "POST", "/api/purchases/"+itoa(plan.ID)+"/receive", env.admin, nil), http.StatusConflict)

	resp = env.do(t, "GET", "/api/logs?limit=10", env.admin, nil)
	expectStatus(t, resp, http.StatusOK)
	if logs := decode[[]model.ActionLog](t, resp); len(logs) < 2 {
		t.Errorf("expected purchase entries in the audit log, got %d", len(logs))
	}
}

func TestExportAndRestore(t *testing.T) {
	env := newTestEnv(t, nil)
	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001"}), http.StatusCreated)

	resp := env.do(t, "GET", "/api/export/csv", env.admin, nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")) {
		t.Error("CSV export should start with a byte order mark")
	}
	if !strings.Contains(string(body), "2024-001") {
		t.Error("CSV export missing item")
	}

	resp = env.do(t, "GET", "/api/export/json", env.admin, nil)
	expectStatus(t, resp, http.StatusOK)
	doc, _ := io.ReadAll(resp.Body)

	// Restoring into the same database collides with the existing number.
	restoreReq, _ := http.NewRequest("POST", env.server.URL+"/api/import/json", bytes.NewReader(doc))
	restoreReq.Header.Set("Authorization", "Bearer "+env.admin)
	restoreResp, err := http.DefaultClient.Do(restoreReq)
	if err != nil {
		t.Fatalf("restore request: %v", err)
	}
	defer restoreResp.Body.Close()
	expectStatus(t, restoreResp, http.StatusConflict)
}

type fakeSnapshotter struct {
	items int
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, items []model.Item, _ time.Time) ([]string, error) {
	f.items = len(items)
	return []string{"inventory/x/inventory.csv", "inventory/x/inventory.json"}, nil
}

func TestSnapshotEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	expectStatus(t, env.do(t, "POST", "/api/export/snapshot", env.admin, nil), http.StatusServiceUnavailable)

	fake := &fakeSnapshotter{}
	env = newTestEnv(t, fake)
	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "1"}), http.StatusCreated)
	resp := env.do(t, "POST", "/api/export/snapshot", env.admin, nil)
	expectStatus(t, resp, http.StatusCreated)
	if fake.items != 1 {
		t.Errorf("expected 1 item in snapshot, got %d", fake.items)
	}
}

func TestItemImageUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001"})
	expectStatus(t, resp, http.StatusCreated)
	item := decode[model.Item](t, resp)

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for x := 0; x < 20; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, _ := mw.CreateFormFile("image", "ball.png")
	png.Encode(part, img)
	mw.Close()

	req, _ := http.NewRequest("PUT", env.server.URL+"/api/items/"+itoa(item.ID)+"/image", &form)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	uploadResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	uploadResp.Body.Close()
	expectStatus(t, uploadResp, http.StatusOK)

	resp = env.do(t, "GET", "/api/items/"+itoa(item.ID)+"/image", env.admin, nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected stored photo as image/jpeg, got %s", ct)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, "GET", "/api/items", env.admin, nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestAdminCannotSubmitRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	expectStatus(t, env.do(t, "POST", "/api/items", env.admin, map[string]string{"inventory_number": "2024-001"}), http.StatusCreated)

	resp := env.do(t, "POST", "/api/requests", env.admin, map[string]string{
		"request_type": model.RequestGetItem, "inventory_number": "2024-001",
	})
	expectStatus(t, resp, http.StatusForbidden)

	reqs, err := store.ListAllRequests(context.Background(), env.db)
	if err != nil {
		t.Fatalf("ListAllRequests: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected no stored requests, got %d", len(reqs))
	}
}

func TestDeletedUserSessionEnds(t *testing.T) {
	env := newTestEnv(t, nil)

	opsID := env.createUser(t, "ops", "password")
	anaID := env.createUser(t, "ana", "password")
	ops := env.login(t, "ops", "password")
	ana := env.login(t, "ana", "password")

	expectStatus(t, env.do(t, "GET", "/api/items", ana, nil), http.StatusOK)

	expectStatus(t, env.do(t, "DELETE", "/api/users/"+itoa(opsID), env.admin, nil), http.StatusOK)
	expectStatus(t, env.do(t, "DELETE", "/api/users/"+itoa(anaID), env.admin, nil), http.StatusOK)

	expectStatus(t, env.do(t, "GET", "/api/items", ops, nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, "POST", "/api/requests", ana, map[string]string{
		"request_type": model.RequestGetItem, "inventory_number": "2024-001",
	}), http.StatusUnauthorized)
	expectStatus(t, env.do(t, "GET", "/api/items", env.admin, nil), http.StatusOK)
}

func TestDeletedAdminLosesAdminRoutes(t *testing.T) {
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(Options{
		DB:        database,
		JWTSecret: testJWTSecret,
		Admins:    auth.ParseAdminList("admin,ops"),
		Metrics:   metrics.New(),
		Labels:    export.Labels{Yes: "Yes", No: "No"},
	}))
	t.Cleanup(server.Close)

	env := &testEnv{server: server, db: database}
	env.createUser(t, "admin", "password")
	opsID := env.createUser(t, "ops", "password")
	env.admin = env.login(t, "admin", "password")
	ops := env.login(t, "ops", "password")

	expectStatus(t, env.do(t, "GET", "/api/users", ops, nil), http.StatusOK)
	expectStatus(t, env.do(t, "DELETE", "/api/users/"+itoa(opsID), env.admin, nil), http.StatusOK)

	for _, path := range []string{"/api/users", "/api/logs", "/api/export/json"} {
		resp := env.do(t, "GET", path, ops, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s with deleted admin's token: expected 401, got %d", path, resp.StatusCode)
		}
	}
}
