package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildmatrix/internal/auth"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/config"
	"buildmatrix/internal/logger"
	"buildmatrix/internal/models"
	"buildmatrix/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	store  *store.Store
	tokens *auth.TokenService
	hasher *auth.Hasher
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "api.db"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	hasher := auth.NewHasher(4)

	return &testEnv{
		t:      t,
		store:  s,
		tokens: tokens,
		hasher: hasher,
		router: NewRouter(Options{
			Store:       s,
			Tokens:      tokens,
			Hasher:      hasher,
			Logger:      logger.Nop(),
			CORSOrigins: []string{"http://localhost:3000"},
		}),
	}
}

// user creates an account and returns it with a bearer token.
func (e *testEnv) user(name string, role authz.Role) (models.User, string) {
	e.t.Helper()
	hash, err := e.hasher.Hash("password123")
	require.NoError(e.t, err)
	u, err := e.store.CreateUser(context.Background(), store.NewUser{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(e.t, err)
	token, err := e.tokens.Issue(u.Principal(), u.Email)
	require.NoError(e.t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func (e *testEnv) project(adminToken, name string, managerID *int64) models.Project {
	e.t.Helper()
	body := map[string]any{"name": name, "start_date": "2026-03-01"}
	if managerID != nil {
		body["project_manager_id"] = *managerID
	}
	w := e.do(http.MethodPost, "/api/projects", adminToken, body)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Project](e.t, w)
}

func (e *testEnv) item(adminToken, name string, qty int) models.InventoryItem {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/inventory", adminToken, map[string]any{"name": name, "quantity": qty, "unit": "bags"})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.InventoryItem](e.t, w)
}

func (e *testEnv) task(token string, projectID, employeeID int64, title string) models.Task {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title": title, "project_id": projectID, "employee_id": employeeID, "due_date": "2026-04-01",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](e.t, w)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","message":"BuildMatrix API is running"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", errorOf(t, w))
}

func TestLoginAndVerify(t *testing.T) {
	e := newTestEnv(t)
	u, _ := e.user("alice", authz.RoleProjectManager)

	tests := []struct {
		name   string
		body   any
		status int
		err    string
	}{
		{"missing fields", map[string]string{"email": "alice@example.com"}, http.StatusBadRequest, "Email and password are required"},
		{"malformed body", "{", http.StatusBadRequest, "Email and password are required"},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password123"}, http.StatusUnauthorized, "Invalid credentials"},
		{"wrong password", map[string]string{"email": "alice@example.com", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.err, errorOf(t, w))
		})
	}

	w := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": " Alice@Example.com ", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[loginResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, userSummary{ID: u.ID, Name: "alice", Email: "alice@example.com", Role: "project_manager"}, resp.User)

	w = e.do(http.MethodGet, "/api/auth/verify", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.User, decode[userSummary](t, w))

	w = e.do(http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", errorOf(t, w))

	w = e.do(http.MethodGet, "/api/auth/verify", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", errorOf(t, w))

	require.NoError(t, e.store.DeleteUser(context.Background(), u.ID))
	w = e.do(http.MethodGet, "/api/auth/verify", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", errorOf(t, w))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/api/employees", "/api/projects", "/api/inventory", "/api/material-requests", "/api/tasks"} {
		w := e.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestEmployees(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	_, pm := e.user("pat", authz.RoleProjectManager)
	_, emp := e.user("erin", authz.RoleEmployee)

	for _, token := range []string{pm, emp} {
		w := e.do(http.MethodGet, "/api/employees", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Access denied to employees", errorOf(t, w))
	}

	w := e.do(http.MethodPost, "/api/employees", admin, map[string]string{
		"name": "Dana", "email": "DANA@example.com", "password": "secret1", "role": "employee",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dana := decode[models.User](t, w)
	assert.Equal(t, "dana@example.com", dana.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = e.do(http.MethodPost, "/api/employees", admin, map[string]string{"name": "Dana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: email, password, role", errorOf(t, w))

	w = e.do(http.MethodGet, "/api/employees/role/employee", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 2)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/employees/%d", dana.ID), admin, map[string]string{"role": "project_manager"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, authz.RoleProjectManager, decode[models.User](t, w).Role)

	w = e.do(http.MethodGet, "/api/employees/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id", errorOf(t, w))

	w = e.do(http.MethodGet, "/api/employees/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Employee not found", errorOf(t, w))

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/employees/%d", dana.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Employee deleted successfully"}`, w.Body.String())
}

func TestDuplicateEmailIsConflict(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)

	w := e.do(http.MethodPost, "/api/employees", admin, map[string]string{
		"name": "Copy", "email": "root@example.com", "password": "secret1", "role": "employee",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", errorOf(t, w))

	users, err := e.store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMaterialRequestOwnership(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	_, m2Token := e.user("other", authz.RoleProjectManager)
	_, emp := e.user("erin", authz.RoleEmployee)

	p := e.project(admin, "Tower", &m.ID)
	cement := e.item(admin, "Cement", 50)
	body := map[string]any{"project_id": p.ID, "inventory_id": cement.ID, "quantity": 10, "notes": "level 3"}

	w := e.do(http.MethodPost, "/api/material-requests", mToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mr := decode[models.MaterialRequest](t, w)
	assert.Equal(t, models.RequestPending, mr.Status)
	require.NotNil(t, mr.ProjectManagerID)
	assert.Equal(t, m.ID, *mr.ProjectManagerID)

	w = e.do(http.MethodPost, "/api/material-requests", m2Token, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only create requests for your own projects", errorOf(t, w))

	w = e.do(http.MethodPost, "/api/material-requests", emp, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/material-requests", mToken, map[string]any{"project_id": 999, "inventory_id": cement.ID, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Project not found", errorOf(t, w))

	w = e.do(http.MethodPost, "/api/material-requests", mToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: project_id, inventory_id, quantity", errorOf(t, w))

	w = e.do(http.MethodGet, fmt.Sprintf("/api/material-requests/%d", mr.ID), m2Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/material-requests/%d", mr.ID), mToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/material-requests/manager/%d", m.ID), mToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.MaterialRequest](t, w), 1)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/material-requests/manager/%d", m.ID), m2Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, "/api/material-requests", mToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Only admin reviews requests.
	w = e.do(http.MethodPut, fmt.Sprintf("/api/material-requests/%d", mr.ID), mToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPut, fmt.Sprintf("/api/material-requests/%d", mr.ID), admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.RequestApproved, decode[models.MaterialRequest](t, w).Status)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/material-requests/%d", mr.ID), admin, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrphanProjectRequestsAreAdminOnly(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	_, pm := e.user("pat", authz.RoleProjectManager)

	p := e.project(admin, "Orphan", nil)
	it := e.item(admin, "Sand", 5)
	body := map[string]any{"project_id": p.ID, "inventory_id": it.ID, "quantity": 1}

	w := e.do(http.MethodPost, "/api/material-requests", pm, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPost, "/api/material-requests", admin, body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProjectsScopedToManager(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	_, emp := e.user("erin", authz.RoleEmployee)

	mine := e.project(admin, "Mine", &m.ID)
	other := e.project(admin, "Other", nil)

	w := e.do(http.MethodGet, "/api/projects", mToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/projects/manager/%d", m.ID), mToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	scoped := decode[[]models.Project](t, w)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", other.ID), mToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only view your own projects", errorOf(t, w))

	w = e.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", mine.ID), emp, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/projects", mToken, map[string]any{"name": "Sneaky", "start_date": "2026-01-01"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/projects", admin, map[string]any{"name": "Ghost", "start_date": "2026-01-01", "project_manager_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Project manager not found", errorOf(t, w))

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", other.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Project deleted successfully"}`, w.Body.String())
}

func TestEmptyPatchIsRejected(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	worker, _ := e.user("erin", authz.RoleEmployee)

	p := e.project(admin, "Tower", &m.ID)
	it := e.item(admin, "Cement", 50)
	task := e.task(mToken, p.ID, worker.ID, "Pour slab")
	w := e.do(http.MethodPost, "/api/material-requests", mToken, map[string]any{"project_id": p.ID, "inventory_id": it.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	mr := decode[models.MaterialRequest](t, w)

	paths := []string{
		fmt.Sprintf("/api/projects/%d", p.ID),
		fmt.Sprintf("/api/material-requests/%d", mr.ID),
		fmt.Sprintf("/api/tasks/%d", task.ID),
		fmt.Sprintf("/api/inventory/%d", it.ID),
	}
	for _, path := range paths {
		for _, body := range []string{`{}`, `{"name":"","title":"   "}`} {
			w := e.do(http.MethodPut, path, admin, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
			assert.Equal(t, "No fields to update", errorOf(t, w), path)
		}
	}

	ctx := context.Background()
	gotProject, err := e.store.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, gotProject)
	gotTask, err := e.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, gotTask)
	gotMR, err := e.store.GetMaterialRequest(ctx, mr.ID)
	require.NoError(t, err)
	assert.Equal(t, mr, gotMR)
}

func TestTasksScopedToEmployee(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	e1, e1Token := e.user("erin", authz.RoleEmployee)
	e2, _ := e.user("ezra", authz.RoleEmployee)

	p := e.project(admin, "Tower", &m.ID)
	own := e.task(mToken, p.ID, e1.ID, "Frame walls")
	e.task(mToken, p.ID, e2.ID, "Wire lights")

	w := e.do(http.MethodGet, fmt.Sprintf("/api/tasks/employee/%d", e2.ID), e1Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only view your own tasks", errorOf(t, w))

	w = e.do(http.MethodGet, fmt.Sprintf("/api/tasks/employee/%d", e1.ID), e1Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[[]models.Task](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, own.ID, tasks[0].ID)

	w = e.do(http.MethodGet, "/api/tasks", e1Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodGet, "/api/tasks", mToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Task](t, w), 2)

	w = e.do(http.MethodPost, "/api/tasks", e1Token, map[string]any{"title": "Self", "project_id": p.ID, "employee_id": e1.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/tasks", mToken, map[string]any{"title": "Ghost", "project_id": p.ID, "employee_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskStatusUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	e1, e1Token := e.user("erin", authz.RoleEmployee)
	_, e2Token := e.user("ezra", authz.RoleEmployee)

	p := e.project(admin, "Tower", &m.ID)
	task := e.task(mToken, p.ID, e1.ID, "Frame walls")
	path := fmt.Sprintf("/api/tasks/%d/status", task.ID)

	w := e.do(http.MethodPatch, path, e2Token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only update your own tasks", errorOf(t, w))

	w = e.do(http.MethodPatch, path, e1Token, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, path, e1Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Task](t, w)
	assert.Equal(t, models.TaskCompleted, updated.Status)
	assert.Equal(t, task.Title, updated.Title)

	// The full update stays closed to the assignee.
	w = e.do(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), e1Token, map[string]string{"title": "Renamed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPatch, "/api/tasks/999/status", e1Token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", errorOf(t, w))
}

func TestInventory(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	_, emp := e.user("erin", authz.RoleEmployee)

	it := e.item(admin, "Cement", 10)

	w := e.do(http.MethodGet, "/api/inventory", emp, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.InventoryItem](t, w), 1)

	w = e.do(http.MethodPost, "/api/inventory", mToken, map[string]any{"name": "Rebar", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/inventory", admin, map[string]any{"name": "Rebar", "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/inventory/%d", it.ID), admin, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, decode[models.InventoryItem](t, w).Quantity)

	p := e.project(admin, "Tower", &m.ID)
	w = e.do(http.MethodPost, "/api/material-requests", mToken, map[string]any{"project_id": p.ID, "inventory_id": it.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/inventory/%d", it.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/inventory/%d", it.ID), emp, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestBodyErrors(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)

	w := e.do(http.MethodPost, "/api/inventory", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body is required", errorOf(t, w))

	w = e.do(http.MethodPost, "/api/inventory", admin, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorOf(t, w))
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestRecovery(t *testing.T) {
	e := newTestEnv(t)
	e.router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := e.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorOf(t, w))
}

func TestEnsureAdmin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	cfg := config.AdminConfig{Email: "Boss@Example.com", Password: "changeme", Name: "Boss"}

	require.NoError(t, EnsureAdmin(ctx, e.store, e.hasher, config.AdminConfig{}, logger.Nop()))
	users, err := e.store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, EnsureAdmin(ctx, e.store, e.hasher, cfg, logger.Nop()))
	require.NoError(t, EnsureAdmin(ctx, e.store, e.hasher, cfg, logger.Nop()))

	users, err = e.store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "boss@example.com", users[0].Email)
	assert.Equal(t, authz.RoleAdmin, users[0].Role)

	w := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "boss@example.com", "password": "changeme"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBlankDatesAreAbsent(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)
	worker, _ := e.user("erin", authz.RoleEmployee)

	w := e.do(http.MethodPost, "/api/projects", admin, `{"name":"P","start_date":"2026-03-01","end_date":"","project_manager_id":`+fmt.Sprint(m.ID)+`}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Project](t, w)
	assert.Nil(t, p.EndDate)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), admin, `{"name":"Q2","end_date":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Project](t, w)
	assert.Equal(t, "Q2", updated.Name)
	assert.Equal(t, p.StartDate, updated.StartDate)

	task := e.task(mToken, p.ID, worker.ID, "Pour slab")
	w = e.do(http.MethodPut, fmt.Sprintf("/api/tasks/%d", task.ID), mToken, `{"title":"T2","due_date":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	gotTask := decode[models.Task](t, w)
	assert.Equal(t, "T2", gotTask.Title)
	require.NotNil(t, gotTask.DueDate)
	assert.Equal(t, "2026-04-01", gotTask.DueDate.String())

	w = e.do(http.MethodPost, "/api/projects", admin, `{"name":"P","start_date":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: start_date", errorOf(t, w))

	w = e.do(http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), admin, `{"end_date":"01/02/2027"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "end_date must be a date in YYYY-MM-DD format", errorOf(t, w))
}

func TestIDsAcceptFormValues(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)

	w := e.do(http.MethodPost, "/api/projects", admin, `{"name":"Unassigned","start_date":"2026-03-01","project_manager_id":""}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Nil(t, decode[models.Project](t, w).ProjectManagerID)

	w = e.do(http.MethodPost, "/api/projects", admin, fmt.Sprintf(`{"name":"Tower","start_date":"2026-03-01","project_manager_id":"%d"}`, m.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Project](t, w)
	require.NotNil(t, p.ProjectManagerID)
	assert.Equal(t, m.ID, *p.ProjectManagerID)

	it := e.item(admin, "Cement", 10)
	w = e.do(http.MethodPost, "/api/material-requests", mToken,
		fmt.Sprintf(`{"project_id":"%d","inventory_id":"%d","quantity":3}`, p.ID, it.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, p.ID, decode[models.MaterialRequest](t, w).ProjectID)

	w = e.do(http.MethodPost, "/api/material-requests", mToken, `{"project_id":"","inventory_id":"","quantity":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: project_id, inventory_id", errorOf(t, w))

	w = e.do(http.MethodPost, "/api/material-requests", mToken, fmt.Sprintf(`{"project_id":"tower","inventory_id":%d,"quantity":3}`, it.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid value for project_id", errorOf(t, w))

	w = e.do(http.MethodPost, "/api/inventory", admin, `{"name":"Sand","quantity":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid value for quantity", errorOf(t, w))
}

func TestRoleDeniedBeforeLookup(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	_, mToken := e.user("manager", authz.RoleProjectManager)
	_, emp := e.user("erin", authz.RoleEmployee)

	p := e.project(admin, "Tower", nil)
	it := e.item(admin, "Cement", 10)

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		body   any
	}{
		{"employee reads unknown project", emp, http.MethodGet, "/api/projects/999", nil},
		{"employee reads real project", emp, http.MethodGet, fmt.Sprintf("/api/projects/%d", p.ID), nil},
		{"employee updates unknown project", emp, http.MethodPut, "/api/projects/999", map[string]string{"name": "x"}},
		{"employee updates real project", emp, http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), map[string]string{"name": "x"}},
		{"employee deletes unknown project", emp, http.MethodDelete, "/api/projects/999", nil},
		{"employee updates unknown item", emp, http.MethodPut, "/api/inventory/999", map[string]int{"quantity": 1}},
		{"employee updates real item", emp, http.MethodPut, fmt.Sprintf("/api/inventory/%d", it.ID), map[string]int{"quantity": 1}},
		{"employee updates unknown request", emp, http.MethodPut, "/api/material-requests/999", map[string]string{"status": "approved"}},
		{"employee reads unknown request", emp, http.MethodGet, "/api/material-requests/999", nil},
		{"manager updates unknown request", mToken, http.MethodPut, "/api/material-requests/999", map[string]string{"status": "approved"}},
		{"manager updates unknown project", mToken, http.MethodPut, "/api/projects/999", map[string]string{"name": "x"}},
		{"employee rewrites unknown task", emp, http.MethodPut, "/api/tasks/999", map[string]string{"title": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		})
	}

	// Roles whose access depends on the owner still learn about missing ids.
	w := e.do(http.MethodGet, "/api/tasks/999", emp, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(http.MethodGet, "/api/material-requests/999", mToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenFollowsCurrentRole(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("root", authz.RoleAdmin)
	m, mToken := e.user("manager", authz.RoleProjectManager)

	w := e.do(http.MethodGet, "/api/tasks", mToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/employees/%d", m.ID), admin, map[string]string{"role": "employee"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/tasks", mToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, e.store.DeleteUser(context.Background(), m.ID))
	w = e.do(http.MethodGet, "/api/inventory", mToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", errorOf(t, w))
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.store.Close())

	w := e.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorOf(t, w))
}
