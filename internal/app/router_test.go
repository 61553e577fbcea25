package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/auth"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/navigation"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/observability"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/users"
	"github.com/Chambu-Digital/javic-collection-sub001/jobs"
)

type memoryUsers struct {
	users map[int64]users.User
}

func (m memoryUsers) ListUsers(ctx context.Context, filter users.ListFilter) ([]users.User, error) {
	out := make([]users.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m memoryUsers) GetUser(ctx context.Context, id int64) (users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m memoryUsers) WithTx(ctx context.Context, fn func(context.Context, users.TxRepository) error) error {
	return errors.New("read-only store")
}

type memoryCredentials struct {
	byEmail map[string]*auth.User
}

func (m memoryCredentials) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (memoryCredentials) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (memoryCredentials) DeleteSession(ctx context.Context, id string) error { return nil }

type testServer struct {
	handler http.Handler
	cookie  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the config and the auth handler
// before the router is built.
func newTestServerWith(t *testing.T, configure func(*Config, *auth.Handler)) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{
		AppEnv:             "test",
		AppRequestTimeout:  5 * time.Second,
		SessionCookie:      "javic_session",
		SessionTTL:         time.Hour,
		CSRFSecret:         "csrf",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimitPerMinute: 1000,
		LoginRatePerMinute: 100,
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	store := memoryUsers{users: map[int64]users.User{
		1: {ID: 1, Email: "owner@javic.test", Role: rbac.RoleSuperAdmin, IsActive: true},
		2: {ID: 2, Email: "staff@javic.test", Role: rbac.RoleAdmin, IsActive: true},
	}}
	creds := memoryCredentials{byEmail: map[string]*auth.User{
		"owner@javic.test": {ID: 1, Email: "owner@javic.test", PasswordHash: string(hashed), IsActive: true},
		"staff@javic.test": {ID: 2, Email: "staff@javic.test", PasswordHash: string(hashed), IsActive: true},
	}}

	sessions := shared.NewSessionManager(client, cfg.SessionCookie, cfg.SessionTTL, false)
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()
	usersService := users.NewService(store, nil, logger)
	rbacMiddleware := rbac.Middleware{Loader: usersService, Logger: logger, Recorder: metrics}

	authHandler := auth.NewHandler(logger, auth.NewService(creds), usersService, sessions, csrf)
	if configure != nil {
		configure(cfg, authHandler)
	} else {
		authHandler.UseLoginMiddleware(LoginRateLimiter(cfg))
	}

	params := RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessions,
		CSRFManager:        csrf,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        authHandler,
		UsersHandler:       users.NewHandler(logger, usersService, nil, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(rbacMiddleware),
		NavigationHandler:  navigation.NewHandler(logger, nil),
		JobHandler:         jobs.NewHandler(nil, logger),
		Metrics:            metrics,
	}
	// a second router over the same handlers must not change them
	_ = NewRouter(params)
	return &testServer{handler: NewRouter(params)}
}

func (s *testServer) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	if s.cookie != "" {
		req.AddCookie(&http.Cookie{Name: "javic_session", Value: s.cookie})
	}
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	for _, c := range res.Result().Cookies() {
		if c.Name == "javic_session" {
			s.cookie = c.Value
		}
	}
	return res
}

func (s *testServer) login(t *testing.T, email string) {
	t.Helper()
	res := s.do(t, http.MethodGet, "/auth/csrf", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var token struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))

	body := `{"email":"` + email + `","password":"correct-horse"}`
	res = s.do(t, http.MethodPost, "/auth/login", body, http.Header{shared.CSRFHeader: {token.CSRFToken}})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestHealthzAndMetricsSkipSessions(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	assert.Empty(t, s.cookie)

	res = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestLoginRateLimitIsOwnedByTheAuthHandler(t *testing.T) {
	s := newTestServerWith(t, func(cfg *Config, h *auth.Handler) {
		cfg.LoginRatePerMinute = 1
		h.UseLoginMiddleware(LoginRateLimiter(&Config{LoginRatePerMinute: 3}))
	})

	s.login(t, "staff@javic.test")
	s.login(t, "staff@javic.test")
	s.login(t, "staff@javic.test")

	res := s.do(t, http.MethodGet, "/auth/csrf", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var token struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))
	res = s.do(t, http.MethodPost, "/auth/login", `{"email":"staff@javic.test","password":"correct-horse"}`, http.Header{shared.CSRFHeader: {token.CSRFToken}})
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
}

func TestLoginRequiresCSRFToken(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/auth/login", `{"email":"staff@javic.test","password":"correct-horse"}`, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
}

func TestNavigationFollowsSignedInRole(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/navigation", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	s.login(t, "staff@javic.test")
	res = s.do(t, http.MethodGet, "/navigation", "", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Items []rbac.NavigationItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	want := rbac.FilterNavigation(navigation.AdminMenu(), rbac.NewChecker(rbac.RoleAdmin, nil))
	require.Len(t, body.Items, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, body.Items[i].Name)
	}
}

func TestAdminRoutesEnforcePermissions(t *testing.T) {
	staff := newTestServer(t)
	staff.login(t, "staff@javic.test")
	assert.Equal(t, http.StatusForbidden, staff.do(t, http.MethodGet, "/admin/users/", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, staff.do(t, http.MethodGet, "/permissions/", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, staff.do(t, http.MethodGet, "/jobs/health", "", nil).Code)

	owner := newTestServer(t)
	owner.login(t, "owner@javic.test")
	assert.Equal(t, http.StatusOK, owner.do(t, http.MethodGet, "/admin/users/", "", nil).Code)
	assert.Equal(t, http.StatusOK, owner.do(t, http.MethodGet, "/permissions/roles", "", nil).Code)
	assert.Equal(t, http.StatusOK, owner.do(t, http.MethodGet, "/jobs/health", "", nil).Code)

	res := owner.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, res.Body.String(), `javic_authz_decisions_total{guard="any",outcome="allowed"}`)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "owner@javic.test")

	res := s.do(t, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var me struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &me))

	res = s.do(t, http.MethodPost, "/auth/logout", "", http.Header{shared.CSRFHeader: {me.CSRFToken}})
	require.Equal(t, http.StatusNoContent, res.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", "", nil).Code)
}
