package auth_test

import (
	"context"
	"encoding/json"
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
	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/users"
	_ "github.com/Chambu-Digital/javic-collection-sub001/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, strings.TrimSpace(email)) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubProfiles struct {
	users map[int64]users.User
}

func (s stubProfiles) GetUser(ctx context.Context, id int64) (users.User, error) {
	user, ok := s.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return user, nil
}

type fixture struct {
	handler  *auth.Handler
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	repo     *stubRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubRepo{user: &auth.User{ID: 2, Email: "admin@javic.test", PasswordHash: string(hashed), IsActive: true}}
	profiles := stubProfiles{users: map[int64]users.User{
		2: {ID: 2, Email: "admin@javic.test", Name: "Store Admin", Role: rbac.RoleAdmin, Permissions: []rbac.Permission{rbac.PermProductsDelete}, IsActive: true},
	}}
	sessions := shared.NewSessionManager(client, "javic_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	return fixture{
		handler:  auth.NewHandler(nil, auth.NewService(repo), profiles, sessions, csrf),
		sessions: sessions,
		csrf:     csrf,
		repo:     repo,
	}
}

// serve runs handler with a session loaded from req and committed afterwards.
func (f fixture) serve(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	handler(res, req.WithContext(ctx))
	require.NoError(t, f.sessions.Commit(ctx, res, sess))
	return res, sess
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	for name, body := range map[string]string{
		"wrong password": `{"email":"admin@javic.test","password":"wrong-password"}`,
		"unknown email":  `{"email":"ghost@javic.test","password":"correct-horse"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
			res, sess := f.serve(t, f.handler.HandleLoginForTest, req)

			assert.Equal(t, http.StatusUnauthorized, res.Code)
			assert.Contains(t, res.Body.String(), "invalid email or password")
			assert.Empty(t, sess.User())
		})
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	f.repo.user.IsActive = false

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"admin@javic.test","password":"correct-horse"}`))
	res, _ := f.serve(t, f.handler.HandleLoginForTest, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	res, _ := f.serve(t, f.handler.HandleLoginForTest, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "email", body.Errors["Email"])
	assert.Equal(t, "min", body.Errors["Password"])
}

func TestLoginRotatesSession(t *testing.T) {
	f := newFixture(t)

	// Prime an anonymous session first.
	primeReq := httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	primeRes, anon := f.serve(t, f.handler.CSRFTokenForTest, primeReq)
	require.Equal(t, http.StatusOK, primeRes.Code)
	anonToken := anon.Get(shared.CSRFSessionKey)
	require.NotEmpty(t, anonToken)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ADMIN@javic.test","password":"correct-horse"}`))
	req.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: anon.ID})
	res, sess := f.serve(t, f.handler.HandleLoginForTest, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "2", sess.User())
	assert.NotEqual(t, anon.ID, sess.ID)
	assert.NotEqual(t, anonToken, sess.Get(shared.CSRFSessionKey))
	assert.Equal(t, int64(2), f.repo.sessions[sess.ID])

	// The anonymous id no longer resolves to the signed-in session.
	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(&http.Cookie{Name: f.sessions.CookieName(), Value: anon.ID})
	loaded, err := f.sessions.Load(context.Background(), stale)
	require.NoError(t, err)
	assert.Empty(t, loaded.User())
	assert.NotEqual(t, anon.ID, loaded.ID)
}

func TestMeReturnsAccessSummary(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser("2")
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	f.handler.MeForTest(res, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		User   users.User         `json:"user"`
		Access rbac.AccessSummary `json:"access"`
		CSRF   string             `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "Store Admin", body.User.Name)
	assert.Equal(t, rbac.RoleAdmin, body.Access.Role)
	assert.Equal(t, len(rbac.DefaultPermissions(rbac.RoleAdmin))+1, body.Access.Count)
	assert.NotEmpty(t, body.CSRF)
}

func TestMeRequiresSignIn(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res, _ := f.serve(t, f.handler.MeForTest, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t)
	f.repo.sessions = map[string]int64{}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	sess, err := f.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser("2")
	f.repo.sessions[sess.ID] = 2
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	f.handler.HandleLogoutForTest(res, req.WithContext(ctx))
	require.NoError(t, f.sessions.Commit(ctx, res, sess))

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, f.repo.sessions)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
