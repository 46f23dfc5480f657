package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/database/testutil"
	"github.com/authgard/authgard/internal/handlers"
	"github.com/authgard/authgard/internal/middleware"
	"github.com/authgard/authgard/internal/store"
)

type handlerFixture struct {
	router *gin.Engine
}

func newHandlerFixture(t *testing.T, clock func() time.Time) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	users, err := store.NewUserStore(db)
	require.NoError(t, err)
	sessions, err := store.NewSessionStore(db)
	require.NoError(t, err)

	svc, err := auth.NewService(users, sessions, auth.Config{Clock: clock})
	require.NoError(t, err)

	h := handlers.NewAuthHandler(svc, handlers.CookieConfig{})

	r := gin.New()
	api := r.Group("/api/auth")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	protected := api.Group("")
	protected.Use(middleware.SessionAuth(svc))
	protected.GET("/session", h.Session)
	protected.POST("/extend", h.Extend)
	protected.POST("/logout-all", h.LogoutAll)
	protected.GET("/me", h.Me)

	return &handlerFixture{router: r}
}

func (f *handlerFixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) register(t *testing.T, username string) {
	t.Helper()
	w := f.do(http.MethodPost, "/api/auth/register",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"Quality1!"}`)
	require.Equal(t, http.StatusCreated, w.Code)
}

func (f *handlerFixture) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	w := f.do(http.MethodPost, "/api/auth/login",
		`{"username":"`+username+`","password":"Quality1!"}`)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			return ck
		}
	}
	return nil
}

func TestRegisterCreatesUser(t *testing.T) {
	f := newHandlerFixture(t, nil)

	w := f.do(http.MethodPost, "/api/auth/register",
		`{"username":"boromir","email":"boromir@gondor.example","password":"Quality1!"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "boromir")
	require.NotContains(t, w.Body.String(), "Quality1!")
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	f := newHandlerFixture(t, nil)

	cases := map[string]string{
		"short password": `{"username":"boromir","email":"boromir@gondor.example","password":"pw"}`,
		"bad email":      `{"username":"boromir","email":"not-an-email","password":"Quality1!"}`,
		"missing fields": `{"username":"boromir"}`,
		"broken json":    `{"username":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/auth/register", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "boromir")

	w := f.do(http.MethodPost, "/api/auth/register",
		`{"username":"boromir","email":"other@example.com","password":"Quality1!"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "eowyn")

	w := f.do(http.MethodPost, "/api/auth/login", `{"username":"eowyn","password":"Quality1!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "session_id")
	require.Contains(t, w.Body.String(), "refresh_token")

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.WithinDuration(t, time.Now().Add(auth.DefaultSessionTTL), cookie.Expires, time.Minute)
}

func TestLoginFailureHidesWhichFieldWasWrong(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "eowyn")

	unknownUser := f.do(http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"Quality1!"}`)
	wrongPassword := f.do(http.MethodPost, "/api/auth/login", `{"username":"eowyn","password":"WrongPass1!"}`)

	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, unknownUser.Body.String(), wrongPassword.Body.String())
}

func TestLogoutClearsCookieAndRevokesSession(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "samwise")
	cookie := f.login(t, "samwise")

	w := f.do(http.MethodPost, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	cleared := sessionCookie(t, w)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	// session is gone, protected routes refuse the old cookie
	w = f.do(http.MethodGet, "/api/auth/session", "", cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutCookieSucceeds(t *testing.T) {
	f := newHandlerFixture(t, nil)

	w := f.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	// repeating with a stale cookie is equally fine
	w = f.do(http.MethodPost, "/api/auth/logout", "",
		&http.Cookie{Name: middleware.SessionCookie, Value: "long-gone"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSessionReturnsCurrentSession(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "pippin")
	cookie := f.login(t, "pippin")

	w := f.do(http.MethodGet, "/api/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), cookie.Value)
	require.Contains(t, w.Body.String(), "expired_at")
}

func TestExtendSlidesCookieExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	f := newHandlerFixture(t, clock)
	f.register(t, "merry")
	cookie := f.login(t, "merry")

	now = now.Add(3 * 24 * time.Hour)

	w := f.do(http.MethodPost, "/api/auth/extend", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	refreshed := sessionCookie(t, w)
	require.NotNil(t, refreshed)
	require.Equal(t, cookie.Value, refreshed.Value)
	require.WithinDuration(t, now.Add(auth.DefaultSessionTTL), refreshed.Expires, time.Minute)
}

func TestExtendRejectsExpiredSession(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	f := newHandlerFixture(t, clock)
	f.register(t, "merry")
	cookie := f.login(t, "merry")

	now = now.Add(auth.DefaultSessionTTL + time.Hour)

	w := f.do(http.MethodPost, "/api/auth/extend", "", cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAllKeepsCallingSession(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "aragorn")
	first := f.login(t, "aragorn")
	second := f.login(t, "aragorn")

	w := f.do(http.MethodPost, "/api/auth/logout-all", "", second)
	require.Equal(t, http.StatusOK, w.Code)

	// the caller keeps its session, the earlier one is revoked
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/auth/session", "", second).Code)
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/auth/session", "", first).Code)
}

func TestMeReturnsProfileWithoutPassword(t *testing.T) {
	f := newHandlerFixture(t, nil)
	f.register(t, "gimli")
	cookie := f.login(t, "gimli")

	w := f.do(http.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "gimli")
	require.Contains(t, w.Body.String(), "gimli@example.com")
	require.NotContains(t, w.Body.String(), "Quality1!")
	require.NotContains(t, w.Body.String(), "password")
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	f := newHandlerFixture(t, nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/session"},
		{http.MethodPost, "/api/auth/extend"},
		{http.MethodPost, "/api/auth/logout-all"},
		{http.MethodGet, "/api/auth/me"},
	} {
		w := f.do(route.method, route.path, "")
		require.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}
