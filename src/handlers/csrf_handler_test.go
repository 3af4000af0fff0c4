package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/slipfolio/src/config"
	"github.com/username/slipfolio/src/logger"
)

var testCSRFKey = []byte("unit-test-csrf-auth-key-32-bytes")

func init() {
	logger.InitLogger("error")
	if config.Cfg == nil {
		config.Cfg = &config.AppConfig{}
	}
	config.Cfg.CSRFAuthKey = testCSRFKey
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

// issueCSRFToken runs the token endpoint and returns the header token plus
// the signed cookie, the way a browser client would hold them.
func issueCSRFToken(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	GetCSRFToken(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	headerToken := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, headerToken)
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			return headerToken, c
		}
	}
	t.Fatal("CSRF cookie not set")
	return "", nil
}

func TestGetCSRFToken_CookieIsSignedToken(t *testing.T) {
	headerToken, cookie := issueCSRFToken(t)
	assert.Equal(t, headerToken+"."+signCSRFToken(testCSRFKey, headerToken), cookie.Value)
}

func TestCSRFMiddleware_AllowsSafeMethods(t *testing.T) {
	next, called := okHandler()
	mw := CSRFMiddleware(testCSRFKey)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFMiddleware_RejectsMissingToken(t *testing.T) {
	next, called := okHandler()
	mw := CSRFMiddleware(testCSRFKey)(next)

	req := httptest.NewRequest(http.MethodPut, "/api/records", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFMiddleware_RejectsMismatchedToken(t *testing.T) {
	next, called := okHandler()
	mw := CSRFMiddleware(testCSRFKey)(next)
	_, cookie := issueCSRFToken(t)

	req := httptest.NewRequest(http.MethodPut, "/api/records", nil)
	req.Header.Set("X-CSRF-Token", "some-other-token")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFMiddleware_RejectsForgedCookie(t *testing.T) {
	// An attacker who can plant a cookie but does not hold the auth key
	// cannot mint a matching pair: the signature check fails.
	next, called := okHandler()
	mw := CSRFMiddleware(testCSRFKey)(next)

	forged := "attacker-token." + signCSRFToken([]byte("wrong-key-wrong-key-wrong-key-xx"), "attacker-token")
	req := httptest.NewRequest(http.MethodDelete, "/api/records/abc", nil)
	req.Header.Set("X-CSRF-Token", "attacker-token")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: forged})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFMiddleware_AllowsIssuedPair(t *testing.T) {
	next, called := okHandler()
	mw := CSRFMiddleware(testCSRFKey)(next)
	headerToken, cookie := issueCSRFToken(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/records/abc", nil)
	req.Header.Set("X-CSRF-Token", headerToken)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
