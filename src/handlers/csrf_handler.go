package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/slipfolio/src/config"
	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/utils"
)

const csrfCookieName = "_slipfolio_csrf"

// GetCSRFToken issues a fresh double-submit token. The cookie carries the
// token plus an HMAC signature under the server's CSRF auth key, so a
// matching cookie/header pair can only originate from a cookie this server
// minted; mutating requests must echo the bare token back in the
// X-CSRF-Token header.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := generateRandomToken()
	if err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token + "." + signCSRFToken(config.Cfg.CSRFAuthKey, token),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // set true behind HTTPS
		MaxAge:   3600,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{"csrfToken": token})
}

func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func signCSRFToken(authKey []byte, token string) string {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// CSRFMiddleware validates the double-submit token on state-changing
// requests: the cookie signature must verify under authKey and the header
// token must match the signed value. Safe methods and CORS preflights pass
// through untouched.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil && validCSRFCookie(authKey, headerToken, cookie.Value) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF validation failed", "method", r.Method, "path", r.URL.Path)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}

func validCSRFCookie(authKey []byte, headerToken, cookieValue string) bool {
	token, mac, found := strings.Cut(cookieValue, ".")
	if !found {
		return false
	}
	if !hmac.Equal([]byte(mac), []byte(signCSRFToken(authKey, token))) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerToken), []byte(token)) == 1
}
