package auth

import "net/http"

// HandleLoginForTest exposes the login handler to external tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleLogoutForTest exposes the logout handler to external tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}

// MeForTest exposes the profile handler to external tests.
func (h *Handler) MeForTest(w http.ResponseWriter, r *http.Request) {
	h.me(w, r)
}

// CSRFTokenForTest exposes the token handler to external tests.
func (h *Handler) CSRFTokenForTest(w http.ResponseWriter, r *http.Request) {
	h.csrfToken(w, r)
}
