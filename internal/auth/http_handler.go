package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

type session interface {
	AuthorizeCode(context.Context, string, string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
	Account() string
}

// HTTPHandler handles OAuth2 authentication flow via HTTP.
type HTTPHandler struct {
	session session
	// onConnect runs after a code was exchanged, e.g. to look up the account.
	onConnect func(context.Context)
}

// NewHTTPHandler creates an HTTP handler for OAuth2 flow.
func NewHTTPHandler(s session, onConnect func(context.Context)) *HTTPHandler {
	return &HTTPHandler{session: s, onConnect: onConnect}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("redirect") != "" {
		u, err := h.session.RedirectURL()
		if err != nil {
			log.Println("h.session.RedirectURL failed", err)
			http.Error(w, "Unable to start authorization", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, u, http.StatusFound)
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		state := r.URL.Query().Get("state")
		if err := h.session.AuthorizeCode(r.Context(), code, state); err != nil {
			log.Println("h.session.AuthorizeCode failed", err)
			http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
			return
		}
		if h.onConnect != nil {
			h.onConnect(r.Context())
		}
		http.Redirect(w, r, r.URL.EscapedPath(), http.StatusFound)
		return
	}

	t, err := h.session.OAuthToken()
	if errors.Is(err, ErrTokenNotSet) {
		http.Error(w, "Token not found", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Account: %s, token: %s, expires: %s", h.session.Account(), maskLeft(t.AccessToken), t.Expiry.Format(time.RFC3339))
}

func maskLeft(s string) string {
	rs := []rune(s)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}

// DisconnectHandler ends the session. It accepts only POST requests with a
// JSON content type and, if an Origin header is sent, the server's own origin.
type DisconnectHandler struct {
	disconnect func() error
}

// NewDisconnectHandler creates a handler that calls disconnect.
func NewDisconnectHandler(disconnect func() error) *DisconnectHandler {
	return &DisconnectHandler{disconnect: disconnect}
}

func (h *DisconnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" && !sameOrigin(origin, r.Host) {
		http.Error(w, "Cross-origin request refused", http.StatusForbidden)
		return
	}

	if err := h.disconnect(); err != nil {
		log.Println("h.disconnect failed", err)
		http.Error(w, "Unable to disconnect", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return u.Host == host
}
