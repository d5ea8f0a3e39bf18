// Package auth handles the OAuth2 session of the connected Gmail account.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrTokenNotSet indicates no OAuth token is available.
var ErrTokenNotSet = errors.New("no token defined")

const stateTTL = 5 * time.Minute

type persistedSession struct {
	Token *oauth2.Token `json:"token"`
	Email string        `json:"email,omitempty"`
}

// Session holds the OAuth2 token and the address of the connected account.
type Session struct {
	mu          sync.RWMutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	email       string
	persistPath string
	stateStore  map[string]time.Time
}

// NewSession creates a Session, loading it from disk if path provided.
func NewSession(cfg *oauth2.Config, persistPath string) (*Session, error) {
	s := &Session{
		cfg:         cfg,
		persistPath: persistPath,
		stateStore:  make(map[string]time.Time),
	}
	if persistPath == "" {
		return s, nil
	}

	raw, err := os.ReadFile(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("File %s doesn't exist, but will be created at the end", persistPath)

			return s, nil
		}

		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}

	var ps persistedSession
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
	}
	s.token = ps.Token
	s.email = ps.Email

	return s, nil
}

// RedirectURL generates the OAuth2 authorization URL with a secure random state.
func (s *Session) RedirectURL() (string, error) {
	state, err := s.generateState()
	if err != nil {
		return "", fmt.Errorf("generateState failed: %w", err)
	}

	return s.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (s *Session) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.stateStore[state] = now.Add(stateTTL)

	for st, exp := range s.stateStore {
		if exp.Before(now) {
			delete(s.stateStore, st)
		}
	}

	return state, nil
}

func (s *Session) validateState(state string) bool {
	if state == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return !time.Now().After(expiry)
}

// AuthorizeCode exchanges an authorization code for an access token after validating state.
// A new token starts a new session, so the stored account address is cleared.
func (s *Session) AuthorizeCode(ctx context.Context, code string, state string) error {
	if !s.validateState(state) {
		return errors.New("invalid or expired state parameter")
	}

	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = tok
	s.email = ""

	return nil
}

// OAuthToken returns the current OAuth2 token.
func (s *Session) OAuthToken() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil, ErrTokenNotSet
	}

	return s.token, nil
}

// SetAccount records the address of the connected account.
func (s *Session) SetAccount(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.email = email
}

// Account returns the address of the connected account, if known.
func (s *Session) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.email
}

// Clear forgets the token and account and removes the persisted copy.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
	s.email = ""

	if s.persistPath == "" {
		return nil
	}
	if err := os.Remove(s.persistPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("os.Remove failed: %w", err)
	}

	return nil
}

// Persist saves the session to disk.
func (s *Session) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.persistPath == "" || s.token == nil {
		return nil
	}

	raw, err := json.Marshal(persistedSession{Token: s.token, Email: s.email})
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}

	if err := os.WriteFile(s.persistPath, raw, 0600); err != nil {
		return fmt.Errorf("os.WriteFile failed: %w", err)
	}

	return nil
}
