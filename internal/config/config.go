// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// Environment variable names.
const (
	EnvClientID           = "OAUTH_GOOGLE_CLIENT_ID"
	EnvClientSecret       = "OAUTH_GOOGLE_CLIENT_SECRET"
	EnvInboxLabel         = "GMAIL_INBOX_LABEL"
	EnvInboxMaxResults    = "GMAIL_INBOX_MAX_RESULTS"
	EnvFetchConcurrency   = "GMAIL_FETCH_CONCURRENCY"
	EnvMaxAttachmentBytes = "GMAIL_MAX_ATTACHMENT_BYTES"
	EnvAttachmentDir      = "GMAIL_ATTACHMENT_DIR"
)

// Defaults applied when the matching variable is unset.
const (
	DefaultInboxLabel         = "INBOX"
	DefaultInboxMaxResults    = 30
	DefaultFetchConcurrency   = 8
	DefaultMaxAttachmentBytes = 25 << 20
	DefaultAttachmentDir      = "./attachments"
)

// ErrMissingCredentials indicates the OAuth client is not configured.
var ErrMissingCredentials = errors.New("env variables " + EnvClientID + " and " + EnvClientSecret + " must be set")

// Config is the process configuration.
type Config struct {
	ClientID     string
	ClientSecret string

	InboxLabel      string
	InboxMaxResults int64
	// FetchConcurrency bounds parallel message fetches of an inbox refresh.
	FetchConcurrency int
	// MaxAttachmentBytes bounds the total attachment size of one outgoing message.
	MaxAttachmentBytes int64
	// AttachmentDir is the only directory outgoing attachments are read from.
	AttachmentDir string
}

// Load reads the env file, if given, and then the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	cfg := Config{
		ClientID:      os.Getenv(EnvClientID),
		ClientSecret:  os.Getenv(EnvClientSecret),
		InboxLabel:    DefaultInboxLabel,
		AttachmentDir: DefaultAttachmentDir,
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, ErrMissingCredentials
	}

	if v := os.Getenv(EnvInboxLabel); v != "" {
		cfg.InboxLabel = v
	}
	if v := os.Getenv(EnvAttachmentDir); v != "" {
		cfg.AttachmentDir = v
	}

	var err error
	if cfg.InboxMaxResults, err = positiveInt(EnvInboxMaxResults, DefaultInboxMaxResults); err != nil {
		return Config{}, err
	}
	concurrency, err := positiveInt(EnvFetchConcurrency, DefaultFetchConcurrency)
	if err != nil {
		return Config{}, err
	}
	cfg.FetchConcurrency = int(concurrency)
	if cfg.MaxAttachmentBytes, err = positiveInt(EnvMaxAttachmentBytes, DefaultMaxAttachmentBytes); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// OAuth2 returns the OAuth client configuration for the Gmail API.
func (c Config) OAuth2(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailModifyScope},
		Endpoint:     google.Endpoint,
	}
}

func positiveInt(name string, def int64) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: strconv.ParseInt failed: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}

	return n, nil
}
