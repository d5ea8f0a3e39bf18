// Package gservice talks to the Gmail REST API on behalf of the mailbox.
package gservice

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

const gmailUserID = "me"

type tokenSource interface {
	OAuthToken() (*oauth2.Token, error)
}

// ServiceFactory builds a Gmail client for the given token.
type ServiceFactory func(ctx context.Context, cfg *oauth2.Config, t *oauth2.Token) (*gmail.Service, error)

// NewGmail creates a transport that builds its API client on first use.
func NewGmail(cfg *oauth2.Config, tok tokenSource) *GMail {
	return NewGmailWithFactory(cfg, tok, newService)
}

// NewGmailWithFactory is NewGmail with a custom client constructor.
func NewGmailWithFactory(cfg *oauth2.Config, tok tokenSource, factory ServiceFactory) *GMail {
	return &GMail{
		cfg:   cfg,
		tok:   tok,
		state: &clientState{factory: factory},
	}
}

// GMail is the Gmail transport. It owns authentication and HTTP concerns.
type GMail struct {
	cfg   *oauth2.Config
	tok   tokenSource
	state *clientState
}

// clientState holds the lazily built API client. It is rebuilt whenever the
// session token changes and dropped by Reset.
type clientState struct {
	mu      sync.Mutex
	factory ServiceFactory
	svc     *gmail.Service
	token   *oauth2.Token
}

func (s *clientState) get(ctx context.Context, cfg *oauth2.Config, t *oauth2.Token) (*gmail.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil && s.token == t {
		return s.svc, nil
	}

	// The client outlives the request that triggered its construction.
	svc, err := s.factory(context.WithoutCancel(ctx), cfg, t)
	if err != nil {
		return nil, err
	}
	s.svc = svc
	s.token = t

	return svc, nil
}

func (s *clientState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.svc = nil
	s.token = nil
}

// Reset drops the cached API client; the next call builds a new one.
func (m *GMail) Reset() {
	m.state.reset()
}

// ListMessages lists message references carrying labelID.
func (m *GMail) ListMessages(ctx context.Context, labelID, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	svc, err := m.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed: %w", err)
	}

	call := svc.Users.Messages.List(gmailUserID).
		PageToken(pageToken).
		MaxResults(maxResults).
		Context(ctx)
	if labelID != "" {
		call = call.LabelIds(labelID)
	}

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("messages.List failed: %w", err)
	}

	return result, nil
}

// GetMessage fetches the full message, including its part tree.
func (m *GMail) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	svc, err := m.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed: %w", err)
	}

	msg, err := svc.Users.Messages.Get(gmailUserID, msgID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Get failed: %w", err)
	}

	return msg, nil
}

// GetAttachment fetches attachment content by id.
func (m *GMail) GetAttachment(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error) {
	svc, err := m.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed: %w", err)
	}

	attachment, err := svc.Users.Messages.Attachments.Get(gmailUserID, msgID, attachmentID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("attachments.Get failed: %w", err)
	}

	return attachment, nil
}

// SendRaw submits an encoded message.
func (m *GMail) SendRaw(ctx context.Context, raw mimecodec.EncodedMessage) (*gmail.Message, error) {
	svc, err := m.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed: %w", err)
	}

	sent, err := svc.Users.Messages.Send(gmailUserID, &gmail.Message{Raw: raw.String()}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("messages.Send failed: %w", err)
	}

	return sent, nil
}

// GetProfile returns the connected account.
func (m *GMail) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	svc, err := m.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("users.GetProfile failed: %w", err)
	}

	return profile, nil
}

func (m *GMail) service(ctx context.Context) (*gmail.Service, error) {
	t, err := m.tok.OAuthToken()
	if err != nil {
		return nil, fmt.Errorf("tok.OAuthToken failed: %w", err)
	}

	return m.state.get(ctx, m.cfg, t)
}

func newService(ctx context.Context, cfg *oauth2.Config, t *oauth2.Token) (*gmail.Service, error) {
	clt := cfg.Client(ctx, t)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(clt))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}

	return svc, nil
}
