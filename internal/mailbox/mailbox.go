// Package mailbox drives the inbox and compose flows on top of the Gmail
// transport and the MIME codec.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-crm/internal/config"
	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

var (
	// ErrAttachmentsTooLarge indicates the attachments of a draft exceed the configured ceiling.
	ErrAttachmentsTooLarge = errors.New("attachments exceed size limit")

	// ErrOutsideAttachmentDir indicates a draft file outside the configured attachment directory.
	ErrOutsideAttachmentDir = errors.New("path is outside the attachment directory")
)

type transport interface {
	ListMessages(ctx context.Context, labelID, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, msgID string) (*gmail.Message, error)
	GetAttachment(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error)
	SendRaw(ctx context.Context, raw mimecodec.EncodedMessage) (*gmail.Message, error)
	GetProfile(ctx context.Context) (*gmail.Profile, error)
	Reset()
}

type session interface {
	SetAccount(email string)
	Account() string
	Clear() error
}

// Draft is a message composed by the user. Files are read at send time from
// the configured attachment directory; relative paths are resolved against it.
type Draft struct {
	To          string
	Subject     string
	Body        string
	Files       []string
	Attachments []mimecodec.OutgoingAttachment
}

// NewService creates a mailbox Service.
func NewService(svc transport, sess session, enc *mimecodec.Encoder, cfg config.Config) *Service {
	return &Service{
		svc: svc,
		ses: sess,
		enc: enc,
		cfg: cfg,
	}
}

// Service implements inbox and compose operations.
type Service struct {
	svc transport
	ses session
	enc *mimecodec.Encoder
	cfg config.Config
}

// Inbox fetches the latest messages of the configured label and decodes them,
// keeping the order reported by the provider.
func (s *Service) Inbox(ctx context.Context) ([]mimecodec.EmailRecord, error) {
	list, err := s.svc.ListMessages(ctx, s.cfg.InboxLabel, "", s.cfg.InboxMaxResults)
	if err != nil {
		return nil, fmt.Errorf("svc.ListMessages failed: %w", err)
	}
	if list == nil {
		return []mimecodec.EmailRecord{}, nil
	}

	records := make([]mimecodec.EmailRecord, len(list.Messages))

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.FetchConcurrency > 0 {
		g.SetLimit(s.cfg.FetchConcurrency)
	}

	for i, ref := range list.Messages {
		g.Go(func() error {
			msg, err := s.svc.GetMessage(gctx, ref.Id)
			if err != nil {
				return fmt.Errorf("get message %s failed: %w", ref.Id, err)
			}
			records[i] = mimecodec.Decode(msg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

// Message fetches and decodes a single message.
func (s *Service) Message(ctx context.Context, msgID string) (mimecodec.EmailRecord, error) {
	msg, err := s.svc.GetMessage(ctx, msgID)
	if err != nil {
		return mimecodec.EmailRecord{}, fmt.Errorf("get message %s failed: %w", msgID, err)
	}

	return mimecodec.Decode(msg), nil
}

// Attachment fetches attachment bytes by id.
func (s *Service) Attachment(ctx context.Context, msgID, attachmentID string) ([]byte, error) {
	body, err := s.svc.GetAttachment(ctx, msgID, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("get attachment %s failed: %w", attachmentID, err)
	}

	data := mimecodec.DecodeBase64URL(body.Data)
	if data == nil {
		return nil, fmt.Errorf("attachment %s has malformed data", attachmentID)
	}

	return data, nil
}

// Send validates, reads and encodes the draft, and only then submits it.
// Nothing reaches the transport if any of those steps fails.
func (s *Service) Send(ctx context.Context, d Draft) (*gmail.Message, error) {
	req := mimecodec.ComposeRequest{
		To:          d.To,
		Subject:     d.Subject,
		Body:        d.Body,
		Attachments: append([]mimecodec.OutgoingAttachment(nil), d.Attachments...),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(d.Files) > 0 {
		files, err := s.readFiles(d.Files)
		if err != nil {
			return nil, err
		}
		req.Attachments = append(req.Attachments, files...)
	}

	if err := s.checkSize(req.Attachments); err != nil {
		return nil, err
	}

	raw, err := s.enc.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("enc.Encode failed: %w", err)
	}

	sent, err := s.svc.SendRaw(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("svc.SendRaw failed: %w", err)
	}
	log.Printf("Sent message %s to %s with %d attachment(s)", sent.Id, d.To, len(req.Attachments))

	return sent, nil
}

// Connect looks up the connected account and records it in the session.
func (s *Service) Connect(ctx context.Context) (string, error) {
	profile, err := s.svc.GetProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("svc.GetProfile failed: %w", err)
	}
	s.ses.SetAccount(profile.EmailAddress)

	return profile.EmailAddress, nil
}

// Account returns the connected account address, if known.
func (s *Service) Account() string {
	return s.ses.Account()
}

// Disconnect forgets the session and drops the transport client.
func (s *Service) Disconnect() error {
	s.svc.Reset()
	if err := s.ses.Clear(); err != nil {
		return fmt.Errorf("ses.Clear failed: %w", err)
	}

	return nil
}

func (s *Service) checkSize(atts []mimecodec.OutgoingAttachment) error {
	if s.cfg.MaxAttachmentBytes <= 0 {
		return nil
	}

	var total int64
	for _, a := range atts {
		total += int64(len(a.Data))
	}
	if total > s.cfg.MaxAttachmentBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrAttachmentsTooLarge, total, s.cfg.MaxAttachmentBytes)
	}

	return nil
}

func (s *Service) readFiles(paths []string) ([]mimecodec.OutgoingAttachment, error) {
	root, err := os.OpenRoot(s.cfg.AttachmentDir)
	if err != nil {
		return nil, &mimecodec.AttachmentReadError{Filename: filepath.Base(paths[0]), Err: err}
	}
	defer func() {
		if err := root.Close(); err != nil {
			log.Println(fmt.Errorf("root.Close failed: %w", err))
		}
	}()

	atts := make([]mimecodec.OutgoingAttachment, 0, len(paths))
	for _, path := range paths {
		att, err := readFile(root, path)
		if err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}

	return atts, nil
}

// readFile opens path inside root. Absolute paths must point into the root
// directory; escapes, including through symlinks, are refused by os.Root.
func readFile(root *os.Root, path string) (mimecodec.OutgoingAttachment, error) {
	name := filepath.Base(path)

	rel, err := relativeToRoot(root.Name(), path)
	if err != nil {
		return mimecodec.OutgoingAttachment{}, &mimecodec.AttachmentReadError{Filename: name, Err: err}
	}

	f, err := root.Open(rel)
	if err != nil {
		return mimecodec.OutgoingAttachment{}, &mimecodec.AttachmentReadError{Filename: name, Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Println(fmt.Errorf("f.Close failed: %w", err))
		}
	}()

	return mimecodec.ReadAttachment(f, name, mime.TypeByExtension(filepath.Ext(name)))
}

func relativeToRoot(dir, path string) (string, error) {
	rel := filepath.Clean(path)
	if filepath.IsAbs(rel) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("filepath.Abs failed: %w", err)
		}
		if rel, err = filepath.Rel(absDir, rel); err != nil {
			return "", fmt.Errorf("%w: %s", ErrOutsideAttachmentDir, path)
		}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideAttachmentDir, path)
	}

	return rel, nil
}
