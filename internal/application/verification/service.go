package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-api-auth/internal/domain"
	"github.com/go-api-auth/internal/pkg/code"
	"github.com/go-api-auth/internal/pkg/validate"
)

// CodeStore is the ephemeral key-value store holding one code per email.
type CodeStore interface {
	// Put overwrites any code for email and reports whether a live one was replaced.
	Put(ctx context.Context, email, code string, ttl time.Duration) (superseded bool, err error)
	// Get returns an error wrapping domain.ErrNotFound when no live code exists.
	Get(ctx context.Context, email string) (string, error)
	// CompareAndDelete deletes the code only if it still equals expected.
	CompareAndDelete(ctx context.Context, email, expected string) (bool, error)
	Delete(ctx context.Context, email string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

type Service interface {
	IssueCode(ctx context.Context, email string) (string, error)
	VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) error
}

// ServiceDeps holds the collaborators for the verification service.
// Mailer and Events are optional.
type ServiceDeps struct {
	Codes    CodeStore
	Mailer   mailer
	Events   eventPublisher
	TTL      time.Duration
	Generate func() (string, error)
	Now      func() time.Time
}

type service struct {
	codes    CodeStore
	mailer   mailer
	events   eventPublisher
	ttl      time.Duration
	generate func() (string, error)
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:    deps.Codes,
		mailer:   deps.Mailer,
		events:   deps.Events,
		ttl:      deps.TTL,
		generate: deps.Generate,
		now:      deps.Now,
	}
	if s.ttl <= 0 {
		s.ttl = domain.DefaultCodeTTL
	}
	if s.generate == nil {
		s.generate = code.New
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) IssueCode(ctx context.Context, email string) (string, error) {
	if !validate.Email(email) {
		return "", fmt.Errorf("malformed email: %w", domain.ErrInvalidInput)
	}
	c, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("issue code: %w: %w", domain.ErrInternal, err)
	}
	superseded, err := s.codes.Put(ctx, email, c, s.ttl)
	if err != nil {
		return "", fmt.Errorf("store code: %w: %w", domain.ErrInternal, err)
	}
	if superseded {
		s.publish(ctx, domain.Event{Type: domain.EventCodeSuperseded, Email: email, OccurredAt: s.now().UTC()})
	}
	if s.mailer != nil {
		body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", c, int(s.ttl/time.Minute))
		if err := s.mailer.SendEmail(email, "Your verification code", body); err != nil {
			slog.Warn("verification code email failed", "email", email, "error", err)
		}
	}
	return c, nil
}

// VerifyCode consumes the code on success. A mismatch leaves the stored code in place.
func (s *service) VerifyCode(ctx context.Context, req domain.VerifyCodeRequest) error {
	if req.Email == "" || req.Code == "" {
		return fmt.Errorf("email and code are required: %w", domain.ErrInvalidInput)
	}
	stored, err := s.codes.Get(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("load code: %w: %w", domain.ErrInternal, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		return domain.ErrCodeMismatch
	}
	// Another request may have consumed or replaced the code since Get.
	consumed, err := s.codes.CompareAndDelete(ctx, req.Email, stored)
	if err != nil {
		return fmt.Errorf("consume code: %w: %w", domain.ErrInternal, err)
	}
	if !consumed {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (s *service) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		slog.Warn("event publish failed", "type", e.Type, "email", e.Email, "error", err)
	}
}
