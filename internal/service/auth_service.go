// Package service provides business logic implementations.
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/gaminghub/portal/internal/mailer"
	"github.com/gaminghub/portal/internal/models"
	flowerrors "github.com/gaminghub/portal/internal/pkg/errors"
	"github.com/gaminghub/portal/internal/repository"
)

// AuthService defines the OTP login flow interface.
type AuthService interface {
	// IssueCode generates a one-time code for the email, stores it with an
	// expiry, and dispatches it by mail. A dispatch failure is logged and
	// swallowed; only a store failure is returned.
	IssueCode(ctx context.Context, email string) error

	// VerifyCode validates the submitted code. On success the code record
	// is deleted, the user is found or created, and an open login event is
	// recorded. Verification failures are FlowErrors from pkg/errors.
	VerifyCode(ctx context.Context, email, code string) (*models.User, *models.LoginEvent, error)

	// CloseLoginEvent stamps the logout time on the event. Best-effort.
	CloseLoginEvent(ctx context.Context, eventID string) error

	// VerifyAdminPassword checks a submitted password against the
	// configured admin secret in constant time.
	VerifyAdminPassword(password string) bool

	// ListLoginEvents returns the full login history, newest first.
	ListLoginEvents(ctx context.Context) ([]*models.LoginEvent, error)
}

// Options holds the service's configuration knobs.
type Options struct {
	SiteName      string
	CodeTTL       time.Duration
	AdminPassword string
}

type authService struct {
	users  repository.UserRepository
	codes  repository.CodeRepository
	events repository.LoginEventRepository
	mail   mailer.Dispatcher
	logger *slog.Logger
	opts   Options

	// injectable for tests
	generateCode func() (string, error)
	now          func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	codes repository.CodeRepository,
	events repository.LoginEventRepository,
	mail mailer.Dispatcher,
	logger *slog.Logger,
	opts Options,
) AuthService {
	if opts.CodeTTL == 0 {
		opts.CodeTTL = 5 * time.Minute
	}
	return &authService{
		users:        users,
		codes:        codes,
		events:       events,
		mail:         mail,
		logger:       logger,
		opts:         opts,
		generateCode: generateCode,
		now:          time.Now,
	}
}

// NewAuthServiceWithGenerator creates an auth service with a pinned code
// generator and clock. This is primarily used for testing.
func NewAuthServiceWithGenerator(
	users repository.UserRepository,
	codes repository.CodeRepository,
	events repository.LoginEventRepository,
	mail mailer.Dispatcher,
	logger *slog.Logger,
	opts Options,
	generate func() (string, error),
	now func() time.Time,
) AuthService {
	svc := NewAuthService(users, codes, events, mail, logger, opts).(*authService)
	if generate != nil {
		svc.generateCode = generate
	}
	if now != nil {
		svc.now = now
	}
	return svc
}

func (s *authService) IssueCode(ctx context.Context, email string) error {
	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	record := &models.OneTimeCode{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.opts.CodeTTL),
	}
	if err := s.codes.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	subject := fmt.Sprintf("Your %s OTP", s.opts.SiteName)
	body := fmt.Sprintf("Your OTP is: %s\nValid for %.f minutes.", code, s.opts.CodeTTL.Minutes())

	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		// Delivery is fire-and-forget: the user is sent back to the login
		// page regardless of the outcome.
		s.logger.Error("failed to dispatch code email",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (s *authService) VerifyCode(ctx context.Context, email, code string) (*models.User, *models.LoginEvent, error) {
	record, err := s.codes.Get(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load code: %w", err)
	}
	if record == nil {
		return nil, nil, flowerrors.ErrCodeNotFound
	}

	if record.Expired(s.now()) {
		if err := s.codes.Delete(ctx, email); err != nil {
			s.logger.Error("failed to delete expired code",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil, flowerrors.ErrCodeExpired
	}

	if record.Code != code {
		return nil, nil, flowerrors.ErrCodeMismatch
	}

	// Single-use enforcement: the record is gone before the session opens.
	if err := s.codes.Delete(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("failed to delete code: %w", err)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find or create user: %w", err)
	}

	event := &models.LoginEvent{
		Email:   user.Email,
		LoginAt: s.now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("failed to create login event: %w", err)
	}

	return user, event, nil
}

func (s *authService) CloseLoginEvent(ctx context.Context, eventID string) error {
	return s.events.Close(ctx, eventID, s.now())
}

func (s *authService) VerifyAdminPassword(password string) bool {
	if password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.AdminPassword)) == 1
}

func (s *authService) ListLoginEvents(ctx context.Context) ([]*models.LoginEvent, error) {
	return s.events.ListAll(ctx)
}

// generateCode draws a 6-digit decimal code uniformly from 100000-999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
