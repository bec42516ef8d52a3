package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"emhana.org/internal/notify"
)

// tempPasswordBytes yields a 10-character hex temporary password.
const tempPasswordBytes = 5

// Service orchestrates sign-up, sign-in and password management on top of
// the user store, the password hasher and the token issuer. It owns no state
// of its own; correctness under concurrent requests is delegated to the
// store's uniqueness guarantees.
type Service struct {
	users      UserStore
	issuer     *Issuer
	dispatcher *notify.Dispatcher
	now        Clock
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(now Clock) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the credential service.
func NewService(users UserStore, issuer *Issuer, dispatcher *notify.Dispatcher, opts ...ServiceOption) *Service {
	s := &Service{
		users:      users,
		issuer:     issuer,
		dispatcher: dispatcher,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUpInput carries the validated registration fields.
type SignUpInput struct {
	FirstName string
	LastName  string
	CitizenID string
	Phone     string
	Email     string
	Password  string
}

// NormalizeEmail lower-cases and trims an address; emails are compared
// case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account, mails a welcome notice and mints a token.
// The pre-check keeps the common duplicate case fast, but the real guarantee
// is the store's unique email index: a concurrent duplicate insert also comes
// back as ErrAlreadyExists.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := NormalizeEmail(in.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("auth: look up email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, &User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CitizenID:    in.CitizenID,
		Phone:        in.Phone,
		Email:        email,
		PasswordHash: hash,
		Role:         RolePatient,
		IsActive:     true,
	}); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	// Re-read the stored row so generated fields (id, timestamps) are
	// populated from the store rather than guessed here.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("auth: reload user: %w", err)
	}

	s.dispatcher.Dispatch(notify.Message{
		To:       user.Email,
		Subject:  "User Sign Up",
		Template: notify.TemplateSignUp,
		Context:  map[string]any{"name": user.FullName()},
	})

	return s.newSession(user)
}

// SignIn authenticates an email/password pair. Unknown emails and wrong
// passwords produce the same ErrInvalidCredentials so callers cannot probe
// for account existence.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: look up email: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.newSession(user)
}

// ForgetPassword replaces the stored hash with one derived from a fresh
// temporary password, mails the plaintext to the account owner, and returns
// it for caller display. The plaintext is never persisted.
func (s *Service) ForgetPassword(ctx context.Context, email string) (*User, string, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("auth: look up email: %w", err)
	}

	buf := make([]byte, tempPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", err
	}
	tempPassword := hex.EncodeToString(buf)

	hash, err := HashPassword(tempPassword)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, "", fmt.Errorf("auth: store temporary password: %w", err)
	}

	s.dispatcher.Dispatch(notify.Message{
		To:       user.Email,
		Subject:  "Temporal Password",
		Template: notify.TemplateForgetPassword,
		Context: map[string]any{
			"name":         user.FullName(),
			"date":         s.now().UTC().Format("02-01-2006"),
			"tempPassword": tempPassword,
		},
	})

	return user.Sanitized(), tempPassword, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*User, error) {
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: look up user: %w", err)
	}
	if err := VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("auth: store password: %w", err)
	}
	return user.Sanitized(), nil
}

// Authenticate resolves a bearer token to an active user. The subject is
// re-read from the store so tokens minted before a deactivation stop working
// immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("auth: resolve subject: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user.Sanitized(), nil
}

// Get returns a single user with the hash stripped.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// List returns a page of users plus the total count.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*User, int, error) {
	users, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	return out, total, nil
}

// SetActive toggles account activation on behalf of the administrative
// collaborator and mails the owner about the change.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) (*User, error) {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth: set active: %w", err)
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: reload user: %w", err)
	}

	subject := "User Disabled"
	if user.IsActive {
		subject = "User Enabled"
	}
	s.dispatcher.Dispatch(notify.Message{
		To:       user.Email,
		Subject:  subject,
		Template: notify.TemplateChangeStatus,
		Context: map[string]any{
			"name":     user.FullName(),
			"isActive": user.IsActive,
		},
	})

	return user.Sanitized(), nil
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, expiresAt, err := s.issuer.Sign(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user.Sanitized()}, nil
}
