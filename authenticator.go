package userbase

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther implements the Authenticator interface over a credential store and a
// token service. Every failure shape surfaces as the same InvalidCredentials
// error so callers cannot distinguish "no such user" from "wrong password".
type Auther struct {
	users  Users
	tokens *TokenService
	hasher PasswordHasher
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokens *TokenService) *Auther {
	return &Auther{
		users:  users,
		tokens: tokens,
		hasher: NewPasswordHasher(),
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithPasswordHasher overrides the hash comparison implementation
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Verify checks the identifier/password pair against the store and returns the
// authenticated principal. Fails closed.
func (s *Auther) Verify(ctx context.Context, identifier, password string) (*Principal, error) {
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Debug("Verify identifier did not resolve", "identifier", identifier)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.CanAuthenticate() {
		s.logger.Warn("Verify blocked due to account status",
			"user_id", user.ID,
			"enabled", user.Enabled,
			"non_locked", user.AccountNonLocked,
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Verify password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user.Principal(), nil
}

// Login verifies the identifier/password pair and issues a bearer token
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	principal, err := s.Verify(ctx, identifier, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(principal)
	if err != nil {
		s.logger.Error("Login token generation failed", "error", err)
		return "", err
	}

	return token, nil
}

var _ Authenticator = (*Auther)(nil)
