package services

import (
	stderrors "errors"
	"fmt"
	"time"

	"chathub/auth"
	"chathub/errors"
	"chathub/repositories"
)

type IAuthService interface {
	Authenticate(handle, secret string) (Session, error)
	Register(handle, secret, confirmSecret string) (Session, error)
}

// Session is the authenticated state returned by both register and
// login; registration flows straight into it.
type Session struct {
	Handle string
	Token  string
}

type AuthService struct {
	users         repositories.IUserRepository
	tokenDuration time.Duration
}

func NewAuthService(users repositories.IUserRepository, tokenDuration time.Duration) *AuthService {
	return &AuthService{users: users, tokenDuration: tokenDuration}
}

// Register creates an account and returns an authenticated session.
// Checks run in a fixed order: blank input, secret strength, secret
// confirmation, handle availability. Nothing is stored on failure.
func (s *AuthService) Register(handle, secret, confirmSecret string) (Session, error) {
	if err := auth.ValidateCredentials(handle, secret); err != nil {
		return Session{}, err
	}
	if secret != confirmSecret {
		return Session{}, errors.ErrSecretMismatch
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}
	if err := s.users.CreateUser(handle, hash); err != nil {
		return Session{}, err // propagates ErrHandleTaken
	}

	return s.newSession(handle)
}

// Authenticate verifies a handle/secret pair. The strength check runs
// on login too, so a secret that could never have been registered is
// rejected before the lookup. Unknown handle and wrong secret are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(handle, secret string) (Session, error) {
	if err := auth.ValidateCredentials(handle, secret); err != nil {
		return Session{}, err
	}

	user, err := s.users.GetUser(handle)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidCredentials) {
			return Session{}, errors.ErrInvalidCredentials
		}
		return Session{}, err
	}

	match, err := auth.CompareSecret(secret, user.SecretHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	return s.newSession(handle)
}

// SeedAccount provisions a well-known account, used for the demo user.
// An already-existing handle is left untouched.
func (s *AuthService) SeedAccount(handle, secret string) error {
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}
	if err := s.users.CreateUser(handle, hash); err != nil && !stderrors.Is(err, errors.ErrHandleTaken) {
		return err
	}
	return nil
}

func (s *AuthService) newSession(handle string) (Session, error) {
	token, err := auth.GenerateToken(handle, s.tokenDuration)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{Handle: handle, Token: token}, nil
}
