package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/repository"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

var (
	// ErrConfigUnavailable indicates the secrets record could not be read
	// from the store. Distinct from the record being absent, which is a
	// valid empty result handled by the bootstrap fallback.
	ErrConfigUnavailable = errors.New("system config unavailable")
	// ErrInvalidCredential indicates the candidate secret did not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrTerminalLocked indicates login was attempted while the terminal is
	// locked. The locked state is only left through the unlock gate.
	ErrTerminalLocked = errors.New("terminal locked")
)

const (
	bootstrapOperatorID   = "SYS-ADMIN"
	bootstrapOperatorName = "System Administrator"
	defaultOperatorName   = "Counselor 01"
	tokenLifetime         = 12 * time.Hour
)

// AuthResult is the outcome of a successful authentication.
type AuthResult struct {
	Identity session.Identity
	Token    string
}

// AuthService implements the authentication and lock gates: login, unlock
// and the admin capability all validate candidate secrets against the
// configuration singleton, with compiled-in bootstrap fallbacks while no
// record exists yet.
type AuthService interface {
	Authenticate(ctx context.Context, operatorName, accessKey string) (AuthResult, error)
	AuthenticateUnlock(ctx context.Context, unlockKey string) error
	AuthorizeAdmin(ctx context.Context, accessKey string) error
}

type authService struct {
	configRepo      repository.SystemConfigRepository
	store           *session.Store
	jwtSecret       string
	bootstrapAdmin  string
	bootstrapUnlock string
	logger          zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(configRepo repository.SystemConfigRepository, store *session.Store, jwtSecret, bootstrapAdmin, bootstrapUnlock string, logger zerolog.Logger) AuthService {
	return &authService{
		configRepo:      configRepo,
		store:           store,
		jwtSecret:       jwtSecret,
		bootstrapAdmin:  bootstrapAdmin,
		bootstrapUnlock: bootstrapUnlock,
		logger:          logger.With().Str("component", "auth_service").Logger(),
	}
}

// Authenticate validates the login credential. While no secrets record
// exists the bootstrap admin key grants the admin role unconditionally (the
// emergency first-run path); once the record exists the admin secret grants
// the teacher role. A locked terminal refuses logins outright; only the
// unlock gate leaves that state. On failure the terminal state is left
// untouched.
func (s *authService) Authenticate(ctx context.Context, operatorName, accessKey string) (AuthResult, error) {
	if s.store.Snapshot().Locked {
		return AuthResult{}, ErrTerminalLocked
	}

	config, found, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read system config")
		return AuthResult{}, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	name := strings.TrimSpace(operatorName)

	var identity session.Identity
	switch {
	case !found:
		if !constantTimeEquals(s.bootstrapAdmin, accessKey) {
			return AuthResult{}, ErrInvalidCredential
		}
		if name == "" {
			name = bootstrapOperatorName
		}
		identity = session.Identity{ID: bootstrapOperatorID, Name: name, Role: session.RoleAdmin}
		s.logger.Warn().Msg("no system config found, bootstrap login accepted")
	default:
		if !constantTimeEquals(config.AdminPassword, accessKey) {
			return AuthResult{}, ErrInvalidCredential
		}
		if name == "" {
			name = defaultOperatorName
		}
		identity = session.Identity{
			ID:   fmt.Sprintf("T-%03d", rand.IntN(1000)),
			Name: name,
			Role: session.RoleTeacher,
		}
	}

	token, err := s.mintToken(identity)
	if err != nil {
		return AuthResult{}, err
	}

	s.store.SetIdentity(&identity)
	s.store.SetStatus(session.StatusStudentSelect)

	s.logger.Info().Str("operator", identity.ID).Str("role", identity.Role).Msg("operator authenticated")

	return AuthResult{Identity: identity, Token: token}, nil
}

// AuthenticateUnlock validates the unlock secret, which is distinct from
// the admin secret. A mismatch opens the transient denial window and leaves
// the terminal locked; a match releases the lock.
func (s *authService) AuthenticateUnlock(ctx context.Context, unlockKey string) error {
	config, found, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read system config")
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	expected := s.bootstrapUnlock
	if found {
		expected = config.UnlockPassword
	}

	if !constantTimeEquals(expected, unlockKey) {
		s.store.MarkUnlockDenied()
		return ErrInvalidCredential
	}

	s.store.Unlock()

	return nil
}

// AuthorizeAdmin grants the dashboard capability. It compares against the
// same admin secret as login but toggles the independent admin flag; lock
// state and admin capability never affect each other.
func (s *authService) AuthorizeAdmin(ctx context.Context, accessKey string) error {
	config, found, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read system config")
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	expected := s.bootstrapAdmin
	if found {
		expected = config.AdminPassword
	}

	if !constantTimeEquals(expected, accessKey) {
		return ErrInvalidCredential
	}

	s.store.SetAdminAuthenticated(true)

	return nil
}

func (s *authService) mintToken(identity session.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  identity.ID,
		"name": identity.Name,
		"role": identity.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func constantTimeEquals(expected, candidate string) bool {
	if len(expected) != len(candidate) || expected == "" {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(expected); i++ {
		mismatch |= expected[i] ^ candidate[i]
	}
	return mismatch == 0
}
