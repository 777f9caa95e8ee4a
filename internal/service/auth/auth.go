package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/logger"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/notify"
	"github.com/Nirob-Barman/ShopSphere/internal/repository"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth/tokenmanager"
)

const (
	defaultMinPasswordLen = 6
	defaultResetTokenTTL  = 1 * time.Hour

	welcomeSubject = "Welcome to ShopSphere"
	resetSubject   = "Password Reset Request"
)

type Config struct {
	// Hasher to use during registration, login and password reset
	// Defaults to DefaultHasher
	Hasher PasswordHasher

	// Password floor enforced on password reset
	MinPasswordLen int

	// Lifetime of one-time password reset tokens
	ResetTokenTTL time.Duration

	// Base URL for password reset links, e.g. https://shop.example.com
	ResetBaseURL string

	// Logger for best-effort failures (notification dispatch)
	// Defaults to a noop logger
	Logger logger.Logger
}

// AuthService coordinates the credential store, the token signer, the
// refresh token ledger and the audit log. It owns no storage itself.
type AuthService struct {
	tokens  *tokenmanager.Manager
	hasher  PasswordHasher
	storage repository.Storage
	sender  notify.Sender
	logger  logger.Logger

	minPasswordLen int
	resetTokenTTL  time.Duration
	resetBaseURL   string
}

func NewService(cfg Config, tokens *tokenmanager.Manager, storage repository.Storage, sender notify.Sender) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	if sender == nil {
		sender = notify.NewLogSender(log)
	}

	if cfg.MinPasswordLen == 0 {
		cfg.MinPasswordLen = defaultMinPasswordLen
	}
	if cfg.ResetTokenTTL == 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}

	return &AuthService{
		tokens:         tokens,
		hasher:         hasher,
		storage:        storage,
		sender:         sender,
		logger:         log,
		minPasswordLen: cfg.MinPasswordLen,
		resetTokenTTL:  cfg.ResetTokenTTL,
		resetBaseURL:   cfg.ResetBaseURL,
	}, nil
}

// Register creates the user and assigns the requested role in one
// transaction. The welcome notification goes out after commit and its
// failure does not fail the registration.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	var user models.User

	if err := checkParams(p); err != nil {
		return user, err
	}

	_, err := s.storage.User().GetUserByEmail(ctx, p.Email)
	switch {
	case err == nil:
		return user, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, err
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err = tx.User().CreateUser(ctx, p.Email, p.FullName, hash)
		if err != nil {
			return err
		}

		role, err := tx.Role().GetRoleByName(ctx, p.Role)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrRegistrationFailed, err)
		}

		return tx.Role().AssignToUser(ctx, user.ID, role.ID)
	})
	if err != nil {
		return models.User{}, err
	}

	s.sendBestEffort(ctx, user.Email, welcomeSubject,
		fmt.Sprintf("Hello %s,<br>Welcome to ShopSphere! Thank you for registering.", user.FullName))

	return user, nil
}

// LoginResult carries everything the boundary needs to answer a login
type LoginResult struct {
	User  models.User
	Roles []string
	Pair  models.TokenPair
}

// Login verifies credentials, then persists the refresh token and the
// login audit row inside one transaction. If either write fails the
// login did not happen.
func (s *AuthService) Login(ctx context.Context, p LoginParams) (LoginResult, error) {
	var result LoginResult

	if err := checkParams(p); err != nil {
		return result, err
	}

	user, err := s.storage.User().GetUserByEmail(ctx, p.Email)
	if err != nil {
		return result, err
	}

	if err := s.hasher.Compare(user.HashedPassword, p.Password); err != nil {
		return result, apperrors.ErrPasswordIncorrect
	}

	roles, err := s.storage.Role().UserRoles(ctx, user.ID)
	if err != nil {
		return result, err
	}

	pair, err := s.mintPair(user, roles)
	if err != nil {
		return result, err
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		if _, err := tx.Refresh().Save(ctx, refreshRow(pair, user.ID)); err != nil {
			return err
		}

		_, err := tx.LoginAudit().Save(ctx, models.LoginAudit{
			UserID:    user.ID,
			Email:     user.Email,
			LoginTime: time.Now().Truncate(time.Second),
			IPAddress: p.IPAddress,
			UserAgent: p.UserAgent,
		})
		return err
	})
	if err != nil {
		return result, err
	}

	return LoginResult{User: user, Roles: roles, Pair: pair}, nil
}

// RefreshPair redeems the refresh secret for a new token pair.
// The old secret is marked used and the replacement persisted in the same
// transaction, so rotation is all-or-nothing. Why the redemption failed
// (absent, used, revoked or expired) is deliberately not disclosed.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (LoginResult, error) {
	var result LoginResult

	if err := requiredField(refresh, "Refresh token"); err != nil {
		return result, err
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		old, err := tx.Refresh().Redeem(ctx, refresh, time.Now())
		if err != nil {
			return err
		}

		user, err := tx.User().GetUserByID(ctx, old.UserID)
		if err != nil {
			// Token owner vanished: a real inconsistency, surfaced as-is
			return err
		}

		roles, err := tx.Role().UserRoles(ctx, user.ID)
		if err != nil {
			return err
		}

		pair, err := s.mintPair(user, roles)
		if err != nil {
			return err
		}

		if _, err := tx.Refresh().Save(ctx, refreshRow(pair, user.ID)); err != nil {
			return err
		}

		result = LoginResult{User: user, Roles: roles, Pair: pair}
		return nil
	})
	if err != nil {
		return LoginResult{}, err
	}

	return result, nil
}

// Logout revokes the refresh token. Revoking an already revoked token
// succeeds again, repeat logout is harmless.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	if err := requiredField(refresh, "Refresh token"); err != nil {
		return err
	}

	return s.storage.Refresh().Revoke(ctx, refresh)
}

// Authenticate verifies the access token and resolves its subject to a
// stored user. A missing or malformed subject claim is an authorization
// failure, a deleted user is reported as not found.
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error) {
	claims, err := s.tokens.ParseAccess(access)
	if err != nil {
		return models.User{}, claims, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return models.User{}, claims, apperrors.ErrClaimSubjectMissing
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, claims, err
	}

	return user, claims, nil
}

// Profile returns the current-user view. Roles are re-read from the
// store because token role claims may be stale.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	roles, err := s.storage.Role().UserRoles(ctx, user.ID)
	if err != nil {
		return models.Profile{}, err
	}

	return models.Profile{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Email,
		FullName: user.FullName,
		Roles:    roles,
	}, nil
}

func (s *AuthService) mintPair(user models.User, roles []string) (models.TokenPair, error) {
	access, err := s.tokens.IssueAccess(user, roles)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.tokens.NewRefresh(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refresh.ExpiresAt},
	}, nil
}

func (s *AuthService) sendBestEffort(ctx context.Context, to string, subject string, body string) {
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.logger.Warn("notification dispatch failed", "to", to, "subject", subject, "error", err.Error())
	}
}

func refreshRow(pair models.TokenPair, userID uuid.UUID) models.RefreshToken {
	return models.RefreshToken{
		Token:     pair.Refresh.Value,
		UserID:    userID,
		CreatedAt: time.Now().Truncate(time.Second),
		ExpiresAt: pair.Refresh.ExpiresAt,
	}
}
