package tokenmanager

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	// Refresh secrets carry 512 bits of entropy. The secret is the only
	// authorization factor for the refresh flow, so it must be unguessable.
	refreshSecretBytesLen = 64
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// Values for 'iss' and 'aud' claims, verified on parse
	Issuer   string
	Audience string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager signs and verifies access tokens and generates refresh secrets.
// It is stateless: refresh token persistence belongs to the ledger, not here.
type Manager struct {
	key      string
	issuer   string
	audience string
	alg      jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Manager{
		key:        cfg.SecretKey,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// IssueAccess signs a JWT with the user identity and role claims
func (m *Manager) IssueAccess(user models.User, roles []string) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	// An empty audience must not serialize as "aud":[""], the verifier
	// rejects empty-string audiences
	var audience jwt.ClaimStrings
	if m.audience != "" {
		audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				Issuer:    m.issuer,
				Audience:  audience,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Email:    user.Email,
			Username: user.Email,
			Roles:    roles,
		},
	)

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// NewRefresh generates an opaque ledger row for the user.
// The row is not persisted here, the caller saves it inside its transaction.
func (m *Manager) NewRefresh(userID uuid.UUID) (models.RefreshToken, error) {
	b := make([]byte, refreshSecretBytesLen)
	if _, err := rand.Read(b); err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}

	now := time.Now().Truncate(time.Second)
	return models.RefreshToken{
		Token:     base64.RawURLEncoding.EncodeToString(b),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refreshTTL),
	}, nil
}

// ParseAccess verifies signature, issuer, audience and expiry.
// No clock-skew leeway is allowed.
func (m *Manager) ParseAccess(access string) (AccessTokenClaims, error) {
	claims := AccessTokenClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.ParseWithClaims(
		access,
		&claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		opts...,
	)
	if err != nil {
		return claims, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}

	return claims, nil
}
