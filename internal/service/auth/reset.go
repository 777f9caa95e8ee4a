package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/repository"
)

const resetTokenBytesLen = 32

type requestResetParams struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset issues a one-time reset token and dispatches the
// reset link. The link is also returned to the caller so handlers can show
// it directly. Note this discloses whether an account exists for the email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := checkParams(requestResetParams{Email: email}); err != nil {
		return "", err
	}

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	b := make([]byte, resetTokenBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating reset token. Err: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	now := time.Now().Truncate(time.Second)
	err = s.storage.PasswordReset().Save(ctx, models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTokenTTL),
	})
	if err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/reset-password?email=%s&token=%s",
		s.resetBaseURL, url.QueryEscape(user.Email), url.QueryEscape(token))

	s.sendBestEffort(ctx, user.Email, resetSubject,
		fmt.Sprintf("<p>Hi %s,</p><p>Click <a href='%s'>here</a> to reset your password.</p>", user.FullName, link))

	return link, nil
}

// ResetPassword consumes the reset token and replaces the password hash
// in one transaction. Outstanding refresh tokens are left untouched.
func (s *AuthService) ResetPassword(ctx context.Context, p ResetPasswordParams) error {
	if err := checkParams(p); err != nil {
		return err
	}

	if utf8.RuneCountInString(p.NewPassword) < s.minPasswordLen {
		return &apperrors.ValidationError{
			Messages: []string{fmt.Sprintf("Password must be at least %d characters long.", s.minPasswordLen)},
		}
	}

	user, err := s.storage.User().GetUserByEmail(ctx, p.Email)
	if err != nil {
		return err
	}

	// Reset tokens travel URL-encoded inside the link
	token, err := url.QueryUnescape(p.Token)
	if err != nil {
		return apperrors.ErrResetTokenInvalid
	}

	hash, err := s.hasher.Hash(p.NewPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		if _, err := tx.PasswordReset().Consume(ctx, token, user.ID, time.Now()); err != nil {
			return err
		}

		return tx.User().SetPassword(ctx, user.ID, hash)
	})
}
