package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizhub/internal/models"
	"quizhub/internal/utils"
	"quizhub/internal/verification"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTokenInvalid = errors.New("invalid or expired token")
)

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	store    verification.ResetStore
	users    UserService
	emails   EmailService
	auth     AuthService
	resetURL string
	now      func() time.Time
}

func NewPasswordResetService(
	store verification.ResetStore,
	users UserService,
	emails EmailService,
	auth AuthService,
	resetURL string,
) PasswordResetService {
	return &passwordResetService{
		store:    store,
		users:    users,
		emails:   emails,
		auth:     auth,
		resetURL: strings.TrimRight(resetURL, "/"),
		now:      time.Now,
	}
}

func (s *passwordResetService) RequestReset(email string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := utils.NewResetToken(32)
	if err != nil {
		return err
	}
	// прежние живые токены этого email не отзываем: несколько параллельно
	// действующих токенов допустимы
	s.store.Put(token, models.PendingReset{
		Email:    email,
		IssuedAt: s.now(),
	})

	link := s.resetURL + "/" + token
	if err := s.emails.SendPasswordResetEmail(user.Email, link); err != nil {
		// откат только что созданного токена
		s.store.Take(token)
		log.Printf("[password-reset] delivery failed for %s: %v", email, err)
		return ErrDeliveryFailed
	}

	log.Printf("[password-reset] token issued for %s", email)
	return nil
}

func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	// Take удаляет запись безусловно: токен расходуется на попытку,
	// даже если обновление пароля дальше не удастся
	rec, ok := s.store.Take(token)
	if !ok {
		return ErrTokenInvalid
	}

	user, err := s.users.GetUserByEmail(rec.Email)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if user == nil {
		return ErrTokenInvalid
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	log.Printf("[password-reset] password updated for user id=%d", user.ID)
	return nil
}
