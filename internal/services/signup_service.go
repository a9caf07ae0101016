package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"quizhub/internal/models"
	"quizhub/internal/repositories"
	"quizhub/internal/utils"
	"quizhub/internal/verification"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrCooldown        = errors.New("resend cooldown active")
	ErrResendLimit     = errors.New("resend limit exceeded")
	ErrDeliveryFailed  = errors.New("email delivery failed")
	ErrCodeMalformed   = errors.New("code must be 6 digits")
	ErrCodeNotFound    = errors.New("code not found or expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrWeakPassword    = errors.New("password must be at least 6 characters")
)

// InvalidCodeError — неверный код; сообщаем, сколько попыток осталось.
type InvalidCodeError struct {
	AttemptsRemaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.AttemptsRemaining)
}

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// OTPIssued — ответ успешного send-otp: клиент может сам троттлить retry-UI.
type OTPIssued struct {
	CooldownSeconds int `json:"cooldown_seconds"`
	ResendCount     int `json:"resend_count"`
}

type SignupService interface {
	BeginSignup(req *models.SignupRequest) (*OTPIssued, error)
	// CompleteSignup на успехе возвращает созданный аккаунт и токен сессии.
	CompleteSignup(code string, req *models.SignupRequest) (*models.User, string, error)
	// PendingEntries — живые записи для дев-эндпоинта /otp-status.
	PendingEntries() map[string]models.PendingSignup
}

type signupService struct {
	store  verification.SignupStore
	policy verification.Policy
	users  UserService
	emails EmailService
	auth   AuthService
	now    func() time.Time
}

func NewSignupService(
	store verification.SignupStore,
	policy verification.Policy,
	users UserService,
	emails EmailService,
	auth AuthService,
) SignupService {
	return &signupService{
		store:  store,
		policy: policy,
		users:  users,
		emails: emails,
		auth:   auth,
		now:    time.Now,
	}
}

func (s *signupService) BeginSignup(req *models.SignupRequest) (*OTPIssued, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if len(req.Password) < 6 {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.GetUserByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	// Peek, а не Lookup: только-что-протухшая запись должна остаться на
	// месте — её resend_count участвует в учёте переотправок.
	now := s.now()
	prior, exists := s.store.Peek(req.Email)
	if exists && !s.policy.CodeExpired(prior.IssuedAt, now) && s.policy.InCooldown(prior.IssuedAt, now) {
		return nil, ErrCooldown
	}

	resendCount := 1
	if exists {
		resendCount = prior.ResendCount + 1
	}
	if resendCount > s.policy.MaxResends {
		// запись не трогаем: лимит отказывает ещё до создания
		return nil, ErrResendLimit
	}

	code, err := utils.NewVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	rec := models.PendingSignup{
		Code:        code,
		Payload:     *req,
		IssuedAt:    now,
		Attempts:    0,
		ResendCount: resendCount,
	}
	s.store.Put(req.Email, rec)

	if err := s.emails.SendVerificationCode(req.Email, code); err != nil {
		// откат: пользователь повторяет весь флоу, а не довешивает verify
		s.store.Delete(req.Email)
		log.Printf("[signup][send] delivery failed for %s: %v", req.Email, err)
		return nil, ErrDeliveryFailed
	}

	log.Printf("[signup][send] ok: email=%s resend_count=%d", req.Email, resendCount)
	return &OTPIssued{
		CooldownSeconds: s.policy.CooldownSeconds(),
		ResendCount:     resendCount,
	}, nil
}

func (s *signupService) CompleteSignup(code string, req *models.SignupRequest) (*models.User, string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		// в хранилище даже не заглядываем
		return nil, "", ErrCodeMalformed
	}
	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}

	rec, ok := s.store.Lookup(email)
	if !ok {
		return nil, "", ErrCodeNotFound
	}

	if rec.Attempts >= s.policy.MaxAttempts {
		s.store.Delete(email)
		return nil, "", ErrTooManyAttempts
	}

	if code != rec.Code {
		attempts, ok := s.store.RecordFailedAttempt(email)
		if !ok {
			return nil, "", ErrCodeNotFound
		}
		remaining := s.policy.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		log.Printf("[signup][verify] wrong code for %s, %d attempts remaining", email, remaining)
		return nil, "", &InvalidCodeError{AttemptsRemaining: remaining}
	}

	// повторная проверка: параллельный verify мог успеть создать аккаунт
	existing, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}
	if existing != nil {
		return nil, "", ErrAccountExists
	}

	// пароль хэшируется только сейчас, не при выдаче кода
	hash, err := s.auth.HashPassword(rec.Payload.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	user := &models.User{
		Name:          rec.Payload.Name,
		Email:         email,
		PasswordHash:  hash,
		AvatarURL:     rec.Payload.AvatarURL,
		EmailVerified: true,
		VerifiedAt:    &now,
	}
	if err := s.users.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			// гонку двух verify решает уникальный индекс БД
			return nil, "", ErrAccountExists
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	s.store.Delete(email)

	token, err := s.auth.MintSessionToken(user)
	if err != nil {
		return nil, "", err
	}

	// welcome — best effort, на успех операции не влияет
	if err := s.emails.SendWelcomeEmail(user.Email, user.Name); err != nil {
		log.Printf("[signup][verify] warning: welcome email to %s failed: %v", user.Email, err)
	}

	log.Printf("[signup][verify] account created: id=%d email=%s", user.ID, user.Email)
	return user, token, nil
}

func (s *signupService) PendingEntries() map[string]models.PendingSignup {
	return s.store.Snapshot()
}
