package services

import (
	"errors"
	"testing"
	"time"

	"quizhub/internal/models"
	"quizhub/internal/verification"
)

func testSignupDeps(policy verification.Policy) (SignupService, verification.SignupStore, *mockUserService, *mockEmailService) {
	store := verification.NewMemorySignupStore(policy)
	users := newMockUserService()
	emails := &mockEmailService{}
	svc := NewSignupService(store, policy, users, emails, mockAuthService{})
	return svc, store, users, emails
}

func signupReq() *models.SignupRequest {
	return &models.SignupRequest{
		Name:     "Ann",
		Email:    "a@x.com",
		Password: "secret1",
	}
}

func TestBeginSignupCreatesFreshEntry(t *testing.T) {
	svc, store, _, emails := testSignupDeps(verification.DefaultPolicy())

	issued, err := svc.BeginSignup(signupReq())
	if err != nil {
		t.Fatalf("BeginSignup failed: %v", err)
	}
	if issued.ResendCount != 1 {
		t.Fatalf("expected resend_count=1, got %d", issued.ResendCount)
	}
	if issued.CooldownSeconds != 60 {
		t.Fatalf("expected cooldown 60s, got %d", issued.CooldownSeconds)
	}

	rec, ok := store.Lookup("a@x.com")
	if !ok {
		t.Fatal("entry must exist after begin")
	}
	if rec.Attempts != 0 || rec.ResendCount != 1 {
		t.Fatalf("fresh entry has attempts=%d resend=%d", rec.Attempts, rec.ResendCount)
	}
	if emails.lastCode() != rec.Code {
		t.Fatal("delivered code differs from stored code")
	}
}

func TestBeginSignupNormalizesEmail(t *testing.T) {
	svc, store, _, _ := testSignupDeps(verification.DefaultPolicy())

	req := signupReq()
	req.Email = "  Ann@X.COM "
	if _, err := svc.BeginSignup(req); err != nil {
		t.Fatalf("BeginSignup failed: %v", err)
	}
	if _, ok := store.Lookup("ann@x.com"); !ok {
		t.Fatal("entry must be keyed by normalized email")
	}
}

func TestBeginSignupWeakPassword(t *testing.T) {
	svc, store, _, _ := testSignupDeps(verification.DefaultPolicy())

	req := signupReq()
	req.Password = "short"
	if _, err := svc.BeginSignup(req); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, ok := store.Peek("a@x.com"); ok {
		t.Fatal("no entry may be created on validation failure")
	}
}

func TestBeginSignupExistingAccount(t *testing.T) {
	svc, _, users, _ := testSignupDeps(verification.DefaultPolicy())
	users.CreateUser(&models.User{Email: "a@x.com", Name: "Ann"})

	if _, err := svc.BeginSignup(signupReq()); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestBeginSignupCooldown(t *testing.T) {
	svc, store, _, emails := testSignupDeps(verification.DefaultPolicy())

	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("first begin failed: %v", err)
	}
	before, _ := store.Peek("a@x.com")
	sentBefore := len(emails.sent)

	if _, err := svc.BeginSignup(signupReq()); !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown, got %v", err)
	}

	// кулдаун ничего не мутирует и не шлёт
	after, _ := store.Peek("a@x.com")
	if after.Code != before.Code || after.ResendCount != before.ResendCount {
		t.Fatal("cooldown rejection must not mutate the entry")
	}
	if len(emails.sent) != sentBefore {
		t.Fatal("cooldown rejection must not send email")
	}
}

func TestBeginSignupResendLimit(t *testing.T) {
	policy := verification.DefaultPolicy()
	policy.ResendCooldown = 0 // без кулдауна: изолируем лимит переотправок
	svc, store, _, _ := testSignupDeps(policy)

	for i := 1; i <= 3; i++ {
		issued, err := svc.BeginSignup(signupReq())
		if err != nil {
			t.Fatalf("begin %d failed: %v", i, err)
		}
		if issued.ResendCount != i {
			t.Fatalf("begin %d: expected resend_count=%d, got %d", i, i, issued.ResendCount)
		}
	}

	// 4-я выдача превысила бы лимит — отказ без мутации
	if _, err := svc.BeginSignup(signupReq()); !errors.Is(err, ErrResendLimit) {
		t.Fatalf("expected ErrResendLimit, got %v", err)
	}
	rec, ok := store.Peek("a@x.com")
	if !ok || rec.ResendCount != 3 {
		t.Fatalf("entry must keep resend_count=3, got %+v ok=%v", rec, ok)
	}
}

func TestBeginSignupResendResetsAttempts(t *testing.T) {
	policy := verification.DefaultPolicy()
	policy.ResendCooldown = 0
	svc, store, _, _ := testSignupDeps(policy)

	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, _, err := svc.CompleteSignup("000000", signupReq()); err == nil {
		t.Fatal("wrong code must fail")
	}

	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	rec, _ := store.Peek("a@x.com")
	if rec.Attempts != 0 {
		t.Fatalf("resend must reset attempts, got %d", rec.Attempts)
	}
	if rec.ResendCount != 2 {
		t.Fatalf("expected resend_count=2, got %d", rec.ResendCount)
	}
}

func TestBeginSignupDeliveryFailureRollsBack(t *testing.T) {
	svc, store, _, emails := testSignupDeps(verification.DefaultPolicy())
	emails.fail = true

	if _, err := svc.BeginSignup(signupReq()); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if _, ok := store.Peek("a@x.com"); ok {
		t.Fatal("entry must be rolled back after delivery failure")
	}
}

func TestCompleteSignupMalformedCode(t *testing.T) {
	svc, _, _, _ := testSignupDeps(verification.DefaultPolicy())

	for _, code := range []string{"", "12345", "1234567", "12345a", "12 456"} {
		if _, _, err := svc.CompleteSignup(code, signupReq()); !errors.Is(err, ErrCodeMalformed) {
			t.Fatalf("code %q: expected ErrCodeMalformed, got %v", code, err)
		}
	}
}

func TestCompleteSignupUnknownEmail(t *testing.T) {
	svc, _, _, _ := testSignupDeps(verification.DefaultPolicy())

	if _, _, err := svc.CompleteSignup("123456", signupReq()); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestCompleteSignupWrongCodeCountsAttempts(t *testing.T) {
	svc, _, _, _ := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	for want := 2; want >= 0; want-- {
		_, _, err := svc.CompleteSignup("000000", signupReq())
		var invalid *InvalidCodeError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidCodeError, got %v", err)
		}
		if invalid.AttemptsRemaining != want {
			t.Fatalf("expected %d attempts remaining, got %d", want, invalid.AttemptsRemaining)
		}
	}
}

func TestCompleteSignupExhaustedAttempts(t *testing.T) {
	svc, store, _, emails := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.CompleteSignup("000000", signupReq()); err == nil {
			t.Fatal("wrong code must fail")
		}
	}

	// 4-й вызов даже с верным кодом — exhausted, запись удалена
	code := emails.lastCode()
	if _, _, err := svc.CompleteSignup(code, signupReq()); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if _, ok := store.Peek("a@x.com"); ok {
		t.Fatal("entry must be deleted after attempt exhaustion")
	}
}

func TestCompleteSignupSuccess(t *testing.T) {
	svc, store, users, emails := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	user, token, err := svc.CompleteSignup(emails.lastCode(), signupReq())
	if err != nil {
		t.Fatalf("CompleteSignup failed: %v", err)
	}
	if user.ID == 0 || token == "" {
		t.Fatalf("expected account and session token, got id=%d token=%q", user.ID, token)
	}
	if !user.EmailVerified || user.VerifiedAt == nil {
		t.Fatal("account must be marked email-verified")
	}
	if user.PasswordHash != "hashed:secret1" {
		t.Fatalf("password must be hashed at materialization, got %q", user.PasswordHash)
	}

	stored, _ := users.GetUserByEmail("a@x.com")
	if stored == nil {
		t.Fatal("durable account missing")
	}
	if _, ok := store.Peek("a@x.com"); ok {
		t.Fatal("entry must be deleted after success")
	}

	// приветственное письмо — best effort, но при рабочей почте уходит
	last := emails.sent[len(emails.sent)-1]
	if last.Kind != "welcome" {
		t.Fatalf("expected welcome mail, got %q", last.Kind)
	}
}

func TestCompleteSignupCodeNotReusable(t *testing.T) {
	svc, _, _, emails := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	code := emails.lastCode()

	if _, _, err := svc.CompleteSignup(code, signupReq()); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}
	if _, _, err := svc.CompleteSignup(code, signupReq()); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("reused code: expected ErrCodeNotFound, got %v", err)
	}
}

func TestCompleteSignupExpiredCode(t *testing.T) {
	policy := verification.DefaultPolicy()
	policy.CodeTTL = 30 * time.Millisecond
	svc, _, _, emails := testSignupDeps(policy)

	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, _, err := svc.CompleteSignup(emails.lastCode(), signupReq()); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expired entry: expected ErrCodeNotFound, got %v", err)
	}
}

func TestCompleteSignupWelcomeFailureIsNonFatal(t *testing.T) {
	svc, _, _, emails := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	code := emails.lastCode()
	emails.fail = true

	if _, _, err := svc.CompleteSignup(code, signupReq()); err != nil {
		t.Fatalf("welcome failure must not fail the signup: %v", err)
	}
}

func TestCompleteSignupAccountRace(t *testing.T) {
	svc, _, users, emails := testSignupDeps(verification.DefaultPolicy())
	if _, err := svc.BeginSignup(signupReq()); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// аккаунт появился между send-otp и verify-otp
	users.CreateUser(&models.User{Email: "a@x.com", Name: "Ann"})

	if _, _, err := svc.CompleteSignup(emails.lastCode(), signupReq()); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}
