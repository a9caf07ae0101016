package services

import (
	"errors"
	"strings"
	"testing"

	"quizhub/internal/models"
	"quizhub/internal/verification"
)

const testResetURL = "https://quizhub.example.com/reset-password"

func testResetDeps(t *testing.T) (PasswordResetService, verification.ResetStore, *mockUserService, *mockEmailService) {
	t.Helper()
	store := verification.NewMemoryResetStore(verification.DefaultPolicy())
	users := newMockUserService()
	emails := &mockEmailService{}
	svc := NewPasswordResetService(store, users, emails, mockAuthService{}, testResetURL)
	return svc, store, users, emails
}

func addUser(t *testing.T, users *mockUserService, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Ann", Email: email, PasswordHash: "hashed:oldpass", EmailVerified: true}
	if err := users.CreateUser(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// токен достаём из отправленной ссылки, как это сделал бы пользователь
func sentToken(t *testing.T, emails *mockEmailService) string {
	t.Helper()
	for i := len(emails.sent) - 1; i >= 0; i-- {
		if emails.sent[i].Kind == "reset" {
			return strings.TrimPrefix(emails.sent[i].Body, testResetURL+"/")
		}
	}
	t.Fatal("no reset email sent")
	return ""
}

func TestRequestResetUnknownAccount(t *testing.T) {
	svc, store, _, _ := testResetDeps(t)

	if err := svc.RequestReset("nobody@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("no token may be issued for an unknown account")
	}
}

func TestRequestResetIssuesToken(t *testing.T) {
	svc, store, users, emails := testResetDeps(t)
	addUser(t, users, "a@x.com")

	if err := svc.RequestReset(" A@X.com "); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 token, got %d", store.Len())
	}

	token := sentToken(t, emails)
	if len(token) != 64 { // 32 байта, hex
		t.Fatalf("expected 64 hex chars, got %d (%q)", len(token), token)
	}
}

func TestRequestResetKeepsPriorTokens(t *testing.T) {
	svc, store, users, _ := testResetDeps(t)
	addUser(t, users, "a@x.com")

	if err := svc.RequestReset("a@x.com"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if err := svc.RequestReset("a@x.com"); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	// ранние токены не отзываются
	if store.Len() != 2 {
		t.Fatalf("expected 2 live tokens, got %d", store.Len())
	}
}

func TestRequestResetDeliveryFailureRollsBack(t *testing.T) {
	svc, store, users, emails := testResetDeps(t)
	addUser(t, users, "a@x.com")
	emails.fail = true

	if err := svc.RequestReset("a@x.com"); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("token must be rolled back after delivery failure")
	}
}

func TestResetPasswordWeakPasswordKeepsToken(t *testing.T) {
	svc, store, users, emails := testResetDeps(t)
	addUser(t, users, "a@x.com")
	if err := svc.RequestReset("a@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	token := sentToken(t, emails)

	if err := svc.ResetPassword(token, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	// проверка силы пароля идёт до расходования токена
	if store.Len() != 1 {
		t.Fatal("weak password must not consume the token")
	}
}

func TestResetPasswordSuccessAndSingleUse(t *testing.T) {
	svc, _, users, emails := testResetDeps(t)
	u := addUser(t, users, "a@x.com")
	if err := svc.RequestReset("a@x.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	token := sentToken(t, emails)

	if err := svc.ResetPassword(token, "newsecret"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if u.PasswordHash != "hashed:newsecret" {
		t.Fatalf("password not updated, got %q", u.PasswordHash)
	}

	// тот же токен второй раз — уже не существует
	if err := svc.ResetPassword(token, "another1"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on reuse, got %v", err)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	svc, _, _, _ := testResetDeps(t)

	if err := svc.ResetPassword("deadbeef", "newsecret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
