package services

import (
	"errors"
	"fmt"
	"time"

	"quizhub/internal/models"
	"quizhub/internal/repositories"
)

type mockUserService struct {
	users  map[string]*models.User
	nextID int
}

func newMockUserService() *mockUserService {
	return &mockUserService{users: make(map[string]*models.User)}
}

func (m *mockUserService) CreateUser(u *models.User) error {
	if _, ok := m.users[u.Email]; ok {
		return repositories.ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.users[u.Email] = u
	return nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserService) GetUserByID(id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserService) UpdatePassword(userID int, hash string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

type sentMail struct {
	Kind string // code | reset | welcome
	To   string
	Body string // код или ссылка
}

type mockEmailService struct {
	sent []sentMail
	fail bool
}

func (m *mockEmailService) SendVerificationCode(email, code string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{Kind: "code", To: email, Body: code})
	return nil
}

func (m *mockEmailService) SendPasswordResetEmail(email, link string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{Kind: "reset", To: email, Body: link})
	return nil
}

func (m *mockEmailService) SendWelcomeEmail(email, name string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{Kind: "welcome", To: email, Body: name})
	return nil
}

func (m *mockEmailService) lastCode() string {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == "code" {
			return m.sent[i].Body
		}
	}
	return ""
}

type mockAuthService struct{}

func (mockAuthService) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockAuthService) CheckPassword(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func (mockAuthService) MintSessionToken(user *models.User) (string, error) {
	return fmt.Sprintf("session-%d", user.ID), nil
}
