package services

import (
	"quizhub/internal/models"
	"quizhub/internal/repositories"
	"quizhub/internal/utils"
)

// UserService — фасад над долговременным хранилищем аккаунтов.
// Вся работа с pending-записями идёт мимо него, через движок верификации.
type UserService interface {
	CreateUser(user *models.User) error
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdatePassword(userID int, passwordHash string) error
}

type userService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) CreateUser(user *models.User) error {
	user.Email = utils.NormalizeEmail(user.Email)
	return s.repo.Create(user)
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(utils.NormalizeEmail(email))
}

func (s *userService) UpdatePassword(userID int, passwordHash string) error {
	return s.repo.UpdatePassword(userID, passwordHash)
}
