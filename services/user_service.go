package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loanmanagement/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// UserRequest данные заемщика
type UserRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
}

// UserService предоставляет методы для работы с заемщиками
type UserService struct {
	repo      UserRepository
	validator *validator.Validate
	stats     Invalidator
}

func NewUserService(repo UserRepository, stats Invalidator) *UserService {
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &UserService{repo: repo, validator: newValidator(), stats: stats}
}

func normalizeUser(req UserRequest) UserRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req
}

// Create создает нового заемщика
func (s *UserService) Create(ctx context.Context, req UserRequest) (*models.User, error) {
	req = normalizeUser(req)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	// Проверяем, существует ли пользователь с таким email
	taken, err := s.repo.EmailTaken(req.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	user := &models.User{Name: req.Name, Email: req.Email}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	s.stats.Invalidate(ctx)
	return user, nil
}

// Get возвращает заемщика по идентификатору
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(id)
	if err != nil {
		return nil, lookupError("пользователь", err)
	}
	return user, nil
}

// List возвращает заемщиков по алфавиту
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}
	return users, nil
}

// Update изменяет имя и email заемщика
func (s *UserService) Update(ctx context.Context, id uint, req UserRequest) (*models.User, error) {
	req = normalizeUser(req)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(id)
	if err != nil {
		return nil, lookupError("пользователь", err)
	}

	taken, err := s.repo.EmailTaken(req.Email, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	user.Name = req.Name
	user.Email = req.Email
	if err := s.repo.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("ошибка при обновлении пользователя: %w", err)
	}

	s.stats.Invalidate(ctx)
	return user, nil
}

// Delete удаляет заемщика без кредитов
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetUserByID(id); err != nil {
		return lookupError("пользователь", err)
	}

	count, err := s.repo.CountLoansByUser(id)
	if err != nil {
		return fmt.Errorf("ошибка при проверке кредитов: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete user with active loans", ErrConflict)
	}

	if err := s.repo.DeleteUser(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lookupError("пользователь", err)
		}
		return fmt.Errorf("ошибка при удалении пользователя: %w", err)
	}

	s.stats.Invalidate(ctx)
	return nil
}
