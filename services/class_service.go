package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loanmanagement/database"
	"loanmanagement/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ClassRequest данные группы
type ClassRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ClassService предоставляет методы для работы с группами
type ClassService struct {
	repo      ClassRepository
	validator *validator.Validate
}

func NewClassService(repo ClassRepository) *ClassService {
	return &ClassService{repo: repo, validator: newValidator()}
}

func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	class := &models.Class{Name: req.Name, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.CreateClass(class); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: class %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("ошибка при создании группы: %w", err)
	}
	return class, nil
}

func (s *ClassService) Get(ctx context.Context, id uint) (*models.Class, error) {
	class, err := s.repo.GetClassByID(id)
	if err != nil {
		return nil, lookupError("группа", err)
	}
	return class, nil
}

func (s *ClassService) Update(ctx context.Context, id uint, req ClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	class, err := s.repo.GetClassByID(id)
	if err != nil {
		return nil, lookupError("группа", err)
	}

	class.Name = req.Name
	class.Description = strings.TrimSpace(req.Description)
	if err := s.repo.UpdateClass(class); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: class %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("ошибка при обновлении группы: %w", err)
	}
	return class, nil
}

// Delete удаляет группу без студентов
func (s *ClassService) Delete(ctx context.Context, id uint) error {
	err := s.repo.DeleteClass(id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrClassInUse):
		return fmt.Errorf("%w: cannot delete class with students", ErrConflict)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return lookupError("группа", err)
	default:
		return fmt.Errorf("ошибка при удалении группы: %w", err)
	}
}

// Search ищет группы по названию или описанию
func (s *ClassService) Search(ctx context.Context, term string) ([]models.Class, error) {
	classes, err := s.repo.SearchClasses(strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("ошибка при поиске групп: %w", err)
	}
	return classes, nil
}

// Counts возвращает группы с количеством студентов
func (s *ClassService) Counts(ctx context.Context, sort string) ([]models.ClassCount, error) {
	switch sort {
	case "", "name", "id", "students":
	default:
		return nil, fmt.Errorf("%w: sort должен быть одним из: name id students", ErrValidation)
	}

	counts, err := s.repo.ClassesWithCounts(sort)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете студентов: %w", err)
	}
	return counts, nil
}
