package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"loanmanagement/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// StudentRequest данные студента
type StudentRequest struct {
	ID    uint   `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=100"`
	Class string `json:"class" validate:"required,max=50"`
}

// ImportResult итог импорта студентов
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// StudentService предоставляет методы для работы со студентами
type StudentService struct {
	repo      StudentRepository
	validator *validator.Validate
}

func NewStudentService(repo StudentRepository) *StudentService {
	return &StudentService{repo: repo, validator: newValidator()}
}

// toStudent связывает студента с группой по названию, если такая группа есть
func (s *StudentService) toStudent(req StudentRequest) (*models.Student, error) {
	student := &models.Student{
		ID:    req.ID,
		Name:  strings.TrimSpace(req.Name),
		Class: strings.TrimSpace(req.Class),
	}

	class, err := s.repo.FindClassByName(student.Class)
	switch {
	case err == nil:
		student.ClassID = &class.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("ошибка при поиске группы: %w", err)
	}
	return student, nil
}

// Add добавляет студента. Занятый идентификатор возвращает ErrConflict.
func (s *StudentService) Add(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	exists, err := s.repo.StudentExists(req.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке студента: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: student %d already exists", ErrConflict, req.ID)
	}

	student, err := s.toStudent(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertStudent(student); err != nil {
		return nil, fmt.Errorf("ошибка при создании студента: %w", err)
	}
	return student, nil
}

// Update изменяет имя и группу студента
func (s *StudentService) Update(ctx context.Context, id uint, req StudentRequest) (*models.Student, error) {
	req.ID = id
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetStudentByID(id); err != nil {
		return nil, lookupError("студент", err)
	}

	student, err := s.toStudent(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertStudent(student); err != nil {
		return nil, fmt.Errorf("ошибка при обновлении студента: %w", err)
	}
	return student, nil
}

func (s *StudentService) Get(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.GetStudentByID(id)
	if err != nil {
		return nil, lookupError("студент", err)
	}
	return student, nil
}

// List возвращает студентов. Пустые term и class возвращают всех.
func (s *StudentService) List(ctx context.Context, term, class string) ([]models.Student, error) {
	var (
		students []models.Student
		err      error
	)
	if term == "" && class == "" {
		students, err = s.repo.ListStudents()
	} else {
		students, err = s.repo.SearchStudents(strings.TrimSpace(term), strings.TrimSpace(class))
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении студентов: %w", err)
	}
	return students, nil
}

func (s *StudentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.DeleteStudent(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lookupError("студент", err)
		}
		return fmt.Errorf("ошибка при удалении студента: %w", err)
	}
	return nil
}

// Import загружает студентов из JSON массива [{"id":..,"name":..,"class":..}].
// Существующие идентификаторы пропускаются, неверные записи попадают в Errors.
func (s *StudentService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var batch []StudentRequest
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("%w: неверный формат JSON: %v", ErrValidation, err)
	}

	result := &ImportResult{}
	for i, req := range batch {
		if err := validate(s.validator, req); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("запись %d: %v", i, err))
			continue
		}

		exists, err := s.repo.StudentExists(req.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при проверке студента: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}

		student, err := s.toStudent(req)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpsertStudent(student); err != nil {
			return nil, fmt.Errorf("ошибка при создании студента: %w", err)
		}
		result.Imported++
	}
	return result, nil
}
