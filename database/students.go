package database

import (
	"loanmanagement/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Методы для работы со студентами

// UpsertStudent добавляет студента или обновляет существующего с тем же id
func (d *Database) UpsertStudent(student *models.Student) error {
	return d.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "class", "class_id"}),
	}).Create(student).Error
}

func (d *Database) StudentExists(id uint) (bool, error) {
	var count int64
	err := d.DB.Model(&models.Student{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (d *Database) GetStudentByID(id uint) (*models.Student, error) {
	var student models.Student
	err := d.DB.First(&student, id).Error
	return &student, err
}

func (d *Database) ListStudents() ([]models.Student, error) {
	var students []models.Student
	err := d.DB.Order("id").Find(&students).Error
	return students, err
}

// SearchStudents ищет по части имени без учета регистра и точному названию группы
func (d *Database) SearchStudents(term, class string) ([]models.Student, error) {
	query := d.DB.Model(&models.Student{})
	if term != "" {
		query = query.Where("name ILIKE ?", "%"+term+"%")
	}
	if class != "" {
		query = query.Where("class = ?", class)
	}

	var students []models.Student
	err := query.Order("name").Find(&students).Error
	return students, err
}

func (d *Database) DeleteStudent(id uint) error {
	result := d.DB.Delete(&models.Student{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
