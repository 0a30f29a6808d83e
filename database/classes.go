package database

import (
	"errors"

	"loanmanagement/models"

	"gorm.io/gorm"
)

// ErrClassInUse возвращается при удалении группы, в которой есть студенты
var ErrClassInUse = errors.New("class has students")

// Методы для работы с группами
func (d *Database) CreateClass(class *models.Class) error {
	return d.DB.Create(class).Error
}

func (d *Database) GetClassByID(id uint) (*models.Class, error) {
	var class models.Class
	err := d.DB.First(&class, id).Error
	return &class, err
}

func (d *Database) UpdateClass(class *models.Class) error {
	return d.DB.Model(class).Select("name", "description").Updates(class).Error
}

// DeleteClass удаляет группу, если на нее не ссылаются студенты
func (d *Database) DeleteClass(id uint) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Student{}).Where("class_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrClassInUse
		}

		result := tx.Delete(&models.Class{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SearchClasses ищет по части названия или описания
func (d *Database) SearchClasses(term string) ([]models.Class, error) {
	query := d.DB.Model(&models.Class{})
	if term != "" {
		like := "%" + term + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	var classes []models.Class
	err := query.Order("name").Find(&classes).Error
	return classes, err
}

// ClassesWithCounts возвращает группы с количеством студентов.
// sort: "name" (по умолчанию), "id" или "students".
func (d *Database) ClassesWithCounts(sort string) ([]models.ClassCount, error) {
	order := "c.name"
	switch sort {
	case "id":
		order = "c.id"
	case "students":
		order = "student_count DESC, c.name"
	}

	var counts []models.ClassCount
	err := d.DB.Table("classes c").
		Select("c.id, c.name, COUNT(s.id) AS student_count").
		Joins("LEFT JOIN students s ON s.class_id = c.id").
		Group("c.id, c.name").
		Order(order).
		Scan(&counts).Error
	return counts, err
}

// FindClassByName возвращает группу по точному названию
func (d *Database) FindClassByName(name string) (*models.Class, error) {
	var class models.Class
	err := d.DB.Where("name = ?", name).First(&class).Error
	return &class, err
}
