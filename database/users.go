package database

import (
	"strings"

	"loanmanagement/models"
)

// Методы для работы с пользователями
func (d *Database) CreateUser(user *models.User) error {
	return d.DB.Create(user).Error
}

func (d *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := d.DB.First(&user, id).Error
	return &user, err
}

func (d *Database) ListUsers() ([]models.User, error) {
	var users []models.User
	err := d.DB.Order("name").Find(&users).Error
	return users, err
}

func (d *Database) UpdateUser(user *models.User) error {
	return d.DB.Model(user).Select("name", "email", "updated_at").Updates(user).Error
}

func (d *Database) DeleteUser(id uint) error {
	return d.DB.Delete(&models.User{}, id).Error
}

// EmailTaken проверяет, занят ли e-mail другим пользователем. exceptID = 0 проверяет всех.
func (d *Database) EmailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	query := d.DB.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (d *Database) CountUsers() (int64, error) {
	var count int64
	err := d.DB.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (d *Database) CountLoansByUser(userID uint) (int64, error) {
	var count int64
	err := d.DB.Model(&models.Loan{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
