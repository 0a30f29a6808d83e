// Package seed заполняет пустую базу демонстрационными данными
package seed

import (
	_ "embed"
	"fmt"

	"loanmanagement/database"
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixtures демонстрационные данные
type Fixtures struct {
	Users []struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"users"`
	Loans []struct {
		User         string `yaml:"user"`
		Amount       string `yaml:"amount"`
		InterestRate string `yaml:"interest_rate"`
		TermMonths   int    `yaml:"term_months"`
	} `yaml:"loans"`
	Classes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"classes"`
	Students []struct {
		ID    uint   `yaml:"id"`
		Name  string `yaml:"name"`
		Class string `yaml:"class"`
	} `yaml:"students"`
}

// Load разбирает встроенный fixtures.yaml
func Load() (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора fixtures.yaml: %w", err)
	}
	return &f, nil
}

// Run добавляет данные, только если таблица users пуста
func Run(db *database.Database) error {
	count, err := db.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		utils.LogInfo("База уже содержит данные, заполнение пропущено")
		return nil
	}

	f, err := Load()
	if err != nil {
		return err
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		users := make(map[string]uint, len(f.Users))
		for _, u := range f.Users {
			user := models.User{Name: u.Name, Email: u.Email}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("пользователь %s: %w", u.Email, err)
			}
			users[user.Email] = user.ID
		}

		for i, l := range f.Loans {
			userID, ok := users[l.User]
			if !ok {
				return fmt.Errorf("кредит %d: неизвестный заемщик %s", i, l.User)
			}
			amount, err := decimal.NewFromString(l.Amount)
			if err != nil {
				return fmt.Errorf("кредит %d: %w", i, err)
			}
			rate, err := decimal.NewFromString(l.InterestRate)
			if err != nil {
				return fmt.Errorf("кредит %d: %w", i, err)
			}
			loan := models.Loan{UserID: userID, Amount: amount, InterestRate: rate, TermMonths: l.TermMonths}
			if err := tx.Omit("User", "Payments").Create(&loan).Error; err != nil {
				return fmt.Errorf("кредит %d: %w", i, err)
			}
		}

		classes := make(map[string]uint, len(f.Classes))
		for _, c := range f.Classes {
			class := models.Class{Name: c.Name, Description: c.Description}
			if err := tx.Create(&class).Error; err != nil {
				return fmt.Errorf("группа %s: %w", c.Name, err)
			}
			classes[class.Name] = class.ID
		}

		for _, s := range f.Students {
			student := models.Student{ID: s.ID, Name: s.Name, Class: s.Class}
			if id, ok := classes[s.Class]; ok {
				student.ClassID = &id
			}
			if err := tx.Create(&student).Error; err != nil {
				return fmt.Errorf("студент %d: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка заполнения базы: %w", err)
	}

	utils.LogInfo("База заполнена: %d пользователей, %d кредитов, %d групп, %d студентов",
		len(f.Users), len(f.Loans), len(f.Classes), len(f.Students))
	return nil
}
