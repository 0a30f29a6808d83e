package services

import (
	"loanmanagement/database"
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/shopspring/decimal"
)

// Интерфейсы хранилища. *database.Database реализует их все.

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error
	EmailTaken(email string, exceptID uint) (bool, error)
	CountLoansByUser(userID uint) (int64, error)
}

type LoanRepository interface {
	GetUserByID(id uint) (*models.User, error)
	CreateLoan(loan *models.Loan) error
	GetLoanByID(id uint) (*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	DeleteLoan(id uint) error
	ListLoans() ([]models.Loan, error)
	ListLoansByUser(userID uint) ([]models.Loan, error)
	SearchLoans(filter database.LoanFilter, page, perPage int) ([]models.Loan, utils.Page, error)
	ListPaymentsByLoan(loanID uint) ([]models.Payment, error)
	SumPaymentsByLoan(loanID uint) (decimal.Decimal, error)
}

type PaymentRepository interface {
	GetLoanByID(id uint) (*models.Loan, error)
	CreatePayment(payment *models.Payment) error
	DeletePayment(id, loanID uint) error
	SumPaymentsByLoan(loanID uint) (decimal.Decimal, error)
}

type StatsRepository interface {
	DashboardStats() (*models.DashboardStats, error)
}

type StudentRepository interface {
	UpsertStudent(student *models.Student) error
	StudentExists(id uint) (bool, error)
	GetStudentByID(id uint) (*models.Student, error)
	ListStudents() ([]models.Student, error)
	SearchStudents(term, class string) ([]models.Student, error)
	DeleteStudent(id uint) error
	FindClassByName(name string) (*models.Class, error)
}

type ClassRepository interface {
	CreateClass(class *models.Class) error
	GetClassByID(id uint) (*models.Class, error)
	UpdateClass(class *models.Class) error
	DeleteClass(id uint) error
	SearchClasses(term string) ([]models.Class, error)
	ClassesWithCounts(sort string) ([]models.ClassCount, error)
}

var (
	_ UserRepository    = (*database.Database)(nil)
	_ LoanRepository    = (*database.Database)(nil)
	_ PaymentRepository = (*database.Database)(nil)
	_ StatsRepository   = (*database.Database)(nil)
	_ StudentRepository = (*database.Database)(nil)
	_ ClassRepository   = (*database.Database)(nil)
)
