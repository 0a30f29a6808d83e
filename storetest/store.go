// Package storetest содержит хранилище в памяти с тем же набором методов,
// что и *database.Database. Используется в тестах сервисов и контроллеров.
package storetest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"loanmanagement/database"
	"loanmanagement/models"
	"loanmanagement/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store хранилище в памяти
type Store struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	loans    map[uint]*models.Loan
	payments map[uint]*models.Payment
	students map[uint]*models.Student
	classes  map[uint]*models.Class
	nextID   uint

	stats      models.DashboardStats
	statsCalls int
}

func New() *Store {
	return &Store{
		users:    map[uint]*models.User{},
		loans:    map[uint]*models.Loan{},
		payments: map[uint]*models.Payment{},
		students: map[uint]*models.Student{},
		classes:  map[uint]*models.Class{},
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// SetStats задает ответ DashboardStats
func (s *Store) SetStats(stats models.DashboardStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// StatsCalls возвращает количество вызовов DashboardStats
func (s *Store) StatsCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsCalls
}

// Пользователи

func (s *Store) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []models.User
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *Store) UpdateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) DeleteUser(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *Store) EmailTaken(email string, exceptID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountUsers() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *Store) CountLoansByUser(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.loans {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Кредиты

func (s *Store) withUser(l *models.Loan) models.Loan {
	cp := *l
	if u, ok := s.users[l.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return cp
}

func (s *Store) CreateLoan(loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan.ID = s.id()
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now()
	}
	cp := *loan
	cp.User = nil
	s.loans[loan.ID] = &cp
	return nil
}

func (s *Store) GetLoanByID(id uint) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := s.withUser(l)
	return &cp, nil
}

func (s *Store) UpdateLoan(loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loan.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Amount, l.InterestRate, l.TermMonths = loan.Amount, loan.InterestRate, loan.TermMonths
	return nil
}

func (s *Store) DeleteLoan(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loans, id)
	for pid, p := range s.payments {
		if p.LoanID == id {
			delete(s.payments, pid)
		}
	}
	return nil
}

// sortedLoans возвращает кредиты по возрастанию id. Вызывается под блокировкой.
func (s *Store) sortedLoans() []models.Loan {
	var loans []models.Loan
	for _, l := range s.loans {
		loans = append(loans, s.withUser(l))
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans
}

func (s *Store) ListLoans() ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLoans(), nil
}

func (s *Store) ListLoansByUser(userID uint) ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var loans []models.Loan
	for _, l := range s.sortedLoans() {
		if l.UserID == userID {
			loans = append([]models.Loan{l}, loans...)
		}
	}
	return loans, nil
}

func (s *Store) SearchLoans(filter database.LoanFilter, page, perPage int) ([]models.Loan, utils.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Loan
	for _, l := range s.sortedLoans() {
		if filter.UserID != 0 && l.UserID != filter.UserID {
			continue
		}
		if filter.MinAmount != nil && l.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && l.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		matched = append([]models.Loan{l}, matched...)
	}

	p := utils.NewPage(page, perPage, int64(len(matched)))
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + p.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], p, nil
}

// Платежи

func (s *Store) CreatePayment(payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment.ID = s.id()
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *Store) ListPaymentsByLoan(loanID uint) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payments []models.Payment
	for _, p := range s.payments {
		if p.LoanID == loanID {
			payments = append(payments, *p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	return payments, nil
}

func (s *Store) DeletePayment(id, loanID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.LoanID != loanID {
		return gorm.ErrRecordNotFound
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) SumPaymentsByLoan(loanID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, p := range s.payments {
		if p.LoanID == loanID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

// Статистика

func (s *Store) DashboardStats() (*models.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsCalls++
	cp := s.stats
	return &cp, nil
}

// Студенты

func (s *Store) UpsertStudent(student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *student
	s.students[student.ID] = &cp
	return nil
}

func (s *Store) StudentExists(id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.students[id]
	return ok, nil
}

func (s *Store) GetStudentByID(id uint) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) sortedStudents() []models.Student {
	var students []models.Student
	for _, st := range s.students {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (s *Store) ListStudents() ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedStudents(), nil
}

func (s *Store) SearchStudents(term, class string) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []models.Student
	for _, st := range s.sortedStudents() {
		if term != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(term)) {
			continue
		}
		if class != "" && st.Class != class {
			continue
		}
		found = append(found, st)
	}
	return found, nil
}

func (s *Store) DeleteStudent(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.students, id)
	return nil
}

// Группы

func (s *Store) findClass(name string) (*models.Class, bool) {
	for _, c := range s.classes {
		if c.Name == name {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

func (s *Store) FindClassByName(name string) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.findClass(name); ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) CreateClass(class *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findClass(class.Name); ok {
		return gorm.ErrDuplicatedKey
	}
	class.ID = s.id()
	cp := *class
	s.classes[class.ID] = &cp
	return nil
}

func (s *Store) GetClassByID(id uint) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateClass(class *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.findClass(class.Name); ok && existing.ID != class.ID {
		return gorm.ErrDuplicatedKey
	}
	cp := *class
	s.classes[class.ID] = &cp
	return nil
}

func (s *Store) DeleteClass(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, st := range s.students {
		if st.ClassID != nil && *st.ClassID == id {
			return database.ErrClassInUse
		}
	}
	delete(s.classes, id)
	return nil
}

func (s *Store) SearchClasses(term string) ([]models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term = strings.ToLower(term)
	var classes []models.Class
	for _, c := range s.classes {
		if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(c.Description), term) {
			classes = append(classes, *c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (s *Store) ClassesWithCounts(sortBy string) ([]models.ClassCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts []models.ClassCount
	for _, c := range s.classes {
		cc := models.ClassCount{ID: c.ID, Name: c.Name}
		for _, st := range s.students {
			if st.ClassID != nil && *st.ClassID == c.ID {
				cc.StudentCount++
			}
		}
		counts = append(counts, cc)
	}

	sort.Slice(counts, func(i, j int) bool {
		switch sortBy {
		case "id":
			return counts[i].ID < counts[j].ID
		case "students":
			if counts[i].StudentCount != counts[j].StudentCount {
				return counts[i].StudentCount > counts[j].StudentCount
			}
		}
		return counts[i].Name < counts[j].Name
	})
	return counts, nil
}
