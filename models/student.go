package models

// Student представляет студента. Идентификатор задает вызывающая сторона.
type Student struct {
	ID      uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name    string `gorm:"column:name;not null;size:100" json:"name"`
	Class   string `gorm:"column:class;not null;size:50" json:"class"`
	ClassID *uint  `gorm:"column:class_id;index" json:"class_id,omitempty"`
}

func (Student) TableName() string {
	return "students"
}

// Class представляет учебную группу
type Class struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"column:name;unique;not null;size:100" json:"name"`
	Description string `gorm:"column:description" json:"description"`
}

func (Class) TableName() string {
	return "classes"
}

// ClassCount содержит количество студентов в группе
type ClassCount struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	StudentCount int64  `json:"student_count"`
}
