package controllers

import (
	"net/http"
	"strconv"

	"loanmanagement/models"
	"loanmanagement/services"
	"loanmanagement/utils"

	"github.com/gin-gonic/gin"
)

// StudentController обрабатывает запросы сервиса студентов
type StudentController struct {
	students *services.StudentService
	classes  *services.ClassService
}

func NewStudentController(students *services.StudentService, classes *services.ClassService) *StudentController {
	return &StudentController{students: students, classes: classes}
}

// Register подключает маршруты студентов и групп
func (sc *StudentController) Register(r gin.IRouter) {
	r.GET("/students", sc.ListStudents)
	r.POST("/students", sc.CreateStudent)
	r.POST("/students/import", sc.ImportStudents)
	r.GET("/students/:id", sc.GetStudent)
	r.PUT("/students/:id", sc.UpdateStudent)
	r.DELETE("/students/:id", sc.DeleteStudent)

	r.GET("/classes", sc.SearchClasses)
	r.POST("/classes", sc.CreateClass)
	r.GET("/classes/:id", sc.GetClass)
	r.PUT("/classes/:id", sc.UpdateClass)
	r.DELETE("/classes/:id", sc.DeleteClass)
	r.GET("/stats/classes", sc.ClassCounts)
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.LogError("Внутренняя ошибка: %v", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// ListStudents ищет студентов по имени (q) и группе (class)
func (sc *StudentController) ListStudents(c *gin.Context) {
	students, err := sc.students.List(c.Request.Context(), c.Query("q"), c.Query("class"))
	if err != nil {
		respondError(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (sc *StudentController) CreateStudent(c *gin.Context) {
	var req services.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	student, err := sc.students.Add(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// ImportStudents загружает JSON массив студентов
func (sc *StudentController) ImportStudents(c *gin.Context) {
	result, err := sc.students.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (sc *StudentController) GetStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	student, err := sc.students.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (sc *StudentController) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	student, err := sc.students.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (sc *StudentController) DeleteStudent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := sc.students.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Методы для работы с группами

// SearchClasses ищет группы по названию или описанию. Пустой q возвращает все группы.
func (sc *StudentController) SearchClasses(c *gin.Context) {
	classes, err := sc.classes.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	if classes == nil {
		classes = []models.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

func (sc *StudentController) CreateClass(c *gin.Context) {
	var req services.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	class, err := sc.classes.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (sc *StudentController) GetClass(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	class, err := sc.classes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (sc *StudentController) UpdateClass(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req services.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	class, err := sc.classes.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// DeleteClass удаляет группу без студентов
func (sc *StudentController) DeleteClass(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := sc.classes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClassCounts возвращает группы с количеством студентов, sort: name, id или students
func (sc *StudentController) ClassCounts(c *gin.Context) {
	counts, err := sc.classes.Counts(c.Request.Context(), c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}
	if counts == nil {
		counts = []models.ClassCount{}
	}
	c.JSON(http.StatusOK, counts)
}
