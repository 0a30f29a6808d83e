package controllers

import (
	"encoding/json"
	"net/http"

	"loanmanagement/models"
	"loanmanagement/services"

	"github.com/gorilla/mux"
)

// UserController обрабатывает запросы, связанные с заемщиками
type UserController struct {
	users *services.UserService
	loans *services.LoanService
}

// UserResponse заемщик вместе с его кредитами
type UserResponse struct {
	models.User
	Loans []LoanResponse `json:"loans"`
}

func NewUserController(users *services.UserService, loans *services.LoanService) *UserController {
	return &UserController{users: users, loans: loans}
}

func (c *UserController) Register(r *mux.Router) {
	r.HandleFunc("/users", c.GetUsers).Methods("GET")
	r.HandleFunc("/users", c.CreateUser).Methods("POST")
	r.HandleFunc("/users/{id:[0-9]+}", c.GetUser).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}", c.UpdateUser).Methods("PUT")
	r.HandleFunc("/users/{id:[0-9]+}", c.DeleteUser).Methods("DELETE")
}

// GetUsers возвращает всех заемщиков
func (c *UserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (c *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := c.users.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// GetUser возвращает заемщика и его кредиты, новые первыми
func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := c.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	loans, err := c.loans.ListByUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := UserResponse{User: *user, Loans: make([]LoanResponse, 0, len(loans))}
	for i := range loans {
		resp.Loans = append(resp.Loans, toLoanResponse(&loans[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req services.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := c.users.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser удаляет заемщика без кредитов
func (c *UserController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
