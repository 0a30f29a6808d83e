package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"loanmanagement/config"
	"loanmanagement/utils"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthController выдает токены оператору
type AuthController struct {
	validate *validator.Validate
	config   *config.Config
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewAuthController(cfg *config.Config) *AuthController {
	return &AuthController{
		validate: validator.New(),
		config:   cfg,
	}
}

// SignIn проверяет учетные данные оператора и выдает JWT
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		http.Error(w, "Invalid email or password format", http.StatusBadRequest)
		return
	}

	// Хэш не задан: вход запрещен
	hash := c.config.Auth.AdminPasswordHash
	if hash == "" || !strings.EqualFold(req.Email, c.config.Auth.AdminEmail) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Проверяем пароль
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		utils.LogWarn("Неудачная попытка входа: %s", req.Email)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := c.generateToken(strings.ToLower(req.Email))
	if err != nil {
		utils.LogError("Ошибка при создании токена: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{Token: token, ExpiresAt: expiresAt})
}

// GetJWTKey возвращает ключ для JWT
func (c *AuthController) GetJWTKey() []byte {
	return []byte(c.config.JWT.SecretKey)
}

// generateToken создает JWT токен
func (c *AuthController) generateToken(email string) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(time.Duration(c.config.JWT.ExpiresIn) * time.Hour)
	claims := jwt.MapClaims{
		"email": email,
		"exp":   expirationTime.Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.GetJWTKey())
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}
