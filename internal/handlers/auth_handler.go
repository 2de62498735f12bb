package handlers

import (
	"encoding/json"
	"net/http"

	"portaria-backend/internal/auth"
	"portaria-backend/internal/models"
	"portaria-backend/internal/repositories"
)

type AuthHandler struct {
	Users *repositories.UserRepository
	JWT   *auth.JWTManager
}

func NewAuthHandler(users *repositories.UserRepository, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{Users: users, JWT: jwtManager}
}

// Login checks the password and issues a JWT. Unknown email and wrong
// password are indistinguishable to the caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.JWT.Generate(user)
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}
