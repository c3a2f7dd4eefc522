package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
)

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthHandler handles signup and login
type AuthHandler struct {
	users           database.UserStore
	tokens          TokenIssuer
	allowRoleSignup bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users database.UserStore, tokens TokenIssuer, allowRoleSignup bool) *AuthHandler {
	return &AuthHandler{
		users:           users,
		tokens:          tokens,
		allowRoleSignup: allowRoleSignup,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

// signupRole returns the role a new account gets.
func (h *AuthHandler) signupRole(requested string) string {
	if h.allowRoleSignup && requested == constants.RoleAdmin {
		return constants.RoleAdmin
	}
	return constants.RoleUser
}

// Signup creates a user account
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		respondMessage(w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		respondInternalError(w, r, "failed to look up user", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to hash password", err)
		return
	}

	user := &database.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         h.signupRole(req.Role),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		respondInternalError(w, r, "failed to create user", err)
		return
	}

	slog.Info("user signed up", "user", user.ID, "role", user.Role)
	respondMessage(w, http.StatusCreated, "Signup successful")
}

// Login checks credentials and issues a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, database.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to look up user", err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			slog.Warn("password check failed", "user", user.ID, "error", err)
		}
		respondMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondInternalError(w, r, "failed to issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:   token,
		User:    newUserResponse(user, false),
		Message: "Login successful",
	})
}
