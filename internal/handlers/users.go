package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
)

const bcryptCost = 10

// UserHandler manages registration, login and the contact list.
type UserHandler struct {
	users   repositories.UserRepository
	emitter *telemetry.Emitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, emitter *telemetry.Emitter) *UserHandler {
	return &UserHandler{users: users, emitter: emitter}
}

// Register creates a new account with a bcrypt-hashed password.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating user"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, string(hash))
	if err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating user"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "users.registered", "user_events", "user_registered",
		requestIDFromContext(c), &user.ID, gin.H{"username": user.Username})
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and returns the account.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error logging in"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns all accounts, oldest first, for the contact list.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching users"})
		return
	}
	c.JSON(http.StatusOK, users)
}
