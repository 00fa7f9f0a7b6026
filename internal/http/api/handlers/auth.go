package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/squadup/status-api/internal/auth"

	log "github.com/sirupsen/logrus"
)

// AuthHandler manages signup, login, and logout endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// credentialsRequest defines the request body for signup and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers a new user and returns their bearer token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if len(username) < 3 || len(username) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-50 characters"})
		return
	}
	// The bearer credential is "username:token", so a ':' in the username
	// would corrupt the credential's username component.
	if strings.Contains(username, ":") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must not contain ':'"})
		return
	}
	if len(body.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	token, identity, errSignup := h.authService.Signup(c.Request.Context(), username, body.Password)
	if errSignup != nil {
		if errors.Is(errSignup, auth.ErrDuplicateUsername) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
			return
		}
		log.WithError(errSignup).Error("signup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":       identity.ID,
			"username": identity.Username,
		},
	})
}

// Login verifies credentials and returns the existing bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, identity, errLogin := h.authService.Login(c.Request.Context(), username, body.Password)
	if errLogin != nil {
		if errors.Is(errLogin, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.WithError(errLogin).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       identity.ID,
			"username": identity.Username,
		},
	})
}

// Logout rotates the caller's token, invalidating the presented credential.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if errLogout := h.authService.Logout(c.Request.Context(), identity.ID); errLogout != nil {
		log.WithError(errLogout).Error("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
