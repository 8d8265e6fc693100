package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/auth"
)

// AuthHandlers provides HTTP handlers for account signup and login.
type AuthHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         logger,
	}
}

// ClientSignupRequest represents the client registration request body.
type ClientSignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
}

// FreelancerSignupRequest represents the freelancer registration request body.
type FreelancerSignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Country  string `json:"country"`
	Bio      string `json:"bio"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ClientSignup handles client registration.
// POST /api/auth/client/signup
func (h *AuthHandlers) ClientSignup(c *gin.Context) {
	var req ClientSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid client signup request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.ClientSignup(c.Request.Context(), auth.ClientSignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondAuthError(c, err, req.Email)
		return
	}

	h.log.Info().Str("email", req.Email).Msg("client registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// ClientLogin handles client login.
// POST /api/auth/client/login
func (h *AuthHandlers) ClientLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.ClientLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err, req.Email)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// FreelancerSignup handles freelancer registration.
// POST /api/auth/freelancer/signup
func (h *AuthHandlers) FreelancerSignup(c *gin.Context) {
	var req FreelancerSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid freelancer signup request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.FreelancerSignup(c.Request.Context(), auth.FreelancerSignupInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
		Bio:      req.Bio,
	})
	if err != nil {
		h.respondAuthError(c, err, req.Email)
		return
	}

	h.log.Info().Str("email", req.Email).Msg("freelancer registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// FreelancerLogin handles freelancer login.
// POST /api/auth/freelancer/login
func (h *AuthHandlers) FreelancerLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.FreelancerLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err, req.Email)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

func (h *AuthHandlers) respondAuthError(c *gin.Context, err error, email string) {
	switch {
	case errors.Is(err, auth.ErrAccountExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "account already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidName), errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("email", email).Msg("auth operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
