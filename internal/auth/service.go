package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/workbridge/workbridge-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned when signing up with a taken email.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidName is returned when the display name is empty.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidPassword is returned when the password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// ClientSignupInput carries client registration data.
type ClientSignupInput struct {
	Name     string
	Email    string
	Password string
	Gender   string
	Phone    string
}

// FreelancerSignupInput carries freelancer registration data.
type FreelancerSignupInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Country  string
	Bio      string
}

// Service provides authentication operations for both account kinds.
type Service struct {
	clients     store.ClientStore
	freelancers store.FreelancerStore
	jwtConfig   *JWTConfig
}

// NewService creates a new authentication service.
func NewService(clients store.ClientStore, freelancers store.FreelancerStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		clients:     clients,
		freelancers: freelancers,
		jwtConfig:   jwtConfig,
	}
}

// ClientSignup registers a client account and returns a JWT token.
func (s *Service) ClientSignup(ctx context.Context, in ClientSignupInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(in.Password) < 6 {
		return "", ErrInvalidPassword
	}

	if existing, err := s.clients.GetClientByEmail(ctx, in.Email); err == nil && existing != nil {
		return "", ErrAccountExists
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	client, err := s.clients.CreateClient(ctx, &store.Client{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        in.Email,
		PasswordHash: hashed,
		Gender:       in.Gender,
		Phone:        in.Phone,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	return GenerateToken(s.jwtConfig, client.ID, client.Name, store.KindClient)
}

// ClientLogin validates client credentials and returns a JWT token.
func (s *Service) ClientLogin(ctx context.Context, email, password string) (string, error) {
	client, err := s.clients.GetClientByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := ComparePassword(client.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.jwtConfig, client.ID, client.Name, store.KindClient)
}

// FreelancerSignup registers a freelancer account and returns a JWT token.
func (s *Service) FreelancerSignup(ctx context.Context, in FreelancerSignupInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len(in.Password) < 6 {
		return "", ErrInvalidPassword
	}

	if existing, err := s.freelancers.GetFreelancerByEmail(ctx, in.Email); err == nil && existing != nil {
		return "", ErrAccountExists
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	freelancer, err := s.freelancers.CreateFreelancer(ctx, &store.Freelancer{
		ID:           uuid.NewString(),
		Name:         name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		Country:      in.Country,
		Bio:          in.Bio,
	})
	if err != nil {
		return "", fmt.Errorf("create freelancer: %w", err)
	}

	return GenerateToken(s.jwtConfig, freelancer.ID, freelancer.Name, store.KindFreelancer)
}

// FreelancerLogin validates freelancer credentials and returns a JWT token.
func (s *Service) FreelancerLogin(ctx context.Context, email, password string) (string, error) {
	freelancer, err := s.freelancers.GetFreelancerByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := ComparePassword(freelancer.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.jwtConfig, freelancer.ID, freelancer.Name, store.KindFreelancer)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
