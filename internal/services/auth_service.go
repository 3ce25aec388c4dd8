package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/omgcreativity/laojia/internal/auth"
	"github.com/omgcreativity/laojia/internal/config"
	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this name already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrCreatingUser       = errors.New("failed to create user")
	ErrValidation         = errors.New("input validation failed")
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
}

func NewAuthService(s store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
	}
}

// Register creates a new user together with their initial profile, so the
// assistant knows how to address its owner from the first exchange.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password cannot be empty", ErrValidation)
	}
	if strings.ContainsAny(username, "/\\.") {
		// The username doubles as a directory name in the data layout.
		return nil, fmt.Errorf("%w: username contains invalid characters", ErrValidation)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", username, err)
		return nil, ErrHashingPassword
	}

	user := &models.User{
		Username:       username,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, ErrUserAlreadyExists
		}
		log.Printf("Error creating user %s: %v", username, err)
		return nil, fmt.Errorf("%w: %v", ErrCreatingUser, err)
	}

	profile := models.Profile{
		Nickname:   req.Nickname,
		Age:        req.Age,
		Gender:     req.Gender,
		Occupation: req.Occupation,
		Hobbies:    req.Hobbies,
		Style:      req.Style,
	}
	if profile.Nickname == "" {
		profile.Nickname = username
	}
	if profile.Style == "" {
		profile.Style = models.DefaultStyle
	}
	if err := s.store.SaveProfile(ctx, username, profile); err != nil {
		// Account exists but the profile write failed; the profile can be
		// filled in later through the profile endpoint.
		log.Printf("Warning: failed to save initial profile for %s: %v", username, err)
	}

	log.Printf("Successfully registered user %s", username)
	return user, nil
}

// Login verifies user credentials and returns an access token and user info.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials // Don't reveal whether the user exists
		}
		log.Printf("Error retrieving user %s during login: %v", username, err)
		return "", nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(username, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", username, err)
		return "", nil, ErrCreatingToken
	}

	log.Printf("Successfully logged in user %s", username)
	return token, user, nil
}

// GetProfile returns the user's profile.
func (s *AuthService) GetProfile(ctx context.Context, username string) (models.Profile, error) {
	return s.store.LoadProfile(ctx, username)
}

// UpdateProfile replaces the user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, username string, profile models.Profile) error {
	if profile.Nickname == "" {
		profile.Nickname = username
	}
	if profile.Style == "" {
		profile.Style = models.DefaultStyle
	}
	return s.store.SaveProfile(ctx, username, profile)
}
