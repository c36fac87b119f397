package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apexify/internal/logging"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Username string      `json:"username" validate:"required,min=3,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=customer vendor"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	notifier   Notifier
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService. A nil notifier disables welcome notifications.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenDuration time.Duration, notifier Notifier) *AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		notifier:   notifier,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
	}
}

// RegisterUser opens a customer or vendor account with a bcrypt-hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.notifier.UserRegistered(ctx, user)
	return user, nil
}

// CreateAdmin provisions an administrator account. It is not reachable over HTTP.
func (s *AuthService) CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.createUser(ctx, RegisterInput{Username: username, Email: email, Password: password, Role: models.RoleAdmin})
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s' already taken: %w", in.Username, models.ErrConflict)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", in.Email, models.ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	logging.FromContext(ctx).Info("user_registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// CurrentUser loads the account behind an authenticated actor.
func (s *AuthService) CurrentUser(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.userRepo.GetByID(ctx, actor.ID)
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ActorFromClaims extracts the caller identity from validated claims.
func ActorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	id, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if id == "" || !models.Role(role).Valid() {
		return models.Actor{}, fmt.Errorf("invalid token: missing subject or role")
	}
	return models.Actor{ID: id, Role: models.Role(role)}, nil
}
