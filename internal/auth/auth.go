package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xtrntr/p2pdesk/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAdminNotConfigured = errors.New("admin credentials not configured")
	ErrInvalidInput       = errors.New("invalid registration")
)

const roleAdmin = "admin"

// TraderStore is the subset of the trader directory auth needs
type TraderStore interface {
	CreateTrader(ctx context.Context, t *models.Trader) error
	GetTraderByName(ctx context.Context, name string) (*models.Trader, error)
}

// Config holds signing and admin credential settings
type Config struct {
	Secret            string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string // bcrypt
	SessionTTL        time.Duration
}

// AuthService handles trader and admin authentication
type AuthService struct {
	Store TraderStore
	cfg   Config
	Now   func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(store TraderStore, cfg Config) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthService{Store: store, cfg: cfg, Now: time.Now}
}

// SessionTTL is how long an admin session stays valid
func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

// Register creates a new trader with hashed password
func (s *AuthService) Register(ctx context.Context, username, password, country string) (*models.Trader, error) {
	// Validate input
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
	}
	if len(username) > 50 {
		return nil, fmt.Errorf("%w: username too long (max 50 characters)", ErrInvalidInput)
	}
	if len(password) > 72 {
		return nil, fmt.Errorf("%w: password too long (max 72 characters)", ErrInvalidInput)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	trader := &models.Trader{
		ID:           "trader-" + uuid.NewString(),
		DisplayName:  username,
		PasswordHash: string(hashedPassword),
		Country:      strings.ToUpper(strings.TrimSpace(country)),
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.Store.CreateTrader(ctx, trader); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return trader, nil
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	trader, err := s.Store.GetTraderByName(ctx, username)
	if err != nil || trader.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(trader.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.sign(jwt.MapClaims{
		"user_id":  trader.ID,
		"username": trader.DisplayName,
		"exp":      s.Now().Add(s.cfg.TokenTTL).Unix(),
	})
}

// GetUserFromToken extracts the trader id from a JWT
func (s *AuthService) GetUserFromToken(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// AdminLogin checks the configured admin credentials and issues a session
// token
func (s *AuthService) AdminLogin(email, password string) (string, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPasswordHash == "" {
		return "", ErrAdminNotConfigured
	}
	if !strings.EqualFold(email, s.cfg.AdminEmail) {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.sign(jwt.MapClaims{
		"sub":  s.cfg.AdminEmail,
		"role": roleAdmin,
		"exp":  s.Now().Add(s.cfg.SessionTTL).Unix(),
	})
}

// VerifyAdminSession reports whether token is a live admin session
func (s *AuthService) VerifyAdminSession(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if role, _ := claims["role"].(string); role != roleAdmin {
		return ErrInvalidToken
	}
	return nil
}

func (s *AuthService) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *AuthService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
