package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/config"
	"github.com/japperJ/geo2-ip-webserver/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	tokenLifetime   = 24 * time.Hour
)

type AuthService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewAuthService(db *gorm.DB, cfg config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// Register creates a new user. The first registered user becomes admin.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	role := "user"
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		role = "admin"
	}

	user := &models.User{
		UUID:    uuid.New().String(),
		Email:   email,
		Name:    name,
		Role:    role,
		Enabled: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns a signed JWT. Repeated failures
// lock the account for a cooldown period.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return "", ErrAccountLocked
	}
	if !user.Enabled {
		return "", ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			user.LockedUntil = &until
		}
		if err := s.db.Save(&user).Error; err != nil {
			return "", err
		}
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	if err := s.db.Save(&user).Error; err != nil {
		return "", err
	}

	return s.issueToken(&user)
}

// ValidateToken parses a JWT and loads the user it belongs to. A service
// without a signing secret accepts nothing: validating against an empty key
// would let anyone forge tokens.
func (s *AuthService) ValidateToken(tokenString string) (*models.User, error) {
	if s.cfg.JWTSecret == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("uuid = ?", sub).First(&user).Error; err != nil {
		return nil, ErrInvalidToken
	}
	if !user.Enabled {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", errors.New("jwt signing secret is not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.UUID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
