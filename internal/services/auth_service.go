package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lunaria/gallery-backend/internal/config"
	"github.com/lunaria/gallery-backend/internal/models"
	"github.com/lunaria/gallery-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService guards the admin routes: the site has exactly one
// privileged actor, seeded from config on first boot.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// EnsureDefaultAdmin creates the admin account from config if none exists
func (s *AuthService) EnsureDefaultAdmin() error {
	var count int64
	if err := s.db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Admin{
		Username: s.cfg.AdminUsername,
		Password: string(hashed),
	}
	if err := s.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}
	log.Printf("Default admin %q created", admin.Username)
	return nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(username, password string) (string, error) {
	var admin models.Admin
	if err := s.db.Where("username = ?", username).First(&admin).Error; err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token, err := jwt.GenerateToken(admin.ID.String(), jwt.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken checks the token and loads the admin it names
func (s *AuthService) ValidateAccessToken(tokenString string) (*models.Admin, error) {
	claims, err := jwt.ValidateToken(tokenString, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.AccessToken {
		return nil, errors.New("not an access token")
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return nil, errors.New("invalid admin id in token")
	}

	var admin models.Admin
	if err := s.db.First(&admin, "id = ?", adminID).Error; err != nil {
		return nil, errors.New("admin not found")
	}
	return &admin, nil
}
