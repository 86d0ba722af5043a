package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/roomly/roomly-be/apperrors"
	"github.com/roomly/roomly-be/config"
	"github.com/roomly/roomly-be/middleware"
	"github.com/roomly/roomly-be/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	jwtSecret string
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: jwtSecret}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := middleware.Claims{
		UserID:  user.ID,
		Subject: user.Subject,
		Email:   user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// Login authenticates by email and password. A first login provisions the
// user record; after that the stored hash must match.
func (s *AuthService) Login(email, password, name string) (*models.User, string, error) {
	var user models.User
	err := config.DB.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, createErr := s.createUser(email, password, name)
		if createErr != nil {
			return nil, "", apperrors.Internal("failed to create user", createErr)
		}
		user = *created
	case err != nil:
		return nil, "", apperrors.Internal("failed to load user", err)
	default:
		if !s.CheckPassword(password, user.Password) {
			return nil, "", apperrors.Unauthorized("invalid credentials")
		}
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", apperrors.Internal("failed to sign token", err)
	}

	return &user, token, nil
}

func (s *AuthService) createUser(email, password, name string) (*models.User, error) {
	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Subject:  uuid.NewString(),
		Email:    email,
		Password: hashedPassword,
		Name:     name,
	}

	if err := config.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}
