package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
)

type UserServiceInterface interface {
	CreateUser(db *database.Database, input RegisterInput) (models.User, error)
	GetUserById(db *database.Database, id uuid.UUID) (models.User, error)
	RequireAdmin(db *database.Database, id uuid.UUID) error
}

type UserService struct {
	authService AuthServiceInterface
}

func NewUserService(authService AuthServiceInterface) *UserService {
	return &UserService{authService: authService}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) CreateUser(db *database.Database, input RegisterInput) (models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return models.User{}, invalidInput("Email is required")
	}

	hash, err := s.authService.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleMember,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return recordEvent(tx, models.UserCreated, "user", "create", user.ID, map[string]interface{}{
			"user_id": user.ID.String(),
			"email":   user.Email,
		})
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) GetUserById(db *database.Database, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// RequireAdmin fails with ErrAdminOnly unless the user holds the admin role.
// The role is read from storage so a demoted user loses access immediately.
func (s *UserService) RequireAdmin(db *database.Database, id uuid.UUID) error {
	user, err := s.GetUserById(db, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !user.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}
