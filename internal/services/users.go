package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateProfileInput leaves empty fields unchanged. NewPassword requires
// CurrentPassword.
type UpdateProfileInput struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

type Profile struct {
	ID                      uint                          `json:"id"`
	Name                    string                        `json:"name"`
	Email                   string                        `json:"email"`
	NotificationPreferences types.NotificationPreferences `json:"notificationPreferences"`
	CreatedAt               time.Time                     `json:"createdAt"`
}

type LoginResult struct {
	User  UserSummary
	Token string
}

type UserService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	log    *logrus.Entry
}

func NewUserService(db *gorm.DB, tokens *auth.TokenManager) *UserService {
	return &UserService{db: db, tokens: tokens, log: logutils.WithComponent("users")}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*UserSummary, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if len(in.Password) < minPasswordLength {
		return nil, invalid("Password must be at least %d characters", minPasswordLength)
	}

	tx := s.db.WithContext(ctx)

	if err := s.ensureEmailFree(tx, email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:                    name,
		Email:                   email,
		PasswordHash:            hash,
		NotificationPreferences: datatypes.NewJSONType(types.DefaultNotificationPreferences()),
	}

	if err := tx.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "Email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("User registered")

	return &UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, newError(ErrUnauthorized, "Invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{
		User:  UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
		Token: token,
	}, nil
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	var user models.User

	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, lookupErr(err, "User")
	}

	return newProfile(user), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*Profile, error) {
	tx := s.db.WithContext(ctx)

	var user models.User

	if err := tx.First(&user, userID).Error; err != nil {
		return nil, lookupErr(err, "User")
	}

	updates := map[string]any{}

	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}

	if strings.TrimSpace(in.Email) != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}

		if email != user.Email {
			if err := s.ensureEmailFree(tx, email, user.ID); err != nil {
				return nil, err
			}
			updates["email"] = email
		}
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, invalid("Current password is required to change password")
		}

		if !auth.CheckPassword(user.PasswordHash, in.CurrentPassword) {
			return nil, invalid("Current password is incorrect")
		}

		if len(in.NewPassword) < minPasswordLength {
			return nil, invalid("Password must be at least %d characters", minPasswordLength)
		}

		hash, err := auth.HashPassword(in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return nil, invalid("No valid fields to update")
	}

	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "Email already exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.Profile(ctx, userID)
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID uint, prefs types.NotificationPreferences) (*Profile, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("notification_preferences", datatypes.NewJSONType(prefs))

	if res.Error != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, notFound("User")
	}

	return s.Profile(ctx, userID)
}

// ListAll returns every user ordered by name, for member pickers.
func (s *UserService) ListAll(ctx context.Context) ([]UserSummary, error) {
	var users []models.User

	if err := s.db.WithContext(ctx).Select("id", "name", "email").Order("name, id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (s *UserService) ensureEmailFree(tx *gorm.DB, email string, exceptID uint) error {
	var n int64

	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, exceptID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if n > 0 {
		return newError(ErrConflict, "Email already exists")
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("A valid email is required")
	}
	return email, nil
}

func newProfile(u models.User) *Profile {
	return &Profile{
		ID:                      u.ID,
		Name:                    u.Name,
		Email:                   u.Email,
		NotificationPreferences: u.Preferences(),
		CreatedAt:               u.CreatedAt,
	}
}
