package storage

import (
	"context"
	"errors"
	"strings"

	"ecoplaint/backend/internal/models"

	"gorm.io/gorm"
)

// SaveUser inserts a new account. A taken e-mail surfaces as a
// KindConstraintViolation Error.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return classify("insert user", s.DB.WithContext(ctx).Create(user).Error)
}

// FindUserByEmail returns ErrNotFound when no account uses email.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("find user", err)
	}
	return &user, nil
}
