// Package storage owns every access to PostgreSQL and Redis.
package storage

import (
	"context"
	"errors"

	"ecoplaint/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Storage is what the HTTP layer needs from persistence.
type Storage interface {
	Transactor

	SaveUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	PublishNotification(ctx context.Context, n models.Notification) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil when real-time delivery is off.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates the tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Notification{},
	)
}
