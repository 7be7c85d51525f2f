package storage

import (
	"context"
	"encoding/json"
	"log"

	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// ListNotifications returns the newest notifications first.
func (s *Service) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > config.MaxNotificationLimit {
		limit = config.DefaultNotificationLimit
	}

	var notifications []models.Notification
	if err := s.DB.WithContext(ctx).
		Order("sent_at desc").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		log.Printf("ERROR: Failed to list notifications: %v", err)
		return nil, classify("list notifications", err)
	}
	return notifications, nil
}

// PublishNotification fans a committed notification out over Redis Pub/Sub.
// It is a no-op when Redis is not configured.
func (s *Service) PublishNotification(ctx context.Context, n models.Notification) error {
	if s.Redis == nil {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, config.NotificationsChannel, payload).Err()
}

// SubscribeNotifications subscribes to the channel PublishNotification writes to.
func (s *Service) SubscribeNotifications(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, config.NotificationsChannel)
}
