package complaint

import (
	"fmt"
	"time"

	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/models"
	"ecoplaint/backend/internal/storage"
)

// NotificationMessage builds the confirmation text. The output depends only
// on its arguments.
func NotificationMessage(category, location string) string {
	return fmt.Sprintf(config.NotificationMessageFmt, category, location)
}

// EmitNotification writes the notification paired with a complaint inside tx.
// recipient must be the complaint's author reference, nil when anonymous.
func EmitNotification(tx storage.Tx, recipient *uint, category, location string, at time.Time) (*models.Notification, error) {
	n := &models.Notification{
		RecipientID: recipient,
		Kind:        config.NotificationKind,
		Message:     NotificationMessage(category, location),
		Read:        false,
		SentAt:      at,
	}
	if err := tx.Create(n); err != nil {
		return nil, err
	}
	return n, nil
}
