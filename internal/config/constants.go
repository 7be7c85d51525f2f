package config

import "time"

const (
	// Evidence
	MinEvidenceImages = 1
	MaxEvidenceImages = 4
	EvidenceFormField = "images"

	// Notifications
	NotificationKind         = "Push Notification"
	NotificationMessageFmt   = "Denúncia enviada: %s em %s"
	NotificationsChannel     = "notifications"
	NotificationDateLayout   = "02/01/2006 15:04:05"
	DefaultNotificationLimit = 100
	MaxNotificationLimit     = 500

	// Tokens
	DefaultTokenTTL = time.Hour
	TokenIssuer     = "ecoplaint-service"

	// HTTP
	DefaultPort           = "5001"
	DefaultMaxUploadBytes = 50 << 20
	BcryptCost            = 10
)
