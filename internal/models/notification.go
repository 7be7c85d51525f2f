package models

import "time"

// Notification is created alongside every committed Complaint.
// RecipientID mirrors the complaint's AuthorID, so anonymous complaints
// produce notifications without a recipient.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID *uint     `gorm:"index" json:"recipient_id"`
	Kind        string    `gorm:"type:text;not null" json:"kind"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Read        bool      `gorm:"not null" json:"read"`
	SentAt      time.Time `gorm:"not null;index" json:"sent_at"`
}
