package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Complaint is one reported incident ("denúncia").
// AuthorID is nil exactly when Anonymous is true.
type Complaint struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"type:uuid;uniqueIndex" json:"reference"`
	// AuthorID references users.id; nil for anonymous complaints.
	AuthorID *uint  `gorm:"index" json:"author_id"`
	Category string `gorm:"type:text;not null" json:"category"`
	Location string `gorm:"type:text;not null" json:"location"`
	// Images holds every accepted evidence image in upload order.
	Images      pq.ByteaArray `gorm:"type:bytea[];not null" json:"-"`
	Anonymous   bool          `gorm:"not null" json:"anonymous"`
	SubmittedAt time.Time     `gorm:"not null" json:"submitted_at"`
}

// BeforeCreate assigns the public reference if it is not set yet and
// rejects a preset one that is not a UUID.
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.Reference != "" {
		if _, err := uuid.Parse(c.Reference); err != nil {
			return fmt.Errorf("invalid complaint reference %q: %w", c.Reference, err)
		}
		return nil
	}

	ref, err := uuid.NewRandom()
	if err != nil {
		return err
	}
	c.Reference = ref.String()
	return nil
}
