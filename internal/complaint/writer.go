package complaint

import (
	"time"

	"ecoplaint/backend/internal/models"
	"ecoplaint/backend/internal/storage"

	"github.com/lib/pq"
)

// InsertComplaint writes one complaint inside tx. Failures are not retried.
func InsertComplaint(tx storage.Tx, author *uint, category, location string, images [][]byte, anonymous bool, at time.Time) (*models.Complaint, error) {
	c := &models.Complaint{
		AuthorID:    author,
		Category:    category,
		Location:    location,
		Images:      pq.ByteaArray(images),
		Anonymous:   anonymous,
		SubmittedAt: at,
	}
	if err := tx.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}
