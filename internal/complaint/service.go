// Package complaint provides the core logic for submitting complaints:
// validating the payload and persisting the complaint together with its
// notification as one atomic unit of work.
package complaint

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ecoplaint/backend/internal/auth"
	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/models"
	"ecoplaint/backend/internal/storage"
)

// Publisher announces committed notifications to real-time listeners.
type Publisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// Submission is a decoded complaint request.
type Submission struct {
	Category  string
	Location  string
	Anonymous bool
	// Evidence holds 1 to config.MaxEvidenceImages raw images, in upload order.
	Evidence [][]byte
}

// Validate checks the preconditions of Submit.
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrMissingField}
	}
	if strings.TrimSpace(s.Location) == "" {
		return &ValidationError{Field: "location", Err: ErrMissingField}
	}
	if len(s.Evidence) < config.MinEvidenceImages {
		return &ValidationError{Field: config.EvidenceFormField, Err: ErrMissingField}
	}
	if len(s.Evidence) > config.MaxEvidenceImages {
		return &ValidationError{Field: config.EvidenceFormField, Err: ErrTooManyImages}
	}
	for _, img := range s.Evidence {
		if len(img) == 0 {
			return &ValidationError{Field: config.EvidenceFormField, Err: ErrMissingField}
		}
	}
	return nil
}

// Result describes a committed submission.
type Result struct {
	ComplaintID  uint
	Reference    string
	Notification models.Notification
}

// Service handles the business logic for complaints.
type Service struct {
	Store     storage.Transactor
	Publisher Publisher
	// TxTimeout bounds the transaction when positive.
	TxTimeout time.Duration

	now func() time.Time
}

// NewService creates a new complaint service. pub may be nil.
func NewService(store storage.Transactor, pub Publisher) *Service {
	return &Service{Store: store, Publisher: pub, now: time.Now}
}

// WithClock overrides the clock used for submittedAt/sentAt.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit validates sub and stores the complaint and its notification
// atomically. Either both rows are committed or neither is.
//
// Returned errors are a *ValidationError (nothing was touched) or a
// *SubmitError (the transaction was rolled back).
func (s *Service) Submit(ctx context.Context, identity auth.Identity, sub Submission) (*Result, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(sub.Category)
	location := strings.TrimSpace(sub.Location)
	author := effectiveAuthor(identity, sub.Anonymous)

	txCtx := ctx
	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	now := s.now()
	var (
		complaint    *models.Complaint
		notification *models.Notification
	)
	err := storage.WithinTx(txCtx, s.Store, func(tx storage.Tx) error {
		var err error
		complaint, err = InsertComplaint(tx, author, category, location, sub.Evidence, sub.Anonymous, now)
		if err != nil {
			log.Printf("ERROR: Failed to save complaint: %v", err)
			return &SubmitError{Stage: StageComplaint, Err: err}
		}

		notification, err = EmitNotification(tx, author, category, location, now)
		if err != nil {
			log.Printf("ERROR: Failed to save notification for complaint %d: %v", complaint.ID, err)
			return &SubmitError{Stage: StageNotification, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, asSubmitError(err)
	}

	log.Printf("INFO: Complaint %d (%s) registered, anonymous=%t", complaint.ID, complaint.Reference, sub.Anonymous)
	s.publish(ctx, *notification)

	return &Result{
		ComplaintID:  complaint.ID,
		Reference:    complaint.Reference,
		Notification: *notification,
	}, nil
}

// effectiveAuthor discards the caller's identity for anonymous submissions.
func effectiveAuthor(identity auth.Identity, anonymous bool) *uint {
	if anonymous {
		return nil
	}
	subject := identity.Subject
	return &subject
}

func asSubmitError(err error) error {
	var se *SubmitError
	if errors.As(err, &se) {
		return se
	}

	stage := StageCommit
	var dbErr *storage.Error
	if errors.As(err, &dbErr) && dbErr.Op == "begin" {
		stage = StageBegin
	}
	log.Printf("ERROR: Complaint transaction failed at %s: %v", stage, err)
	return &SubmitError{Stage: stage, Err: err}
}

// publish runs after commit; a failure here never undoes the submission.
func (s *Service) publish(ctx context.Context, n models.Notification) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishNotification(context.WithoutCancel(ctx), n); err != nil {
		log.Printf("ERROR: Failed to publish notification %d: %v", n.ID, err)
	}
}
