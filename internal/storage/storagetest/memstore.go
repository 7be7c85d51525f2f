// Package storagetest provides an in-memory storage.Transactor for tests.
// Writes are staged per transaction and only become visible on Commit, so
// tests can assert that a failed unit of work left no rows behind.
package storagetest

import (
	"context"
	"errors"
	"sync"

	"ecoplaint/backend/internal/models"
	"ecoplaint/backend/internal/storage"
)

var errUnknownModel = errors.New("storagetest: unsupported model")

// MemStore is safe for concurrent use.
type MemStore struct {
	mu            sync.Mutex
	complaints    []models.Complaint
	notifications []models.Notification
	nextID        uint

	// Failure injection. A nil value means the step succeeds.
	FailBegin        error
	FailComplaint    error
	FailNotification error
	FailCommit       error
	FailRollback     error

	Begun      int
	Committed  int
	RolledBack int
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Begin(ctx context.Context) (storage.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &storage.Error{Kind: storage.KindConnectivityLoss, Op: "begin", Err: err}
	}
	if m.FailBegin != nil {
		return nil, &storage.Error{Kind: storage.KindConnectivityLoss, Op: "begin", Err: m.FailBegin}
	}
	m.Begun++
	return &memTx{store: m, state: storage.TxOpen}, nil
}

// Complaints returns a copy of the committed complaints.
func (m *MemStore) Complaints() []models.Complaint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Complaint(nil), m.complaints...)
}

// Notifications returns a copy of the committed notifications.
func (m *MemStore) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.notifications...)
}

func (m *MemStore) id() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}

type memTx struct {
	mu            sync.Mutex
	store         *MemStore
	complaints    []models.Complaint
	notifications []models.Notification
	state         storage.TxState
}

func (t *memTx) Create(value interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != storage.TxOpen {
		return storage.ErrHandleReused
	}

	switch v := value.(type) {
	case *models.Complaint:
		if err := t.store.FailComplaint; err != nil {
			return &storage.Error{Kind: storage.KindConnectivityLoss, Op: "insert", Err: err}
		}
		if err := v.BeforeCreate(nil); err != nil {
			return &storage.Error{Kind: storage.KindConnectivityLoss, Op: "insert", Err: err}
		}
		v.ID = t.store.id()
		t.complaints = append(t.complaints, *v)
	case *models.Notification:
		if err := t.store.FailNotification; err != nil {
			return &storage.Error{Kind: storage.KindConnectivityLoss, Op: "insert", Err: err}
		}
		v.ID = t.store.id()
		t.notifications = append(t.notifications, *v)
	default:
		return &storage.Error{Kind: storage.KindConstraintViolation, Op: "insert", Err: errUnknownModel}
	}
	return nil
}

func (t *memTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != storage.TxOpen {
		return storage.ErrHandleReused
	}
	if err := t.store.FailCommit; err != nil {
		t.state = storage.TxCommitFailed
		return &storage.Error{Kind: storage.KindCommitFailure, Op: "commit", Err: err}
	}

	t.store.mu.Lock()
	t.store.complaints = append(t.store.complaints, t.complaints...)
	t.store.notifications = append(t.store.notifications, t.notifications...)
	t.store.Committed++
	t.store.mu.Unlock()

	t.state = storage.TxCommitted
	return nil
}

func (t *memTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != storage.TxOpen && t.state != storage.TxCommitFailed {
		return storage.ErrHandleReused
	}
	// Staged writes are gone whether or not the rollback succeeds.
	t.state = storage.TxRolledBack
	t.complaints = nil
	t.notifications = nil
	if err := t.store.FailRollback; err != nil {
		return &storage.Error{Kind: storage.KindConnectivityLoss, Op: "rollback", Err: err}
	}

	t.store.mu.Lock()
	t.store.RolledBack++
	t.store.mu.Unlock()
	return nil
}
