package storage

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"gorm.io/gorm"
)

// Tx is one open unit of work. Once Commit or Rollback has been called the
// handle is finished and every further call returns ErrHandleReused. The one
// exception is Rollback after a failed Commit, which is still allowed.
type Tx interface {
	Create(value interface{}) error
	Commit() error
	Rollback() error
}

// Transactor opens transactions.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

type TxState int

const (
	TxOpen TxState = iota
	// TxCommitFailed only accepts Rollback.
	TxCommitFailed
	TxCommitted
	TxRolledBack
)

type gormTx struct {
	mu    sync.Mutex
	db    *gorm.DB
	state TxState
}

// Begin opens a dedicated transaction bound to ctx. If ctx is cancelled
// before Commit, database/sql rolls the transaction back on its own.
func (s *Service) Begin(ctx context.Context) (Tx, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, classify("begin", tx.Error)
	}
	return &gormTx{db: tx, state: TxOpen}, nil
}

func (t *gormTx) Create(value interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxOpen {
		return ErrHandleReused
	}
	return classify("insert", t.db.Create(value).Error)
}

func (t *gormTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxOpen {
		return ErrHandleReused
	}
	if err := t.db.Commit().Error; err != nil {
		t.state = TxCommitFailed
		return &Error{Kind: KindCommitFailure, Op: "commit", Err: err}
	}
	t.state = TxCommitted
	return nil
}

func (t *gormTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TxOpen && t.state != TxCommitFailed {
		return ErrHandleReused
	}
	t.state = TxRolledBack

	err := t.db.Rollback().Error
	// database/sql already discarded the transaction when Commit failed or
	// the context was cancelled.
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return classify("rollback", err)
}

// WithinTx runs fn in a new transaction. The transaction is committed when
// fn returns nil and rolled back on every other exit path, panics included.
// A failed rollback is logged; the error returned is always the one that
// caused it.
func WithinTx(ctx context.Context, t Transactor, fn func(tx Tx) error) error {
	tx, err := t.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		rollback(tx)
		return err
	}
	return nil
}

func rollback(tx Tx) {
	if err := tx.Rollback(); err != nil {
		log.Printf("ERROR: Failed to roll back transaction: %v", err)
	}
}
