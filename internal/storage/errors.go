package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrHandleReused is returned when a committed or rolled back Tx is used again.
// It is a programming error, never a user-facing condition.
var ErrHandleReused = errors.New("storage: transaction handle already finished")

type Kind int

const (
	KindConnectivityLoss Kind = iota
	KindConstraintViolation
	KindCommitFailure
)

func (k Kind) String() string {
	switch k {
	case KindConstraintViolation:
		return "constraint violation"
	case KindCommitFailure:
		return "commit failure"
	default:
		return "connectivity loss"
	}
}

// Error is returned by every failed database operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a storage Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) Kind {
	// Class 23 is "integrity constraint violation".
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return KindConstraintViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return KindConstraintViolation
	}
	// Everything else (dropped connections, timeouts, cancelled contexts) is
	// treated as the database being unreachable.
	return KindConnectivityLoss
}
