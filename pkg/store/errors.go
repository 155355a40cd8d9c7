package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the addressed row does not exist or nothing was affected.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrForeignKey means a referenced row does not exist.
	ErrForeignKey = errors.New("store: foreign key violation")
)

// classify maps driver errors onto the package sentinels. Anything it does not
// recognise is wrapped with operation context for the logs.
func classify(err error, code string, attrs ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrDuplicate
		case pgerrcode.ForeignKeyViolation:
			return ErrForeignKey
		}
	}
	return oops.In("store").Code(code).With(attrs...).Wrap(err)
}
