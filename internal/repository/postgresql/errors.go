package postgresql

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates driver errors into attendance domain errors. Anything
// that is not a known constraint violation, including context cancellation
// and deadlines, is reported as ErrStorageUnavailable with the cause wrapped.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return attendance.ErrDuplicateRecord
		case pgForeignKeyViolation:
			return attendance.ErrRecordNotFound
		}
	}
	return fmt.Errorf("%w: %s: %w", attendance.ErrStorageUnavailable, op, err)
}
