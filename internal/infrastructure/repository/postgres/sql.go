package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

const uniqueViolationCode = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolationCode
}

// mapConstraintError converts a unique-violation into the shared conflict
// sentinel so callers can recover by re-reading, leaving other errors intact.
func mapConstraintError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", usecase.ErrConflict, operation)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
