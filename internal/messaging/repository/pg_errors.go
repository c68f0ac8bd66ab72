package repository

import (
	"errors"

	"event_messaging_service/internal/messaging/domain"

	"github.com/jackc/pgconn"
)

// SQLSTATE classes surfaced as typed domain errors.
const (
	sqlstateInsufficientPrivilege = "42501"
	sqlstatePolicyRecursion       = "42P17"
)

// wrapPgError maps storage policy failures onto the domain error taxonomy and
// leaves everything else untouched.
func wrapPgError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateInsufficientPrivilege:
			return &domain.PolicyRejectionError{Op: op, Detail: pgErr.Message}
		case sqlstatePolicyRecursion:
			return &domain.ConsistencyFaultError{Op: op, Detail: pgErr.Message}
		}
	}
	return err
}
