package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"dscatalog/internal/domain"
	"dscatalog/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"

	stringTooLong      = "22001"
	numericOutOfRange  = "22003"
	invalidOffsetValue = "2201X"
)

var notFoundSentinels = []error{
	repository.ErrProductNotFound,
	repository.ErrCategoryNotFound,
	repository.ErrRoleNotFound,
	repository.ErrUserNotFound,
}

var conflictSentinels = []error{
	repository.ErrCategoryAlreadyExists,
	repository.ErrRoleAlreadyExists,
	repository.ErrUserAlreadyExists,
}

// translate maps a store failure for entity id onto the domain error
// taxonomy. Errors it cannot classify are returned unchanged.
func translate(entity string, id int64, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}

	var missing *repository.MissingReferenceError
	if errors.As(err, &missing) {
		return &domain.Error{
			Kind:    domain.KindNotFound,
			Entity:  missing.Entity,
			ID:      missing.IDs[0],
			Message: missing.Error(),
			Err:     err,
		}
	}

	for _, sentinel := range notFoundSentinels {
		if errors.Is(err, sentinel) {
			return domain.NewNotFound(entity, id)
		}
	}

	for _, sentinel := range conflictSentinels {
		if errors.Is(err, sentinel) {
			return domain.NewConflict(entity, sentinel.Error(), err)
		}
	}

	if errors.Is(err, repository.ErrInvalidSortField) {
		return domain.NewValidation(err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return domain.NewConflict(entity, entity+" is referenced by other records", err)
		case uniqueViolation:
			return domain.NewConflict(entity, entity+" already exists", err)
		case stringTooLong, numericOutOfRange, invalidOffsetValue:
			return &domain.Error{Kind: domain.KindValidation, Entity: entity, ID: id, Message: pgErr.Message, Err: err}
		}
	}

	if isTransient(err) {
		return domain.NewTransient(err)
	}

	return err
}

// isTransient reports failures a client may retry unchanged: lost or
// refused connections, timeouts, server shutdown, resource exhaustion and
// serialization conflicts
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.Code
		return strings.HasPrefix(code, "08") ||
			strings.HasPrefix(code, "53") ||
			strings.HasPrefix(code, "57P0") ||
			code == "40001" ||
			code == "40P01"
	}

	return pgconn.SafeToRetry(err)
}
