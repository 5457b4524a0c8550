package repository

import (
	"fmt"

	ierr "github.com/ridwanfathin/vetclinic-billing-service/internal/errors"
)

func notFoundError(err error, entity string, id any) error {
	return ierr.WithError(err).
		WithHintf("%s %v not found", entity, id).
		WithReportableDetails(map[string]any{"id": fmt.Sprint(id)}).
		Mark(ierr.ErrNotFound)
}

func databaseError(err error, msg string) error {
	return ierr.WithError(err).
		WithMessage(msg).
		WithHint("A database error occurred").
		Mark(ierr.ErrDatabase)
}

func duplicateNumberError(err error, number string) error {
	return ierr.WithError(err).
		WithMessage("invoice number already taken").
		WithReportableDetails(map[string]any{"invoice_number": number}).
		Mark(ierr.ErrConflict)
}

func paymentsExistError(err error, id int64) error {
	return ierr.WithError(err).
		WithHintf("Invoice %d has payments and cannot be deleted", id).
		Mark(ierr.ErrInvalidState)
}
