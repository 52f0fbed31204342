package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return mapForeignKey(pqErr)

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must not be negative",
		})

	case strings.Contains(constraint, "price_non_negative"):
		return errors.Validation(map[string]string{
			"price": "must not be negative",
		})

	case strings.Contains(constraint, "action_valid"):
		return errors.Validation(map[string]string{
			"action": "must be one of: IN, OUT",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// mapForeignKey maps foreign key violations to the referenced resource.
func mapForeignKey(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "medicine"):
		return errors.BadRequest("referenced medicine does not exist")
	case strings.Contains(constraint, "batch"):
		return errors.BadRequest("referenced batch does not exist")
	case strings.Contains(constraint, "category"):
		return errors.BadRequest("referenced category does not exist")
	case strings.Contains(constraint, "unit"):
		return errors.BadRequest("referenced unit does not exist")
	case strings.Contains(constraint, "role"):
		return errors.BadRequest("referenced role does not exist")
	default:
		return errors.BadRequest("referenced record does not exist")
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "batches_medicine_batch_no"):
		return "a batch with this number already exists for this medicine"
	case strings.Contains(constraint, "medicines_name"):
		return "a medicine with this name already exists"
	case strings.Contains(constraint, "categories_name"):
		return "a category with this name already exists"
	case strings.Contains(constraint, "units_name"):
		return "a unit with this name already exists"
	case strings.Contains(constraint, "users_username"):
		return "a user with this username already exists"
	default:
		return "a record with these values already exists"
	}
}
