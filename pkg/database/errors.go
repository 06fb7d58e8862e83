package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/docflow/docflow-backend/pkg/errors"
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
		return errors.BadRequest("referenced record does not exist")

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
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: draft, pending_approval, approved, rejected, revision, archived",
		})

	case strings.Contains(constraint, "decision_valid"):
		return errors.Validation(map[string]string{
			"decision": "must be one of: approve, reject, request_revision, delegate, send_to_legal_review, block",
		})

	case strings.Contains(constraint, "delegation_type_valid"):
		return errors.Validation(map[string]string{
			"delegation_type": "must be one of: full, approval_only, view_only, department_specific",
		})

	case strings.Contains(constraint, "block_type_valid"):
		return errors.Validation(map[string]string{
			"block_type": "must be one of: approval_block, edit_block, full_block, legal_review, compliance_review",
		})

	case strings.Contains(constraint, "access_level_valid"):
		return errors.Validation(map[string]string{
			"access_level": "must be one of: view, edit, full",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "registration_number"):
		return "a document with this registration number already exists"
	case strings.Contains(constraint, "version_number"):
		return "this version number already exists for the document"
	case strings.Contains(constraint, "document_access"):
		return "an access grant for this user and document already exists"
	default:
		return "a record with these values already exists"
	}
}
