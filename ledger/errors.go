/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes without inspecting strings.

ERROR CATEGORIES:
  1. Validation errors - bad input shape, detected before any write
  2. Not-found errors  - referenced entity or transaction absent
  3. Conflict errors   - concurrent modification detected at write time,
                         or an invalid delete/restore state transition

USAGE:
  Callers classify with the helpers:

    if ledger.IsValidation(err) { ... 400 }
    if ledger.IsNotFound(err)   { ... 404 }
    if ledger.IsConflict(err)   { ... 409 }

SEE ALSO:
  - validate.go: Produces the validation errors
  - engine.go: Produces the state-transition errors
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownType is returned for a transaction type outside the five
	// supported kinds.
	ErrUnknownType = errors.New("unknown transaction type")

	// ErrMissingRequiredField is returned when a type's required relation
	// is absent.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidAmount is returned when an amount is not strictly positive
	// or not representable at the ledger's cent precision.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSameEnvelopeTransfer is returned for a transfer whose source and
	// destination envelopes are the same row.
	ErrSameEnvelopeTransfer = errors.New("transfer source and destination are the same envelope")

	// ErrCrossBudgetReference is returned when a referenced entity belongs
	// to a different budget than the transaction.
	ErrCrossBudgetReference = errors.New("entity belongs to a different budget")

	// ErrWrongEnvelopeKind is returned when a debt payment draws from a
	// non-debt envelope.
	ErrWrongEnvelopeKind = errors.New("debt payment requires a debt envelope")

	// ErrNotFound is returned when a referenced entity or transaction does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDeleted is returned when soft-deleting a transaction that is
	// already deleted. The balances are never double-reversed.
	ErrAlreadyDeleted = errors.New("transaction already deleted")

	// ErrNotDeleted is returned when restoring a transaction that is active.
	ErrNotDeleted = errors.New("transaction is not deleted")

	// ErrStaleReference is returned when a row that passed validation was
	// concurrently removed before the atomic write. Safe to retry.
	ErrStaleReference = errors.New("stale reference: row changed concurrently")

	// ErrOverdraft is returned only when the engine is configured to forbid
	// negative balances.
	ErrOverdraft = errors.New("insufficient funds")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownTypeError reports an unrecognized transaction type.
type UnknownTypeError struct {
	Type TransactionType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type %q", e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// MissingFieldError reports which relation a transaction type requires.
type MissingFieldError struct {
	Type  TransactionType
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s transaction requires %s", e.Type, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }

// NotFoundError reports a missing entity reference.
type NotFoundError struct {
	Kind string // "budget", "envelope", "payee", "income_source", "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CrossBudgetError reports an entity resolved under the wrong budget.
type CrossBudgetError struct {
	Kind         string
	ID           string
	EntityBudget BudgetID
	WantBudget   BudgetID
}

func (e *CrossBudgetError) Error() string {
	return fmt.Sprintf("%s %s belongs to budget %s, not %s",
		e.Kind, e.ID, e.EntityBudget, e.WantBudget)
}

func (e *CrossBudgetError) Unwrap() error { return ErrCrossBudgetReference }

// OverdraftError reports the shortfall when overdraft is disabled.
type OverdraftError struct {
	Kind      string // "budget" or "envelope"
	ID        string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("insufficient funds in %s %s: available %s, requested %s",
		e.Kind, e.ID, e.Available, e.Requested)
}

func (e *OverdraftError) Unwrap() error { return ErrOverdraft }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
// No write has been performed; correcting the input and retrying is safe.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrSameEnvelopeTransfer) ||
		errors.Is(err, ErrCrossBudgetReference) ||
		errors.Is(err, ErrWrongEnvelopeKind) ||
		errors.Is(err, ErrOverdraft)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true for state conflicts: concurrent modification or an
// invalid delete/restore transition. No partial delta was committed.
func IsConflict(err error) bool {
	return errors.Is(err, ErrStaleReference) ||
		errors.Is(err, ErrAlreadyDeleted) ||
		errors.Is(err, ErrNotDeleted)
}

// IsRetryable returns true if the error might succeed on retry as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleReference)
}
