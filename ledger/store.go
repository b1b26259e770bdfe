/*
store.go - Persistence interfaces for the ledger engine

PURPOSE:
  Defines the interface between the engine and the database. The Store owns
  the only mutation primitive: applying a transaction row change together
  with its delta set as one atomic unit.

ATOMICITY CONTRACT:
  CreateTransaction, MarkDeleted, and MarkRestored each commit the row
  change and every delta, or nothing. No intermediate state (budget updated
  but envelope not) is ever observable to a concurrent reader.

LOCK ORDERING:
  Deltas arrive pre-sorted in canonical order (budget row, then envelopes by
  ascending id - see SortDeltas) and implementations must apply them in that
  order while holding the store's transaction isolation. No lock is ever
  held outside a single atomic operation.

STALE REFERENCES:
  Reads resolve committed state without blocking writers, so a row that
  passed validation may be gone by write time. Implementations surface this
  as ErrStaleReference and callers retry.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only caller of the mutation methods
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// ENTITY READER - Read-only lookups, nil when missing
// =============================================================================

// EntityReader resolves rows by id. Lookups return (nil, nil) when the row
// does not exist; the resolver turns that into a NotFoundError.
type EntityReader interface {
	GetBudget(ctx context.Context, id BudgetID) (*Budget, error)
	GetEnvelope(ctx context.Context, id EnvelopeID) (*Envelope, error)
	GetPayee(ctx context.Context, id PayeeID) (*Payee, error)
	GetIncomeSource(ctx context.Context, id IncomeSourceID) (*IncomeSource, error)
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
}

// =============================================================================
// STORE - Atomic mutation primitives
// =============================================================================

// Store is everything the engine needs from persistence.
type Store interface {
	EntityReader

	// CreateTransaction inserts the row and applies the deltas atomically.
	// Returns ErrStaleReference if any targeted row no longer exists.
	CreateTransaction(ctx context.Context, tx Transaction, deltas []Delta) error

	// MarkDeleted flips an active transaction to deleted and applies the
	// (already inverted) deltas atomically. Returns ErrAlreadyDeleted if the
	// row is not active at write time, so a concurrent double-delete can
	// never double-reverse.
	MarkDeleted(ctx context.Context, id TransactionID, actor string, at time.Time, deltas []Delta) error

	// MarkRestored flips a deleted transaction back to active and reapplies
	// the original deltas atomically. Returns ErrNotDeleted if the row is
	// not deleted at write time.
	MarkRestored(ctx context.Context, id TransactionID, deltas []Delta) error

	// UpdateTransactionDetails rewrites only the non-financial columns.
	// It must never touch a balance.
	UpdateTransactionDetails(ctx context.Context, id TransactionID, details Details) error
}
