/*
Package ledger provides the envelope-budgeting consistency engine.

PURPOSE:
  This package contains the domain types and algorithms for moving money
  between a budget's available pool, its envelopes, and the outside world.
  Every balance change flows through one engine that validates a transaction
  against its declared type, applies the signed deltas atomically, and
  reverses or reapplies them on soft delete and restore.

KEY CONCEPTS IN THIS FILE (types.go):
  - Budget: top-level container holding unallocated money
  - Envelope: named sub-allocation (regular, savings, or debt)
  - Payee / IncomeSource: counterparties for money leaving or entering
  - Transaction: the persisted record of one balance change

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing budget/envelope IDs
  3. Direction by type: amounts are always positive; the transaction type
     alone decides which balances move up or down
  4. Reversibility: a transaction's effect is recomputable from its own
     immutable type/amount/relations, so deletion needs no undo log

SEE ALSO:
  - spec.go: Tagged-union transaction specs (one variant per type)
  - delta.go: Delta computation (the balance update table)
  - engine.go: Create / soft-delete / restore orchestration
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BudgetID string
type EnvelopeID string
type PayeeID string
type IncomeSourceID string
type TransactionID string

// =============================================================================
// BUDGET - Top-level money container
// =============================================================================

// Budget holds the money that has not yet been allocated to any envelope.
// AvailableAmount is mutated only by the delta engine. It is allowed to go
// negative at this layer; overdraft policy is a configuration point on the
// Engine, not a hard invariant of the data model.
type Budget struct {
	ID              BudgetID
	Name            string
	AvailableAmount decimal.Decimal
	CreatedAt       time.Time
}

// =============================================================================
// ENVELOPE - Named sub-allocation of a budget
// =============================================================================

type EnvelopeKind string

const (
	EnvelopeRegular EnvelopeKind = "regular"
	EnvelopeSavings EnvelopeKind = "savings"
	EnvelopeDebt    EnvelopeKind = "debt"
)

// Envelope is a named bucket of allocated money. DebtBalance is meaningful
// only for EnvelopeDebt and records the outstanding principal owed; it is
// decremented exclusively by debt payment transactions.
type Envelope struct {
	ID             EnvelopeID
	BudgetID       BudgetID
	Name           string
	Kind           EnvelopeKind
	CurrentBalance decimal.Decimal
	DebtBalance    decimal.Decimal
	CreatedAt      time.Time
}

// =============================================================================
// PAYEE / INCOME SOURCE
// =============================================================================

type PayeeKind string

const (
	PayeeRegular PayeeKind = "regular"
	PayeeDebt    PayeeKind = "debt"
)

type Payee struct {
	ID        PayeeID
	BudgetID  BudgetID
	Name      string
	Kind      PayeeKind
	CreatedAt time.Time
}

type IncomeSource struct {
	ID        IncomeSourceID
	BudgetID  BudgetID
	Name      string
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION - Persisted record of one balance change
// =============================================================================

type TransactionType string

const (
	TxIncome      TransactionType = "income"       // money enters the budget's available pool
	TxAllocation  TransactionType = "allocation"   // budget -> envelope
	TxExpense     TransactionType = "expense"      // envelope -> payee, leaves the ledger
	TxTransfer    TransactionType = "transfer"     // envelope -> envelope, zero-sum
	TxDebtPayment TransactionType = "debt_payment" // expense from a debt envelope, also reduces debt
)

// Transaction is the stored row. Amount is always strictly positive; the
// relation fields carry exactly the subset required by Type and are empty
// otherwise. Balance effects are applied exactly once at creation and
// reversed/reapplied on each delete/restore transition. Description, Date
// and Cleared are non-financial and never re-trigger balance math.
type Transaction struct {
	ID             TransactionID
	BudgetID       BudgetID
	Type           TransactionType
	Amount         decimal.Decimal
	FromEnvelopeID EnvelopeID
	ToEnvelopeID   EnvelopeID
	PayeeID        PayeeID
	IncomeSourceID IncomeSourceID

	Description string
	Date        time.Time
	Cleared     bool

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy string

	CreatedAt time.Time
}

// Details are the non-financial fields of a transaction. Updating them must
// not touch any balance.
type Details struct {
	Description string
	Date        time.Time
	Cleared     bool
}

// MustParseDecimal parses s or returns zero. Test/seed helper.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
