/*
delta.go - The balance update table

PURPOSE:
  Computes the signed deltas a transaction applies to budget and envelope
  rows. The computation is a pure function of (type, amount, relations), so
  the exact same table serves three paths:

    create:  apply Deltas(...)
    delete:  apply Invert(Deltas(...))
    restore: apply Deltas(...) again

  One table, no duplicated apply/reverse logic, no drift between them.

DELTAS BY TYPE (amount is always positive here):
  income:       budget.available            +amount
  allocation:   budget.available            -amount
                to_envelope.balance         +amount
  expense:      from_envelope.balance       -amount
  transfer:     from_envelope.balance       -amount
                to_envelope.balance         +amount
  debt_payment: from_envelope.balance       -amount
                from_envelope.debt_balance  -amount

LOCK ORDERING:
  SortDeltas puts the budget row first, then envelope rows in ascending id
  order. Every store applies deltas in this canonical order, which makes
  deadlock between concurrent writers impossible by construction.

SEE ALSO:
  - engine.go: Calls this for create, delete, and restore
  - store.go: Store contract for atomic application
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DELTA - One signed change to one balance column
// =============================================================================

// BalanceField names the column a delta targets.
type BalanceField string

const (
	FieldAvailable   BalanceField = "available_amount"
	FieldBalance     BalanceField = "current_balance"
	FieldDebtBalance BalanceField = "debt_balance"
)

// Delta is a signed change to a single balance column of a single row.
// Exactly one of BudgetID/EnvelopeID is set.
type Delta struct {
	BudgetID   BudgetID
	EnvelopeID EnvelopeID
	Field      BalanceField
	Amount     decimal.Decimal
}

// Invert negates every delta. Applying a delta set followed by its inverse
// is the identity transformation on all touched balances.
func Invert(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		d.Amount = d.Amount.Neg()
		out[i] = d
	}
	return out
}

// =============================================================================
// DELTA TABLE - type -> delta function
// =============================================================================

type deltaFunc func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta

var deltaTable = map[TransactionType]deltaFunc{
	TxIncome: func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta {
		return []Delta{
			{BudgetID: budgetID, Field: FieldAvailable, Amount: amount},
		}
	},
	TxAllocation: func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta {
		s := spec.(Allocation)
		return []Delta{
			{BudgetID: budgetID, Field: FieldAvailable, Amount: amount.Neg()},
			{EnvelopeID: s.ToEnvelopeID, Field: FieldBalance, Amount: amount},
		}
	},
	TxExpense: func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta {
		s := spec.(Expense)
		return []Delta{
			{EnvelopeID: s.FromEnvelopeID, Field: FieldBalance, Amount: amount.Neg()},
		}
	},
	TxTransfer: func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta {
		s := spec.(Transfer)
		return []Delta{
			{EnvelopeID: s.FromEnvelopeID, Field: FieldBalance, Amount: amount.Neg()},
			{EnvelopeID: s.ToEnvelopeID, Field: FieldBalance, Amount: amount},
		}
	},
	TxDebtPayment: func(budgetID BudgetID, spec Spec, amount decimal.Decimal) []Delta {
		s := spec.(DebtPayment)
		return []Delta{
			{EnvelopeID: s.FromEnvelopeID, Field: FieldBalance, Amount: amount.Neg()},
			{EnvelopeID: s.FromEnvelopeID, Field: FieldDebtBalance, Amount: amount.Neg()},
		}
	},
}

// Deltas computes the delta set for a validated spec, already in canonical
// lock order. Pure: no store access, safe to call on any path.
func Deltas(budgetID BudgetID, spec Spec, amount decimal.Decimal) ([]Delta, error) {
	fn, ok := deltaTable[spec.TxType()]
	if !ok {
		return nil, &UnknownTypeError{Type: spec.TxType()}
	}
	return SortDeltas(fn(budgetID, spec, amount)), nil
}

// SortDeltas orders a delta set canonically: budget rows first, then
// envelope rows by ascending id. Stable, so the balance/debt_balance pair of
// a debt payment keeps its relative order. Every code path that touches more
// than one row must apply deltas in this order.
func SortDeltas(deltas []Delta) []Delta {
	sort.SliceStable(deltas, func(i, j int) bool {
		a, b := deltas[i], deltas[j]
		if (a.BudgetID != "") != (b.BudgetID != "") {
			return a.BudgetID != ""
		}
		return a.EnvelopeID < b.EnvelopeID
	})
	return deltas
}

// TouchedEnvelopes returns the distinct envelope ids in a delta set, in
// canonical order.
func TouchedEnvelopes(deltas []Delta) []EnvelopeID {
	var ids []EnvelopeID
	seen := make(map[EnvelopeID]bool)
	for _, d := range deltas {
		if d.EnvelopeID != "" && !seen[d.EnvelopeID] {
			seen[d.EnvelopeID] = true
			ids = append(ids, d.EnvelopeID)
		}
	}
	return ids
}
