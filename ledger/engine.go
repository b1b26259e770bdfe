/*
engine.go - Create / soft-delete / restore orchestration

PURPOSE:
  The Engine is the single entry point for every balance mutation. It runs
  the request through validation, resolution, delta computation, and one
  atomic store write, then returns the transaction together with the
  post-update balances of every entity it touched so callers can display the
  new state without a second read.

CONTROL FLOW:
  CreateTransaction:
    1. ValidateSpec (pure, shape + amount)
    2. Resolver.Resolve (read-only, same-budget scoping)
    3. ValidateResolved (debt-envelope kind)
    4. Optional overdraft check (configuration point)
    5. Deltas + atomic Store.CreateTransaction

  SoftDeleteTransaction / RestoreTransaction:
    Recompute the creation delta set from the transaction's own immutable
    type/amount/relations - inverted for delete, as-is for restore - and
    apply atomically with the state flip. Delete-then-restore is therefore
    the identity transformation on all touched balances.

STATE MACHINE (per transaction):
    active --delete--> deleted --restore--> active
  Deleting a deleted transaction is ErrAlreadyDeleted; restoring an active
  one is ErrNotDeleted. Neither touches a balance.

SEE ALSO:
  - delta.go: The shared delta table
  - store.go: Atomicity and lock-ordering contract
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config carries the engine's policy knobs.
type Config struct {
	// AllowOverdraft permits budget.available_amount and
	// envelope.current_balance to go negative. Defaults to true: overdraft
	// is a product decision surfaced to the user elsewhere, not a ledger
	// error. Set false to reject any write that would go below zero.
	AllowOverdraft bool
}

// Engine validates transactions and applies their balance effects atomically.
type Engine struct {
	store    Store
	resolver *Resolver
	cfg      Config
}

// NewEngine creates an engine with the default permissive overdraft policy.
func NewEngine(store Store) *Engine {
	return NewEngineWithConfig(store, Config{AllowOverdraft: true})
}

// NewEngineWithConfig creates an engine with an explicit policy.
func NewEngineWithConfig(store Store, cfg Config) *Engine {
	return &Engine{
		store:    store,
		resolver: &Resolver{Reader: store},
		cfg:      cfg,
	}
}

// Result is the outcome of a mutation: the affected transaction plus the
// post-update balances of every entity it touched.
type Result struct {
	Transaction Transaction
	Budget      Budget
	Envelopes   []Envelope
}

// =============================================================================
// CREATE
// =============================================================================

// CreateTransaction validates the spec, applies its deltas atomically
// together with the transaction row's insertion, and returns the new state.
// On any error, no row has changed.
func (e *Engine) CreateTransaction(ctx context.Context, budgetID BudgetID, spec Spec, amount decimal.Decimal, details Details) (*Result, error) {
	if err := ValidateSpec(spec, amount); err != nil {
		return nil, err
	}

	res, err := e.resolver.Resolve(ctx, budgetID, spec)
	if err != nil {
		return nil, err
	}
	if err := ValidateResolved(spec, res); err != nil {
		return nil, err
	}

	deltas, err := Deltas(budgetID, spec, amount)
	if err != nil {
		return nil, err
	}
	if !e.cfg.AllowOverdraft {
		if err := checkOverdraft(res, deltas); err != nil {
			return nil, err
		}
	}

	from, to, payee, source := Relations(spec)
	now := time.Now().UTC()
	date := details.Date
	if date.IsZero() {
		date = now
	}
	tx := Transaction{
		ID:             TransactionID(uuid.NewString()),
		BudgetID:       budgetID,
		Type:           spec.TxType(),
		Amount:         amount,
		FromEnvelopeID: from,
		ToEnvelopeID:   to,
		PayeeID:        payee,
		IncomeSourceID: source,
		Description:    details.Description,
		Date:           date,
		Cleared:        details.Cleared,
		CreatedAt:      now,
	}

	if err := e.store.CreateTransaction(ctx, tx, deltas); err != nil {
		return nil, err
	}
	return e.result(ctx, tx, deltas)
}

// =============================================================================
// SOFT DELETE / RESTORE
// =============================================================================

// SoftDeleteTransaction reverses a transaction's balance effects and marks
// the row deleted. The reversal is recomputed from the transaction itself;
// no undo log exists or is needed.
func (e *Engine) SoftDeleteTransaction(ctx context.Context, id TransactionID, actor string) (*Result, error) {
	tx, deltas, err := e.loadDeltas(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsDeleted {
		return nil, ErrAlreadyDeleted
	}

	now := time.Now().UTC()
	inverted := Invert(deltas)
	if err := e.store.MarkDeleted(ctx, id, actor, now, inverted); err != nil {
		return nil, err
	}

	tx.IsDeleted = true
	tx.DeletedAt = &now
	tx.DeletedBy = actor
	return e.result(ctx, *tx, deltas)
}

// RestoreTransaction reapplies a deleted transaction's original deltas and
// marks the row active again. The actor is accepted for interface symmetry;
// restoring clears the deletion audit fields.
func (e *Engine) RestoreTransaction(ctx context.Context, id TransactionID, actor string) (*Result, error) {
	tx, deltas, err := e.loadDeltas(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.IsDeleted {
		return nil, ErrNotDeleted
	}

	if err := e.store.MarkRestored(ctx, id, deltas); err != nil {
		return nil, err
	}

	tx.IsDeleted = false
	tx.DeletedAt = nil
	tx.DeletedBy = ""
	return e.result(ctx, *tx, deltas)
}

// UpdateDetails rewrites a transaction's non-financial fields. It never
// re-invokes the delta engine, so balances are untouched by construction.
func (e *Engine) UpdateDetails(ctx context.Context, id TransactionID, details Details) (*Transaction, error) {
	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &NotFoundError{Kind: "transaction", ID: string(id)}
	}

	if err := e.store.UpdateTransactionDetails(ctx, id, details); err != nil {
		return nil, err
	}
	tx.Description = details.Description
	tx.Date = details.Date
	tx.Cleared = details.Cleared
	return tx, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// loadDeltas fetches a transaction and recomputes its creation delta set.
func (e *Engine) loadDeltas(ctx context.Context, id TransactionID) (*Transaction, []Delta, error) {
	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if tx == nil {
		return nil, nil, &NotFoundError{Kind: "transaction", ID: string(id)}
	}

	spec, err := SpecOf(*tx)
	if err != nil {
		return nil, nil, err
	}
	deltas, err := Deltas(tx.BudgetID, spec, tx.Amount)
	if err != nil {
		return nil, nil, err
	}
	return tx, deltas, nil
}

// result reloads the budget and every envelope the delta set touched.
func (e *Engine) result(ctx context.Context, tx Transaction, deltas []Delta) (*Result, error) {
	budget, err := e.store.GetBudget(ctx, tx.BudgetID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: string(tx.BudgetID)}
	}

	out := &Result{Transaction: tx, Budget: *budget}
	for _, id := range TouchedEnvelopes(deltas) {
		env, err := e.store.GetEnvelope(ctx, id)
		if err != nil {
			return nil, err
		}
		if env == nil {
			return nil, ErrStaleReference
		}
		out.Envelopes = append(out.Envelopes, *env)
	}
	return out, nil
}

// checkOverdraft rejects any delta set that would push an available pool or
// envelope balance below zero, using the balances resolved for this request.
// Debt principal is exempt: paying past zero is a product question, not a
// ledger one.
func checkOverdraft(res *Resolved, deltas []Delta) error {
	for _, d := range deltas {
		if !d.Amount.IsNegative() {
			continue
		}
		switch {
		case d.BudgetID != "" && d.Field == FieldAvailable:
			if res.Budget.AvailableAmount.Add(d.Amount).IsNegative() {
				return &OverdraftError{Kind: "budget", ID: string(d.BudgetID),
					Available: res.Budget.AvailableAmount, Requested: d.Amount.Neg()}
			}
		case d.EnvelopeID != "" && d.Field == FieldBalance:
			env := res.FromEnvelope
			if env == nil || env.ID != d.EnvelopeID {
				env = res.ToEnvelope
			}
			if env != nil && env.CurrentBalance.Add(d.Amount).IsNegative() {
				return &OverdraftError{Kind: "envelope", ID: string(d.EnvelopeID),
					Available: env.CurrentBalance, Requested: d.Amount.Neg()}
			}
		}
	}
	return nil
}
