/*
resolver.go - Entity resolution with same-budget scoping

PURPOSE:
  Loads the rows a transaction references and checks that every one of them
  belongs to the transaction's budget. Resolution is read-only and happens
  once per request; the validator and the delta engine both consume the same
  Resolved set.

SCOPING:
  A cross-budget reference is a validation error here, not a foreign-key
  violation left to the store. The error names the entity and both budgets.
*/
package ledger

import "context"

// Resolved holds the rows a spec references, after scoping checks. Fields
// are nil when the spec does not reference that entity kind.
type Resolved struct {
	Budget       *Budget
	FromEnvelope *Envelope
	ToEnvelope   *Envelope
	Payee        *Payee
	IncomeSource *IncomeSource
}

// Resolver loads and scopes entities for the engine.
type Resolver struct {
	Reader EntityReader
}

// Resolve loads the budget and every entity the spec references, returning
// NotFoundError per missing reference and CrossBudgetError when a resolved
// entity is owned by a different budget. Read-only.
func (r *Resolver) Resolve(ctx context.Context, budgetID BudgetID, spec Spec) (*Resolved, error) {
	budget, err := r.Reader.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: string(budgetID)}
	}

	res := &Resolved{Budget: budget}
	from, to, payee, source := Relations(spec)

	if from != "" {
		if res.FromEnvelope, err = r.envelope(ctx, budgetID, from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if res.ToEnvelope, err = r.envelope(ctx, budgetID, to); err != nil {
			return nil, err
		}
	}
	if payee != "" {
		p, err := r.Reader.GetPayee(ctx, payee)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &NotFoundError{Kind: "payee", ID: string(payee)}
		}
		if p.BudgetID != budgetID {
			return nil, &CrossBudgetError{Kind: "payee", ID: string(payee), EntityBudget: p.BudgetID, WantBudget: budgetID}
		}
		res.Payee = p
	}
	if source != "" {
		s, err := r.Reader.GetIncomeSource(ctx, source)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, &NotFoundError{Kind: "income_source", ID: string(source)}
		}
		if s.BudgetID != budgetID {
			return nil, &CrossBudgetError{Kind: "income_source", ID: string(source), EntityBudget: s.BudgetID, WantBudget: budgetID}
		}
		res.IncomeSource = s
	}

	return res, nil
}

func (r *Resolver) envelope(ctx context.Context, budgetID BudgetID, id EnvelopeID) (*Envelope, error) {
	e, err := r.Reader.GetEnvelope(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &NotFoundError{Kind: "envelope", ID: string(id)}
	}
	if e.BudgetID != budgetID {
		return nil, &CrossBudgetError{Kind: "envelope", ID: string(id), EntityBudget: e.BudgetID, WantBudget: budgetID}
	}
	return e, nil
}
