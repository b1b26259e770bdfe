/*
seed.go - Demo data loader

PURPOSE:
  Seeds a small but representative budget so the API can be exercised
  end to end without a frontend: one budget, three envelopes (one of them
  a debt envelope with an opening principal), a payee of each kind, an
  income source, and a handful of transactions run through the real engine
  so every seeded balance is the product of actual delta math.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/envelope-ledger/ledger"
)

// SeedResult reports what the seed created.
type SeedResult struct {
	BudgetID     string   `json:"budget_id"`
	EnvelopeIDs  []string `json:"envelope_ids"`
	Transactions int      `json:"transactions"`
}

// LoadSeed wipes the database and loads the demo budget.
// POST /api/seed
func (h *Handler) LoadSeed(w http.ResponseWriter, r *http.Request) {
	res, err := h.seed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) seed(ctx context.Context) (*SeedResult, error) {
	if err := h.Store.Reset(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	budget := ledger.Budget{ID: "budget-demo", Name: "Household", CreatedAt: now}
	if err := h.Store.SaveBudget(ctx, budget); err != nil {
		return nil, err
	}

	groceries := ledger.Envelope{
		ID: "env-groceries", BudgetID: budget.ID, Name: "Groceries",
		Kind: ledger.EnvelopeRegular, CreatedAt: now,
	}
	vacation := ledger.Envelope{
		ID: "env-vacation", BudgetID: budget.ID, Name: "Vacation",
		Kind: ledger.EnvelopeSavings, CreatedAt: now,
	}
	carLoan := ledger.Envelope{
		ID: "env-car-loan", BudgetID: budget.ID, Name: "Car Loan",
		Kind: ledger.EnvelopeDebt, DebtBalance: ledger.MustParseDecimal("2500.00"),
		CreatedAt: now,
	}
	for _, e := range []ledger.Envelope{groceries, vacation, carLoan} {
		if err := h.Store.SaveEnvelope(ctx, e); err != nil {
			return nil, err
		}
	}

	grocer := ledger.Payee{
		ID: "payee-grocer", BudgetID: budget.ID, Name: "Corner Grocer",
		Kind: ledger.PayeeRegular, CreatedAt: now,
	}
	bank := ledger.Payee{
		ID: "payee-bank", BudgetID: budget.ID, Name: "Auto Finance Co",
		Kind: ledger.PayeeDebt, CreatedAt: now,
	}
	for _, p := range []ledger.Payee{grocer, bank} {
		if err := h.Store.SavePayee(ctx, p); err != nil {
			return nil, err
		}
	}

	salary := ledger.IncomeSource{
		ID: "source-salary", BudgetID: budget.ID, Name: "Salary", CreatedAt: now,
	}
	if err := h.Store.SaveIncomeSource(ctx, salary); err != nil {
		return nil, err
	}

	// Run the seed transactions through the engine so seeded balances are
	// real delta output, not hand-typed numbers.
	steps := []struct {
		spec   ledger.Spec
		amount string
		desc   string
	}{
		{ledger.Income{SourceID: salary.ID}, "3000.00", "August paycheck"},
		{ledger.Allocation{ToEnvelopeID: groceries.ID}, "500.00", "Monthly groceries"},
		{ledger.Allocation{ToEnvelopeID: vacation.ID}, "250.00", "Trip fund"},
		{ledger.Allocation{ToEnvelopeID: carLoan.ID}, "300.00", "Loan payment money"},
		{ledger.Expense{FromEnvelopeID: groceries.ID, PayeeID: grocer.ID}, "82.45", "Weekly shop"},
		{ledger.DebtPayment{FromEnvelopeID: carLoan.ID, PayeeID: bank.ID}, "300.00", "August installment"},
	}
	for i, step := range steps {
		_, err := h.Engine.CreateTransaction(ctx, budget.ID, step.spec,
			ledger.MustParseDecimal(step.amount),
			ledger.Details{Description: step.desc})
		if err != nil {
			return nil, fmt.Errorf("seed step %d: %w", i, err)
		}
	}

	return &SeedResult{
		BudgetID:     string(budget.ID),
		EnvelopeIDs:  []string{string(groceries.ID), string(vacation.ID), string(carLoan.ID)},
		Transactions: len(steps),
	}, nil
}
