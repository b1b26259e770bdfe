// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Store with plain maps. A single mutex stands in
// for row locks: every mutation runs verify-then-apply under it, so the
// atomicity and ordering contract of ledger.Store holds trivially.
type Memory struct {
	mu            sync.RWMutex
	budgets       map[ledger.BudgetID]ledger.Budget
	envelopes     map[ledger.EnvelopeID]ledger.Envelope
	payees        map[ledger.PayeeID]ledger.Payee
	incomeSources map[ledger.IncomeSourceID]ledger.IncomeSource
	transactions  map[ledger.TransactionID]ledger.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		budgets:       make(map[ledger.BudgetID]ledger.Budget),
		envelopes:     make(map[ledger.EnvelopeID]ledger.Envelope),
		payees:        make(map[ledger.PayeeID]ledger.Payee),
		incomeSources: make(map[ledger.IncomeSourceID]ledger.IncomeSource),
		transactions:  make(map[ledger.TransactionID]ledger.Transaction),
	}
}

// =============================================================================
// ENTITY SETUP (tests and dev seeding)
// =============================================================================

func (m *Memory) PutBudget(b ledger.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
}

func (m *Memory) PutEnvelope(e ledger.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envelopes[e.ID] = e
}

func (m *Memory) PutPayee(p ledger.Payee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payees[p.ID] = p
}

func (m *Memory) PutIncomeSource(s ledger.IncomeSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incomeSources[s.ID] = s
}

// RemoveEnvelope hard-removes an envelope row. Used by tests to provoke
// stale-reference failures.
func (m *Memory) RemoveEnvelope(id ledger.EnvelopeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.envelopes, id)
}

// =============================================================================
// ENTITY READER
// =============================================================================

func (m *Memory) GetBudget(_ context.Context, id ledger.BudgetID) (*ledger.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.budgets[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (m *Memory) GetEnvelope(_ context.Context, id ledger.EnvelopeID) (*ledger.Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.envelopes[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *Memory) GetPayee(_ context.Context, id ledger.PayeeID) (*ledger.Payee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payees[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) GetIncomeSource(_ context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.incomeSources[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

// =============================================================================
// ATOMIC MUTATIONS
// =============================================================================

func (m *Memory) CreateTransaction(_ context.Context, tx ledger.Transaction, deltas []ledger.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.verifyLocked(deltas); err != nil {
		return err
	}
	m.applyLocked(deltas)
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) MarkDeleted(_ context.Context, id ledger.TransactionID, actor string, at time.Time, deltas []ledger.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	if tx.IsDeleted {
		return ledger.ErrAlreadyDeleted
	}
	if err := m.verifyLocked(deltas); err != nil {
		return err
	}

	m.applyLocked(deltas)
	deletedAt := at
	tx.IsDeleted = true
	tx.DeletedAt = &deletedAt
	tx.DeletedBy = actor
	m.transactions[id] = tx
	return nil
}

func (m *Memory) MarkRestored(_ context.Context, id ledger.TransactionID, deltas []ledger.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	if !tx.IsDeleted {
		return ledger.ErrNotDeleted
	}
	if err := m.verifyLocked(deltas); err != nil {
		return err
	}

	m.applyLocked(deltas)
	tx.IsDeleted = false
	tx.DeletedAt = nil
	tx.DeletedBy = ""
	m.transactions[id] = tx
	return nil
}

func (m *Memory) UpdateTransactionDetails(_ context.Context, id ledger.TransactionID, details ledger.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	tx.Description = details.Description
	tx.Date = details.Date
	tx.Cleared = details.Cleared
	m.transactions[id] = tx
	return nil
}

// verifyLocked checks every delta target exists before anything is mutated.
// Verify-then-apply under one mutex is the memory analog of the SQL
// transaction boundary.
func (m *Memory) verifyLocked(deltas []ledger.Delta) error {
	for _, d := range deltas {
		if d.BudgetID != "" {
			if _, ok := m.budgets[d.BudgetID]; !ok {
				return ledger.ErrStaleReference
			}
		}
		if d.EnvelopeID != "" {
			if _, ok := m.envelopes[d.EnvelopeID]; !ok {
				return ledger.ErrStaleReference
			}
		}
	}
	return nil
}

func (m *Memory) applyLocked(deltas []ledger.Delta) {
	for _, d := range deltas {
		switch {
		case d.BudgetID != "":
			b := m.budgets[d.BudgetID]
			b.AvailableAmount = b.AvailableAmount.Add(d.Amount)
			m.budgets[d.BudgetID] = b
		case d.EnvelopeID != "":
			e := m.envelopes[d.EnvelopeID]
			switch d.Field {
			case ledger.FieldBalance:
				e.CurrentBalance = e.CurrentBalance.Add(d.Amount)
			case ledger.FieldDebtBalance:
				e.DebtBalance = e.DebtBalance.Add(d.Amount)
			}
			m.envelopes[d.EnvelopeID] = e
		}
	}
}
