package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/ledger"
)

// newTestStore opens a store on a throwaway file database. A file rather than
// :memory: because the connection pool would otherwise hand each connection
// its own empty in-memory database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return ledger.MustParseDecimal(s)
}

// seedEntities creates one budget with an envelope and an income source and
// returns their ids.
func seedEntities(t *testing.T, s *Store) (ledger.BudgetID, ledger.EnvelopeID, ledger.IncomeSourceID) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveBudget(ctx, ledger.Budget{ID: "b-1", Name: "Test", CreatedAt: now}))
	require.NoError(t, s.SaveEnvelope(ctx, ledger.Envelope{
		ID: "e-1", BudgetID: "b-1", Name: "Groceries", Kind: ledger.EnvelopeRegular, CreatedAt: now,
	}))
	require.NoError(t, s.SaveIncomeSource(ctx, ledger.IncomeSource{
		ID: "s-1", BudgetID: "b-1", Name: "Salary", CreatedAt: now,
	}))
	return "b-1", "e-1", "s-1"
}

func incomeTx(budgetID ledger.BudgetID, sourceID ledger.IncomeSourceID, amount string) ledger.Transaction {
	now := time.Now().UTC()
	return ledger.Transaction{
		ID:             ledger.TransactionID(uuid.NewString()),
		BudgetID:       budgetID,
		Type:           ledger.TxIncome,
		Amount:         ledger.MustParseDecimal(amount),
		IncomeSourceID: sourceID,
		Date:           now,
		CreatedAt:      now,
	}
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

func TestCreateTransaction_PersistsRowAndBalances(t *testing.T) {
	s := newTestStore(t)
	budgetID, envelopeID, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "1500.00")
	deltas := []ledger.Delta{
		{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("1500.00")},
		{EnvelopeID: envelopeID, Field: ledger.FieldBalance, Amount: dec("200.00")},
	}
	require.NoError(t, s.CreateTransaction(ctx, tx, deltas))

	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.Equal(dec("1500.00")))

	env, err := s.GetEnvelope(ctx, envelopeID)
	require.NoError(t, err)
	assert.True(t, env.CurrentBalance.Equal(dec("200.00")))

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, ledger.TxIncome, stored.Type)
	assert.True(t, stored.Amount.Equal(dec("1500.00")))
	assert.Equal(t, sourceID, stored.IncomeSourceID)
	assert.False(t, stored.IsDeleted)
}

func TestCreateTransaction_StaleEnvelopeRollsBackEverything(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	// The budget delta would succeed; the envelope delta targets a row that
	// does not exist. Neither may stick.
	tx := incomeTx(budgetID, sourceID, "100.00")
	deltas := []ledger.Delta{
		{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("100.00")},
		{EnvelopeID: "e-gone", Field: ledger.FieldBalance, Amount: dec("100.00")},
	}

	err := s.CreateTransaction(ctx, tx, deltas)
	assert.ErrorIs(t, err, ledger.ErrStaleReference)

	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.IsZero(), "budget delta must roll back")

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "transaction row must roll back")
}

func TestCreateTransaction_ConcurrentWritesConserveMoney(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := incomeTx(budgetID, sourceID, "10.00")
			errs <- s.CreateTransaction(ctx, tx, []ledger.Delta{
				{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("10.00")},
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 20 read-modify-write increments of 10.00 with no lost updates.
	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.Equal(dec("200.00")),
		"got %s, want 200.00", budget.AvailableAmount)
}

// =============================================================================
// DELETE / RESTORE STATE MACHINE
// =============================================================================

func TestMarkDeleted_GuardedAgainstDoubleDelete(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "100.00")
	deltas := []ledger.Delta{{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("100.00")}}
	require.NoError(t, s.CreateTransaction(ctx, tx, deltas))

	inverted := ledger.Invert(deltas)
	require.NoError(t, s.MarkDeleted(ctx, tx.ID, "alice", time.Now().UTC(), inverted))

	// The second delete loses on the is_deleted guard; balances stay put.
	err := s.MarkDeleted(ctx, tx.ID, "bob", time.Now().UTC(), inverted)
	assert.ErrorIs(t, err, ledger.ErrAlreadyDeleted)

	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.IsZero())

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, "alice", stored.DeletedBy)
	require.NotNil(t, stored.DeletedAt)
}

func TestMarkRestored_RoundTripRestoresBalancesAndAuditFields(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "250.00")
	deltas := []ledger.Delta{{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("250.00")}}
	require.NoError(t, s.CreateTransaction(ctx, tx, deltas))
	require.NoError(t, s.MarkDeleted(ctx, tx.ID, "alice", time.Now().UTC(), ledger.Invert(deltas)))

	require.NoError(t, s.MarkRestored(ctx, tx.ID, deltas))

	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.Equal(dec("250.00")))

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted)
	assert.Nil(t, stored.DeletedAt)
	assert.Empty(t, stored.DeletedBy)
}

func TestMarkRestored_ActiveRowIsConflict(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "100.00")
	deltas := []ledger.Delta{{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("100.00")}}
	require.NoError(t, s.CreateTransaction(ctx, tx, deltas))

	err := s.MarkRestored(ctx, tx.ID, deltas)
	assert.ErrorIs(t, err, ledger.ErrNotDeleted)
}

func TestMarkDeleted_MissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t)
	seedEntities(t, s)

	err := s.MarkDeleted(context.Background(), "tx-nope", "a", time.Now().UTC(), nil)
	var nf *ledger.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// =============================================================================
// DETAILS AND LISTINGS
// =============================================================================

func TestUpdateTransactionDetails_LeavesFinancialColumnsAlone(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "300.00")
	deltas := []ledger.Delta{{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec("300.00")}}
	require.NoError(t, s.CreateTransaction(ctx, tx, deltas))

	newDate := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateTransactionDetails(ctx, tx.ID, ledger.Details{
		Description: "mid-month paycheck", Date: newDate, Cleared: true,
	}))

	stored, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "mid-month paycheck", stored.Description)
	assert.True(t, stored.Date.Equal(newDate))
	assert.True(t, stored.Cleared)
	assert.True(t, stored.Amount.Equal(dec("300.00")))

	budget, err := s.GetBudget(ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.Equal(dec("300.00")))
}

func TestListTransactions_FiltersDeletedByDefault(t *testing.T) {
	s := newTestStore(t)
	budgetID, _, sourceID := seedEntities(t, s)
	ctx := context.Background()

	keep := incomeTx(budgetID, sourceID, "10.00")
	drop := incomeTx(budgetID, sourceID, "20.00")
	deltas := func(amount string) []ledger.Delta {
		return []ledger.Delta{{BudgetID: budgetID, Field: ledger.FieldAvailable, Amount: dec(amount)}}
	}
	require.NoError(t, s.CreateTransaction(ctx, keep, deltas("10.00")))
	require.NoError(t, s.CreateTransaction(ctx, drop, deltas("20.00")))
	require.NoError(t, s.MarkDeleted(ctx, drop.ID, "a", time.Now().UTC(), ledger.Invert(deltas("20.00"))))

	active, err := s.ListTransactions(ctx, budgetID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	all, err := s.ListTransactions(ctx, budgetID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// ENTITY CRUD
// =============================================================================

func TestSaveEnvelope_UpsertNeverResetsBalances(t *testing.T) {
	s := newTestStore(t)
	budgetID, envelopeID, sourceID := seedEntities(t, s)
	ctx := context.Background()

	tx := incomeTx(budgetID, sourceID, "50.00")
	require.NoError(t, s.CreateTransaction(ctx, tx, []ledger.Delta{
		{EnvelopeID: envelopeID, Field: ledger.FieldBalance, Amount: dec("50.00")},
	}))

	// A rename re-saves the entity with a zero balance struct; the stored
	// balance must survive.
	require.NoError(t, s.SaveEnvelope(ctx, ledger.Envelope{
		ID: envelopeID, BudgetID: budgetID, Name: "Food", Kind: ledger.EnvelopeRegular,
		CreatedAt: time.Now().UTC(),
	}))

	env, err := s.GetEnvelope(ctx, envelopeID)
	require.NoError(t, err)
	assert.Equal(t, "Food", env.Name)
	assert.True(t, env.CurrentBalance.Equal(dec("50.00")))
}

func TestGetters_ReturnNilForMissingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.GetBudget(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, b)

	e, err := s.GetEnvelope(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, e)

	tx, err := s.GetTransaction(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, tx)
}
