package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/ledger"
	"github.com/warp/envelope-ledger/ledger/store"
)

// =============================================================================
// FIXTURE
// =============================================================================

// fixture is one budget with an envelope of each kind, a payee of each kind,
// and an income source, ready for transactions.
type fixture struct {
	store  *store.Memory
	engine *ledger.Engine

	budget    ledger.Budget
	groceries ledger.Envelope
	vacation  ledger.Envelope
	carLoan   ledger.Envelope
	grocer    ledger.Payee
	bank      ledger.Payee
	salary    ledger.IncomeSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{store: store.NewMemory()}
	f.engine = ledger.NewEngine(f.store)

	f.budget = ledger.Budget{ID: "b-1", Name: "Household"}
	f.groceries = ledger.Envelope{ID: "e-groceries", BudgetID: "b-1", Name: "Groceries", Kind: ledger.EnvelopeRegular}
	f.vacation = ledger.Envelope{ID: "e-vacation", BudgetID: "b-1", Name: "Vacation", Kind: ledger.EnvelopeSavings}
	f.carLoan = ledger.Envelope{
		ID: "e-car-loan", BudgetID: "b-1", Name: "Car Loan",
		Kind: ledger.EnvelopeDebt, DebtBalance: dec("2500.00"),
	}
	f.grocer = ledger.Payee{ID: "p-grocer", BudgetID: "b-1", Name: "Corner Grocer", Kind: ledger.PayeeRegular}
	f.bank = ledger.Payee{ID: "p-bank", BudgetID: "b-1", Name: "Auto Finance Co", Kind: ledger.PayeeDebt}
	f.salary = ledger.IncomeSource{ID: "s-salary", BudgetID: "b-1", Name: "Salary"}

	f.store.PutBudget(f.budget)
	f.store.PutEnvelope(f.groceries)
	f.store.PutEnvelope(f.vacation)
	f.store.PutEnvelope(f.carLoan)
	f.store.PutPayee(f.grocer)
	f.store.PutPayee(f.bank)
	f.store.PutIncomeSource(f.salary)
	return f
}

func (f *fixture) create(t *testing.T, spec ledger.Spec, amount string) *ledger.Result {
	t.Helper()
	res, err := f.engine.CreateTransaction(context.Background(), f.budget.ID, spec, dec(amount), ledger.Details{})
	require.NoError(t, err)
	return res
}

func (f *fixture) budgetAvailable(t *testing.T) string {
	t.Helper()
	b, err := f.store.GetBudget(context.Background(), f.budget.ID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.AvailableAmount.String()
}

func (f *fixture) envelope(t *testing.T, id ledger.EnvelopeID) ledger.Envelope {
	t.Helper()
	e, err := f.store.GetEnvelope(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, e)
	return *e
}

// =============================================================================
// CREATE: THE FIVE TYPES
// =============================================================================

func TestCreateIncome_FundsAvailablePool(t *testing.T) {
	// GIVEN an empty budget
	f := newFixture(t)

	// WHEN a paycheck arrives
	res := f.create(t, ledger.Income{SourceID: f.salary.ID}, "3000.00")

	// THEN only the available pool moved
	assert.Equal(t, "3000", f.budgetAvailable(t))
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.IsZero())

	// AND the result carries the post-update budget
	assert.True(t, res.Budget.AvailableAmount.Equal(dec("3000.00")))
	assert.Empty(t, res.Envelopes)
	assert.Equal(t, ledger.TxIncome, res.Transaction.Type)
	assert.NotEmpty(t, res.Transaction.ID)
}

func TestCreateAllocation_MovesPoolIntoEnvelope(t *testing.T) {
	// GIVEN a funded budget
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "3000.00")

	// WHEN money is allocated to groceries
	res := f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "500.00")

	// THEN the pool shrank and the envelope grew by the same amount
	assert.Equal(t, "2500", f.budgetAvailable(t))
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("500.00")))

	require.Len(t, res.Envelopes, 1)
	assert.Equal(t, f.groceries.ID, res.Envelopes[0].ID)
	assert.True(t, res.Envelopes[0].CurrentBalance.Equal(dec("500.00")))
}

func TestCreateExpense_SpendsFromEnvelopeOnly(t *testing.T) {
	// GIVEN a funded groceries envelope
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "3000.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "500.00")

	// WHEN an expense is recorded against it
	f.create(t, ledger.Expense{FromEnvelopeID: f.groceries.ID, PayeeID: f.grocer.ID}, "82.45")

	// THEN the envelope absorbed the spend and the pool did not move
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("417.55")))
	assert.Equal(t, "2500", f.budgetAvailable(t))
}

func TestCreateTransfer_IsZeroSumBetweenEnvelopes(t *testing.T) {
	// GIVEN two funded envelopes
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "1000.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "400.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.vacation.ID}, "100.00")

	// WHEN money moves from groceries to vacation
	res := f.create(t, ledger.Transfer{FromEnvelopeID: f.groceries.ID, ToEnvelopeID: f.vacation.ID}, "150.00")

	// THEN the balances shifted and nothing else changed
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("250.00")))
	assert.True(t, f.envelope(t, f.vacation.ID).CurrentBalance.Equal(dec("250.00")))
	assert.Equal(t, "500", f.budgetAvailable(t))
	assert.Len(t, res.Envelopes, 2)
}

func TestCreateDebtPayment_ReducesBalanceAndPrincipal(t *testing.T) {
	// GIVEN a debt envelope funded for this month's installment
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "1000.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.carLoan.ID}, "300.00")

	// WHEN the installment is paid
	f.create(t, ledger.DebtPayment{FromEnvelopeID: f.carLoan.ID, PayeeID: f.bank.ID}, "300.00")

	// THEN both the envelope balance and the tracked principal dropped
	loan := f.envelope(t, f.carLoan.ID)
	assert.True(t, loan.CurrentBalance.IsZero())
	assert.True(t, loan.DebtBalance.Equal(dec("2200.00")))
}

// =============================================================================
// CREATE: REJECTIONS
// =============================================================================

func TestCreate_UnknownEntityIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateTransaction(context.Background(), f.budget.ID,
		ledger.Allocation{ToEnvelopeID: "e-nope"}, dec("10.00"), ledger.Details{})
	require.Error(t, err)
	assert.True(t, ledger.IsNotFound(err))

	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "envelope", nf.Kind)
}

func TestCreate_CrossBudgetReferenceRejected(t *testing.T) {
	// GIVEN an envelope that belongs to a different budget
	f := newFixture(t)
	f.store.PutBudget(ledger.Budget{ID: "b-2", Name: "Other"})
	f.store.PutEnvelope(ledger.Envelope{ID: "e-other", BudgetID: "b-2", Kind: ledger.EnvelopeRegular})

	// WHEN a transaction on b-1 references it
	_, err := f.engine.CreateTransaction(context.Background(), f.budget.ID,
		ledger.Allocation{ToEnvelopeID: "e-other"}, dec("10.00"), ledger.Details{})

	// THEN the scoping rule fires even though the envelope exists
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrCrossBudgetReference)
	assert.True(t, ledger.IsValidation(err))
}

func TestCreate_DebtPaymentFromRegularEnvelopeRejected(t *testing.T) {
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "500.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "300.00")

	_, err := f.engine.CreateTransaction(context.Background(), f.budget.ID,
		ledger.DebtPayment{FromEnvelopeID: f.groceries.ID, PayeeID: f.bank.ID}, dec("100.00"), ledger.Details{})
	assert.ErrorIs(t, err, ledger.ErrWrongEnvelopeKind)

	// Nothing moved.
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("300.00")))
}

func TestCreate_FailedValidationLeavesBalancesUntouched(t *testing.T) {
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "100.00")

	_, err := f.engine.CreateTransaction(context.Background(), f.budget.ID,
		ledger.Transfer{FromEnvelopeID: f.groceries.ID, ToEnvelopeID: f.groceries.ID}, dec("10.00"), ledger.Details{})
	assert.ErrorIs(t, err, ledger.ErrSameEnvelopeTransfer)
	assert.Equal(t, "100", f.budgetAvailable(t))
}

// =============================================================================
// OVERDRAFT POLICY
// =============================================================================

func TestOverdraft_AllowedByDefault(t *testing.T) {
	// GIVEN the default engine and an unfunded envelope
	f := newFixture(t)

	// WHEN spending past zero
	f.create(t, ledger.Expense{FromEnvelopeID: f.groceries.ID, PayeeID: f.grocer.ID}, "25.00")

	// THEN the balance simply goes negative
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("-25.00")))
}

func TestOverdraft_StrictModeRejectsNegativeBalances(t *testing.T) {
	// GIVEN a strict engine over the same data
	f := newFixture(t)
	strict := ledger.NewEngineWithConfig(f.store, ledger.Config{AllowOverdraft: false})

	_, err := strict.CreateTransaction(context.Background(), f.budget.ID,
		ledger.Expense{FromEnvelopeID: f.groceries.ID, PayeeID: f.grocer.ID}, dec("25.00"), ledger.Details{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrOverdraft)

	var od *ledger.OverdraftError
	require.ErrorAs(t, err, &od)
	assert.Equal(t, "envelope", od.Kind)
	assert.True(t, od.Requested.Equal(dec("25.00")))
}

func TestOverdraft_StrictModeGuardsAvailablePool(t *testing.T) {
	f := newFixture(t)
	strict := ledger.NewEngineWithConfig(f.store, ledger.Config{AllowOverdraft: false})

	_, err := strict.CreateTransaction(context.Background(), f.budget.ID,
		ledger.Allocation{ToEnvelopeID: f.groceries.ID}, dec("50.00"), ledger.Details{})
	assert.ErrorIs(t, err, ledger.ErrOverdraft)
}

func TestOverdraft_StrictModeIgnoresDebtPrincipal(t *testing.T) {
	// Debt principal going past zero is not an overdraft; only the envelope
	// balance is guarded.
	f := newFixture(t)
	strict := ledger.NewEngineWithConfig(f.store, ledger.Config{AllowOverdraft: false})

	f.create(t, ledger.Income{SourceID: f.salary.ID}, "5000.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.carLoan.ID}, "3000.00")

	// 3000 > the 2500 principal, but the envelope holds 3000, so it passes.
	_, err := strict.CreateTransaction(context.Background(), f.budget.ID,
		ledger.DebtPayment{FromEnvelopeID: f.carLoan.ID, PayeeID: f.bank.ID}, dec("3000.00"), ledger.Details{})
	require.NoError(t, err)
	assert.True(t, f.envelope(t, f.carLoan.ID).DebtBalance.Equal(dec("-500.00")))
}

// =============================================================================
// SOFT DELETE / RESTORE
// =============================================================================

func TestSoftDelete_ReversesEveryBalanceEffect(t *testing.T) {
	// GIVEN a funded envelope and a recorded expense
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "1000.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "400.00")
	created := f.create(t, ledger.Expense{FromEnvelopeID: f.groceries.ID, PayeeID: f.grocer.ID}, "60.00")

	// WHEN the expense is soft-deleted
	res, err := f.engine.SoftDeleteTransaction(context.Background(), created.Transaction.ID, "alice")
	require.NoError(t, err)

	// THEN the envelope is back where it was before the expense
	assert.True(t, f.envelope(t, f.groceries.ID).CurrentBalance.Equal(dec("400.00")))

	// AND the row survives as an audit record
	assert.True(t, res.Transaction.IsDeleted)
	assert.Equal(t, "alice", res.Transaction.DeletedBy)
	require.NotNil(t, res.Transaction.DeletedAt)

	stored, err := f.store.GetTransaction(context.Background(), created.Transaction.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsDeleted)
	assert.True(t, stored.Amount.Equal(dec("60.00")))
}

func TestDeleteThenRestore_IsIdentityOnAllBalances(t *testing.T) {
	// GIVEN one transaction of every type
	f := newFixture(t)
	results := []*ledger.Result{
		f.create(t, ledger.Income{SourceID: f.salary.ID}, "2000.00"),
		f.create(t, ledger.Allocation{ToEnvelopeID: f.groceries.ID}, "600.00"),
		f.create(t, ledger.Allocation{ToEnvelopeID: f.carLoan.ID}, "300.00"),
		f.create(t, ledger.Expense{FromEnvelopeID: f.groceries.ID, PayeeID: f.grocer.ID}, "75.25"),
		f.create(t, ledger.Transfer{FromEnvelopeID: f.groceries.ID, ToEnvelopeID: f.vacation.ID}, "50.00"),
		f.create(t, ledger.DebtPayment{FromEnvelopeID: f.carLoan.ID, PayeeID: f.bank.ID}, "300.00"),
	}

	before := map[ledger.EnvelopeID]ledger.Envelope{
		f.groceries.ID: f.envelope(t, f.groceries.ID),
		f.vacation.ID:  f.envelope(t, f.vacation.ID),
		f.carLoan.ID:   f.envelope(t, f.carLoan.ID),
	}
	availableBefore := f.budgetAvailable(t)

	// WHEN every transaction is deleted and then restored
	for _, r := range results {
		_, err := f.engine.SoftDeleteTransaction(context.Background(), r.Transaction.ID, "test")
		require.NoError(t, err)
	}
	for _, r := range results {
		_, err := f.engine.RestoreTransaction(context.Background(), r.Transaction.ID, "test")
		require.NoError(t, err)
	}

	// THEN every balance matches its pre-delete value exactly
	assert.Equal(t, availableBefore, f.budgetAvailable(t))
	for id, env := range before {
		got := f.envelope(t, id)
		assert.True(t, got.CurrentBalance.Equal(env.CurrentBalance), "%s balance", id)
		assert.True(t, got.DebtBalance.Equal(env.DebtBalance), "%s debt", id)
	}
}

func TestSoftDelete_TwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, ledger.Income{SourceID: f.salary.ID}, "100.00")

	_, err := f.engine.SoftDeleteTransaction(context.Background(), created.Transaction.ID, "a")
	require.NoError(t, err)

	// Second delete fails and must not double-reverse.
	_, err = f.engine.SoftDeleteTransaction(context.Background(), created.Transaction.ID, "a")
	assert.ErrorIs(t, err, ledger.ErrAlreadyDeleted)
	assert.True(t, ledger.IsConflict(err))
	assert.Equal(t, "0", f.budgetAvailable(t))
}

func TestRestore_ActiveTransactionIsConflict(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, ledger.Income{SourceID: f.salary.ID}, "100.00")

	_, err := f.engine.RestoreTransaction(context.Background(), created.Transaction.ID, "a")
	assert.ErrorIs(t, err, ledger.ErrNotDeleted)
	assert.Equal(t, "100", f.budgetAvailable(t))
}

func TestSoftDelete_UnknownTransactionIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.SoftDeleteTransaction(context.Background(), "tx-nope", "a")
	assert.True(t, ledger.IsNotFound(err))
}

func TestRestore_AfterEnvelopeRemoved_IsStaleReference(t *testing.T) {
	// GIVEN a deleted expense whose envelope has since been hard-removed
	f := newFixture(t)
	f.create(t, ledger.Income{SourceID: f.salary.ID}, "500.00")
	f.create(t, ledger.Allocation{ToEnvelopeID: f.vacation.ID}, "200.00")
	created := f.create(t, ledger.Expense{FromEnvelopeID: f.vacation.ID, PayeeID: f.grocer.ID}, "20.00")
	_, err := f.engine.SoftDeleteTransaction(context.Background(), created.Transaction.ID, "a")
	require.NoError(t, err)

	f.store.RemoveEnvelope(f.vacation.ID)

	// WHEN the restore is attempted
	_, err = f.engine.RestoreTransaction(context.Background(), created.Transaction.ID, "a")

	// THEN the whole write is refused and the row stays deleted
	assert.ErrorIs(t, err, ledger.ErrStaleReference)
	stored, gerr := f.store.GetTransaction(context.Background(), created.Transaction.ID)
	require.NoError(t, gerr)
	assert.True(t, stored.IsDeleted)
}

// =============================================================================
// NON-FINANCIAL UPDATES
// =============================================================================

func TestUpdateDetails_NeverTouchesBalances(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, ledger.Income{SourceID: f.salary.ID}, "900.00")

	tx, err := f.engine.UpdateDetails(context.Background(), created.Transaction.ID, ledger.Details{
		Description: "corrected memo",
		Date:        created.Transaction.Date,
		Cleared:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "corrected memo", tx.Description)
	assert.True(t, tx.Cleared)

	assert.Equal(t, "900", f.budgetAvailable(t))
}
