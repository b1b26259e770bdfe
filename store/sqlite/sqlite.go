/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store plus the entity CRUD the API layer needs. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences (SELECT ... FOR UPDATE instead of the single-writer model).

ATOMICITY:
  Every balance mutation runs inside one database transaction: the
  transaction row change and all balance updates commit together or roll
  back together. Balance columns are read, adjusted with decimal arithmetic
  in Go, and written back inside the same transaction, so no in-database
  float math ever touches money.

LOCK ORDERING:
  Deltas arrive pre-sorted (budget row first, then envelopes by ascending
  id) and are applied in that order. Combined with the store-level write
  mutex and SQLite's single-writer model, concurrent read-modify-write
  sequences on the same rows can never interleave or deadlock.

KEY TABLES:
  budgets:         available_amount, the unallocated pool
  envelopes:       current_balance (+ debt_balance for debt envelopes)
  payees:          counterparties for expenses and debt payments
  income_sources:  counterparties for income
  transactions:    one row per balance change, soft-deletable

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  readers don't block the writer and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions and contracts
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// Store implements ledger.Store and the entity CRUD using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		available_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS envelopes (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'regular',
		current_balance TEXT NOT NULL DEFAULT '0',
		debt_balance TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_envelopes_budget
		ON envelopes(budget_id);

	CREATE TABLE IF NOT EXISTS payees (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'regular',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payees_budget
		ON payees(budget_id);

	CREATE TABLE IF NOT EXISTS income_sources (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_income_sources_budget
		ON income_sources(budget_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id),
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		from_envelope_id TEXT,
		to_envelope_id TEXT,
		payee_id TEXT,
		income_source_id TEXT,
		description TEXT,
		date TEXT NOT NULL,
		cleared BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TEXT,
		deleted_by TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: transaction listings per budget
	CREATE INDEX IF NOT EXISTS idx_transactions_budget_date
		ON transactions(budget_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_budget_deleted
		ON transactions(budget_id, is_deleted);
	CREATE INDEX IF NOT EXISTS idx_transactions_from_envelope
		ON transactions(from_envelope_id) WHERE from_envelope_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_to_envelope
		ON transactions(to_envelope_id) WHERE to_envelope_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTITY READER (ledger.EntityReader interface)
// =============================================================================

func (s *Store) GetBudget(ctx context.Context, id ledger.BudgetID) (*ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b ledger.Budget
	var available, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, available_amount, created_at FROM budgets WHERE id = ?", id,
	).Scan(&b.ID, &b.Name, &available, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.AvailableAmount = ledger.MustParseDecimal(available)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}

func (s *Store) GetEnvelope(ctx context.Context, id ledger.EnvelopeID) (*ledger.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e ledger.Envelope
	var balance, debt, createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, budget_id, name, kind, current_balance, debt_balance, created_at
		 FROM envelopes WHERE id = ?`, id,
	).Scan(&e.ID, &e.BudgetID, &e.Name, &e.Kind, &balance, &debt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.CurrentBalance = ledger.MustParseDecimal(balance)
	e.DebtBalance = ledger.MustParseDecimal(debt)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func (s *Store) GetPayee(ctx context.Context, id ledger.PayeeID) (*ledger.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p ledger.Payee
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, budget_id, name, kind, created_at FROM payees WHERE id = ?", id,
	).Scan(&p.ID, &p.BudgetID, &p.Name, &p.Kind, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) GetIncomeSource(ctx context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var src ledger.IncomeSource
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, budget_id, name, created_at FROM income_sources WHERE id = ?", id,
	).Scan(&src.ID, &src.BudgetID, &src.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	src.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &src, nil
}

func (s *Store) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, selectTransaction+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

// =============================================================================
// ATOMIC MUTATIONS (ledger.Store interface)
// =============================================================================

// CreateTransaction inserts the row and applies all deltas in one database
// transaction. Either every row changes and the record is persisted, or
// nothing does.
func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction, deltas []ledger.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO transactions
		(id, budget_id, tx_type, amount, from_envelope_id, to_envelope_id,
		 payee_id, income_source_id, description, date, cleared,
		 is_deleted, deleted_at, deleted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, NULL, NULL, ?)`,
		tx.ID, tx.BudgetID, tx.Type, tx.Amount.String(),
		nullString(string(tx.FromEnvelopeID)),
		nullString(string(tx.ToEnvelopeID)),
		nullString(string(tx.PayeeID)),
		nullString(string(tx.IncomeSourceID)),
		tx.Description,
		tx.Date.UTC().Format(time.RFC3339),
		tx.Cleared,
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := applyDeltas(ctx, sqlTx, deltas); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// MarkDeleted flips the row to deleted and applies the inverted deltas. The
// is_deleted guard on the UPDATE makes a concurrent double-delete lose with
// ErrAlreadyDeleted instead of double-reversing.
func (s *Store) MarkDeleted(ctx context.Context, id ledger.TransactionID, actor string, at time.Time, deltas []ledger.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE transactions
		SET is_deleted = TRUE, deleted_at = ?, deleted_by = ?
		WHERE id = ? AND is_deleted = FALSE`,
		at.UTC().Format(time.RFC3339), actor, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark deleted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return transitionConflict(ctx, sqlTx, id, true)
	}

	if err := applyDeltas(ctx, sqlTx, deltas); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// MarkRestored flips the row back to active and reapplies the deltas.
func (s *Store) MarkRestored(ctx context.Context, id ledger.TransactionID, deltas []ledger.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE transactions
		SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL
		WHERE id = ? AND is_deleted = TRUE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark restored: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return transitionConflict(ctx, sqlTx, id, false)
	}

	if err := applyDeltas(ctx, sqlTx, deltas); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// transitionConflict classifies a guarded UPDATE that matched no row: the
// transaction is either missing or already in the target state.
func transitionConflict(ctx context.Context, sqlTx *sql.Tx, id ledger.TransactionID, deleting bool) error {
	var isDeleted bool
	err := sqlTx.QueryRowContext(ctx,
		"SELECT is_deleted FROM transactions WHERE id = ?", id).Scan(&isDeleted)
	if err == sql.ErrNoRows {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	if err != nil {
		return err
	}
	if deleting {
		return ledger.ErrAlreadyDeleted
	}
	return ledger.ErrNotDeleted
}

// UpdateTransactionDetails rewrites only the non-financial columns. No
// balance column may ever be named in this statement.
func (s *Store) UpdateTransactionDetails(ctx context.Context, id ledger.TransactionID, details ledger.Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET description = ?, date = ?, cleared = ?
		WHERE id = ?`,
		details.Description, details.Date.UTC().Format(time.RFC3339), details.Cleared, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "transaction", ID: string(id)}
	}
	return nil
}

// applyDeltas applies a pre-sorted delta set inside sqlTx. Each balance is
// read, adjusted in Go with decimal arithmetic, and written back; a missing
// row surfaces as ErrStaleReference and rolls the whole write back.
func applyDeltas(ctx context.Context, sqlTx *sql.Tx, deltas []ledger.Delta) error {
	for _, d := range deltas {
		var table, column, id string
		switch {
		case d.BudgetID != "":
			table, column, id = "budgets", "available_amount", string(d.BudgetID)
		case d.EnvelopeID != "":
			table, id = "envelopes", string(d.EnvelopeID)
			if d.Field == ledger.FieldDebtBalance {
				column = "debt_balance"
			} else {
				column = "current_balance"
			}
		default:
			continue
		}

		var current string
		err := sqlTx.QueryRowContext(ctx,
			"SELECT "+column+" FROM "+table+" WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return ledger.ErrStaleReference
		}
		if err != nil {
			return err
		}

		next, err := decimal.NewFromString(current)
		if err != nil {
			return fmt.Errorf("corrupt %s.%s for %s: %w", table, column, id, err)
		}
		next = next.Add(d.Amount)

		res, err := sqlTx.ExecContext(ctx,
			"UPDATE "+table+" SET "+column+" = ? WHERE id = ?", next.String(), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ledger.ErrStaleReference
		}
	}
	return nil
}

// =============================================================================
// ENTITY CRUD (API layer)
// =============================================================================

// SaveBudget inserts or renames a budget. available_amount is written only
// on insert; the delta engine owns it afterwards.
func (s *Store) SaveBudget(ctx context.Context, b ledger.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, name, available_amount, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		b.ID, b.Name, b.AvailableAmount.String(),
		b.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListBudgets returns all budgets.
func (s *Store) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, available_amount, created_at FROM budgets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []ledger.Budget
	for rows.Next() {
		var b ledger.Budget
		var available, createdAt string
		if err := rows.Scan(&b.ID, &b.Name, &available, &createdAt); err != nil {
			return nil, err
		}
		b.AvailableAmount = ledger.MustParseDecimal(available)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// SaveEnvelope inserts or renames an envelope. Balance columns are written
// only on insert; the delta engine owns them afterwards.
func (s *Store) SaveEnvelope(ctx context.Context, e ledger.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO envelopes (id, budget_id, name, kind, current_balance, debt_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		e.ID, e.BudgetID, e.Name, e.Kind,
		e.CurrentBalance.String(), e.DebtBalance.String(),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListEnvelopes returns all envelopes of a budget.
func (s *Store) ListEnvelopes(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, name, kind, current_balance, debt_balance, created_at
		FROM envelopes WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var envelopes []ledger.Envelope
	for rows.Next() {
		var e ledger.Envelope
		var balance, debt, createdAt string
		if err := rows.Scan(&e.ID, &e.BudgetID, &e.Name, &e.Kind, &balance, &debt, &createdAt); err != nil {
			return nil, err
		}
		e.CurrentBalance = ledger.MustParseDecimal(balance)
		e.DebtBalance = ledger.MustParseDecimal(debt)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		envelopes = append(envelopes, e)
	}
	return envelopes, rows.Err()
}

// SavePayee inserts or renames a payee.
func (s *Store) SavePayee(ctx context.Context, p ledger.Payee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payees (id, budget_id, name, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		p.ID, p.BudgetID, p.Name, p.Kind,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListPayees returns all payees of a budget.
func (s *Store) ListPayees(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, budget_id, name, kind, created_at FROM payees WHERE budget_id = ? ORDER BY name",
		budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payees []ledger.Payee
	for rows.Next() {
		var p ledger.Payee
		var createdAt string
		if err := rows.Scan(&p.ID, &p.BudgetID, &p.Name, &p.Kind, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		payees = append(payees, p)
	}
	return payees, rows.Err()
}

// SaveIncomeSource inserts or renames an income source.
func (s *Store) SaveIncomeSource(ctx context.Context, src ledger.IncomeSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income_sources (id, budget_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		src.ID, src.BudgetID, src.Name,
		src.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListIncomeSources returns all income sources of a budget.
func (s *Store) ListIncomeSources(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, budget_id, name, created_at FROM income_sources WHERE budget_id = ? ORDER BY name",
		budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []ledger.IncomeSource
	for rows.Next() {
		var src ledger.IncomeSource
		var createdAt string
		if err := rows.Scan(&src.ID, &src.BudgetID, &src.Name, &createdAt); err != nil {
			return nil, err
		}
		src.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// ListTransactions returns a budget's transactions, newest first. Deleted
// rows are excluded unless includeDeleted is set.
func (s *Store) ListTransactions(ctx context.Context, budgetID ledger.BudgetID, includeDeleted bool) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectTransaction + " WHERE budget_id = ?"
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}
	query += " ORDER BY date DESC, created_at DESC"

	return s.queryTransactions(ctx, query, budgetID)
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"transactions", "envelopes", "payees", "income_sources", "budgets"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

const selectTransaction = `
	SELECT id, budget_id, tx_type, amount, from_envelope_id, to_envelope_id,
	       payee_id, income_source_id, description, date, cleared,
	       is_deleted, deleted_at, deleted_by, created_at
	FROM transactions`

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (ledger.Transaction, error) {
	var (
		tx           ledger.Transaction
		amount       string
		fromEnvelope sql.NullString
		toEnvelope   sql.NullString
		payee        sql.NullString
		source       sql.NullString
		description  sql.NullString
		date         string
		deletedAt    sql.NullString
		deletedBy    sql.NullString
		createdAt    string
	)

	err := rows.Scan(
		&tx.ID, &tx.BudgetID, &tx.Type, &amount, &fromEnvelope, &toEnvelope,
		&payee, &source, &description, &date, &tx.Cleared,
		&tx.IsDeleted, &deletedAt, &deletedBy, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Amount = ledger.MustParseDecimal(amount)
	tx.FromEnvelopeID = ledger.EnvelopeID(fromEnvelope.String)
	tx.ToEnvelopeID = ledger.EnvelopeID(toEnvelope.String)
	tx.PayeeID = ledger.PayeeID(payee.String)
	tx.IncomeSourceID = ledger.IncomeSourceID(source.String)
	tx.Description = description.String
	tx.Date, _ = time.Parse(time.RFC3339, date)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	tx.DeletedBy = deletedBy.String
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		tx.DeletedAt = &t
	}

	return tx, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
