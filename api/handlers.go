/*
handlers.go - HTTP API handlers for the envelope-budgeting ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every balance decision to the engine.

ENDPOINTS:
  Budgets:
    GET    /api/budgets                        List budgets
    POST   /api/budgets                        Create budget
    GET    /api/budgets/{id}                   Budget with envelope balances

  Entities:
    GET/POST /api/budgets/{id}/envelopes
    GET/POST /api/budgets/{id}/payees
    GET/POST /api/budgets/{id}/income-sources

  Transactions:
    POST   /api/budgets/{id}/transactions      Record a transaction
    GET    /api/budgets/{id}/transactions      List (?include_deleted=true)
    GET    /api/transactions/{id}              Get one
    PATCH  /api/transactions/{id}              Update non-financial fields
    DELETE /api/transactions/{id}              Soft delete (reverses effect)
    POST   /api/transactions/{id}/restore      Restore (reapplies effect)

ERROR HANDLING:
  Engine errors map onto HTTP status by kind, never by string matching:
  - 400: validation (shape, amount, cross-budget, same-envelope, overdraft)
  - 404: budget/envelope/payee/source/transaction not found
  - 409: stale reference, already-deleted, not-deleted
  - 500: anything else
  None of the enumerated engine conditions ever produces a 500.

ACTOR:
  Soft delete and restore record who acted. The actor comes from the
  X-Actor header; "api" when absent. No authentication layer exists here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
	"github.com/warp/envelope-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *ledger.Engine
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *ledger.Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// ListBudgets returns all budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.Store.ListBudgets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudget creates a budget with a zero available pool.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	b := ledger.Budget{
		ID:        ledger.BudgetID(uuid.NewString()),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveBudget(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(b))
}

// GetBudget returns a budget together with its envelopes.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	budget, err := h.Store.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get budget", err)
		return
	}
	if budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", nil)
		return
	}

	envelopes, err := h.Store.ListEnvelopes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list envelopes", err)
		return
	}

	envDTOs := make([]EnvelopeDTO, len(envelopes))
	for i, e := range envelopes {
		envDTOs[i] = toEnvelopeDTO(e)
	}
	writeJSON(w, http.StatusOK, struct {
		BudgetDTO
		Envelopes []EnvelopeDTO `json:"envelopes"`
	}{toBudgetDTO(*budget), envDTOs})
}

// =============================================================================
// ENVELOPE / PAYEE / INCOME SOURCE HANDLERS
// =============================================================================

// ListEnvelopes returns a budget's envelopes.
func (h *Handler) ListEnvelopes(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	envelopes, err := h.Store.ListEnvelopes(r.Context(), budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list envelopes", err)
		return
	}

	dtos := make([]EnvelopeDTO, len(envelopes))
	for i, e := range envelopes {
		dtos[i] = toEnvelopeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEnvelope creates an envelope under a budget. Debt envelopes may
// carry an opening principal; balances start at zero either way.
func (h *Handler) CreateEnvelope(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	var req CreateEnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	kind := ledger.EnvelopeKind(req.Kind)
	if kind == "" {
		kind = ledger.EnvelopeRegular
	}
	switch kind {
	case ledger.EnvelopeRegular, ledger.EnvelopeSavings, ledger.EnvelopeDebt:
	default:
		writeError(w, http.StatusBadRequest, "invalid envelope kind", nil)
		return
	}

	debt := decimal.Zero
	if req.DebtBalance != "" {
		if kind != ledger.EnvelopeDebt {
			writeError(w, http.StatusBadRequest, "debt_balance is only valid for debt envelopes", nil)
			return
		}
		var err error
		if debt, err = decimal.NewFromString(req.DebtBalance); err != nil {
			writeError(w, http.StatusBadRequest, "invalid debt_balance", err)
			return
		}
	}

	if budget, err := h.Store.GetBudget(r.Context(), budgetID); err != nil || budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", err)
		return
	}

	e := ledger.Envelope{
		ID:          ledger.EnvelopeID(uuid.NewString()),
		BudgetID:    budgetID,
		Name:        req.Name,
		Kind:        kind,
		DebtBalance: debt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveEnvelope(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create envelope", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnvelopeDTO(e))
}

// ListPayees returns a budget's payees.
func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	payees, err := h.Store.ListPayees(r.Context(), budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payees", err)
		return
	}

	dtos := make([]PayeeDTO, len(payees))
	for i, p := range payees {
		dtos[i] = toPayeeDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayee creates a payee under a budget.
func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	var req CreatePayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	kind := ledger.PayeeKind(req.Kind)
	if kind == "" {
		kind = ledger.PayeeRegular
	}
	if kind != ledger.PayeeRegular && kind != ledger.PayeeDebt {
		writeError(w, http.StatusBadRequest, "invalid payee kind", nil)
		return
	}

	if budget, err := h.Store.GetBudget(r.Context(), budgetID); err != nil || budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", err)
		return
	}

	p := ledger.Payee{
		ID:        ledger.PayeeID(uuid.NewString()),
		BudgetID:  budgetID,
		Name:      req.Name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SavePayee(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayeeDTO(p))
}

// ListIncomeSources returns a budget's income sources.
func (h *Handler) ListIncomeSources(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	sources, err := h.Store.ListIncomeSources(r.Context(), budgetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list income sources", err)
		return
	}

	dtos := make([]IncomeSourceDTO, len(sources))
	for i, s := range sources {
		dtos[i] = toIncomeSourceDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateIncomeSource creates an income source under a budget.
func (h *Handler) CreateIncomeSource(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	var req CreateIncomeSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if budget, err := h.Store.GetBudget(r.Context(), budgetID); err != nil || budget == nil {
		writeError(w, http.StatusNotFound, "Budget not found", err)
		return
	}

	s := ledger.IncomeSource{
		ID:        ledger.IncomeSourceID(uuid.NewString()),
		BudgetID:  budgetID,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveIncomeSource(r.Context(), s); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create income source", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncomeSourceDTO(s))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records a transaction and returns it with the
// post-update balances of every entity it touched.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}

	spec, err := specFromRequest(req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	details := ledger.Details{
		Description: req.Description,
		Cleared:     req.Cleared,
	}
	if req.Date != "" {
		if details.Date, err = parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
	}

	res, err := h.Engine.CreateTransaction(r.Context(), budgetID, spec, amount, details)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMutationResponse(res))
}

// ListTransactions returns a budget's transactions, newest first. Soft
// deleted rows are included only with ?include_deleted=true.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	budgetID := ledger.BudgetID(chi.URLParam(r, "id"))
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	txs, err := h.Store.ListTransactions(r.Context(), budgetID, includeDeleted)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// GetTransaction returns a single transaction, deleted or not.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	tx, err := h.Store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get transaction", err)
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// UpdateTransaction rewrites description/date/cleared. Balances are
// untouched: this path never reaches the delta engine.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	details := ledger.Details{Description: req.Description, Cleared: req.Cleared}
	if req.Date != "" {
		var err error
		if details.Date, err = parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
	}

	tx, err := h.Engine.UpdateDetails(r.Context(), id, details)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// SoftDeleteTransaction reverses a transaction's balance effects and marks
// it deleted. Deleting twice is a 409, never a double reversal.
func (h *Handler) SoftDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	res, err := h.Engine.SoftDeleteTransaction(r.Context(), id, actorFrom(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(res))
}

// RestoreTransaction reapplies a deleted transaction's effects.
func (h *Handler) RestoreTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	res, err := h.Engine.RestoreTransaction(r.Context(), id, actorFrom(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMutationResponse(res))
}

// =============================================================================
// HELPERS
// =============================================================================

// specFromRequest builds the tagged-union spec for the declared type.
// Fields not required by the type are ignored, per the validation contract.
func specFromRequest(req CreateTransactionRequest) (ledger.Spec, error) {
	switch ledger.TransactionType(req.Type) {
	case ledger.TxIncome:
		return ledger.Income{SourceID: ledger.IncomeSourceID(req.IncomeSourceID)}, nil
	case ledger.TxAllocation:
		return ledger.Allocation{ToEnvelopeID: ledger.EnvelopeID(req.ToEnvelopeID)}, nil
	case ledger.TxExpense:
		return ledger.Expense{
			FromEnvelopeID: ledger.EnvelopeID(req.FromEnvelopeID),
			PayeeID:        ledger.PayeeID(req.PayeeID),
		}, nil
	case ledger.TxTransfer:
		return ledger.Transfer{
			FromEnvelopeID: ledger.EnvelopeID(req.FromEnvelopeID),
			ToEnvelopeID:   ledger.EnvelopeID(req.ToEnvelopeID),
		}, nil
	case ledger.TxDebtPayment:
		return ledger.DebtPayment{
			FromEnvelopeID: ledger.EnvelopeID(req.FromEnvelopeID),
			PayeeID:        ledger.PayeeID(req.PayeeID),
		}, nil
	default:
		return nil, &ledger.UnknownTypeError{Type: ledger.TransactionType(req.Type)}
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}

// statusFor maps engine error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	switch status {
	case http.StatusBadRequest:
		resp.Code = "validation"
	case http.StatusNotFound:
		resp.Code = "not_found"
	case http.StatusConflict:
		resp.Code = "conflict"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
