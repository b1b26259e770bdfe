/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY IN JSON:
  Amounts travel as decimal strings ("125.50"), never as floats. Request
  amounts are parsed with decimal.NewFromString so "125.505" is rejected by
  the engine rather than silently rounded.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BudgetDTO represents a budget in API responses.
type BudgetDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// CreateBudgetRequest is the request to create a budget.
type CreateBudgetRequest struct {
	Name string `json:"name"`
}

// EnvelopeDTO represents an envelope in API responses. debt_balance is
// meaningful only for kind "debt".
type EnvelopeDTO struct {
	ID             string          `json:"id"`
	BudgetID       string          `json:"budget_id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	DebtBalance    decimal.Decimal `json:"debt_balance"`
	CreatedAt      string          `json:"created_at,omitempty"`
}

// CreateEnvelopeRequest is the request to create an envelope.
type CreateEnvelopeRequest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	DebtBalance string `json:"debt_balance,omitempty"` // opening principal, debt envelopes only
}

// PayeeDTO represents a payee in API responses.
type PayeeDTO struct {
	ID        string `json:"id"`
	BudgetID  string `json:"budget_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreatePayeeRequest is the request to create a payee.
type CreatePayeeRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// IncomeSourceDTO represents an income source in API responses.
type IncomeSourceDTO struct {
	ID        string `json:"id"`
	BudgetID  string `json:"budget_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateIncomeSourceRequest is the request to create an income source.
type CreateIncomeSourceRequest struct {
	Name string `json:"name"`
}

// CreateTransactionRequest is the request to record a transaction. Exactly
// the relation fields required by Type must be set; the rest are ignored.
type CreateTransactionRequest struct {
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	FromEnvelopeID string `json:"from_envelope_id,omitempty"`
	ToEnvelopeID   string `json:"to_envelope_id,omitempty"`
	PayeeID        string `json:"payee_id,omitempty"`
	IncomeSourceID string `json:"income_source_id,omitempty"`
	Description    string `json:"description,omitempty"`
	Date           string `json:"date,omitempty"` // RFC3339 or YYYY-MM-DD
	Cleared        bool   `json:"cleared,omitempty"`
}

// UpdateTransactionRequest rewrites non-financial fields only. Amount, type
// and relations are immutable once recorded.
type UpdateTransactionRequest struct {
	Description string `json:"description"`
	Date        string `json:"date"`
	Cleared     bool   `json:"cleared"`
}

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID             string          `json:"id"`
	BudgetID       string          `json:"budget_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	FromEnvelopeID string          `json:"from_envelope_id,omitempty"`
	ToEnvelopeID   string          `json:"to_envelope_id,omitempty"`
	PayeeID        string          `json:"payee_id,omitempty"`
	IncomeSourceID string          `json:"income_source_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	Date           string          `json:"date"`
	Cleared        bool            `json:"cleared"`
	IsDeleted      bool            `json:"is_deleted"`
	DeletedAt      *string         `json:"deleted_at,omitempty"`
	DeletedBy      string          `json:"deleted_by,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
}

// MutationResponse carries the affected transaction plus the post-update
// balances of every entity it touched, so a caller can display the new
// state without a second read.
type MutationResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Budget      BudgetDTO      `json:"budget"`
	Envelopes   []EnvelopeDTO  `json:"envelopes"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBudgetDTO(b ledger.Budget) BudgetDTO {
	return BudgetDTO{
		ID:              string(b.ID),
		Name:            b.Name,
		AvailableAmount: b.AvailableAmount,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

func toEnvelopeDTO(e ledger.Envelope) EnvelopeDTO {
	return EnvelopeDTO{
		ID:             string(e.ID),
		BudgetID:       string(e.BudgetID),
		Name:           e.Name,
		Kind:           string(e.Kind),
		CurrentBalance: e.CurrentBalance,
		DebtBalance:    e.DebtBalance,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toPayeeDTO(p ledger.Payee) PayeeDTO {
	return PayeeDTO{
		ID:        string(p.ID),
		BudgetID:  string(p.BudgetID),
		Name:      p.Name,
		Kind:      string(p.Kind),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toIncomeSourceDTO(s ledger.IncomeSource) IncomeSourceDTO {
	return IncomeSourceDTO{
		ID:        string(s.ID),
		BudgetID:  string(s.BudgetID),
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:             string(tx.ID),
		BudgetID:       string(tx.BudgetID),
		Type:           string(tx.Type),
		Amount:         tx.Amount,
		FromEnvelopeID: string(tx.FromEnvelopeID),
		ToEnvelopeID:   string(tx.ToEnvelopeID),
		PayeeID:        string(tx.PayeeID),
		IncomeSourceID: string(tx.IncomeSourceID),
		Description:    tx.Description,
		Date:           tx.Date.Format(time.RFC3339),
		Cleared:        tx.Cleared,
		IsDeleted:      tx.IsDeleted,
		DeletedBy:      tx.DeletedBy,
		CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.DeletedAt != nil {
		s := tx.DeletedAt.Format(time.RFC3339)
		dto.DeletedAt = &s
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toMutationResponse(res *ledger.Result) MutationResponse {
	out := MutationResponse{
		Transaction: toTransactionDTO(res.Transaction),
		Budget:      toBudgetDTO(res.Budget),
		Envelopes:   []EnvelopeDTO{},
	}
	for _, e := range res.Envelopes {
		out.Envelopes = append(out.Envelopes, toEnvelopeDTO(e))
	}
	return out
}
