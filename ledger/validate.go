/*
validate.go - Transaction type validation

PURPOSE:
  Decides, before any row is touched, whether a transaction request is
  well-formed for its declared type. Pure and read-free: a validator that
  passes today passes on retry, and a validator that fails has written
  nothing.

RULE TABLE (presence required, everything else absent by construction):

  type          required                         extra rules
  ------------  -------------------------------  ---------------------------
  income        income_source_id
  allocation    to_envelope_id
  expense       from_envelope_id, payee_id
  transfer      from_envelope_id, to_envelope_id from != to
  debt_payment  from_envelope_id, payee_id       from envelope kind = debt

  All types: amount strictly positive and representable at cent precision.

  The debt-envelope kind rule needs the resolved envelope row, so it lives
  in ValidateResolved rather than the shape check.

SEE ALSO:
  - spec.go: The variants being validated
  - resolver.go: Resolution and same-budget scoping
*/
package ledger

import "github.com/shopspring/decimal"

// ValidateAmount rejects amounts that are not strictly positive or that
// carry sub-cent precision. The engine never clamps or rounds; it rejects.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateSpec checks the shape of a spec against the rule table: required
// relations present, transfer endpoints distinct, amount valid. Performs no
// reads and no writes.
func ValidateSpec(spec Spec, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	switch s := spec.(type) {
	case Income:
		if s.SourceID == "" {
			return &MissingFieldError{Type: TxIncome, Field: "income_source_id"}
		}
	case Allocation:
		if s.ToEnvelopeID == "" {
			return &MissingFieldError{Type: TxAllocation, Field: "to_envelope_id"}
		}
	case Expense:
		if s.FromEnvelopeID == "" {
			return &MissingFieldError{Type: TxExpense, Field: "from_envelope_id"}
		}
		if s.PayeeID == "" {
			return &MissingFieldError{Type: TxExpense, Field: "payee_id"}
		}
	case Transfer:
		if s.FromEnvelopeID == "" {
			return &MissingFieldError{Type: TxTransfer, Field: "from_envelope_id"}
		}
		if s.ToEnvelopeID == "" {
			return &MissingFieldError{Type: TxTransfer, Field: "to_envelope_id"}
		}
		if s.FromEnvelopeID == s.ToEnvelopeID {
			return ErrSameEnvelopeTransfer
		}
	case DebtPayment:
		if s.FromEnvelopeID == "" {
			return &MissingFieldError{Type: TxDebtPayment, Field: "from_envelope_id"}
		}
		if s.PayeeID == "" {
			return &MissingFieldError{Type: TxDebtPayment, Field: "payee_id"}
		}
	default:
		return &UnknownTypeError{Type: spec.TxType()}
	}
	return nil
}

// ValidateResolved applies the rules that need resolved rows: a debt payment
// must draw from a debt envelope. Cross-budget scoping is already enforced
// by the resolver.
func ValidateResolved(spec Spec, res *Resolved) error {
	if _, ok := spec.(DebtPayment); ok {
		if res.FromEnvelope == nil || res.FromEnvelope.Kind != EnvelopeDebt {
			return ErrWrongEnvelopeKind
		}
	}
	return nil
}
