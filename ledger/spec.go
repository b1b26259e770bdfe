/*
spec.go - Tagged-union transaction specs

PURPOSE:
  Each transaction type carries a different set of required relations. Rather
  than one record with many nullable fields and "if type == X" branching,
  every type gets its own variant that can only hold its valid relations.
  A malformed request cannot even be constructed once it is parsed into a
  Spec, which removes a whole class of missing-field bugs.

VARIANTS:
  Income      -> income source only
  Allocation  -> destination envelope only
  Expense     -> source envelope + payee
  Transfer    -> source + destination envelopes
  DebtPayment -> source (debt) envelope + payee

SEE ALSO:
  - validate.go: Shape and amount validation over specs
  - delta.go: Delta computation dispatched on spec type
*/
package ledger

// Spec is the tagged union of the five transaction shapes. Implementations
// are value types carrying only the relations valid for their type.
type Spec interface {
	// TxType returns the declared transaction type of this variant.
	TxType() TransactionType
}

// Income increases the budget's available pool from an income source.
type Income struct {
	SourceID IncomeSourceID
}

// Allocation moves money from the budget's available pool into an envelope.
type Allocation struct {
	ToEnvelopeID EnvelopeID
}

// Expense moves money out of an envelope to a payee; it leaves the ledger
// entirely, with no budget-level change.
type Expense struct {
	FromEnvelopeID EnvelopeID
	PayeeID        PayeeID
}

// Transfer moves money between two envelopes of the same budget. Zero-sum.
type Transfer struct {
	FromEnvelopeID EnvelopeID
	ToEnvelopeID   EnvelopeID
}

// DebtPayment is an expense from a debt envelope that additionally reduces
// the envelope's recorded outstanding debt by the same amount.
type DebtPayment struct {
	FromEnvelopeID EnvelopeID
	PayeeID        PayeeID
}

func (Income) TxType() TransactionType      { return TxIncome }
func (Allocation) TxType() TransactionType  { return TxAllocation }
func (Expense) TxType() TransactionType     { return TxExpense }
func (Transfer) TxType() TransactionType    { return TxTransfer }
func (DebtPayment) TxType() TransactionType { return TxDebtPayment }

// SpecOf reconstructs the spec variant from a stored transaction row. The
// reversal path recomputes deltas from this, so delete/restore never needs a
// separate undo log.
func SpecOf(tx Transaction) (Spec, error) {
	switch tx.Type {
	case TxIncome:
		return Income{SourceID: tx.IncomeSourceID}, nil
	case TxAllocation:
		return Allocation{ToEnvelopeID: tx.ToEnvelopeID}, nil
	case TxExpense:
		return Expense{FromEnvelopeID: tx.FromEnvelopeID, PayeeID: tx.PayeeID}, nil
	case TxTransfer:
		return Transfer{FromEnvelopeID: tx.FromEnvelopeID, ToEnvelopeID: tx.ToEnvelopeID}, nil
	case TxDebtPayment:
		return DebtPayment{FromEnvelopeID: tx.FromEnvelopeID, PayeeID: tx.PayeeID}, nil
	default:
		return nil, &UnknownTypeError{Type: tx.Type}
	}
}

// Relations flattens a spec back onto the transaction row's relation fields.
func Relations(spec Spec) (from, to EnvelopeID, payee PayeeID, source IncomeSourceID) {
	switch s := spec.(type) {
	case Income:
		source = s.SourceID
	case Allocation:
		to = s.ToEnvelopeID
	case Expense:
		from, payee = s.FromEnvelopeID, s.PayeeID
	case Transfer:
		from, to = s.FromEnvelopeID, s.ToEnvelopeID
	case DebtPayment:
		from, payee = s.FromEnvelopeID, s.PayeeID
	}
	return
}
