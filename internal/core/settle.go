package core

// SettleOverride carries the amounts to fix at settlement time ("baixa").
// Nil fields leave the entry's current values untouched. Gross and fees may
// be overwritten when the entry's source record (a sale being finalized, for
// example) changed since the entry was created; interest is only ever applied
// here, never at plan-preview time.
type SettleOverride struct {
	Gross    *Money
	Fees     *Money
	Interest *Money
}

// Settle transitions an open entry to settled, fixing its paid date.
// Returns ErrInvalidTransition for any other starting status.
func Settle(e LedgerEntry, paidDate Date, override SettleOverride) (LedgerEntry, error) {
	if e.Status != StatusOpen {
		return LedgerEntry{}, ErrInvalidTransition
	}
	if err := paidDate.Validate(); err != nil {
		return LedgerEntry{}, ErrInvalidInput
	}
	if override.Gross != nil {
		if override.Gross.IsNegative() {
			return LedgerEntry{}, ErrInvalidAmount
		}
		e.Gross = *override.Gross
	}
	if override.Fees != nil {
		if override.Fees.IsNegative() {
			return LedgerEntry{}, ErrInvalidAmount
		}
		e.Fees = *override.Fees
	}
	if override.Interest != nil {
		e.Interest = *override.Interest
	}
	e.Status = StatusSettled
	e.PaidDate = paidDate
	return e, nil
}

// Revert transitions a settled entry back to open ("estorno"), clearing the
// paid date. Group linkage is cleared only when it was established at
// settlement time; installment plans set their GroupID at creation, and that
// sibling link survives a revert.
func Revert(e LedgerEntry) (LedgerEntry, error) {
	if e.Status != StatusSettled {
		return LedgerEntry{}, ErrInvalidTransition
	}
	e.Status = StatusOpen
	e.PaidDate = Date{}
	if e.InstallmentCount < 2 {
		e.GroupID = ""
	}
	return e, nil
}

// Cancel transitions an open entry to cancelled. Settled entries must be
// reverted first.
func Cancel(e LedgerEntry) (LedgerEntry, error) {
	if e.Status != StatusOpen {
		return LedgerEntry{}, ErrInvalidTransition
	}
	e.Status = StatusCancelled
	return e, nil
}

// IsCardInvoicePayment reports whether the entry is the payment of a credit
// card invoice: the one entry whose revert cascades to every expense sharing
// its settlement group on the card account.
func (e LedgerEntry) IsCardInvoicePayment() bool {
	return e.Origin.Kind == OriginCardInvoicePayment && e.GroupID != ""
}
