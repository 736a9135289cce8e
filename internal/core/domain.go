package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountBank       AccountType = "bank"
	AccountCash       AccountType = "cash"
	AccountCard       AccountType = "card"
	AccountInvestment AccountType = "investment"
)

const (
	KindIncome   EntryKind = "income"
	KindExpense  EntryKind = "expense"
	KindTransfer EntryKind = "transfer"
)

const (
	StatusOpen      EntryStatus = "open"
	StatusSettled   EntryStatus = "settled"
	StatusCancelled EntryStatus = "cancelled"

	// StatusOverdue is derived for display and filtering only; it is never
	// persisted and never changes an entry's contribution to balance sums.
	StatusOverdue EntryStatus = "overdue"
)

const (
	OriginManual             OriginKind = "manual"
	OriginSale               OriginKind = "sale"
	OriginPurchase           OriginKind = "purchase"
	OriginCardInvoicePayment OriginKind = "card_invoice_payment"
)

type (
	AccountType string
	EntryKind   string
	EntryStatus string
	OriginKind  string

	Date struct {
		time.Time
	}

	// EntryOrigin is a tagged variant resolved once at entry creation.
	// ReferenceID points at the originating sale, purchase or card account.
	EntryOrigin struct {
		Kind        OriginKind
		ReferenceID string
	}

	Account struct {
		ID             string
		Name           string
		Type           AccountType
		InitialBalance Money
		// CreditLimit applies to card accounts only; card accounts accrue
		// expenses until paid through an invoice-payment entry.
		CreditLimit Money
	}

	Category struct {
		ID   string
		Name string
	}

	// LedgerEntry is the persisted unit of cash movement.
	LedgerEntry struct {
		ID                   string
		Kind                 EntryKind
		Status               EntryStatus
		AccountID            string
		DestinationAccountID string // transfers only
		CategoryID           string
		Description          string
		DueDate              Date
		PaidDate             Date // zero until settled
		Gross                Money
		Fees                 Money
		Interest             Money
		InstallmentIndex     int // 0 when not part of a plan
		InstallmentCount     int
		GroupID              string // links installment siblings or a bulk settlement
		Origin               EntryOrigin
		CreatedAt            time.Time
	}

	Product struct {
		ID   string
		Name string
		SKU  string
	}

	Warehouse struct {
		ID   string
		Name string
	}

	// StockMovement records one quantity change of a product at a warehouse.
	// Quantity is signed: positive for purchases and upward adjustments,
	// negative for sales.
	StockMovement struct {
		ID          string
		ProductID   string
		WarehouseID string
		Type        StockMovementType
		Quantity    int64
		Reference   string
		OccurredAt  Date
		CreatedAt   time.Time
	}

	StockMovementType string
)

const (
	StockPurchase StockMovementType = "purchase"
	StockSale     StockMovementType = "sale"
	StockAdjust   StockMovementType = "adjust"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidRange           = errors.New("invalid date range")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrAccountNotFound        = errors.New("account not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrEmptyDescription       = errors.New("empty description")
	ErrInsufficientStock      = errors.New("insufficient stock")
	// ErrConcurrentModification is part of the error taxonomy but is not
	// detected today; callers should treat it as reserved.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Before compares at calendar-date granularity.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After compares at calendar-date granularity.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCash, AccountCard, AccountInvestment:
		return true
	}
	return false
}

func (k EntryKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

func (t StockMovementType) Valid() bool {
	switch t {
	case StockPurchase, StockSale, StockAdjust:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	if !a.Type.Valid() {
		return errors.New("invalid account type")
	}
	if a.Type == AccountCard && a.CreditLimit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Net is the cash-affecting value: gross - fees + interest.
func (e LedgerEntry) Net() Money {
	return e.Gross.Sub(e.Fees).Add(e.Interest)
}

// EffectiveDate is the date used for all time-windowed aggregation: the paid
// date when settled (falling back to the due date if absent), else the due date.
func (e LedgerEntry) EffectiveDate() Date {
	if e.Status == StatusSettled && !e.PaidDate.IsZero() {
		return e.PaidDate
	}
	return e.DueDate
}

// DisplayStatus relabels open entries past due as overdue. Rendering only;
// sums always treat overdue entries as pending.
func (e LedgerEntry) DisplayStatus(today Date) EntryStatus {
	if e.Status == StatusOpen && e.DueDate.Before(today) {
		return StatusOverdue
	}
	return e.Status
}

func (e LedgerEntry) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidInput
	}
	if e.AccountID == "" {
		return ErrAccountNotFound
	}
	if e.Kind == KindTransfer && e.DestinationAccountID == "" {
		return errors.New("transfer requires a destination account")
	}
	if e.Kind != KindTransfer && e.DestinationAccountID != "" {
		return errors.New("destination account only valid for transfers")
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.DueDate.Validate(); err != nil {
		return err
	}
	if e.Gross.IsNegative() || e.Fees.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (m StockMovement) Validate() error {
	if m.ProductID == "" || m.WarehouseID == "" {
		return ErrInvalidInput
	}
	if !m.Type.Valid() {
		return ErrInvalidInput
	}
	if m.Quantity == 0 {
		return ErrInvalidInput
	}
	switch m.Type {
	case StockPurchase:
		if m.Quantity < 0 {
			return ErrInvalidInput
		}
	case StockSale:
		if m.Quantity > 0 {
			return ErrInvalidInput
		}
	}
	return m.OccurredAt.Validate()
}
