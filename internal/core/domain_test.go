package core

import (
	"strings"
	"testing"
)

func TestLedgerEntryValidate(t *testing.T) {
	valid := LedgerEntry{
		Kind:        KindExpense,
		Status:      StatusOpen,
		AccountID:   "acc-1",
		Description: "compra de insumos",
		DueDate:     NewDate(2024, 5, 10),
		Gross:       Money{Cents: 1500},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*LedgerEntry)
	}{
		{"unknown kind", func(e *LedgerEntry) { e.Kind = "loan" }},
		{"missing account", func(e *LedgerEntry) { e.AccountID = "" }},
		{"transfer without destination", func(e *LedgerEntry) { e.Kind = KindTransfer }},
		{"destination on expense", func(e *LedgerEntry) { e.DestinationAccountID = "acc-2" }},
		{"empty description", func(e *LedgerEntry) { e.Description = "   " }},
		{"description too long", func(e *LedgerEntry) { e.Description = strings.Repeat("x", 201) }},
		{"zero due date", func(e *LedgerEntry) { e.DueDate = Date{} }},
		{"negative gross", func(e *LedgerEntry) { e.Gross = Money{Cents: -1} }},
		{"negative fees", func(e *LedgerEntry) { e.Fees = Money{Cents: -1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDisplayStatus(t *testing.T) {
	today := NewDate(2024, 3, 15)
	e := LedgerEntry{Status: StatusOpen, DueDate: NewDate(2024, 3, 10)}
	if got := e.DisplayStatus(today); got != StatusOverdue {
		t.Errorf("past-due open entry = %s, want overdue", got)
	}
	e.DueDate = NewDate(2024, 3, 15)
	if got := e.DisplayStatus(today); got != StatusOpen {
		t.Errorf("due today = %s, want open", got)
	}
	e.Status = StatusSettled
	e.DueDate = NewDate(2024, 3, 1)
	if got := e.DisplayStatus(today); got != StatusSettled {
		t.Errorf("settled entry = %s, want settled", got)
	}
}

func TestStockMovementValidate(t *testing.T) {
	valid := StockMovement{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        StockPurchase,
		Quantity:    10,
		OccurredAt:  NewDate(2024, 4, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid movement rejected: %v", err)
	}

	sale := valid
	sale.Type = StockSale
	if err := sale.Validate(); err == nil {
		t.Error("sale with positive quantity must be rejected")
	}
	sale.Quantity = -3
	if err := sale.Validate(); err != nil {
		t.Errorf("valid sale rejected: %v", err)
	}

	zero := valid
	zero.Quantity = 0
	if err := zero.Validate(); err == nil {
		t.Error("zero quantity must be rejected")
	}
}
