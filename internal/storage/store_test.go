package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fluxo/internal/core"
)

// Both implementations run through the same suite so they cannot drift apart.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fluxo.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func seedAccount(t *testing.T, s Store, id string) core.Account {
	t.Helper()
	a := core.Account{ID: id, Name: "Conta " + id, Type: core.AccountBank, InitialBalance: core.Money{Cents: 1000}}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func sampleEntry(id, accountID string) core.LedgerEntry {
	return core.LedgerEntry{
		ID:          id,
		Kind:        core.KindExpense,
		Status:      core.StatusOpen,
		AccountID:   accountID,
		Description: "entrada " + id,
		DueDate:     core.NewDate(2024, 3, 10),
		Gross:       core.Money{Cents: 2500},
		Fees:        core.Money{Cents: 50},
		Origin:      core.EntryOrigin{Kind: core.OriginManual},
		CreatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAccountRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := seedAccount(t, s, "acc-1")

			got, err := s.GetAccount(ctx, "acc-1")
			if err != nil {
				t.Fatalf("get account: %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}

			if _, err := s.GetAccount(ctx, "missing"); !errors.Is(err, core.ErrAccountNotFound) {
				t.Errorf("missing account: got %v, want ErrAccountNotFound", err)
			}
		})
	}
}

func TestEntryRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedAccount(t, s, "acc-1")
			e := sampleEntry("e1", "acc-1")
			e.GroupID = "g1"
			e.InstallmentIndex = 1
			e.InstallmentCount = 3

			if err := s.CreateEntries(ctx, []core.LedgerEntry{e}); err != nil {
				t.Fatalf("create entries: %v", err)
			}
			got, err := s.GetEntry(ctx, "e1")
			if err != nil {
				t.Fatalf("get entry: %v", err)
			}
			if got.Kind != e.Kind || got.Status != e.Status || got.Gross != e.Gross ||
				got.GroupID != "g1" || got.InstallmentCount != 3 || !got.DueDate.Equal(e.DueDate) {
				t.Errorf("round trip mismatch: got %+v", got)
			}
			if !got.PaidDate.IsZero() {
				t.Errorf("paid date should stay unset, got %s", got.PaidDate)
			}

			if _, err := s.GetEntry(ctx, "missing"); !errors.Is(err, core.ErrEntryNotFound) {
				t.Errorf("missing entry: got %v, want ErrEntryNotFound", err)
			}
		})
	}
}

func TestUpdateEntriesAtomic(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedAccount(t, s, "acc-1")
			e1 := sampleEntry("e1", "acc-1")
			e2 := sampleEntry("e2", "acc-1")
			if err := s.CreateEntries(ctx, []core.LedgerEntry{e1, e2}); err != nil {
				t.Fatalf("create entries: %v", err)
			}

			// One good update plus one dangling reference: nothing may apply.
			e1.Status = core.StatusSettled
			e1.PaidDate = core.NewDate(2024, 3, 12)
			ghost := sampleEntry("ghost", "acc-1")
			if err := s.UpdateEntries(ctx, []core.LedgerEntry{e1, ghost}); err == nil {
				t.Fatal("expected error for dangling entry")
			}
			got, err := s.GetEntry(ctx, "e1")
			if err != nil {
				t.Fatalf("get entry: %v", err)
			}
			if got.Status != core.StatusOpen {
				t.Errorf("failed batch must not partially apply, status = %s", got.Status)
			}

			// The clean batch applies.
			if err := s.UpdateEntries(ctx, []core.LedgerEntry{e1}); err != nil {
				t.Fatalf("update entries: %v", err)
			}
			got, _ = s.GetEntry(ctx, "e1")
			if got.Status != core.StatusSettled || !got.PaidDate.Equal(core.NewDate(2024, 3, 12)) {
				t.Errorf("update not applied: %+v", got)
			}
		})
	}
}

func TestListEntriesFilters(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedAccount(t, s, "acc-1")
			seedAccount(t, s, "acc-2")

			transfer := sampleEntry("t1", "acc-1")
			transfer.Kind = core.KindTransfer
			transfer.DestinationAccountID = "acc-2"
			income := sampleEntry("i1", "acc-2")
			income.Kind = core.KindIncome
			if err := s.CreateEntries(ctx, []core.LedgerEntry{transfer, income}); err != nil {
				t.Fatalf("create entries: %v", err)
			}

			// acc-2 sees the incoming transfer and its own income.
			got, err := s.ListEntries(ctx, EntryQuery{AccountID: "acc-2"})
			if err != nil {
				t.Fatalf("list entries: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("acc-2: got %d entries, want 2", len(got))
			}

			got, err = s.ListEntries(ctx, EntryQuery{AccountID: "acc-2", Kind: core.KindIncome})
			if err != nil {
				t.Fatalf("list entries: %v", err)
			}
			if len(got) != 1 || got[0].ID != "i1" {
				t.Fatalf("kind filter: got %d entries", len(got))
			}
		})
	}
}

func TestSyncStatusLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedAccount(t, s, "acc-1")
			if err := s.CreateEntries(ctx, []core.LedgerEntry{sampleEntry("e1", "acc-1")}); err != nil {
				t.Fatalf("create entries: %v", err)
			}

			pending, err := s.ListSyncPending(ctx, 10)
			if err != nil {
				t.Fatalf("list sync pending: %v", err)
			}
			if len(pending) != 0 {
				t.Fatalf("fresh entries must not be pending, got %d", len(pending))
			}

			if err := s.MarkSyncPending(ctx, "e1"); err != nil {
				t.Fatalf("mark pending: %v", err)
			}
			pending, _ = s.ListSyncPending(ctx, 10)
			if len(pending) != 1 || pending[0].ID != "e1" {
				t.Fatalf("expected e1 pending, got %d entries", len(pending))
			}

			if err := s.MarkSynced(ctx, "e1"); err != nil {
				t.Fatalf("mark synced: %v", err)
			}
			pending, _ = s.ListSyncPending(ctx, 10)
			if len(pending) != 0 {
				t.Fatalf("synced entry still pending")
			}

			if err := s.MarkSyncPending(ctx, "missing"); !errors.Is(err, core.ErrEntryNotFound) {
				t.Errorf("missing entry: got %v, want ErrEntryNotFound", err)
			}
		})
	}
}

func TestStockMovements(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateProduct(ctx, core.Product{ID: "p1", Name: "Parafuso", SKU: "PF-01"}); err != nil {
				t.Fatalf("create product: %v", err)
			}
			if err := s.CreateWarehouse(ctx, core.Warehouse{ID: "w1", Name: "Matriz"}); err != nil {
				t.Fatalf("create warehouse: %v", err)
			}
			movements := []core.StockMovement{
				{ID: "m1", ProductID: "p1", WarehouseID: "w1", Type: core.StockPurchase, Quantity: 100, OccurredAt: core.NewDate(2024, 1, 10), CreatedAt: time.Now().UTC()},
				{ID: "m2", ProductID: "p1", WarehouseID: "w1", Type: core.StockSale, Quantity: -30, OccurredAt: core.NewDate(2024, 1, 20), CreatedAt: time.Now().UTC()},
			}
			for _, m := range movements {
				if err := s.CreateStockMovement(ctx, m); err != nil {
					t.Fatalf("create stock movement: %v", err)
				}
			}
			got, err := s.ListStockMovements(ctx, "p1", "w1")
			if err != nil {
				t.Fatalf("list stock movements: %v", err)
			}
			if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
				t.Fatalf("unexpected movements: %+v", got)
			}
		})
	}
}
