package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

func newStockService(t *testing.T) (*StockService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := NewStockService(store)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	// Each call advances the clock so insertion order is observable.
	svc.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return svc, store
}

func TestRecordMovement(t *testing.T) {
	svc, _ := newStockService(t)
	ctx := context.Background()

	got, err := svc.RecordMovement(ctx, core.StockMovement{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        core.StockPurchase,
		Quantity:    10,
		OccurredAt:  core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}
	if got.ID == "" {
		t.Error("service must assign an id")
	}

	_, err = svc.RecordMovement(ctx, core.StockMovement{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        core.StockSale,
		Quantity:    -4,
		OccurredAt:  core.NewDate(2024, 3, 2),
	})
	if err != nil {
		t.Fatalf("sale within stock: %v", err)
	}
}

func TestRecordMovementInsufficientStock(t *testing.T) {
	svc, _ := newStockService(t)
	ctx := context.Background()

	if _, err := svc.RecordMovement(ctx, core.StockMovement{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        core.StockPurchase,
		Quantity:    3,
		OccurredAt:  core.NewDate(2024, 3, 1),
	}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	_, err := svc.RecordMovement(ctx, core.StockMovement{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        core.StockSale,
		Quantity:    -5,
		OccurredAt:  core.NewDate(2024, 3, 2),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Errorf("got %v, want ErrInsufficientStock", err)
	}

	// Stock is tracked per warehouse: three units in w1 do not cover w2.
	_, err = svc.RecordMovement(ctx, core.StockMovement{
		ProductID:   "p1",
		WarehouseID: "w2",
		Type:        core.StockSale,
		Quantity:    -1,
		OccurredAt:  core.NewDate(2024, 3, 2),
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Errorf("cross-warehouse sale: got %v, want ErrInsufficientStock", err)
	}
}

func TestStockHistory(t *testing.T) {
	svc, _ := newStockService(t)
	ctx := context.Background()

	moves := []core.StockMovement{
		{ProductID: "p1", WarehouseID: "w1", Type: core.StockPurchase, Quantity: 10, OccurredAt: core.NewDate(2024, 3, 1)},
		{ProductID: "p1", WarehouseID: "w1", Type: core.StockSale, Quantity: -4, OccurredAt: core.NewDate(2024, 3, 3)},
		{ProductID: "p1", WarehouseID: "w1", Type: core.StockAdjust, Quantity: -1, OccurredAt: core.NewDate(2024, 3, 5)},
	}
	for _, m := range moves {
		if _, err := svc.RecordMovement(ctx, m); err != nil {
			t.Fatalf("RecordMovement: %v", err)
		}
	}

	rows, err := svc.History(ctx, "p1", "w1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// Most recent first, balance accumulated chronologically.
	wantBalances := []int64{5, 6, 10}
	for i, want := range wantBalances {
		if rows[i].Balance != want {
			t.Errorf("row %d balance = %d, want %d", i, rows[i].Balance, want)
		}
	}
	if rows[0].Movement.Type != core.StockAdjust || rows[2].Movement.Type != core.StockPurchase {
		t.Errorf("rows must be most recent first")
	}
}
