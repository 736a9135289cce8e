package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

// StockService records stock movements and computes running-quantity history
// per product per warehouse.
type StockService struct {
	store storage.Store
	now   func() time.Time
}

func NewStockService(store storage.Store) *StockService {
	return &StockService{store: store, now: time.Now}
}

// StockHistoryRow is one movement with the quantity on hand after it.
type StockHistoryRow struct {
	Movement core.StockMovement
	Balance  int64
}

// RecordMovement persists a stock movement. Sales that would take the
// on-hand quantity below zero are rejected.
func (s *StockService) RecordMovement(ctx context.Context, draft core.StockMovement) (core.StockMovement, error) {
	draft.ID = uuid.NewString()
	draft.CreatedAt = s.now().UTC()
	if err := draft.Validate(); err != nil {
		return core.StockMovement{}, fmt.Errorf("validate stock movement: %w", err)
	}

	if draft.Quantity < 0 {
		onHand, err := s.quantityOnHand(ctx, draft.ProductID, draft.WarehouseID)
		if err != nil {
			return core.StockMovement{}, err
		}
		if onHand+draft.Quantity < 0 {
			return core.StockMovement{}, fmt.Errorf("product %s at %s has %d on hand: %w",
				draft.ProductID, draft.WarehouseID, onHand, core.ErrInsufficientStock)
		}
	}

	if err := s.store.CreateStockMovement(ctx, draft); err != nil {
		return core.StockMovement{}, fmt.Errorf("save stock movement: %w", err)
	}

	slog.InfoContext(ctx, "Stock movement recorded",
		"id", draft.ID,
		"product_id", draft.ProductID,
		"warehouse_id", draft.WarehouseID,
		"type", draft.Type,
		"quantity", draft.Quantity)
	return draft, nil
}

// History returns the chronological movement list with a running balance,
// most recent first.
func (s *StockService) History(ctx context.Context, productID, warehouseID string) ([]StockHistoryRow, error) {
	movements, err := s.store.ListStockMovements(ctx, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("load stock movements: %w", err)
	}
	sort.SliceStable(movements, func(i, j int) bool {
		if !movements[i].OccurredAt.Equal(movements[j].OccurredAt) {
			return movements[i].OccurredAt.Before(movements[j].OccurredAt)
		}
		return movements[i].CreatedAt.Before(movements[j].CreatedAt)
	})

	rows := make([]StockHistoryRow, len(movements))
	var balance int64
	for i, m := range movements {
		balance += m.Quantity
		rows[i] = StockHistoryRow{Movement: m, Balance: balance}
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *StockService) quantityOnHand(ctx context.Context, productID, warehouseID string) (int64, error) {
	movements, err := s.store.ListStockMovements(ctx, productID, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("load stock movements: %w", err)
	}
	var total int64
	for _, m := range movements {
		total += m.Quantity
	}
	return total, nil
}
