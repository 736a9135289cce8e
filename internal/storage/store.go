// Package storage persists the ledger. Two implementations share one
// interface: SQLite for real deployments and an in-memory store for tests and
// the memory backend. Insertion order is preserved for display purposes only.
package storage

import (
	"context"

	"fluxo/internal/core"
)

// Sync states for the accountant export pipeline.
const (
	SyncNone    = "none"
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// EntryQuery narrows ListEntries. Zero fields match everything. AccountID
// matches entries referencing the account as source or transfer destination.
type EntryQuery struct {
	AccountID string
	GroupID   string
	Status    core.EntryStatus
	Kind      core.EntryKind
}

// Store is the persistence port used by the services layer.
//
// CreateEntries, UpdateEntries and ApplyEntryBatch apply their whole batch
// atomically: either every entry is written or none is. Card invoice payment
// and its revert cascade depend on that.
type Store interface {
	CreateAccount(ctx context.Context, a core.Account) error
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)

	CreateCategory(ctx context.Context, c core.Category) error
	ListCategories(ctx context.Context) ([]core.Category, error)

	CreateEntries(ctx context.Context, entries []core.LedgerEntry) error
	GetEntry(ctx context.Context, id string) (core.LedgerEntry, error)
	UpdateEntries(ctx context.Context, entries []core.LedgerEntry) error
	ApplyEntryBatch(ctx context.Context, creates, updates []core.LedgerEntry) error
	ListEntries(ctx context.Context, q EntryQuery) ([]core.LedgerEntry, error)

	CreateProduct(ctx context.Context, p core.Product) error
	ListProducts(ctx context.Context) ([]core.Product, error)
	CreateWarehouse(ctx context.Context, w core.Warehouse) error
	ListWarehouses(ctx context.Context) ([]core.Warehouse, error)

	CreateStockMovement(ctx context.Context, m core.StockMovement) error
	ListStockMovements(ctx context.Context, productID, warehouseID string) ([]core.StockMovement, error)

	MarkSyncPending(ctx context.Context, entryID string) error
	MarkSynced(ctx context.Context, entryID string) error
	MarkSyncError(ctx context.Context, entryID string) error
	ListSyncPending(ctx context.Context, limit int) ([]core.LedgerEntry, error)

	Close() error
}
