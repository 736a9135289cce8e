package storage

import (
	"context"
	"sync"

	"fluxo/internal/core"
)

// MemoryStore is an in-process Store used by tests and the memory backend.
// Values are copied in and out, so callers never share state with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   []core.Account
	categories []core.Category
	entries    []core.LedgerEntry
	products   []core.Product
	warehouses []core.Warehouse
	stock      []core.StockMovement
	syncStatus map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{syncStatus: make(map[string]string)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateAccount(_ context.Context, a core.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, a)
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, core.ErrAccountNotFound
}

func (m *MemoryStore) ListAccounts(_ context.Context) ([]core.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Account, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
	return nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *MemoryStore) CreateEntries(ctx context.Context, entries []core.LedgerEntry) error {
	return m.ApplyEntryBatch(ctx, entries, nil)
}

func (m *MemoryStore) UpdateEntries(ctx context.Context, entries []core.LedgerEntry) error {
	return m.ApplyEntryBatch(ctx, nil, entries)
}

func (m *MemoryStore) ApplyEntryBatch(_ context.Context, creates, updates []core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Resolve every update index first so the batch applies all-or-nothing.
	indexes := make([]int, len(updates))
	for i, e := range updates {
		idx := -1
		for j := range m.entries {
			if m.entries[j].ID == e.ID {
				idx = j
				break
			}
		}
		if idx < 0 {
			return core.ErrEntryNotFound
		}
		indexes[i] = idx
	}
	for i, e := range updates {
		m.entries[indexes[i]] = e
	}
	m.entries = append(m.entries, creates...)
	return nil
}

func (m *MemoryStore) GetEntry(_ context.Context, id string) (core.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return core.LedgerEntry{}, core.ErrEntryNotFound
}

func (m *MemoryStore) ListEntries(_ context.Context, q EntryQuery) ([]core.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.LedgerEntry
	for _, e := range m.entries {
		if q.AccountID != "" && e.AccountID != q.AccountID && e.DestinationAccountID != q.AccountID {
			continue
		}
		if q.GroupID != "" && e.GroupID != q.GroupID {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.Kind != "" && e.Kind != q.Kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p core.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
	return nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *MemoryStore) CreateWarehouse(_ context.Context, w core.Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warehouses = append(m.warehouses, w)
	return nil
}

func (m *MemoryStore) ListWarehouses(_ context.Context) ([]core.Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Warehouse, len(m.warehouses))
	copy(out, m.warehouses)
	return out, nil
}

func (m *MemoryStore) CreateStockMovement(_ context.Context, mv core.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock = append(m.stock, mv)
	return nil
}

func (m *MemoryStore) ListStockMovements(_ context.Context, productID, warehouseID string) ([]core.StockMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.StockMovement
	for _, mv := range m.stock {
		if mv.ProductID == productID && mv.WarehouseID == warehouseID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkSyncPending(ctx context.Context, entryID string) error {
	return m.setSyncStatus(ctx, entryID, SyncPending)
}

func (m *MemoryStore) MarkSynced(ctx context.Context, entryID string) error {
	return m.setSyncStatus(ctx, entryID, SyncDone)
}

func (m *MemoryStore) MarkSyncError(ctx context.Context, entryID string) error {
	return m.setSyncStatus(ctx, entryID, SyncError)
}

func (m *MemoryStore) setSyncStatus(_ context.Context, entryID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == entryID {
			m.syncStatus[entryID] = status
			return nil
		}
	}
	return core.ErrEntryNotFound
}

func (m *MemoryStore) ListSyncPending(_ context.Context, limit int) ([]core.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.LedgerEntry
	for _, e := range m.entries {
		if m.syncStatus[e.ID] != SyncPending {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
