package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fluxo/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, type, initial_balance_cents, credit_limit_cents) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.InitialBalance.Cents, a.CreditLimit.Cents)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved",
		"id", a.ID,
		"name", a.Name,
		"type", a.Type)
	return nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, initial_balance_cents, credit_limit_cents FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &typ, &a.InitialBalance.Cents, &a.CreditLimit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.Type = core.AccountType(typ)
	return a, nil
}

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, initial_balance_cents, credit_limit_cents FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.InitialBalance.Cents, &a.CreditLimit.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const insertEntrySQL = `INSERT INTO entries (
	id, kind, status, account_id, destination_account_id, category_id,
	description, due_date, paid_date, gross_cents, fees_cents, interest_cents,
	installment_index, installment_count, group_id, origin_kind,
	origin_reference_id, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateEntries writes the whole batch in one transaction so a confirmed
// installment plan never materializes partially.
func (s *SQLiteStore) CreateEntries(ctx context.Context, entries []core.LedgerEntry) error {
	return s.ApplyEntryBatch(ctx, entries, nil)
}

// UpdateEntries rewrites the given entries atomically. An entry that no
// longer exists fails the whole batch, which is what the invoice revert
// cascade relies on.
func (s *SQLiteStore) UpdateEntries(ctx context.Context, entries []core.LedgerEntry) error {
	return s.ApplyEntryBatch(ctx, nil, entries)
}

// ApplyEntryBatch runs inserts and updates in one transaction. Paying a card
// invoice creates the payment entry and settles the linked expenses in the
// same commit.
func (s *SQLiteStore) ApplyEntryBatch(ctx context.Context, creates, updates []core.LedgerEntry) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range creates {
		if _, err := tx.ExecContext(ctx, insertEntrySQL,
			e.ID, string(e.Kind), string(e.Status), e.AccountID,
			nullable(e.DestinationAccountID), nullable(e.CategoryID),
			e.Description, e.DueDate.Format(dateLayout), nullableDate(e.PaidDate),
			e.Gross.Cents, e.Fees.Cents, e.Interest.Cents,
			e.InstallmentIndex, e.InstallmentCount, nullable(e.GroupID),
			string(e.Origin.Kind), nullable(e.Origin.ReferenceID), e.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	for _, e := range updates {
		res, err := tx.ExecContext(ctx, `UPDATE entries SET
			kind = ?, status = ?, account_id = ?, destination_account_id = ?,
			category_id = ?, description = ?, due_date = ?, paid_date = ?,
			gross_cents = ?, fees_cents = ?, interest_cents = ?,
			installment_index = ?, installment_count = ?, group_id = ?,
			origin_kind = ?, origin_reference_id = ?
		WHERE id = ?`,
			string(e.Kind), string(e.Status), e.AccountID, nullable(e.DestinationAccountID),
			nullable(e.CategoryID), e.Description, e.DueDate.Format(dateLayout), nullableDate(e.PaidDate),
			e.Gross.Cents, e.Fees.Cents, e.Interest.Cents,
			e.InstallmentIndex, e.InstallmentCount, nullable(e.GroupID),
			string(e.Origin.Kind), nullable(e.Origin.ReferenceID), e.ID)
		if err != nil {
			return fmt.Errorf("update entry %s: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("update entry %s: %w", e.ID, core.ErrEntryNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry batch: %w", err)
	}

	slog.InfoContext(ctx, "Entry batch applied",
		"created", len(creates),
		"updated", len(updates))
	return nil
}

const selectEntrySQL = `SELECT
	id, kind, status, account_id, destination_account_id, category_id,
	description, due_date, paid_date, gross_cents, fees_cents, interest_cents,
	installment_index, installment_count, group_id, origin_kind,
	origin_reference_id, created_at
FROM entries`

type entryScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row entryScanner) (core.LedgerEntry, error) {
	var (
		e                          core.LedgerEntry
		kind, status, originKind   string
		dest, cat, group, originRef sql.NullString
		due                        string
		paid                       sql.NullString
	)
	err := row.Scan(&e.ID, &kind, &status, &e.AccountID, &dest, &cat,
		&e.Description, &due, &paid, &e.Gross.Cents, &e.Fees.Cents, &e.Interest.Cents,
		&e.InstallmentIndex, &e.InstallmentCount, &group, &originKind, &originRef, &e.CreatedAt)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e.Kind = core.EntryKind(kind)
	e.Status = core.EntryStatus(status)
	e.DestinationAccountID = dest.String
	e.CategoryID = cat.String
	e.GroupID = group.String
	e.Origin = core.EntryOrigin{Kind: core.OriginKind(originKind), ReferenceID: originRef.String}

	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("parse due date %q: %w", due, err)
	}
	e.DueDate = core.DateOf(d)
	if paid.Valid && paid.String != "" {
		p, err := time.Parse(dateLayout, paid.String)
		if err != nil {
			return core.LedgerEntry{}, fmt.Errorf("parse paid date %q: %w", paid.String, err)
		}
		e.PaidDate = core.DateOf(p)
	}
	return e, nil
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx, selectEntrySQL+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, core.ErrEntryNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, q EntryQuery) ([]core.LedgerEntry, error) {
	query := selectEntrySQL + ` WHERE 1=1`
	var args []any
	if q.AccountID != "" {
		query += ` AND (account_id = ? OR destination_account_id = ?)`
		args = append(args, q.AccountID, q.AccountID)
	}
	if q.GroupID != "" {
		query += ` AND group_id = ?`
		args = append(args, q.GroupID)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p core.Product) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO products (id, name, sku) VALUES (?, ?, ?)`, p.ID, p.Name, p.SKU)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, sku FROM products ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateWarehouse(ctx context.Context, w core.Warehouse) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO warehouses (id, name) VALUES (?, ?)`, w.ID, w.Name)
	if err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM warehouses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()

	var out []core.Warehouse
	for rows.Next() {
		var w core.Warehouse
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateStockMovement(ctx context.Context, m core.StockMovement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stock_movements (id, product_id, warehouse_id, type, quantity, reference, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.WarehouseID, string(m.Type), m.Quantity, m.Reference,
		m.OccurredAt.Format(dateLayout), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListStockMovements(ctx context.Context, productID, warehouseID string) ([]core.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, warehouse_id, type, quantity, reference, occurred_at, created_at
		 FROM stock_movements WHERE product_id = ? AND warehouse_id = ? ORDER BY occurred_at, rowid`,
		productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []core.StockMovement
	for rows.Next() {
		var (
			m        core.StockMovement
			typ, occ string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &typ, &m.Quantity, &m.Reference, &occ, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = core.StockMovementType(typ)
		d, err := time.Parse(dateLayout, occ)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occ, err)
		}
		m.OccurredAt = core.DateOf(d)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkSyncPending(ctx context.Context, entryID string) error {
	return s.setSyncStatus(ctx, entryID, SyncPending)
}

func (s *SQLiteStore) MarkSynced(ctx context.Context, entryID string) error {
	return s.setSyncStatus(ctx, entryID, SyncDone)
}

func (s *SQLiteStore) MarkSyncError(ctx context.Context, entryID string) error {
	return s.setSyncStatus(ctx, entryID, SyncError)
}

func (s *SQLiteStore) setSyncStatus(ctx context.Context, entryID, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE entries SET sync_status = ? WHERE id = ?`, status, entryID)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrEntryNotFound
	}
	return nil
}

func (s *SQLiteStore) ListSyncPending(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectEntrySQL+` WHERE sync_status = ? ORDER BY rowid LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync pending: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format(dateLayout)
}
