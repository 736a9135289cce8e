// Package worker runs the accountant export: movement sync messages from
// AMQP plus a periodic sweep over entries still pending.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fluxo/internal/amqp"
	"fluxo/internal/export"
	"fluxo/internal/storage"
)

// SyncWorker appends settled movements to the external ledger and keeps the
// sync status column in storage up to date.
type SyncWorker struct {
	store     storage.Store
	writer    export.MovementWriter
	batchSize int
}

func NewSyncWorker(store storage.Store, writer export.MovementWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one movement sync message. The entry is loaded
// fresh from storage, so the message only names which entry to sync.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MovementSyncMessage) error {
	entry, err := w.store.GetEntry(ctx, msg.EntryID)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", msg.EntryID, err)
	}
	return w.syncEntry(ctx, entry.ID)
}

// ProcessPending sweeps entries stuck in sync_pending. This is the backup
// path for messages lost while the broker or worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListSyncPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending sync entries", "count", len(pending))
	for _, entry := range pending {
		if err := w.syncEntry(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "entry_id", entry.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker start before
// regular consumption begins.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListSyncPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending entries at startup: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending sync entries at startup")
		return nil
	}

	slog.InfoContext(ctx, "Draining pending sync entries at startup", "count", len(pending))
	var failed int
	for _, entry := range pending {
		if err := w.syncEntry(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Startup sync failed for entry", "entry_id", entry.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		slog.WarnContext(ctx, "Startup sync finished with failures",
			"failed", failed,
			"total", len(pending))
	}
	return nil
}

// syncEntry loads the entry, appends it to the ledger and flips the sync
// status. Append failures mark the entry sync_error so the sweeper and the
// requeued message can still find it.
func (w *SyncWorker) syncEntry(ctx context.Context, entryID string) error {
	entry, err := w.store.GetEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", entryID, err)
	}

	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, entryID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "entry_id", entryID, "error", markErr)
		}
		return fmt.Errorf("append entry %s: %w", entryID, err)
	}
	if err := w.store.MarkSynced(ctx, entryID); err != nil {
		return fmt.Errorf("mark entry %s synced: %w", entryID, err)
	}

	slog.InfoContext(ctx, "Movement synced",
		"entry_id", entryID,
		"row_ref", ref)
	return nil
}
