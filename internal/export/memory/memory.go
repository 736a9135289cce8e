// Package memory is an in-process MovementWriter used by tests and by
// DATA_BACKEND=memory runs where no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fluxo/internal/core"
)

type Writer struct {
	mu    sync.Mutex
	items []core.LedgerEntry
}

func New() *Writer {
	return &Writer{}
}

// Append stores the entry and returns a synthetic row reference.
func (w *Writer) Append(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, e)
	return fmt.Sprintf("mem:%d", len(w.items)), nil
}

// Appended returns a copy of everything written so far.
func (w *Writer) Appended() []core.LedgerEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.LedgerEntry(nil), w.items...)
}
