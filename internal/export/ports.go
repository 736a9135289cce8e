// Package export defines the outbound ports for the accountant export:
// settled ledger movements appended, one row each, to an external ledger.
package export

import (
	"context"

	"fluxo/internal/core"
)

type (
	// MovementWriter appends one settled movement to the external ledger and
	// returns a reference to the written row.
	MovementWriter interface {
		Append(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}
)
