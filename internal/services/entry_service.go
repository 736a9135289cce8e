// Package services orchestrates the domain core over the store: entry
// creation, installment plan confirmation, settlement transitions and the
// statement projection shared by every caller.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

// SyncPublisher queues a settled movement for the accountant export.
// Implemented by the AMQP client; nil disables publishing.
type SyncPublisher interface {
	PublishMovementSync(ctx context.Context, entryID string) error
}

// EntryService owns every mutation of ledger entries.
type EntryService struct {
	store     storage.Store
	publisher SyncPublisher
	now       func() time.Time
}

func NewEntryService(store storage.Store, publisher SyncPublisher) *EntryService {
	return &EntryService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlanRequest carries the raw inputs a movement form collects before asking
// for an installment preview or confirming one.
type PlanRequest struct {
	Description  string
	Kind         core.EntryKind
	AccountID    string
	CategoryID   string
	TotalGross   core.Money
	TotalFees    core.Money
	Count        int
	Frequency    core.Frequency
	FirstDueDate core.Date
}

// MovementQuery filters the flat movement list. Its semantics match the
// statement projector's display filters so client-only and server-backed
// modes stay consistent.
type MovementQuery struct {
	AccountID string
	From      core.Date
	To        core.Date
	Status    core.EntryStatus
	Kind      core.EntryKind
	Query     string
}

// CreateEntry persists a single direct entry. The draft's identity, status
// and timestamps are owned by the service; callers only fill domain fields.
func (s *EntryService) CreateEntry(ctx context.Context, draft core.LedgerEntry) (core.LedgerEntry, error) {
	draft.ID = uuid.NewString()
	draft.Status = core.StatusOpen
	draft.CreatedAt = s.now().UTC()
	if draft.Origin.Kind == "" {
		draft.Origin.Kind = core.OriginManual
	}
	if err := draft.Validate(); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("validate entry: %w", err)
	}
	if err := s.checkAccounts(ctx, draft); err != nil {
		return core.LedgerEntry{}, err
	}
	if err := s.store.CreateEntries(ctx, []core.LedgerEntry{draft}); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry created",
		"id", draft.ID,
		"kind", draft.Kind,
		"account_id", draft.AccountID,
		"gross_cents", draft.Gross.Cents)
	return draft, nil
}

// PreviewPlan computes an installment plan without side effects. Calling it
// repeatedly with the same request yields the same plan.
func (s *EntryService) PreviewPlan(req PlanRequest) (core.InstallmentPlan, error) {
	return core.GeneratePlan(req.TotalGross, req.TotalFees, req.Count, req.Frequency, req.FirstDueDate)
}

// ConfirmPlan materializes a previewed plan into persisted entries, one per
// installment, labeled "{description} (i/count)" and sharing one group id.
// The batch is written atomically.
func (s *EntryService) ConfirmPlan(ctx context.Context, req PlanRequest) ([]core.LedgerEntry, error) {
	plan, err := s.PreviewPlan(req)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	if req.Kind != core.KindIncome && req.Kind != core.KindExpense {
		return nil, fmt.Errorf("plan kind %q: %w", req.Kind, core.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, core.ErrEmptyDescription
	}
	if _, err := s.store.GetAccount(ctx, req.AccountID); err != nil {
		return nil, fmt.Errorf("plan account: %w", err)
	}

	groupID := uuid.NewString()
	createdAt := s.now().UTC()
	entries := make([]core.LedgerEntry, len(plan.Items))
	for i, item := range plan.Items {
		entries[i] = core.LedgerEntry{
			ID:               uuid.NewString(),
			Kind:             req.Kind,
			Status:           core.StatusOpen,
			AccountID:        req.AccountID,
			CategoryID:       req.CategoryID,
			Description:      fmt.Sprintf("%s (%d/%d)", req.Description, item.Index, req.Count),
			DueDate:          item.DueDate,
			Gross:            item.Gross,
			Fees:             item.Fees,
			InstallmentIndex: item.Index,
			InstallmentCount: req.Count,
			GroupID:          groupID,
			Origin:           core.EntryOrigin{Kind: core.OriginManual},
			CreatedAt:        createdAt,
		}
	}
	if err := s.store.CreateEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("save plan entries: %w", err)
	}

	slog.InfoContext(ctx, "Installment plan confirmed",
		"group_id", groupID,
		"count", req.Count,
		"total_gross_cents", plan.TotalGross.Cents)
	return entries, nil
}

// Settle marks an entry as paid ("baixa"), optionally fixing gross, fees and
// interest from the source record being finalized.
func (s *EntryService) Settle(ctx context.Context, id string, paidDate core.Date, override core.SettleOverride) (core.LedgerEntry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	settled, err := core.Settle(entry, paidDate, override)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if err := s.store.UpdateEntries(ctx, []core.LedgerEntry{settled}); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save settlement: %w", err)
	}
	s.queueSync(ctx, settled.ID)

	slog.InfoContext(ctx, "Entry settled",
		"id", settled.ID,
		"paid_date", settled.PaidDate.String(),
		"net_cents", settled.Net().Cents)
	return settled, nil
}

// Revert undoes a settlement ("estorno"). Reverting a card invoice payment
// cascade-reverts every expense that payment settled; the cascade is applied
// in one atomic batch, so either all entries reopen or none do.
func (s *EntryService) Revert(ctx context.Context, id string) ([]core.LedgerEntry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entry.IsCardInvoicePayment() {
		reverted, err := core.Revert(entry)
		if err != nil {
			return nil, err
		}
		if err := s.store.UpdateEntries(ctx, []core.LedgerEntry{reverted}); err != nil {
			return nil, fmt.Errorf("save revert: %w", err)
		}
		slog.InfoContext(ctx, "Entry reverted", "id", reverted.ID)
		return []core.LedgerEntry{reverted}, nil
	}

	group, err := s.store.ListEntries(ctx, storage.EntryQuery{GroupID: entry.GroupID})
	if err != nil {
		return nil, fmt.Errorf("load settlement group: %w", err)
	}

	var batch []core.LedgerEntry
	for _, e := range group {
		reverted, err := core.Revert(e)
		if err != nil {
			// One unrevertable entry aborts the whole cascade.
			return nil, fmt.Errorf("revert entry %s: %w", e.ID, err)
		}
		// The group linkage on cascaded expenses was established at
		// settlement time and does not survive the estorno.
		reverted.GroupID = ""
		batch = append(batch, reverted)
	}
	if err := s.store.UpdateEntries(ctx, batch); err != nil {
		return nil, fmt.Errorf("save revert cascade: %w", err)
	}

	slog.InfoContext(ctx, "Card invoice payment reverted",
		"payment_id", entry.ID,
		"cascade_size", len(batch))
	return batch, nil
}

// Cancel voids an open entry.
func (s *EntryService) Cancel(ctx context.Context, id string) (core.LedgerEntry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	cancelled, err := core.Cancel(entry)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if err := s.store.UpdateEntries(ctx, []core.LedgerEntry{cancelled}); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save cancel: %w", err)
	}
	return cancelled, nil
}

// PayInvoiceRequest pays a card's open expenses from a cash or bank account.
type PayInvoiceRequest struct {
	CardAccountID   string
	SourceAccountID string
	PaidDate        core.Date
	Description     string
}

// PayCardInvoice creates one settled payment entry on the source account and
// settles every open expense on the card under a shared group id, all in a
// single atomic batch.
func (s *EntryService) PayCardInvoice(ctx context.Context, req PayInvoiceRequest) (core.LedgerEntry, error) {
	card, err := s.store.GetAccount(ctx, req.CardAccountID)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("card account: %w", err)
	}
	if card.Type != core.AccountCard {
		return core.LedgerEntry{}, fmt.Errorf("account %s is not a card: %w", card.ID, core.ErrInvalidInput)
	}
	source, err := s.store.GetAccount(ctx, req.SourceAccountID)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("source account: %w", err)
	}
	if source.Type == core.AccountCard {
		return core.LedgerEntry{}, fmt.Errorf("cannot pay an invoice from another card: %w", core.ErrInvalidInput)
	}

	open, err := s.store.ListEntries(ctx, storage.EntryQuery{
		AccountID: card.ID,
		Status:    core.StatusOpen,
		Kind:      core.KindExpense,
	})
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("load card expenses: %w", err)
	}
	if len(open) == 0 {
		return core.LedgerEntry{}, fmt.Errorf("no open expenses on card %s: %w", card.ID, core.ErrInvalidInput)
	}

	groupID := uuid.NewString()
	var total core.Money
	updates := make([]core.LedgerEntry, 0, len(open))
	for _, e := range open {
		settled, err := core.Settle(e, req.PaidDate, core.SettleOverride{})
		if err != nil {
			return core.LedgerEntry{}, fmt.Errorf("settle card expense %s: %w", e.ID, err)
		}
		settled.GroupID = groupID
		updates = append(updates, settled)
		total = total.Add(settled.Net())
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Pagamento fatura " + card.Name
	}
	payment := core.LedgerEntry{
		ID:          uuid.NewString(),
		Kind:        core.KindExpense,
		Status:      core.StatusSettled,
		AccountID:   source.ID,
		Description: description,
		DueDate:     req.PaidDate,
		PaidDate:    req.PaidDate,
		Gross:       total,
		GroupID:     groupID,
		Origin:      core.EntryOrigin{Kind: core.OriginCardInvoicePayment, ReferenceID: card.ID},
		CreatedAt:   s.now().UTC(),
	}
	if err := payment.Validate(); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("validate invoice payment: %w", err)
	}

	if err := s.store.ApplyEntryBatch(ctx, []core.LedgerEntry{payment}, updates); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("apply invoice payment: %w", err)
	}
	s.queueSync(ctx, payment.ID)

	slog.InfoContext(ctx, "Card invoice paid",
		"card_id", card.ID,
		"source_id", source.ID,
		"expenses", len(updates),
		"total_cents", total.Cents)
	return payment, nil
}

// Statement projects an account over a date range. Every statement, report
// and summary card in the application goes through this single path.
func (s *EntryService) Statement(ctx context.Context, accountID string, from, to, today core.Date, filter core.StatementFilter) (core.Statement, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Statement{}, err
	}
	entries, err := s.store.ListEntries(ctx, storage.EntryQuery{AccountID: accountID})
	if err != nil {
		return core.Statement{}, fmt.Errorf("load entries: %w", err)
	}
	return core.Project(account, entries, from, to, today, filter)
}

// ListMovements returns the flat movement list filtered with the same
// semantics the statement projector applies to its rows.
func (s *EntryService) ListMovements(ctx context.Context, q MovementQuery) ([]core.LedgerEntry, error) {
	entries, err := s.store.ListEntries(ctx, storage.EntryQuery{AccountID: q.AccountID})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	today := core.DateOf(s.now().UTC())

	out := make([]core.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		date := e.EffectiveDate()
		if !q.From.IsZero() && date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && date.After(q.To) {
			continue
		}
		if q.Status != "" && e.DisplayStatus(today) != q.Status {
			continue
		}
		if q.Kind != "" && e.Kind != q.Kind {
			continue
		}
		if q.Query != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(q.Query)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *EntryService) checkAccounts(ctx context.Context, e core.LedgerEntry) error {
	if _, err := s.store.GetAccount(ctx, e.AccountID); err != nil {
		return fmt.Errorf("source account: %w", err)
	}
	if e.DestinationAccountID != "" {
		if _, err := s.store.GetAccount(ctx, e.DestinationAccountID); err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
	}
	return nil
}

// queueSync marks the entry for the accountant export and publishes the sync
// message. Both are best effort: the store stays the source of truth and the
// sweeper retries anything still pending.
func (s *EntryService) queueSync(ctx context.Context, entryID string) {
	if err := s.store.MarkSyncPending(ctx, entryID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark entry for sync", "id", entryID, "error", err)
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMovementSync(ctx, entryID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", entryID, "error", err)
	}
}
