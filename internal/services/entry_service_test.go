package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/storage"
)

type capturingPublisher struct {
	published []string
	fail      bool
}

func (p *capturingPublisher) PublishMovementSync(_ context.Context, entryID string) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, entryID)
	return nil
}

func newTestService(t *testing.T) (*EntryService, *storage.MemoryStore, *capturingPublisher) {
	t.Helper()
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewEntryService(store, pub)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	accounts := []core.Account{
		{ID: "bank", Name: "Banco", Type: core.AccountBank, InitialBalance: core.Money{Cents: 100000}},
		{ID: "card", Name: "Cartão Azul", Type: core.AccountCard, CreditLimit: core.Money{Cents: 500000}},
		{ID: "cash", Name: "Caixa", Type: core.AccountCash},
	}
	for _, a := range accounts {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}
	return svc, store, pub
}

func TestCreateEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindIncome,
		AccountID:   "bank",
		Description: "recebimento cliente",
		DueDate:     core.NewDate(2024, 4, 1),
		Gross:       core.Money{Cents: 12000},
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if created.ID == "" || created.Status != core.StatusOpen {
		t.Errorf("service must assign id and open status: %+v", created)
	}
	if created.Origin.Kind != core.OriginManual {
		t.Errorf("origin = %s, want manual", created.Origin.Kind)
	}

	_, err = svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindExpense,
		AccountID:   "ghost",
		Description: "conta inexistente",
		DueDate:     core.NewDate(2024, 4, 1),
		Gross:       core.Money{Cents: 100},
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("dangling account: got %v, want ErrAccountNotFound", err)
	}
}

func TestConfirmPlan(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	entries, err := svc.ConfirmPlan(ctx, PlanRequest{
		Description:  "notebook",
		Kind:         core.KindExpense,
		AccountID:    "card",
		TotalGross:   core.Money{Cents: 100},
		Count:        3,
		Frequency:    core.Frequency{Kind: core.Monthly},
		FirstDueDate: core.NewDate(2024, 1, 31),
	})
	if err != nil {
		t.Fatalf("ConfirmPlan: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	wantDesc := []string{"notebook (1/3)", "notebook (2/3)", "notebook (3/3)"}
	wantGross := []int64{34, 33, 33}
	group := entries[0].GroupID
	var sum int64
	for i, e := range entries {
		if e.Description != wantDesc[i] {
			t.Errorf("entry %d description = %q, want %q", i, e.Description, wantDesc[i])
		}
		if e.Gross.Cents != wantGross[i] {
			t.Errorf("entry %d gross = %d, want %d", i, e.Gross.Cents, wantGross[i])
		}
		if e.GroupID != group || group == "" {
			t.Errorf("installments must share one group id")
		}
		if e.InstallmentIndex != i+1 || e.InstallmentCount != 3 {
			t.Errorf("entry %d installment = %d/%d", i, e.InstallmentIndex, e.InstallmentCount)
		}
		sum += e.Gross.Cents
	}
	if sum != 100 {
		t.Errorf("installments sum to %d, want 100", sum)
	}

	stored, err := store.ListEntries(ctx, storage.EntryQuery{GroupID: group})
	if err != nil || len(stored) != 3 {
		t.Fatalf("stored %d entries (err=%v), want 3", len(stored), err)
	}
}

func TestConfirmPlanRejectsSingleInstallment(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ConfirmPlan(context.Background(), PlanRequest{
		Description:  "boleto único",
		Kind:         core.KindExpense,
		AccountID:    "bank",
		TotalGross:   core.Money{Cents: 100},
		Count:        1,
		Frequency:    core.Frequency{Kind: core.Monthly},
		FirstDueDate: core.NewDate(2024, 2, 1),
	})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestSettlePublishesSync(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindExpense,
		AccountID:   "bank",
		Description: "energia elétrica",
		DueDate:     core.NewDate(2024, 3, 20),
		Gross:       core.Money{Cents: 8000},
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	settled, err := svc.Settle(ctx, created.ID, core.NewDate(2024, 3, 18), core.SettleOverride{})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if settled.Status != core.StatusSettled {
		t.Errorf("status = %s, want settled", settled.Status)
	}
	if len(pub.published) != 1 || pub.published[0] != created.ID {
		t.Errorf("sync message not published: %v", pub.published)
	}
	pending, _ := store.ListSyncPending(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("entry not marked sync pending")
	}
}

func TestSettleSurvivesPublisherFailure(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.fail = true
	ctx := context.Background()

	created, _ := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindIncome,
		AccountID:   "bank",
		Description: "venda balcão",
		DueDate:     core.NewDate(2024, 3, 20),
		Gross:       core.Money{Cents: 4000},
	})
	if _, err := svc.Settle(ctx, created.ID, core.NewDate(2024, 3, 20), core.SettleOverride{}); err != nil {
		t.Fatalf("settlement must not fail when the broker is down: %v", err)
	}
	// Still queued for the sweeper.
	pending, _ := store.ListSyncPending(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("entry must stay pending for retry")
	}
}

func seedCardExpenses(t *testing.T, svc *EntryService, n int) []core.LedgerEntry {
	t.Helper()
	out := make([]core.LedgerEntry, n)
	for i := 0; i < n; i++ {
		e, err := svc.CreateEntry(context.Background(), core.LedgerEntry{
			Kind:        core.KindExpense,
			AccountID:   "card",
			Description: fmt.Sprintf("compra cartão %d", i+1),
			DueDate:     core.NewDate(2024, 3, 10+i),
			Gross:       core.Money{Cents: int64(1000 * (i + 1))},
		})
		if err != nil {
			t.Fatalf("seed card expense: %v", err)
		}
		out[i] = e
	}
	return out
}

func TestPayCardInvoice(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	expenses := seedCardExpenses(t, svc, 3)

	payment, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{
		CardAccountID:   "card",
		SourceAccountID: "bank",
		PaidDate:        core.NewDate(2024, 3, 25),
	})
	if err != nil {
		t.Fatalf("PayCardInvoice: %v", err)
	}
	if payment.Gross.Cents != 6000 {
		t.Errorf("payment gross = %d, want 6000", payment.Gross.Cents)
	}
	if payment.Status != core.StatusSettled || payment.AccountID != "bank" {
		t.Errorf("payment must be settled on the source account: %+v", payment)
	}
	if !payment.IsCardInvoicePayment() {
		t.Error("payment origin must identify it as an invoice payment")
	}

	for _, e := range expenses {
		got, _ := store.GetEntry(ctx, e.ID)
		if got.Status != core.StatusSettled || got.GroupID != payment.GroupID {
			t.Errorf("card expense %s not settled under the payment group: %+v", e.ID, got)
		}
	}
}

func TestPayCardInvoiceRejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	paid := core.NewDate(2024, 3, 25)

	if _, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{CardAccountID: "bank", SourceAccountID: "cash", PaidDate: paid}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("non-card account: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{CardAccountID: "card", SourceAccountID: "card", PaidDate: paid}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("card paying card: got %v, want ErrInvalidInput", err)
	}
	// Empty invoice.
	if _, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{CardAccountID: "card", SourceAccountID: "bank", PaidDate: paid}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty invoice: got %v, want ErrInvalidInput", err)
	}
}

func TestRevertCascade(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	expenses := seedCardExpenses(t, svc, 3)

	payment, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{
		CardAccountID:   "card",
		SourceAccountID: "bank",
		PaidDate:        core.NewDate(2024, 3, 25),
	})
	if err != nil {
		t.Fatalf("PayCardInvoice: %v", err)
	}

	reverted, err := svc.Revert(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if len(reverted) != 4 {
		t.Fatalf("cascade reverted %d entries, want 4 (payment + 3 expenses)", len(reverted))
	}
	for _, id := range []string{payment.ID, expenses[0].ID, expenses[1].ID, expenses[2].ID} {
		got, _ := store.GetEntry(ctx, id)
		if got.Status != core.StatusOpen {
			t.Errorf("entry %s status = %s, want open", id, got.Status)
		}
		if !got.PaidDate.IsZero() || got.GroupID != "" {
			t.Errorf("entry %s must have no paid date or group id left: %+v", id, got)
		}
	}
}

func TestRevertCascadeAllOrNothing(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	expenses := seedCardExpenses(t, svc, 3)

	payment, err := svc.PayCardInvoice(ctx, PayInvoiceRequest{
		CardAccountID:   "card",
		SourceAccountID: "bank",
		PaidDate:        core.NewDate(2024, 3, 25),
	})
	if err != nil {
		t.Fatalf("PayCardInvoice: %v", err)
	}

	// Reopen one cascaded expense behind the service's back; reverting it
	// again is an invalid transition, so the whole cascade must abort.
	broken, _ := store.GetEntry(ctx, expenses[1].ID)
	broken.Status = core.StatusOpen
	if err := store.UpdateEntries(ctx, []core.LedgerEntry{broken}); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	if _, err := svc.Revert(ctx, payment.ID); err == nil {
		t.Fatal("cascade with an unrevertable entry must fail")
	}
	// The other cascade members stay settled.
	for _, id := range []string{payment.ID, expenses[0].ID, expenses[2].ID} {
		got, _ := store.GetEntry(ctx, id)
		if got.Status != core.StatusSettled {
			t.Errorf("entry %s status = %s, want settled (no partial cascade)", id, got.Status)
		}
	}
}

func TestRevertSingleEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindExpense,
		AccountID:   "bank",
		Description: "aluguel",
		DueDate:     core.NewDate(2024, 3, 5),
		Gross:       core.Money{Cents: 150000},
	})
	if _, err := svc.Settle(ctx, created.ID, core.NewDate(2024, 3, 6), core.SettleOverride{}); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	reverted, err := svc.Revert(ctx, created.ID)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if len(reverted) != 1 || reverted[0].Status != core.StatusOpen {
		t.Errorf("single revert: %+v", reverted)
	}
}

func TestStatement(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindIncome,
		AccountID:   "bank",
		Description: "venda fevereiro",
		DueDate:     core.NewDate(2024, 2, 10),
		Gross:       core.Money{Cents: 20000},
	})
	if _, err := svc.Settle(ctx, created.ID, core.NewDate(2024, 2, 10), core.SettleOverride{}); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	st, err := svc.Statement(ctx, "bank", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31), core.NewDate(2024, 3, 15), core.StatementFilter{})
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if st.OpeningBalance.Cents != 120000 {
		t.Errorf("opening = %d, want 120000", st.OpeningBalance.Cents)
	}

	if _, err := svc.Statement(ctx, "ghost", core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31), core.NewDate(2024, 3, 15), core.StatementFilter{}); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("ghost account: got %v, want ErrAccountNotFound", err)
	}
}

func TestListMovements(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	early, _ := svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindExpense,
		AccountID:   "bank",
		Description: "fornecedor Alfa",
		DueDate:     core.NewDate(2024, 3, 1),
		Gross:       core.Money{Cents: 100},
	})
	_, _ = svc.CreateEntry(ctx, core.LedgerEntry{
		Kind:        core.KindExpense,
		AccountID:   "bank",
		Description: "fornecedor Beta",
		DueDate:     core.NewDate(2024, 4, 1),
		Gross:       core.Money{Cents: 200},
	})

	got, err := svc.ListMovements(ctx, MovementQuery{From: core.NewDate(2024, 3, 1), To: core.NewDate(2024, 3, 31)})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(got) != 1 || got[0].ID != early.ID {
		t.Fatalf("date window: got %d movements", len(got))
	}

	// now() is 2024-03-15, so the March 1 entry shows as overdue.
	got, err = svc.ListMovements(ctx, MovementQuery{Status: core.StatusOverdue})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(got) != 1 || got[0].ID != early.ID {
		t.Fatalf("overdue filter: got %d movements", len(got))
	}

	got, err = svc.ListMovements(ctx, MovementQuery{Query: "beta"})
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(got) != 1 || got[0].Description != "fornecedor Beta" {
		t.Fatalf("text filter: got %d movements", len(got))
	}
}
