package core

import (
	"sort"
	"strings"
)

type (
	// StatementFilter holds caller-supplied display filters. They narrow the
	// returned rows only; opening, current and projected balances are always
	// computed over the full entry set.
	StatementFilter struct {
		Status EntryStatus // "", open, settled, cancelled or overdue
		Kind   EntryKind   // "" or income/expense/transfer
		Query  string      // free-text match on the description
	}

	// StatementRow is one entry as seen from the statement's account.
	StatementRow struct {
		Entry          LedgerEntry
		EffectiveValue Money
		EffectiveDate  Date
		DisplayStatus  EntryStatus
		RunningBalance Money
	}

	// Statement is the projection of an account over a date range.
	Statement struct {
		AccountID        string
		From             Date
		To               Date
		OpeningBalance   Money
		CurrentBalance   Money
		ProjectedBalance Money
		Inflow           Money // settled-in-period entries with positive effective value
		Outflow          Money // non-positive accumulator, so Inflow + Outflow = period net
		Rows             []StatementRow // most recent first
	}
)

// EffectiveValue is an entry's signed contribution to the given account.
// Income contributes +net, expense -net. A transfer contributes -net at its
// source and +net at its destination, so one transfer entry shows up in two
// account projections with opposite signs. The second return is false when the
// entry does not reference the account at all.
func EffectiveValue(e LedgerEntry, accountID string) (Money, bool) {
	switch e.Kind {
	case KindIncome:
		if e.AccountID == accountID {
			return e.Net(), true
		}
	case KindExpense:
		if e.AccountID == accountID {
			return e.Net().Neg(), true
		}
	case KindTransfer:
		if e.AccountID == accountID {
			return e.Net().Neg(), true
		}
		if e.DestinationAccountID == accountID {
			return e.Net(), true
		}
	}
	return Money{}, false
}

// Project computes the statement of account over [from, to]. entries must be
// every entry referencing the account as source or destination; cancelled
// entries are ignored. The function never mutates its inputs and repeated
// calls with identical inputs yield identical statements.
func Project(account Account, entries []LedgerEntry, from, to, today Date, filter StatementFilter) (Statement, error) {
	if account.ID == "" {
		return Statement{}, ErrAccountNotFound
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return Statement{}, ErrInvalidRange
	}

	st := Statement{
		AccountID:      account.ID,
		From:           from,
		To:             to,
		OpeningBalance: account.InitialBalance,
		CurrentBalance: account.InitialBalance,
	}

	type scoped struct {
		entry LedgerEntry
		value Money
		date  Date
	}
	var inRange []scoped

	for _, e := range entries {
		if e.Status == StatusCancelled {
			continue
		}
		value, ok := EffectiveValue(e, account.ID)
		if !ok {
			continue
		}
		date := e.EffectiveDate()

		if e.Status == StatusSettled {
			if date.Before(from) {
				st.OpeningBalance = st.OpeningBalance.Add(value)
			}
			if !date.After(today) {
				st.CurrentBalance = st.CurrentBalance.Add(value)
			}
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		inRange = append(inRange, scoped{entry: e, value: value, date: date})
	}

	st.ProjectedBalance = st.OpeningBalance
	for _, s := range inRange {
		// Projected balance counts every period entry, settled or pending:
		// what the balance becomes if everything clears as scheduled.
		st.ProjectedBalance = st.ProjectedBalance.Add(s.value)
		if s.entry.Status != StatusSettled {
			continue
		}
		if s.value.IsNegative() {
			st.Outflow = st.Outflow.Add(s.value)
		} else {
			st.Inflow = st.Inflow.Add(s.value)
		}
	}

	// Running balance is accumulated in chronological order over the full
	// in-range set, before display filters, so each row keeps its real
	// position in the ledger regardless of what the caller filtered out.
	sort.SliceStable(inRange, func(i, j int) bool {
		if !inRange[i].date.Equal(inRange[j].date) {
			return inRange[i].date.Before(inRange[j].date)
		}
		return inRange[i].entry.CreatedAt.Before(inRange[j].entry.CreatedAt)
	})

	running := st.OpeningBalance
	rows := make([]StatementRow, 0, len(inRange))
	for _, s := range inRange {
		running = running.Add(s.value)
		row := StatementRow{
			Entry:          s.entry,
			EffectiveValue: s.value,
			EffectiveDate:  s.date,
			DisplayStatus:  s.entry.DisplayStatus(today),
			RunningBalance: running,
		}
		if !filter.matches(row) {
			continue
		}
		rows = append(rows, row)
	}

	// Most recent first for display, preserving each row's running value.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	st.Rows = rows
	return st, nil
}

func (f StatementFilter) matches(row StatementRow) bool {
	if f.Status != "" && row.DisplayStatus != f.Status {
		return false
	}
	if f.Kind != "" && row.Entry.Kind != f.Kind {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(row.Entry.Description), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
