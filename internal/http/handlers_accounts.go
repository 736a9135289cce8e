package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fluxo/internal/core"
	"fluxo/internal/export"
)

type accountJSON struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
	CreditLimitCents    int64  `json:"credit_limit_cents,omitempty"`
}

func toAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                string(a.Type),
		InitialBalanceCents: a.InitialBalance.Cents,
		CreditLimitCents:    a.CreditLimit.Cents,
	}
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	CreditLimit    string `json:"credit_limit"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]accountJSON, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountJSON(a)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	initial, err := parseOptionalMoney(req.InitialBalance)
	if err != nil {
		badRequest(w, "initial_balance: %v", err)
		return
	}
	limit, err := parseOptionalMoney(req.CreditLimit)
	if err != nil {
		badRequest(w, "credit_limit: %v", err)
		return
	}

	account := core.Account{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Type:           core.AccountType(req.Type),
		InitialBalance: initial,
		CreditLimit:    limit,
	}
	if err := account.Validate(); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountJSON(account))
}

type statementRowJSON struct {
	Entry               entryJSON `json:"entry"`
	EffectiveValueCents int64     `json:"effective_value_cents"`
	EffectiveDate       string    `json:"effective_date"`
	DisplayStatus       string    `json:"display_status"`
	RunningBalanceCents int64     `json:"running_balance_cents"`
}

type statementJSON struct {
	AccountID             string             `json:"account_id"`
	From                  string             `json:"from"`
	To                    string             `json:"to"`
	OpeningBalanceCents   int64              `json:"opening_balance_cents"`
	CurrentBalanceCents   int64              `json:"current_balance_cents"`
	ProjectedBalanceCents int64              `json:"projected_balance_cents"`
	InflowCents           int64              `json:"inflow_cents"`
	OutflowCents          int64              `json:"outflow_cents"`
	Rows                  []statementRowJSON `json:"rows"`
}

func toStatementJSON(st core.Statement) statementJSON {
	rows := make([]statementRowJSON, len(st.Rows))
	for i, row := range st.Rows {
		rows[i] = statementRowJSON{
			Entry:               toEntryJSON(row.Entry),
			EffectiveValueCents: row.EffectiveValue.Cents,
			EffectiveDate:       row.EffectiveDate.String(),
			DisplayStatus:       string(row.DisplayStatus),
			RunningBalanceCents: row.RunningBalance.Cents,
		}
	}
	return statementJSON{
		AccountID:             st.AccountID,
		From:                  st.From.String(),
		To:                    st.To.String(),
		OpeningBalanceCents:   st.OpeningBalance.Cents,
		CurrentBalanceCents:   st.CurrentBalance.Cents,
		ProjectedBalanceCents: st.ProjectedBalance.Cents,
		InflowCents:           st.Inflow.Cents,
		OutflowCents:          st.Outflow.Cents,
		Rows:                  rows,
	}
}

// loadStatement parses the query, consults the cache and falls back to the
// projection service.
func (s *Server) loadStatement(r *http.Request) (core.Statement, error) {
	accountID := mux.Vars(r)["id"]
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"))
	if err != nil {
		return core.Statement{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return core.Statement{}, fmt.Errorf("to: %w", err)
	}
	filter := core.StatementFilter{
		Status: core.EntryStatus(q.Get("status")),
		Kind:   core.EntryKind(q.Get("kind")),
		Query:  q.Get("q"),
	}
	today := core.DateOf(timeNow())

	key := statementCacheKey(accountID, from, to, today, filter)
	if cached, ok := s.statementCache.Get(key); ok {
		return cached, nil
	}

	st, err := s.entries.Statement(r.Context(), accountID, from, to, today, filter)
	if err != nil {
		return core.Statement{}, err
	}
	s.statementCache.Set(key, st)
	return st, nil
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	st, err := s.loadStatement(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatementJSON(st))
}

func (s *Server) handleStatementExport(w http.ResponseWriter, r *http.Request) {
	st, err := s.loadStatement(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	filename := fmt.Sprintf("extrato-%s-%s-%s.csv", st.AccountID, st.From, st.To)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteStatementCSV(w, st); err != nil {
		respondError(w, r, err)
	}
}
