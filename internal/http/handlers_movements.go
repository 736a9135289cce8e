package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"fluxo/internal/core"
	"fluxo/internal/services"
)

type entryJSON struct {
	ID                   string `json:"id"`
	Kind                 string `json:"kind"`
	Status               string `json:"status"`
	AccountID            string `json:"account_id"`
	DestinationAccountID string `json:"destination_account_id,omitempty"`
	CategoryID           string `json:"category_id,omitempty"`
	Description          string `json:"description"`
	DueDate              string `json:"due_date"`
	PaidDate             string `json:"paid_date,omitempty"`
	GrossCents           int64  `json:"gross_cents"`
	FeesCents            int64  `json:"fees_cents,omitempty"`
	InterestCents        int64  `json:"interest_cents,omitempty"`
	NetCents             int64  `json:"net_cents"`
	InstallmentIndex     int    `json:"installment_index,omitempty"`
	InstallmentCount     int    `json:"installment_count,omitempty"`
	GroupID              string `json:"group_id,omitempty"`
	OriginKind           string `json:"origin_kind"`
	OriginReferenceID    string `json:"origin_reference_id,omitempty"`
}

func toEntryJSON(e core.LedgerEntry) entryJSON {
	out := entryJSON{
		ID:                   e.ID,
		Kind:                 string(e.Kind),
		Status:               string(e.Status),
		AccountID:            e.AccountID,
		DestinationAccountID: e.DestinationAccountID,
		CategoryID:           e.CategoryID,
		Description:          e.Description,
		DueDate:              e.DueDate.String(),
		GrossCents:           e.Gross.Cents,
		FeesCents:            e.Fees.Cents,
		InterestCents:        e.Interest.Cents,
		NetCents:             e.Net().Cents,
		InstallmentIndex:     e.InstallmentIndex,
		InstallmentCount:     e.InstallmentCount,
		GroupID:              e.GroupID,
		OriginKind:           string(e.Origin.Kind),
		OriginReferenceID:    e.Origin.ReferenceID,
	}
	if !e.PaidDate.IsZero() {
		out.PaidDate = e.PaidDate.String()
	}
	return out
}

func toEntriesJSON(entries []core.LedgerEntry) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = toEntryJSON(e)
	}
	return out
}

type createMovementRequest struct {
	Kind                 string `json:"kind"`
	AccountID            string `json:"account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	CategoryID           string `json:"category_id"`
	Description          string `json:"description"`
	DueDate              string `json:"due_date"`
	Gross                string `json:"gross"`
	Fees                 string `json:"fees"`
	Interest             string `json:"interest"`
}

func (req createMovementRequest) toEntry() (core.LedgerEntry, error) {
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	gross, err := parseMoney(req.Gross)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	fees, err := parseOptionalMoney(req.Fees)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	interest, err := parseOptionalMoney(req.Interest)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	return core.LedgerEntry{
		Kind:                 core.EntryKind(req.Kind),
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		Description:          req.Description,
		DueDate:              dueDate,
		Gross:                gross,
		Fees:                 fees,
		Interest:             interest,
	}, nil
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		badRequest(w, "from: %v", err)
		return
	}
	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		badRequest(w, "to: %v", err)
		return
	}

	movements, err := s.entries.ListMovements(r.Context(), services.MovementQuery{
		AccountID: q.Get("account"),
		From:      from,
		To:        to,
		Status:    core.EntryStatus(q.Get("status")),
		Kind:      core.EntryKind(q.Get("kind")),
		Query:     q.Get("q"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEntriesJSON(movements))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	draft, err := req.toEntry()
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.entries.CreateEntry(r.Context(), draft)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusCreated, toEntryJSON(created))
}

type planRequest struct {
	Description   string `json:"description"`
	Kind          string `json:"kind"`
	AccountID     string `json:"account_id"`
	CategoryID    string `json:"category_id"`
	TotalGross    string `json:"total_gross"`
	TotalFees     string `json:"total_fees"`
	Count         int    `json:"count"`
	FrequencyKind string `json:"frequency"`
	EveryDays     int    `json:"every_days"`
	FirstDueDate  string `json:"first_due_date"`
}

func (req planRequest) toServiceRequest() (services.PlanRequest, error) {
	gross, err := parseMoney(req.TotalGross)
	if err != nil {
		return services.PlanRequest{}, err
	}
	fees, err := parseOptionalMoney(req.TotalFees)
	if err != nil {
		return services.PlanRequest{}, err
	}
	firstDue, err := parseDate(req.FirstDueDate)
	if err != nil {
		return services.PlanRequest{}, err
	}
	return services.PlanRequest{
		Description: req.Description,
		Kind:        core.EntryKind(req.Kind),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		TotalGross:  gross,
		TotalFees:   fees,
		Count:       req.Count,
		Frequency: core.Frequency{
			Kind:      core.FrequencyKind(req.FrequencyKind),
			EveryDays: req.EveryDays,
		},
		FirstDueDate: firstDue,
	}, nil
}

type planItemJSON struct {
	Index      int    `json:"index"`
	DueDate    string `json:"due_date"`
	GrossCents int64  `json:"gross_cents"`
	FeesCents  int64  `json:"fees_cents,omitempty"`
}

type planJSON struct {
	TotalGrossCents int64          `json:"total_gross_cents"`
	TotalFeesCents  int64          `json:"total_fees_cents,omitempty"`
	Count           int            `json:"count"`
	Items           []planItemJSON `json:"items"`
}

func toPlanJSON(plan core.InstallmentPlan) planJSON {
	items := make([]planItemJSON, len(plan.Items))
	for i, item := range plan.Items {
		items[i] = planItemJSON{
			Index:      item.Index,
			DueDate:    item.DueDate.String(),
			GrossCents: item.Gross.Cents,
			FeesCents:  item.Fees.Cents,
		}
	}
	return planJSON{
		TotalGrossCents: plan.TotalGross.Cents,
		TotalFeesCents:  plan.TotalFees.Cents,
		Count:           len(plan.Items),
		Items:           items,
	}
}

func (s *Server) handlePlanPreview(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	svcReq, err := req.toServiceRequest()
	if err != nil {
		respondError(w, r, err)
		return
	}
	plan, err := s.entries.PreviewPlan(svcReq)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlanJSON(plan))
}

func (s *Server) handlePlanConfirm(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	svcReq, err := req.toServiceRequest()
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := s.entries.ConfirmPlan(r.Context(), svcReq)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusCreated, toEntriesJSON(entries))
}

type settleRequest struct {
	PaidDate string `json:"paid_date"`
	Gross    string `json:"gross"`
	Fees     string `json:"fees"`
	Interest string `json:"interest"`
}

func (req settleRequest) toOverride() (core.SettleOverride, error) {
	var override core.SettleOverride
	if req.Gross != "" {
		m, err := parseMoney(req.Gross)
		if err != nil {
			return core.SettleOverride{}, err
		}
		override.Gross = &m
	}
	if req.Fees != "" {
		m, err := parseMoney(req.Fees)
		if err != nil {
			return core.SettleOverride{}, err
		}
		override.Fees = &m
	}
	if req.Interest != "" {
		m, err := parseMoney(req.Interest)
		if err != nil {
			return core.SettleOverride{}, err
		}
		override.Interest = &m
	}
	return override, nil
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	paidDate, err := parseDate(req.PaidDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	override, err := req.toOverride()
	if err != nil {
		respondError(w, r, err)
		return
	}

	settled, err := s.entries.Settle(r.Context(), mux.Vars(r)["id"], paidDate, override)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusOK, toEntryJSON(settled))
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	reverted, err := s.entries.Revert(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusOK, toEntriesJSON(reverted))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	cancelled, err := s.entries.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusOK, toEntryJSON(cancelled))
}

type payInvoiceRequest struct {
	SourceAccountID string `json:"source_account_id"`
	PaidDate        string `json:"paid_date"`
	Description     string `json:"description"`
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	var req payInvoiceRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	paidDate, err := parseDate(req.PaidDate)
	if err != nil {
		respondError(w, r, err)
		return
	}

	payment, err := s.entries.PayCardInvoice(r.Context(), services.PayInvoiceRequest{
		CardAccountID:   mux.Vars(r)["id"],
		SourceAccountID: req.SourceAccountID,
		PaidDate:        paidDate,
		Description:     req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateStatements()
	respondJSON(w, http.StatusOK, toEntryJSON(payment))
}
