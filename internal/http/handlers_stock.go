package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"fluxo/internal/core"
)

type stockMovementJSON struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	Reference   string `json:"reference,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

type stockHistoryRowJSON struct {
	Movement stockMovementJSON `json:"movement"`
	Balance  int64             `json:"balance"`
}

func toStockMovementJSON(m core.StockMovement) stockMovementJSON {
	return stockMovementJSON{
		ID:          m.ID,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Reference:   m.Reference,
		OccurredAt:  m.OccurredAt.String(),
	}
}

type createStockMovementRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	Reference   string `json:"reference"`
	OccurredAt  string `json:"occurred_at"`
}

func (s *Server) handleCreateStockMovement(w http.ResponseWriter, r *http.Request) {
	var req createStockMovementRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	occurredAt, err := parseDate(req.OccurredAt)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.stock.RecordMovement(r.Context(), core.StockMovement{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Type:        core.StockMovementType(req.Type),
		Quantity:    req.Quantity,
		Reference:   req.Reference,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toStockMovementJSON(created))
}

func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rows, err := s.stock.History(r.Context(), vars["product"], vars["warehouse"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]stockHistoryRowJSON, len(rows))
	for i, row := range rows {
		out[i] = stockHistoryRowJSON{
			Movement: toStockMovementJSON(row.Movement),
			Balance:  row.Balance,
		}
	}
	respondJSON(w, http.StatusOK, out)
}
