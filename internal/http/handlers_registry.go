package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/core"
)

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryJSON, len(categories))
	for i, c := range categories {
		out[i] = categoryJSON{ID: c.ID, Name: c.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	category := core.Category{ID: uuid.NewString(), Name: req.Name}
	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, categoryJSON{ID: category.ID, Name: category.Name})
}

type productJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku,omitempty"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = productJSON{ID: p.ID, Name: p.Name, SKU: p.SKU}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		SKU  string `json:"sku"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	product := core.Product{ID: uuid.NewString(), Name: req.Name, SKU: req.SKU}
	if err := s.store.CreateProduct(r.Context(), product); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, productJSON{ID: product.ID, Name: product.Name, SKU: product.SKU})
}

type warehouseJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := s.store.ListWarehouses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]warehouseJSON, len(warehouses))
	for i, wh := range warehouses {
		out[i] = warehouseJSON{ID: wh.ID, Name: wh.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "%v", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	warehouse := core.Warehouse{ID: uuid.NewString(), Name: req.Name}
	if err := s.store.CreateWarehouse(r.Context(), warehouse); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, warehouseJSON{ID: warehouse.ID, Name: warehouse.Name})
}
