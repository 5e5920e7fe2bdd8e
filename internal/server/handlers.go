package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/gpos/internal/integrity"
	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/pos"
)

// Handler serves the API for one manager.
type Handler struct {
	m *pos.Manager
}

// NewHandler returns a Handler backed by m.
func NewHandler(m *pos.Manager) *Handler {
	return &Handler{m: m}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"pending": h.m.HasUnsavedChanges(),
	})
}

// Products

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var products []model.Product
	switch {
	case query.Get("barcode") != "":
		products = []model.Product{}
		if p, ok := h.m.ProductByBarcode(query.Get("barcode")); ok {
			products = append(products, p)
		}
	case query.Get("low_stock") != "":
		low, err := strconv.ParseBool(query.Get("low_stock"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "low_stock must be true or false")
			return
		}
		if low {
			products = h.m.LowStockProducts()
		} else {
			products = h.m.Products()
		}
	case query.Get("search") != "":
		products = h.m.SearchProducts(query.Get("search"))
	default:
		products = h.m.Products()
	}

	if category := query.Get("category"); category != "" {
		filtered := []model.Product{}
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": products, "count": len(products)})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.m.Product(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// productRequest carries the fields of a create or patch. Absent fields
// keep their current (or default) value. Price is in cents.
type productRequest struct {
	ID            *int    `json:"id"`
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	Category      *string `json:"category"`
	Quantity      *int    `json:"quantity"`
	MinStockLevel *int    `json:"min_stock_level"`
	Barcode       *string `json:"barcode"`
	Active        *bool   `json:"active"`
}

func (req productRequest) apply(p *model.Product) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	}
	if req.Barcode != nil {
		p.Barcode = *req.Barcode
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || req.Price == nil {
		writeError(w, http.StatusBadRequest, "name and price are required")
		return
	}

	p := model.NewProduct("", 0, "")
	req.apply(&p)
	if req.ID != nil {
		p.ID = *req.ID
	}
	if err := p.Validate(); err != nil {
		writeErrorWithErr(w, http.StatusUnprocessableEntity, "", err)
		return
	}
	if p.ID != 0 {
		if _, exists := h.m.Product(p.ID); exists {
			writeError(w, http.StatusConflict, fmt.Sprintf("product id %d already exists", p.ID))
			return
		}
	}
	writeJSON(w, http.StatusCreated, h.m.AddProduct(p))
}

func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != nil && *req.ID != id {
		writeError(w, http.StatusBadRequest, "product id cannot be changed")
		return
	}

	p, ok := h.m.Product(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		return
	}
	req.apply(&p)
	if err := p.Validate(); err != nil {
		writeErrorWithErr(w, http.StatusUnprocessableEntity, "", err)
		return
	}
	h.m.UpdateProduct(p)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.m.DeleteProduct(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Categories())
}

// Transactions

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.m.DayRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs := h.m.TransactionsBetween(start, end)
	var total int64
	for _, tx := range txs {
		total += tx.Total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": txs,
		"count": len(txs),
		"total": total,
	})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, ok := h.m.Transaction(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("transaction %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req pos.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := h.m.Checkout(req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, tx)
	case errors.Is(err, pos.ErrEmptySale), errors.Is(err, pos.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

// Settings

func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Settings())
}

func (h *Handler) PatchSettings(w http.ResponseWriter, r *http.Request) {
	var values model.Settings
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.m.UpdateSettings(values); err != nil {
		if errors.Is(err, integrity.ErrInvalidSettings) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeErrorWithErr(w, http.StatusInternalServerError, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.m.Settings())
}

// Persistence

func (h *Handler) Save(w http.ResponseWriter, _ *http.Request) {
	if err := h.m.ForceSave(); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "save failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"saved": h.m.DataDir()})
}

func (h *Handler) ListBackups(w http.ResponseWriter, _ *http.Request) {
	list, err := h.m.Backups()
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "list backups", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateBackup(w http.ResponseWriter, _ *http.Request) {
	if _, err := h.m.FlushIfDirty(); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "save before backup", err)
		return
	}
	info, err := h.m.CreateBackup()
	if err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "backup failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

type restoreRequest struct {
	Backup string `json:"backup"`
}

func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	path, err := h.m.ResolveBackup(req.Backup)
	if err == nil {
		err = h.m.RestoreFromBackup(path)
	}
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"restored": path})
	case errors.Is(err, pos.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("backup %q not found", req.Backup))
	default:
		writeErrorWithErr(w, http.StatusInternalServerError, "restore failed", err)
	}
}

// Reports

func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Statistics())
}

func (h *Handler) Report(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.m.ExportReport(&buf); err != nil {
		writeErrorWithErr(w, http.StatusInternalServerError, "report", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
