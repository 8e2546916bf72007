package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/service-tracker/internal/service"
)

type stockRequest struct {
	Quantity int `json:"quantity"`
}

// Spareparts возвращает склад запчастей.
func (h *Handler) Spareparts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	parts, err := h.service.Spareparts(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, parts)
}

// AddStock пополняет остаток позиции.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	part, err := h.service.AddStock(r.Context(), p, chi.URLParam(r, "partId"), req.Quantity)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, part)
}

// RequestPurchase создаёт заказ на закупку позиции.
func (h *Handler) RequestPurchase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req service.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	po, err := h.service.RequestPurchase(r.Context(), p, chi.URLParam(r, "partId"), req)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, po)
}

// PurchaseOrders возвращает заказы на закупку.
func (h *Handler) PurchaseOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	pos, err := h.service.PurchaseOrders(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, pos)
}
