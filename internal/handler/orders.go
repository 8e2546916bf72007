package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

type createOrderRequest struct {
	CustomerName string           `json:"customerName" validate:"required"`
	Equipment    string           `json:"equipment" validate:"required"`
	RepairType   model.RepairType `json:"repairType" validate:"required"`
}

type actionRequest struct {
	Notes      string           `json:"notes"`
	RepairType model.RepairType `json:"repairType"`
	PartID     string           `json:"partId"`
	Quantity   int              `json:"quantity"`
	Result     model.QCResult   `json:"result"`
}

// Board возвращает Kanban-доску заказов.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	cols, err := h.service.Board(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, cols)
}

// CreateOrder создаёт заявку на ремонт.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.respondWithError(w, http.StatusUnprocessableEntity, "All fields are required.")
		return
	}

	o, err := h.service.CreateOrder(r.Context(), p, workflow.OrderDraft{
		CustomerName: req.CustomerName,
		Equipment:    req.Equipment,
		RepairType:   req.RepairType,
	})
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, o)
}

// OrderDetail возвращает заказ с заявками на запчасти и доступными действиями.
func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	detail, err := h.service.OrderDetail(r.Context(), p, chi.URLParam(r, "serviceId"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, detail)
}

// Act выполняет действие над заказом и возвращает его новое состояние.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.service.Act(r.Context(), p, chi.URLParam(r, "serviceId"), workflow.Command{
		Action:     workflow.Action(chi.URLParam(r, "action")),
		Notes:      req.Notes,
		RepairType: req.RepairType,
		PartID:     req.PartID,
		Quantity:   req.Quantity,
		Result:     req.Result,
	})
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, o)
}
