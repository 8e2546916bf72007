package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PartRequests возвращает заявки на запчасти, сгруппированные по заказам.
func (h *Handler) PartRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	groups, err := h.service.PartRequestGroups(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, groups)
}

// ReviewPartRequests одобряет или отклоняет ожидающие заявки заказа.
func (h *Handler) ReviewPartRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var approve bool
	switch chi.URLParam(r, "decision") {
	case "approve":
		approve = true
	case "reject":
	default:
		h.respondWithError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	o, err := h.service.ReviewPartRequests(r.Context(), p, chi.URLParam(r, "serviceId"), approve)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, o)
}

// RPL отдаёт Recommended Part List заказа в формате xlsx.
func (h *Handler) RPL(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	data, name, err := h.service.RPL(r.Context(), p, chi.URLParam(r, "serviceId"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("write rpl", zap.Error(err))
	}
}

// QCReports возвращает протоколы контроля качества.
func (h *Handler) QCReports(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	reports, err := h.service.QCReports(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, reports)
}

// Invoices возвращает счета.
func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	invoices, err := h.service.Invoices(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, invoices)
}

// FinanceSummary возвращает итоги по счетам.
func (h *Handler) FinanceSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	summary, err := h.service.FinanceSummary(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// Portal возвращает ход ремонта заказа клиента.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	timeline, err := h.service.Portal(r.Context(), p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, timeline)
}
