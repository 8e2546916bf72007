package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/service-tracker/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.SignUp)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/auth/session", h.Session)
			r.Get("/views", h.Views)

			r.Get("/orders", h.Board)
			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/{serviceId}", h.OrderDetail)
			r.Post("/orders/{serviceId}/actions/{action}", h.Act)

			r.Get("/spareparts", h.Spareparts)
			r.Post("/spareparts/{partId}/stock", h.AddStock)
			r.Post("/spareparts/{partId}/purchase-requests", h.RequestPurchase)

			r.Get("/part-requests", h.PartRequests)
			r.Post("/part-requests/{serviceId}/{decision}", h.ReviewPartRequests)
			r.Get("/part-requests/{serviceId}/rpl", h.RPL)

			r.Get("/purchase-orders", h.PurchaseOrders)
			r.Get("/qc-reports", h.QCReports)
			r.Get("/invoices", h.Invoices)
			r.Get("/finance/summary", h.FinanceSummary)
			r.Get("/portal", h.Portal)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondWithError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondWithError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
