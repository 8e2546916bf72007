// Package handler содержит HTTP-обработчики API сервиса учёта ремонтных заказов.
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/middleware"
	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/projection"
	"github.com/mmeshcher/service-tracker/internal/service"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SignUp(ctx context.Context, in service.SignUpInput) (*model.Profile, error)
	Login(ctx context.Context, email, password string) (*service.Principal, error)
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
	Logout(ctx context.Context, token string) error
	Views(p *service.Principal) []workflow.View

	Board(ctx context.Context, p *service.Principal) ([]projection.Column, error)
	CreateOrder(ctx context.Context, p *service.Principal, draft workflow.OrderDraft) (*model.Order, error)
	OrderDetail(ctx context.Context, p *service.Principal, serviceID string) (*service.OrderDetail, error)
	Act(ctx context.Context, p *service.Principal, serviceID string, cmd workflow.Command) (*model.Order, error)

	Spareparts(ctx context.Context, p *service.Principal) ([]model.Sparepart, error)
	AddStock(ctx context.Context, p *service.Principal, partID string, quantity int) (*model.Sparepart, error)
	RequestPurchase(ctx context.Context, p *service.Principal, partID string, in service.PurchaseRequest) (*model.PurchaseOrder, error)
	PurchaseOrders(ctx context.Context, p *service.Principal) ([]model.PurchaseOrder, error)

	PartRequestGroups(ctx context.Context, p *service.Principal) ([]projection.PartRequestGroup, error)
	ReviewPartRequests(ctx context.Context, p *service.Principal, serviceID string, approve bool) (*model.Order, error)
	RPL(ctx context.Context, p *service.Principal, serviceID string) ([]byte, string, error)

	QCReports(ctx context.Context, p *service.Principal) ([]model.QCReport, error)
	Invoices(ctx context.Context, p *service.Principal) ([]model.Invoice, error)
	FinanceSummary(ctx context.Context, p *service.Principal) (*projection.FinanceSummary, error)
	Portal(ctx context.Context, p *service.Principal) (*projection.CustomerTimeline, error)
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт обработчик HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	h := &Handler{
		service: s,
		logger:  logger,
	}
	h.authMiddleware = middleware.NewAuthMiddleware(s, h.respondWithErr)
	return h
}

// principal возвращает пользователя запроса. Маршрут должен быть закрыт AuthMiddleware.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*service.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return nil, false
	}
	return p, true
}
