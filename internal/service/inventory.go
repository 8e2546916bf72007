package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

// Spareparts возвращает склад запчастей.
func (s *Service) Spareparts(ctx context.Context, p *Principal) ([]model.Sparepart, error) {
	if err := s.requireView(p, workflow.ViewSpareparts); err != nil {
		return nil, err
	}
	return s.repos.Spareparts.List(ctx)
}

// AddStock увеличивает остаток позиции. Положительный остаток делает позицию
// доступной, иначе статус не меняется.
func (s *Service) AddStock(ctx context.Context, p *Principal, partID string, quantity int) (*model.Sparepart, error) {
	if err := s.requireGlobal(p, workflow.ActionAddStock); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, invalid("Quantity must be a positive number.")
	}

	part, err := s.repos.Spareparts.Get(ctx, partID)
	if err != nil {
		return nil, err
	}
	if quantity > model.MaxStock-part.Stock {
		return nil, invalid(fmt.Sprintf("Stock cannot exceed %d.", model.MaxStock))
	}

	previous := part.Stock
	part.Stock += quantity
	if part.Stock > 0 {
		part.Status = model.SparepartAvailable
	}
	if err := s.repos.Spareparts.SaveStock(ctx, *part, previous); err != nil {
		return nil, err
	}

	s.logger.Info("stock added",
		zap.String("partId", partID), zap.Int("quantity", quantity), zap.Int("stock", part.Stock))
	return part, nil
}

// PurchaseRequest — заявка на закупку со склада, не привязанная к заказу.
type PurchaseRequest struct {
	Quantity      int    `json:"quantity"`
	Justification string `json:"justification"`
}

// RequestPurchase создаёт заказ на закупку позиции склада.
func (s *Service) RequestPurchase(ctx context.Context, p *Principal, partID string, in PurchaseRequest) (*model.PurchaseOrder, error) {
	if err := s.requireGlobal(p, workflow.ActionRequestPurchase); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, invalid("Quantity must be greater than zero.")
	}
	justification := strings.TrimSpace(in.Justification)
	if justification == "" {
		return nil, invalid("Justification is required.")
	}

	part, err := s.repos.Spareparts.Get(ctx, partID)
	if err != nil {
		return nil, err
	}

	po := model.PurchaseOrder{
		PurchaseOrderID: s.newID(),
		PartID:          part.PartID,
		PartName:        part.Name,
		Quantity:        in.Quantity,
		Justification:   justification,
		Requestor:       p.Profile.Username,
		RequestorID:     p.Profile.ID,
		RequestDate:     s.now(),
		Status:          model.PurchaseOrderPending,
	}
	if err := s.repos.PurchaseOrders.Create(ctx, po); err != nil {
		return nil, err
	}
	return &po, nil
}

// PurchaseOrders возвращает заказы на закупку, новые первыми.
func (s *Service) PurchaseOrders(ctx context.Context, p *Principal) ([]model.PurchaseOrder, error) {
	if err := s.requireView(p, workflow.ViewPurchaseOrders); err != nil {
		return nil, err
	}
	return s.repos.PurchaseOrders.List(ctx)
}
