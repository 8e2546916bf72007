package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/service-tracker/internal/export"
	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/projection"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

// PartRequestGroups возвращает заявки на запчасти, сгруппированные по заказам.
func (s *Service) PartRequestGroups(ctx context.Context, p *Principal) ([]projection.PartRequestGroup, error) {
	if err := s.requireView(p, workflow.ViewPartRequests); err != nil {
		return nil, err
	}
	requests, err := s.repos.PartRequests.List(ctx)
	if err != nil {
		return nil, err
	}
	return projection.GroupPartRequests(requests), nil
}

// ReviewPartRequests одобряет или отклоняет все ожидающие заявки заказа.
// Переход выполняется тем же действием движка, что и из карточки заказа.
func (s *Service) ReviewPartRequests(ctx context.Context, p *Principal, serviceID string, approve bool) (*model.Order, error) {
	action := workflow.ActionRejectParts
	if approve {
		action = workflow.ActionApproveParts
	}
	return s.Act(ctx, p, serviceID, workflow.Command{Action: action})
}

// RPL формирует Recommended Part List заказа. Возвращает содержимое файла и его имя.
func (s *Service) RPL(ctx context.Context, p *Principal, serviceID string) ([]byte, string, error) {
	if err := s.requireView(p, workflow.ViewPartRequests); err != nil {
		return nil, "", err
	}

	requests, err := s.repos.PartRequests.ByService(ctx, serviceID)
	if err != nil {
		return nil, "", err
	}
	groups := projection.GroupPartRequests(requests)
	if len(groups) == 0 {
		return nil, "", fmt.Errorf("part requests for %s: %w", serviceID, repository.ErrNotFound)
	}
	if st := groups[0].Status; st != model.PartRequestApproved && st != model.PartRequestOrdered {
		return nil, "", invalid("Part list is available only for approved or ordered requests.")
	}

	o, err := s.repos.Orders.Get(ctx, serviceID)
	if err != nil {
		return nil, "", err
	}

	data, err := export.RPL(groups[0], o.RepairLogs)
	if err != nil {
		return nil, "", err
	}
	return data, export.RPLFileName(serviceID), nil
}

// QCReports возвращает протоколы контроля качества.
func (s *Service) QCReports(ctx context.Context, p *Principal) ([]model.QCReport, error) {
	if err := s.requireView(p, workflow.ViewQC); err != nil {
		return nil, err
	}
	return s.repos.QCReports.List(ctx)
}

// Invoices возвращает счета.
func (s *Service) Invoices(ctx context.Context, p *Principal) ([]model.Invoice, error) {
	if err := s.requireView(p, workflow.ViewFinance); err != nil {
		return nil, err
	}
	return s.repos.Invoices.List(ctx)
}

// FinanceSummary возвращает итоги по счетам.
func (s *Service) FinanceSummary(ctx context.Context, p *Principal) (*projection.FinanceSummary, error) {
	invoices, err := s.Invoices(ctx, p)
	if err != nil {
		return nil, err
	}
	summary := projection.Finance(invoices)
	return &summary, nil
}

// Portal возвращает ход ремонта заказа, привязанного к клиенту.
func (s *Service) Portal(ctx context.Context, p *Principal) (*projection.CustomerTimeline, error) {
	if err := s.requireView(p, workflow.ViewCustomerPortal); err != nil {
		return nil, err
	}

	serviceID := strings.TrimSpace(p.Profile.CustomerOrderID)
	if !validation.IsValidServiceID(serviceID) {
		return nil, invalid("Invalid or missing Service ID.")
	}

	o, err := s.repos.Orders.Get(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("portal order %s: %w", serviceID, err)
	}

	timeline := projection.Timeline(*o)
	return &timeline, nil
}
