package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/projection"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/store"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

// OrderDetail — заказ с его заявками на запчасти и доступными действиями.
type OrderDetail struct {
	Order          model.Order         `json:"order"`
	PartRequests   []model.PartRequest `json:"partRequests"`
	AllowedActions []workflow.Action   `json:"allowedActions"`
}

// Board возвращает Kanban-доску заказов.
func (s *Service) Board(ctx context.Context, p *Principal) ([]projection.Column, error) {
	if err := s.requireView(p, workflow.ViewDashboard); err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Board(orders), nil
}

// CreateOrder создаёт заявку на ремонт.
func (s *Service) CreateOrder(ctx context.Context, p *Principal, draft workflow.OrderDraft) (*model.Order, error) {
	o, err := s.engine.NewOrder(p.Actor(), draft)
	if err != nil {
		return nil, err
	}

	created, err := s.repos.Orders.Create(ctx, *o)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		zap.String("serviceId", created.ServiceID), zap.String("author", p.Profile.Username))
	return created, nil
}

// OrderDetail возвращает заказ с заявками и действиями, доступными пользователю.
func (s *Service) OrderDetail(ctx context.Context, p *Principal, serviceID string) (*OrderDetail, error) {
	if err := s.requireView(p, workflow.ViewDashboard); err != nil {
		return nil, err
	}

	o, err := s.repos.Orders.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	requests, err := s.repos.PartRequests.ByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	actions := s.engine.AllowedActions(p.Actor(), *o, requests)
	if actions == nil {
		actions = []workflow.Action{}
	}
	if requests == nil {
		requests = []model.PartRequest{}
	}
	return &OrderDetail{Order: *o, PartRequests: requests, AllowedActions: actions}, nil
}

// Act выполняет действие над заказом. Все записи перехода сохраняются
// в одной транзакции хранилища; при ошибке заказ остаётся прежним.
func (s *Service) Act(ctx context.Context, p *Principal, serviceID string, cmd workflow.Command) (*model.Order, error) {
	o, err := s.repos.Orders.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	requests, err := s.repos.PartRequests.ByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	var part *model.Sparepart
	if cmd.Action == workflow.ActionRequestParts && cmd.PartID != "" {
		part, err = s.repos.Spareparts.Get(ctx, cmd.PartID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	out, err := s.engine.Apply(p.Actor(), *o, requests, part, cmd)
	if err != nil {
		return nil, err
	}

	saved, err := s.persist(ctx, out)
	if err != nil {
		s.logger.Error("order transition not saved",
			zap.String("serviceId", serviceID),
			zap.String("action", string(cmd.Action)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("order transition",
		zap.String("serviceId", serviceID),
		zap.String("action", string(cmd.Action)),
		zap.String("status", string(saved.Status)),
		zap.Int("progress", saved.Progress))
	return saved, nil
}

// persist записывает результат перехода. Заказ пишется первым, чтобы конфликт
// версий обнаруживался до остальных записей.
func (s *Service) persist(ctx context.Context, out *workflow.Outcome) (*model.Order, error) {
	var saved *model.Order
	err := s.st.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		repos := repository.New(tx)

		var err error
		saved, err = repos.Orders.Save(ctx, out.Order)
		if err != nil {
			return err
		}

		if out.NewRequest != nil {
			if err := repos.PartRequests.Create(ctx, *out.NewRequest); err != nil {
				return err
			}
		}

		for status, ids := range requestIDsByStatus(out.UpdatedRequests) {
			if err := repos.PartRequests.SetStatus(ctx, ids, status); err != nil {
				return err
			}
		}

		for _, po := range out.PurchaseOrders {
			if err := repos.PurchaseOrders.Create(ctx, po); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func requestIDsByStatus(requests []model.PartRequest) map[model.PartRequestStatus][]string {
	res := make(map[model.PartRequestStatus][]string)
	for _, pr := range requests {
		res[pr.Status] = append(res[pr.Status], pr.RequestID)
	}
	return res
}
