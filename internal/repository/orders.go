package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

// OrderRepository хранит ремонтные заказы.
type OrderRepository struct {
	st store.Store
}

// List возвращает все заказы, новые первыми.
func (r *OrderRepository) List(ctx context.Context) ([]model.Order, error) {
	recs, err := r.st.Select(ctx, store.Orders, store.Query{}.Sort("request_date", true))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return fromRecords[model.Order](recs)
}

// Get возвращает заказ по идентификатору.
func (r *OrderRepository) Get(ctx context.Context, serviceID string) (*model.Order, error) {
	o, err := selectOne[model.Order](ctx, r.st, store.Orders, store.Where(store.Eq("service_id", serviceID)))
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", serviceID, err)
	}
	return o, nil
}

// Create сохраняет новый заказ с версией 1.
func (r *OrderRepository) Create(ctx context.Context, o model.Order) (*model.Order, error) {
	o.Version = 1
	if o.RepairLogs == nil {
		o.RepairLogs = []model.RepairLog{}
	}

	rec, err := toRecord(o)
	if err != nil {
		return nil, err
	}

	saved, err := r.st.Insert(ctx, store.Orders, rec)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var res model.Order
	if err := fromRecord(saved, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Save записывает заказ, если его версия в хранилище равна o.Version, и
// увеличивает версию. Иначе возвращает ErrConflict.
func (r *OrderRepository) Save(ctx context.Context, o model.Order) (*model.Order, error) {
	expected := o.Version
	o.Version = expected + 1
	if o.RepairLogs == nil {
		o.RepairLogs = []model.RepairLog{}
	}

	rec, err := toRecord(o)
	if err != nil {
		return nil, err
	}
	delete(rec, "service_id")

	updated, err := r.st.Update(ctx, store.Orders, rec,
		store.Eq("service_id", o.ServiceID),
		store.Eq("version", expected),
	)
	if err != nil {
		return nil, fmt.Errorf("save order %s: %w", o.ServiceID, err)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("save order %s: %w", o.ServiceID, ErrConflict)
	}

	var res model.Order
	if err := fromRecord(updated[0], &res); err != nil {
		return nil, err
	}
	return &res, nil
}
