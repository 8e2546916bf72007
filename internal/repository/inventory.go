package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

// SparepartRepository хранит складские позиции.
type SparepartRepository struct {
	st store.Store
}

// List возвращает склад, упорядоченный по идентификатору позиции.
func (r *SparepartRepository) List(ctx context.Context) ([]model.Sparepart, error) {
	recs, err := r.st.Select(ctx, store.Spareparts, store.Query{}.Sort("part_id", false))
	if err != nil {
		return nil, fmt.Errorf("list spareparts: %w", err)
	}
	return fromRecords[model.Sparepart](recs)
}

// Get возвращает позицию склада.
func (r *SparepartRepository) Get(ctx context.Context, partID string) (*model.Sparepart, error) {
	p, err := selectOne[model.Sparepart](ctx, r.st, store.Spareparts, store.Where(store.Eq("part_id", partID)))
	if err != nil {
		return nil, fmt.Errorf("get sparepart %s: %w", partID, err)
	}
	return p, nil
}

// SaveStock записывает остаток и статус позиции, если остаток в хранилище
// всё ещё равен previous. Иначе возвращает ErrConflict.
func (r *SparepartRepository) SaveStock(ctx context.Context, p model.Sparepart, previous int) error {
	updated, err := r.st.Update(ctx, store.Spareparts,
		store.Record{"stock": p.Stock, "status": string(p.Status)},
		store.Eq("part_id", p.PartID),
		store.Eq("stock", previous),
	)
	if err != nil {
		return fmt.Errorf("update sparepart %s: %w", p.PartID, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("update sparepart %s: %w", p.PartID, ErrConflict)
	}
	return nil
}

// PurchaseOrderRepository хранит заказы на закупку.
type PurchaseOrderRepository struct {
	st store.Store
}

// List возвращает заказы на закупку, новые первыми.
func (r *PurchaseOrderRepository) List(ctx context.Context) ([]model.PurchaseOrder, error) {
	recs, err := r.st.Select(ctx, store.PurchaseOrders, store.Query{}.Sort("request_date", true))
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return fromRecords[model.PurchaseOrder](recs)
}

// Create сохраняет заказ на закупку.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po model.PurchaseOrder) error {
	rec, err := toRecord(po)
	if err != nil {
		return err
	}
	if _, err := r.st.Insert(ctx, store.PurchaseOrders, rec); err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}
	return nil
}
