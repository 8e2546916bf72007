package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

// PartRequestRepository хранит заявки на запчасти.
type PartRequestRepository struct {
	st store.Store
}

// List возвращает все заявки, новые первыми.
func (r *PartRequestRepository) List(ctx context.Context) ([]model.PartRequest, error) {
	recs, err := r.st.Select(ctx, store.PartRequests, store.Query{}.Sort("request_date", true))
	if err != nil {
		return nil, fmt.Errorf("list part requests: %w", err)
	}
	return fromRecords[model.PartRequest](recs)
}

// ByService возвращает заявки по заказу в порядке подачи.
func (r *PartRequestRepository) ByService(ctx context.Context, serviceID string) ([]model.PartRequest, error) {
	q := store.Where(store.Eq("service_id", serviceID)).Sort("request_date", false)
	recs, err := r.st.Select(ctx, store.PartRequests, q)
	if err != nil {
		return nil, fmt.Errorf("list part requests of %s: %w", serviceID, err)
	}
	return fromRecords[model.PartRequest](recs)
}

// Create сохраняет новую заявку.
func (r *PartRequestRepository) Create(ctx context.Context, pr model.PartRequest) error {
	rec, err := toRecord(pr)
	if err != nil {
		return err
	}
	if _, err := r.st.Insert(ctx, store.PartRequests, rec); err != nil {
		return fmt.Errorf("create part request: %w", err)
	}
	return nil
}

// SetStatus переводит заявки с указанными идентификаторами в статус status.
func (r *PartRequestRepository) SetStatus(ctx context.Context, requestIDs []string, status model.PartRequestStatus) error {
	if len(requestIDs) == 0 {
		return nil
	}
	ids := make([]any, len(requestIDs))
	for i, id := range requestIDs {
		ids[i] = id
	}

	updated, err := r.st.Update(ctx, store.PartRequests,
		store.Record{"status": string(status)},
		store.In("request_id", ids...),
	)
	if err != nil {
		return fmt.Errorf("update part requests: %w", err)
	}
	if len(updated) != len(requestIDs) {
		return fmt.Errorf("update part requests: %d of %d updated: %w", len(updated), len(requestIDs), ErrNotFound)
	}
	return nil
}
