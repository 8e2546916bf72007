// Package repository содержит типизированные репозитории доменных сущностей
// поверх обобщённого хранилища. Здесь же выполняется преобразование ключей
// между camelCase модели и snake_case хранилища.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/casing"
	"github.com/mmeshcher/service-tracker/internal/store"
)

var (
	// ErrNotFound возвращается, если запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict возвращается, если запись была изменена параллельно.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrDuplicate возвращается при нарушении уникальности.
	ErrDuplicate = store.ErrDuplicate
)

// Repositories объединяет репозитории, работающие через одно хранилище или транзакцию.
type Repositories struct {
	Orders         *OrderRepository
	PartRequests   *PartRequestRepository
	Spareparts     *SparepartRepository
	PurchaseOrders *PurchaseOrderRepository
	QCReports      *QCReportRepository
	Invoices       *InvoiceRepository
	Profiles       *ProfileRepository
	Credentials    *CredentialRepository
}

// New создаёт набор репозиториев поверх st.
func New(st store.Store) *Repositories {
	return &Repositories{
		Orders:         &OrderRepository{st: st},
		PartRequests:   &PartRequestRepository{st: st},
		Spareparts:     &SparepartRepository{st: st},
		PurchaseOrders: &PurchaseOrderRepository{st: st},
		QCReports:      &QCReportRepository{st: st},
		Invoices:       &InvoiceRepository{st: st},
		Profiles:       &ProfileRepository{st: st},
		Credentials:    &CredentialRepository{st: st},
	}
}

// toRecord переводит доменную сущность в запись хранилища.
func toRecord(v any) (store.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return store.Record(casing.SnakeMap(m)), nil
}

// fromRecord заполняет доменную сущность из записи хранилища.
func fromRecord(rec store.Record, out any) error {
	data, err := json.Marshal(casing.CamelMap(rec))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func fromRecords[T any](recs []store.Record) ([]T, error) {
	res := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := fromRecord(rec, &v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func selectOne[T any](ctx context.Context, st store.Store, collection string, q store.Query) (*T, error) {
	recs, err := st.Select(ctx, collection, q.Take(1))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	var v T
	if err := fromRecord(recs[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}
