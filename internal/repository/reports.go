package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

// QCReportRepository читает протоколы контроля качества.
type QCReportRepository struct {
	st store.Store
}

// List возвращает протоколы, новые первыми.
func (r *QCReportRepository) List(ctx context.Context) ([]model.QCReport, error) {
	recs, err := r.st.Select(ctx, store.QCReports, store.Query{}.Sort("inspection_date", true))
	if err != nil {
		return nil, fmt.Errorf("list qc reports: %w", err)
	}
	return fromRecords[model.QCReport](recs)
}

// InvoiceRepository читает счета.
type InvoiceRepository struct {
	st store.Store
}

// List возвращает счета, новые первыми.
func (r *InvoiceRepository) List(ctx context.Context) ([]model.Invoice, error) {
	recs, err := r.st.Select(ctx, store.Invoices, store.Query{}.Sort("issue_date", true))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return fromRecords[model.Invoice](recs)
}
