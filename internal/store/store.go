// Package store описывает обобщённое хранилище коллекций записей и его реализации:
// PostgreSQL, REST-бэкенд и хранилище в памяти.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Имена коллекций.
const (
	Orders         = "orders"
	Spareparts     = "spareparts"
	PartRequests   = "part_requests"
	PurchaseOrders = "purchase_orders"
	QCReports      = "qc_reports"
	Invoices       = "invoices"
	Users          = "users"
	AuthUsers      = "auth_users"
)

var (
	// ErrDuplicate возвращается при нарушении уникальности ключа или уникального поля.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnknownCollection возвращается при обращении к неизвестной коллекции.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnknownColumn возвращается при обращении к неизвестному полю коллекции.
	ErrUnknownColumn = errors.New("unknown column")
)

// Record — запись коллекции с ключами в snake_case.
type Record map[string]any

// Op — оператор фильтра.
type Op string

const (
	OpEq Op = "eq"
	OpGt Op = "gt"
	OpIn Op = "in"
)

// Filter ограничивает выборку или обновление по значению поля.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq строит фильтр равенства.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Gt строит фильтр "больше".
func Gt(column string, value any) Filter {
	return Filter{Column: column, Op: OpGt, Value: value}
}

// In строит фильтр принадлежности множеству.
func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Order задаёт сортировку выборки.
type Order struct {
	Column string
	Desc   bool
}

// Query описывает выборку: фильтры объединяются через AND.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
}

// Where создаёт запрос с указанными фильтрами.
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// Sort добавляет сортировку к запросу.
func (q Query) Sort(column string, desc bool) Query {
	q.OrderBy = append(q.OrderBy, Order{Column: column, Desc: desc})
	return q
}

// Take ограничивает количество записей.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Store — внешнее хранилище записей.
type Store interface {
	Select(ctx context.Context, collection string, q Query) ([]Record, error)
	Insert(ctx context.Context, collection string, rec Record) (Record, error)
	// Update изменяет переданные поля у всех записей, подходящих под фильтры,
	// и возвращает изменённые записи. Пустой результат не является ошибкой.
	Update(ctx context.Context, collection string, fields Record, filters ...Filter) ([]Record, error)
	// WithinTx выполняет fn в транзакции, если бэкенд её поддерживает.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Close() error
}

// validate проверяет коллекцию, поля записи и фильтров по схеме.
func validate(collection string, rec Record, q Query) (Table, error) {
	t, ok := Schema[collection]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	for col := range rec {
		if _, ok := t.Columns[col]; !ok {
			return Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, collection, col)
		}
	}
	for _, f := range q.Filters {
		if _, ok := t.Columns[f.Column]; !ok {
			return Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, collection, f.Column)
		}
		switch f.Op {
		case OpEq, OpGt, OpIn:
		default:
			return Table{}, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	for _, o := range q.OrderBy {
		if _, ok := t.Columns[o.Column]; !ok {
			return Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, collection, o.Column)
		}
	}
	return t, nil
}
