package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory хранит коллекции в памяти процесса. Используется в тестах и для
// локального запуска без внешней базы. Транзакции сериализуются и
// откатываются восстановлением снимка.
type Memory struct {
	txMu sync.Mutex // сериализует записи и транзакции

	mu    sync.RWMutex
	data  map[string][]Record
	fails map[string]error
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	data := make(map[string][]Record, len(Schema))
	for name := range Schema {
		data[name] = nil
	}
	return &Memory{data: data, fails: make(map[string]error)}
}

// FailNext заставляет следующую операцию op ("select", "insert", "update")
// над коллекцией вернуть err.
func (m *Memory) FailNext(collection, op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails[collection+":"+op] = err
}

// Seed добавляет записи без проверки уникальности.
func (m *Memory) Seed(collection string, recs ...Record) error {
	if _, err := validate(collection, nil, Query{}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.data[collection] = append(m.data[collection], clone(rec))
	}
	return nil
}

// Select возвращает копии подходящих записей.
func (m *Memory) Select(_ context.Context, collection string, q Query) ([]Record, error) {
	if _, err := validate(collection, nil, q); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection, "select"); err != nil {
		return nil, err
	}

	var res []Record
	for _, rec := range m.data[collection] {
		if matches(rec, q.Filters) {
			res = append(res, clone(rec))
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(res, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compare(res[i][o.Column], res[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res, nil
}

// Insert добавляет запись, проверяя первичный ключ и уникальные поля.
func (m *Memory) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.insert(ctx, collection, rec)
}

// Update изменяет поля подходящих записей.
func (m *Memory) Update(ctx context.Context, collection string, fields Record, filters ...Filter) ([]Record, error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.update(ctx, collection, fields, filters...)
}

// WithinTx выполняет fn над хранилищем, откатывая все изменения при ошибке.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := fn(ctx, memoryTx{m: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

// Close ничего не делает.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) insert(_ context.Context, collection string, rec Record) (Record, error) {
	t, err := validate(collection, rec, Query{})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection, "insert"); err != nil {
		return nil, err
	}

	stored := clone(rec)
	for _, col := range append([]string{t.Key}, t.Unique...) {
		v, ok := stored[col]
		if !ok || v == nil {
			continue
		}
		for _, existing := range m.data[collection] {
			if equal(existing[col], v) {
				return nil, fmt.Errorf("%w: %s.%s = %v", ErrDuplicate, collection, col, v)
			}
		}
	}

	for col := range t.Columns {
		if _, ok := stored[col]; !ok {
			stored[col] = nil
		}
	}

	m.data[collection] = append(m.data[collection], stored)
	return clone(stored), nil
}

func (m *Memory) update(_ context.Context, collection string, fields Record, filters ...Filter) ([]Record, error) {
	t, err := validate(collection, fields, Query{Filters: filters})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(collection, "update"); err != nil {
		return nil, err
	}

	patch := clone(fields)
	rows := m.data[collection]

	for _, col := range append([]string{t.Key}, t.Unique...) {
		v, ok := patch[col]
		if !ok || v == nil {
			continue
		}
		for _, existing := range rows {
			if !matches(existing, filters) && equal(existing[col], v) {
				return nil, fmt.Errorf("%w: %s.%s = %v", ErrDuplicate, collection, col, v)
			}
		}
	}

	var res []Record
	for i, rec := range rows {
		if !matches(rec, filters) {
			continue
		}
		updated := clone(rec)
		for k, v := range patch {
			updated[k] = v
		}
		rows[i] = updated
		res = append(res, clone(updated))
	}
	return res, nil
}

func (m *Memory) takeFailure(collection, op string) error {
	key := collection + ":" + op
	err, ok := m.fails[key]
	if !ok {
		return nil
	}
	delete(m.fails, key)
	return err
}

func (m *Memory) snapshot() map[string][]Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := make(map[string][]Record, len(m.data))
	for name, rows := range m.data {
		copied := make([]Record, len(rows))
		for i, rec := range rows {
			copied[i] = clone(rec)
		}
		snap[name] = copied
	}
	return snap
}

func (m *Memory) restore(snap map[string][]Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = snap
}

// memoryTx — представление хранилища внутри транзакции. Блокировка записи уже
// удерживается WithinTx.
type memoryTx struct {
	m *Memory
}

func (tx memoryTx) Select(ctx context.Context, collection string, q Query) ([]Record, error) {
	return tx.m.Select(ctx, collection, q)
}

func (tx memoryTx) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	return tx.m.insert(ctx, collection, rec)
}

func (tx memoryTx) Update(ctx context.Context, collection string, fields Record, filters ...Filter) ([]Record, error) {
	return tx.m.update(ctx, collection, fields, filters...)
}

func (tx memoryTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, tx)
}

func (tx memoryTx) Close() error {
	return nil
}

func clone(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	out, _ := normalize(map[string]any(rec)).(map[string]any)
	return Record(out)
}
