package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres хранит коллекции в таблицах PostgreSQL.
type Postgres struct {
	pool   *pgxpool.Pool
	q      querier
	inTx   bool
	delays []time.Duration
}

// NewPostgres подключается к БД и применяет миграции.
func NewPostgres(dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{
		pool:   pool,
		q:      pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Select выполняет выборку. Временные ошибки соединения и сериализации повторяются.
func (p *Postgres) Select(ctx context.Context, collection string, q Query) ([]Record, error) {
	t, err := validate(collection, nil, q)
	if err != nil {
		return nil, err
	}

	sql, args := buildSelect(collection, t, q)

	var res []Record
	err = p.withRetry(ctx, func() error {
		var err error
		res, err = p.query(ctx, sql, args)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	return res, nil
}

// Insert добавляет строку и возвращает её в сохранённом виде.
func (p *Postgres) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	t, err := validate(collection, rec, Query{})
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("insert %s: empty record", collection)
	}

	sql, args := buildInsert(collection, t, rec)
	rows, err := p.query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, translate(err))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert %s: no row returned", collection)
	}
	return rows[0], nil
}

// Update изменяет строки, подходящие под фильтры.
func (p *Postgres) Update(ctx context.Context, collection string, fields Record, filters ...Filter) ([]Record, error) {
	t, err := validate(collection, fields, Query{Filters: filters})
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("update %s: no fields", collection)
	}

	sql, args := buildUpdate(collection, t, fields, filters)
	rows, err := p.query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, translate(err))
	}
	return rows, nil
}

// WithinTx выполняет fn в транзакции. Вложенные вызовы используют текущую транзакцию.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if p.inTx {
		return fn(ctx, p)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inner := &Postgres{pool: p.pool, q: tx, inTx: true}
	if err := fn(ctx, inner); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close закрывает пул соединений с БД.
func (p *Postgres) Close() error {
	if !p.inTx {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) query(ctx context.Context, sql string, args []any) ([]Record, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var res []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make(Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = values[i]
		}
		res = append(res, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

func (p *Postgres) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(p.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(p.delays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
	}
	return err
}

// sqlBuilder накапливает параметры запроса.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) param(v any, typ ColumnType) string {
	b.args = append(b.args, sqlParam(v))
	if typ == TypeText {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return fmt.Sprintf("$%d::text::%s", len(b.args), typ)
}

func (b *sqlBuilder) where(t Table, filters []Filter) string {
	if len(filters) == 0 {
		return ""
	}
	conds := make([]string, 0, len(filters))
	for _, f := range filters {
		col := ident(f.Column)
		typ := t.Columns[f.Column]
		switch f.Op {
		case OpEq:
			if normalize(f.Value) == nil {
				conds = append(conds, col+" IS NULL")
				continue
			}
			conds = append(conds, col+" = "+b.param(f.Value, typ))
		case OpGt:
			conds = append(conds, col+" > "+b.param(f.Value, typ))
		case OpIn:
			values := inValues(f.Value)
			texts := make([]string, len(values))
			for i, v := range values {
				texts[i] = textOf(v)
			}
			b.args = append(b.args, texts)
			conds = append(conds, fmt.Sprintf("%s = ANY($%d::text[]::%s[])", col, len(b.args), typ))
		}
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func returning(t Table) string {
	names := t.ColumnNames()
	cols := make([]string, len(names))
	for i, name := range names {
		if t.Columns[name] == TypeNumeric {
			cols[i] = fmt.Sprintf("%s::text AS %s", ident(name), ident(name))
			continue
		}
		cols[i] = ident(name)
	}
	return strings.Join(cols, ", ")
}

func buildSelect(collection string, t Table, q Query) (string, []any) {
	var b sqlBuilder
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(returning(t))
	sb.WriteString(" FROM ")
	sb.WriteString(ident(collection))
	sb.WriteString(b.where(t, q.Filters))

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = ident(o.Column) + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}
	return sb.String(), b.args
}

func buildInsert(collection string, t Table, rec Record) (string, []any) {
	var b sqlBuilder
	names := sortedKeys(rec)
	cols := make([]string, len(names))
	values := make([]string, len(names))
	for i, name := range names {
		cols[i] = ident(name)
		values[i] = b.param(rec[name], t.Columns[name])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		ident(collection), strings.Join(cols, ", "), strings.Join(values, ", "), returning(t))
	return sql, b.args
}

func buildUpdate(collection string, t Table, fields Record, filters []Filter) (string, []any) {
	var b sqlBuilder
	names := sortedKeys(fields)
	sets := make([]string, len(names))
	for i, name := range names {
		sets[i] = ident(name) + " = " + b.param(fields[name], t.Columns[name])
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s",
		ident(collection), strings.Join(sets, ", "), b.where(t, filters), returning(t))
	return sql, b.args
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
