package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	q := Where(Eq("service_id", "SRV-1"), Gt("quantity_requested", 2), In("status", "Pending", "Approved")).
		Sort("request_date", true).
		Take(10)

	sql, args := buildSelect(PartRequests, Schema[PartRequests], q)

	assert.Contains(t, sql, `FROM "part_requests" WHERE "service_id" = $1 AND "quantity_requested" > $2::text::integer`)
	assert.Contains(t, sql, `"status" = ANY($3::text[]::text[])`)
	assert.Contains(t, sql, `ORDER BY "request_date" DESC LIMIT 10`)
	assert.Equal(t, []any{"SRV-1", "2", []string{"Pending", "Approved"}}, args)
}

func TestBuildSelectCastsNumericToText(t *testing.T) {
	sql, args := buildSelect(Invoices, Schema[Invoices], Query{})

	assert.Contains(t, sql, `"amount"::text AS "amount"`)
	assert.Empty(t, args)
}

func TestBuildSelectNullEquality(t *testing.T) {
	sql, args := buildSelect(Orders, Schema[Orders], Where(Eq("qc_result", nil)))

	assert.Contains(t, sql, `WHERE "qc_result" IS NULL`)
	assert.Empty(t, args)
}

func TestBuildInsert(t *testing.T) {
	rec := Record{
		"service_id":  "SRV-1",
		"progress":    float64(5),
		"repair_logs": []any{map[string]any{"log_id": "L1"}},
		"qc_result":   nil,
	}

	sql, args := buildInsert(Orders, Schema[Orders], rec)

	assert.Contains(t, sql, `INSERT INTO "orders" ("progress", "qc_result", "repair_logs", "service_id") VALUES ($1::text::integer, $2, $3::text::jsonb, $4) RETURNING `)
	assert.Equal(t, []any{"5", nil, `[{"log_id":"L1"}]`, "SRV-1"}, args)
}

func TestBuildUpdate(t *testing.T) {
	sql, args := buildUpdate(Orders, Schema[Orders],
		Record{"status": "Quality Control", "version": float64(4)},
		[]Filter{Eq("service_id", "SRV-1"), Eq("version", 3)},
	)

	assert.Contains(t, sql, `UPDATE "orders" SET "status" = $1, "version" = $2::text::bigint WHERE "service_id" = $3 AND "version" = $4::text::bigint RETURNING `)
	assert.Equal(t, []any{"Quality Control", "4", "SRV-1", "3"}, args)
}

func TestTranslateUniqueViolation(t *testing.T) {
	err := translate(&pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (username)=(a) already exists."})
	assert.ErrorIs(t, err, ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestWithRetry(t *testing.T) {
	p := &Postgres{delays: []time.Duration{time.Millisecond, time.Millisecond}}
	ctx := context.Background()

	t.Run("retries serialization failures", func(t *testing.T) {
		calls := 0
		err := p.withRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all delays", func(t *testing.T) {
		calls := 0
		err := p.withRetry(ctx, func() error {
			calls++
			return fmt.Errorf("dial: connection refused")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		err := p.withRetry(ctx, func() error {
			calls++
			return &pgconn.PgError{Code: pgerrcode.UndefinedTable}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
