package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

func sampleOrder(now time.Time) model.Order {
	return model.Order{
		ServiceID:        "SRV-2024-001",
		CustomerName:     "PT. Sukses Selalu",
		Equipment:        "Injector",
		RequestDate:      now,
		RepairType:       model.RepairTypeMinor,
		AssignedEngineer: "N/A",
		Progress:         5,
		Status:           model.OrderStatusNew,
		RepairLogs: []model.RepairLog{{
			LogID: "LOG-1", ServiceID: "SRV-2024-001", Action: "Order Created",
			Date: now, Author: "mkt@x", Notes: "No additional notes.",
		}},
	}
}

func TestOrderRoundTripThroughSnakeCaseStore(t *testing.T) {
	mem := store.NewMemory()
	repos := New(mem)
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

	created, err := repos.Orders.Create(ctx, sampleOrder(now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	raw, err := mem.Select(ctx, store.Orders, store.Query{})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Contains(t, raw[0], "customer_name")
	logs := raw[0]["repair_logs"].([]any)
	assert.Contains(t, logs[0].(map[string]any), "log_id")

	got, err := repos.Orders.Get(ctx, "SRV-2024-001")
	require.NoError(t, err)

	want := sampleOrder(now)
	want.Version = 1
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderGetNotFound(t *testing.T) {
	repos := New(store.NewMemory())

	_, err := repos.Orders.Get(context.Background(), "SRV-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderSaveOptimisticVersion(t *testing.T) {
	repos := New(store.NewMemory())
	ctx := context.Background()

	created, err := repos.Orders.Create(ctx, sampleOrder(time.Now().UTC()))
	require.NoError(t, err)

	first := *created
	second := *created

	first.Status = model.OrderStatusRepair
	saved, err := repos.Orders.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)
	assert.Equal(t, model.OrderStatusRepair, saved.Status)

	second.Progress = 25
	_, err = repos.Orders.Save(ctx, second)
	assert.ErrorIs(t, err, ErrConflict)

	current, err := repos.Orders.Get(ctx, created.ServiceID)
	require.NoError(t, err)
	assert.Equal(t, 5, current.Progress)
}

func TestPartRequestsByServiceAndSetStatus(t *testing.T) {
	repos := New(store.NewMemory())
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"r2", "r1", "r3"} {
		serviceID := "SRV-A"
		if id == "r3" {
			serviceID = "SRV-B"
		}
		require.NoError(t, repos.PartRequests.Create(ctx, model.PartRequest{
			RequestID: id, ServiceID: serviceID, PartID: "SP-1", PartName: "Nozzle",
			QuantityRequested: 1, RequestDate: base.Add(time.Duration(3-i) * time.Hour),
			Status: model.PartRequestPending,
		}))
	}

	list, err := repos.PartRequests.ByService(ctx, "SRV-A")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].RequestID)
	assert.Equal(t, "r2", list[1].RequestID)

	require.NoError(t, repos.PartRequests.SetStatus(ctx, []string{"r1", "r2"}, model.PartRequestApproved))

	list, err = repos.PartRequests.ByService(ctx, "SRV-A")
	require.NoError(t, err)
	for _, pr := range list {
		assert.Equal(t, model.PartRequestApproved, pr.Status)
	}

	err = repos.PartRequests.SetStatus(ctx, []string{"missing"}, model.PartRequestApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfilesAndCredentials(t *testing.T) {
	repos := New(store.NewMemory())
	ctx := context.Background()

	taken, err := repos.Profiles.UsernameTaken(ctx, "eng@x")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, repos.Profiles.Create(ctx, model.Profile{ID: "u1", Username: "eng@x", Role: model.RoleEngineer}))

	taken, err = repos.Profiles.UsernameTaken(ctx, "eng@x")
	require.NoError(t, err)
	assert.True(t, taken)

	err = repos.Profiles.Create(ctx, model.Profile{ID: "u2", Username: "eng@x", Role: model.RoleQC})
	assert.ErrorIs(t, err, ErrDuplicate)

	p, err := repos.Profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleEngineer, p.Role)
	assert.Empty(t, p.CustomerOrderID)

	require.NoError(t, repos.Credentials.Create(ctx, model.Credential{ID: "u1", Email: "eng@x", PasswordHash: "h"}))
	c, err := repos.Credentials.GetByEmail(ctx, "eng@x")
	require.NoError(t, err)
	assert.Equal(t, "h", c.PasswordHash)
}

func TestSparepartSaveStockRejectsStaleRead(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, store.SeedDemo(mem, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	repos := New(mem)
	ctx := context.Background()

	first, err := repos.Spareparts.Get(ctx, "SP-003")
	require.NoError(t, err)
	second, err := repos.Spareparts.Get(ctx, "SP-003")
	require.NoError(t, err)

	first.Stock += 3
	require.NoError(t, repos.Spareparts.SaveStock(ctx, *first, 0))

	second.Stock += 3
	err = repos.Spareparts.SaveStock(ctx, *second, 0)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repos.Spareparts.Get(ctx, "SP-003")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestSparepartsAndReports(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, store.SeedDemo(mem, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	repos := New(mem)
	ctx := context.Background()

	part, err := repos.Spareparts.Get(ctx, "SP-003")
	require.NoError(t, err)
	assert.Equal(t, 0, part.Stock)

	part.Stock = 3
	part.Status = model.SparepartAvailable
	require.NoError(t, repos.Spareparts.SaveStock(ctx, *part, 0))

	part, err = repos.Spareparts.Get(ctx, "SP-003")
	require.NoError(t, err)
	assert.Equal(t, 3, part.Stock)
	assert.Equal(t, model.SparepartAvailable, part.Status)

	invoices, err := repos.Invoices.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, invoices)
	for _, inv := range invoices {
		if inv.InvoiceID == "INV-003" {
			assert.True(t, inv.Amount.Equal(decimal.RequireFromString("4300000.5")))
		}
	}

	reports, err := repos.QCReports.List(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}
