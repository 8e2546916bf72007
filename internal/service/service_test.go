package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/mmeshcher/service-tracker/internal/auth"
	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/projection"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/session"
	"github.com/mmeshcher/service-tracker/internal/store"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

type fixture struct {
	svc      *Service
	mem      *store.Memory
	provider *auth.Local
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	require.NoError(t, store.SeedDemo(mem, now))

	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("id%04d", seq)
	}
	engine := workflow.NewEngine(
		workflow.WithClock(func() time.Time { return now }),
		workflow.WithIDs(ids),
	)

	provider := auth.NewLocal(repository.New(mem).Credentials, session.NewMemory(), "secret", time.Hour)
	svc := NewService(mem, provider, engine, zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }
	svc.newID = ids

	return &fixture{svc: svc, mem: mem, provider: provider}
}

func as(role model.Role) *Principal {
	name := strings.ToLower(string(role)) + "@demo.local"
	return &Principal{Profile: model.Profile{ID: "u-" + name, Username: name, Role: role}}
}

func TestSignUpLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.SignUp(ctx, SignUpInput{Email: " Eng@Demo.local", Password: "secret1", Role: model.RoleEngineer})
	require.NoError(t, err)
	assert.Equal(t, "eng@demo.local", p.Username)
	assert.Equal(t, model.RoleEngineer, p.Role)

	_, err = f.svc.SignUp(ctx, SignUpInput{Email: "eng@demo.local", Password: "secret1", Role: model.RoleQC})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	principal, err := f.svc.Login(ctx, "eng@demo.local", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, principal.Profile.ID)
	assert.Equal(t, workflow.Actor{ID: p.ID, Username: "eng@demo.local", Role: model.RoleEngineer}, principal.Actor())

	again, err := f.svc.Authenticate(ctx, principal.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.Profile.ID)

	require.NoError(t, f.svc.Logout(ctx, principal.Session.AccessToken))
	_, err = f.svc.Authenticate(ctx, principal.Session.AccessToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	_, err = f.svc.Login(ctx, "eng@demo.local", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		in    SignUpInput
		field string
	}{
		{name: "customer role", in: SignUpInput{Email: "c@x.io", Password: "secret1", Role: model.RoleCustomer}, field: "Role"},
		{name: "unknown role", in: SignUpInput{Email: "c@x.io", Password: "secret1", Role: "BOSS"}, field: "Role"},
		{name: "bad email", in: SignUpInput{Email: "nope", Password: "secret1", Role: model.RoleQC}, field: "Email"},
		{name: "short password", in: SignUpInput{Email: "c@x.io", Password: "123", Role: model.RoleQC}, field: "Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(context.Background(), tt.in)
			var fe validation.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, strings.ToLower(tt.field[:1])+tt.field[1:])
		})
	}
}

func TestLoginWithoutProfileSignsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "orphan@demo.local", "secret1")
	require.NoError(t, err)

	var events []auth.Event
	unsubscribe := f.provider.OnSessionChange(func(e auth.Event, _ *auth.Session) {
		events = append(events, e)
	})
	defer unsubscribe()

	_, err = f.svc.Login(ctx, "orphan@demo.local", "secret1")
	assert.ErrorIs(t, err, ErrProfileMissing)
	assert.Equal(t, "failed to initialize session", err.Error())
	assert.Equal(t, []auth.Event{auth.EventSignedIn, auth.EventSignedOut}, events)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const id = "SRV-2024-001"

	engineer, marketing := as(model.RoleEngineer), as(model.RoleMarketing)

	o, err := f.svc.Act(ctx, engineer, id, workflow.Command{
		Action: workflow.ActionRequestParts, PartID: "SP-001", Quantity: 2, Notes: "Worn nozzle",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, o.Status)
	assert.Equal(t, 25, o.Progress)
	assert.Equal(t, int64(2), o.Version)

	detail, err := f.svc.OrderDetail(ctx, engineer, id)
	require.NoError(t, err)
	require.Len(t, detail.PartRequests, 1)
	assert.Equal(t, model.PartRequestPending, detail.PartRequests[0].Status)
	assert.NotContains(t, detail.AllowedActions, workflow.ActionSubmitDiagnosis)

	o, err = f.svc.ReviewPartRequests(ctx, marketing, id, true)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRepair, o.Status)
	assert.Equal(t, 60, o.Progress)

	o, err = f.svc.Act(ctx, engineer, id, workflow.Command{Action: workflow.ActionConfirmPurchase})
	require.NoError(t, err)
	assert.Equal(t, 70, o.Progress)

	pos, err := f.svc.PurchaseOrders(ctx, as(model.RolePPIC))
	require.NoError(t, err)
	require.Len(t, pos, 1)
	assert.Equal(t, "For service order "+id, pos[0].Justification)
	assert.Equal(t, model.PurchaseOrderPending, pos[0].Status)

	parts, err := f.svc.Spareparts(ctx, engineer)
	require.NoError(t, err)
	assert.Equal(t, 12, parts[0].Stock, "stock is not reserved by requests")

	steps := []struct {
		actor *Principal
		cmd   workflow.Command
		want  model.OrderStatus
	}{
		{engineer, workflow.Command{Action: workflow.ActionCompleteRepair}, model.OrderStatusQC},
		{as(model.RoleQC), workflow.Command{Action: workflow.ActionSubmitInspection, Result: model.QCResultPass}, model.OrderStatusDelivery},
		{as(model.RoleFinance), workflow.Command{Action: workflow.ActionConfirmPayment}, model.OrderStatusPaid},
	}
	for _, st := range steps {
		o, err = f.svc.Act(ctx, st.actor, id, st.cmd)
		require.NoError(t, err, st.cmd.Action)
		assert.Equal(t, st.want, o.Status)
	}
	assert.Equal(t, 100, o.Progress)
	assert.Len(t, o.RepairLogs, 6)

	_, err = f.svc.Act(ctx, as(model.RoleFinance), id, workflow.Command{Action: workflow.ActionConfirmPayment})
	assert.ErrorIs(t, err, workflow.ErrTerminal)
}

func TestActRevertsOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const id = "SRV-2024-001"

	f.mem.FailNext(store.PartRequests, "insert", errors.New("insert failed"))

	_, err := f.svc.Act(ctx, as(model.RoleEngineer), id, workflow.Command{
		Action: workflow.ActionRequestParts, PartID: "SP-001", Quantity: 1,
	})
	require.EqualError(t, err, "create part request: insert failed")

	detail, err := f.svc.OrderDetail(ctx, as(model.RoleEngineer), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Order.Version)
	assert.Equal(t, 5, detail.Order.Progress)
	assert.Empty(t, detail.Order.RepairLogs)
	assert.Empty(t, detail.PartRequests)
}

func TestActErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Act(ctx, as(model.RoleMarketing), "SRV-2024-001", workflow.Command{Action: workflow.ActionSubmitDiagnosis})
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	_, err = f.svc.Act(ctx, as(model.RoleEngineer), "SRV-2024-404", workflow.Command{Action: workflow.ActionSubmitDiagnosis})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Act(ctx, as(model.RoleEngineer), "SRV-2024-001", workflow.Command{
		Action: workflow.ActionRequestParts, PartID: "SP-003", Quantity: 1,
	})
	assert.True(t, workflow.IsValidation(err), err)

	_, err = f.svc.Act(ctx, as(model.RoleEngineer), "SRV-2024-001", workflow.Command{
		Action: workflow.ActionRequestParts, PartID: "SP-999", Quantity: 1,
	})
	assert.True(t, workflow.IsValidation(err), err)

	_, err = f.svc.ReviewPartRequests(ctx, as(model.RoleMarketing), "SRV-2024-001", false)
	assert.EqualError(t, err, "There are no pending part requests for this order.")
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := workflow.OrderDraft{CustomerName: "PT. Baru", Equipment: "Denso Pump", RepairType: model.RepairTypeMinor}

	_, err := f.svc.CreateOrder(ctx, as(model.RoleEngineer), draft)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	o, err := f.svc.CreateOrder(ctx, as(model.RoleMarketing), draft)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, o.Status)
	assert.Equal(t, "N/A", o.AssignedEngineer)
	assert.Equal(t, "u-marketing@demo.local", o.UserID)

	cols, err := f.svc.Board(ctx, as(model.RoleMarketing))
	require.NoError(t, err)
	require.Len(t, cols, 5)
	assert.Len(t, cols[0].Orders, 2)

	_, err = f.svc.Board(ctx, as(model.RoleCustomer))
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestAddStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ppic := as(model.RolePPIC)

	part, err := f.svc.AddStock(ctx, ppic, "SP-003", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, part.Stock)
	assert.Equal(t, model.SparepartAvailable, part.Status)

	_, err = f.svc.AddStock(ctx, ppic, "SP-003", 0)
	assert.EqualError(t, err, "Quantity must be a positive number.")

	_, err = f.svc.AddStock(ctx, ppic, "SP-003", math.MaxInt)
	assert.EqualError(t, err, "Stock cannot exceed 2147483647.")

	part, err = f.svc.AddStock(ctx, ppic, "SP-003", model.MaxStock-5)
	require.NoError(t, err)
	assert.Equal(t, model.MaxStock, part.Stock)

	_, err = f.svc.AddStock(ctx, ppic, "SP-003", 1)
	assert.True(t, workflow.IsValidation(err))

	parts, err := f.svc.Spareparts(ctx, ppic)
	require.NoError(t, err)
	for _, sp := range parts {
		if sp.PartID == "SP-003" {
			assert.Equal(t, model.MaxStock, sp.Stock)
		}
	}

	_, err = f.svc.AddStock(ctx, as(model.RoleEngineer), "SP-003", 5)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	_, err = f.svc.AddStock(ctx, ppic, "SP-999", 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engineer := as(model.RoleEngineer)

	_, err := f.svc.RequestPurchase(ctx, engineer, "SP-003", PurchaseRequest{Quantity: 0, Justification: "x"})
	assert.EqualError(t, err, "Quantity must be greater than zero.")

	_, err = f.svc.RequestPurchase(ctx, engineer, "SP-003", PurchaseRequest{Quantity: 3, Justification: "  "})
	assert.EqualError(t, err, "Justification is required.")

	_, err = f.svc.RequestPurchase(ctx, as(model.RolePPIC), "SP-003", PurchaseRequest{Quantity: 3, Justification: "x"})
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	po, err := f.svc.RequestPurchase(ctx, engineer, "SP-003", PurchaseRequest{Quantity: 3, Justification: "Restock valves"})
	require.NoError(t, err)
	assert.Equal(t, "Delivery Valve", po.PartName)
	assert.Empty(t, po.ServiceID)

	pos, err := f.svc.PurchaseOrders(ctx, as(model.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, pos, 1)
	assert.Equal(t, po.PurchaseOrderID, pos[0].PurchaseOrderID)
}

func TestPartRequestGroupsAndRPL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const id = "SRV-2024-001"

	_, err := f.svc.Act(ctx, as(model.RoleEngineer), id, workflow.Command{
		Action: workflow.ActionRequestParts, PartID: "SP-002", Quantity: 1, Notes: "Scored plunger",
	})
	require.NoError(t, err)

	groups, err := f.svc.PartRequestGroups(ctx, as(model.RoleMarketing))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, id, groups[0].ServiceID)
	assert.Equal(t, model.JobTypeInjector, groups[0].JobType)

	_, _, err = f.svc.RPL(ctx, as(model.RolePPIC), id)
	assert.EqualError(t, err, "Part list is available only for approved or ordered requests.")

	_, err = f.svc.ReviewPartRequests(ctx, as(model.RoleMarketing), id, true)
	require.NoError(t, err)

	data, name, err := f.svc.RPL(ctx, as(model.RolePPIC), id)
	require.NoError(t, err)
	assert.Equal(t, "RPL-SRV-2024-001.xlsx", name)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	notes, err := wb.GetCellValue("RPL", "A9")
	require.NoError(t, err)
	assert.Equal(t, "Scored plunger", notes)

	_, _, err = f.svc.RPL(ctx, as(model.RolePPIC), "SRV-2024-002")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = f.svc.RPL(ctx, as(model.RoleEngineer), id)
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestPortal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer := as(model.RoleCustomer)
	customer.Profile.CustomerOrderID = "SRV-2024-002"

	tl, err := f.svc.Portal(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusQC, tl.Status)
	require.Len(t, tl.Steps, 5)
	assert.Equal(t, projection.StepCurrent, tl.Steps[2].State)

	customer.Profile.CustomerOrderID = "ABC-1"
	_, err = f.svc.Portal(ctx, customer)
	assert.EqualError(t, err, "Invalid or missing Service ID.")

	customer.Profile.CustomerOrderID = "srv-2099-999"
	_, err = f.svc.Portal(ctx, customer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Portal(ctx, as(model.RoleAdmin))
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestReportsAndFinance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reports, err := f.svc.QCReports(ctx, as(model.RoleQC))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.QCResultPass, reports[0].TestResult)

	summary, err := f.svc.FinanceSummary(ctx, as(model.RoleFinance))
	require.NoError(t, err)
	assert.True(t, summary.Revenue.Equal(decimal.RequireFromString("12500000")), summary.Revenue.String())
	assert.True(t, summary.Overdue.Equal(decimal.RequireFromString("4300000.5")))
	assert.Equal(t, 3, summary.Count)

	_, err = f.svc.Invoices(ctx, as(model.RoleEngineer))
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	assert.Equal(t, []workflow.View{workflow.ViewDashboard, workflow.ViewQC}, f.svc.Views(as(model.RoleQC)))
}
