// Package workflow реализует конечный автомат ремонтного заказа: проверку
// ролей, предусловий и вычисление переходов вместе с записью журнала.
package workflow

import (
	"slices"

	"github.com/mmeshcher/service-tracker/internal/model"
)

// Action — действие пользователя.
type Action string

// Действия над заказом.
const (
	ActionSubmitDiagnosis  Action = "submit-diagnosis"
	ActionRequestParts     Action = "request-parts"
	ActionApproveParts     Action = "approve-parts"
	ActionRejectParts      Action = "reject-parts"
	ActionConfirmPurchase  Action = "confirm-purchase"
	ActionAddLog           Action = "add-log"
	ActionCompleteRepair   Action = "complete-repair"
	ActionSubmitInspection Action = "submit-inspection"
	ActionConfirmPayment   Action = "confirm-payment"
)

// Действия вне заказа.
const (
	ActionCreateOrder     Action = "create-order"
	ActionAddStock        Action = "add-stock"
	ActionRequestPurchase Action = "request-purchase"
)

// OrderActions перечисляет действия над заказом в порядке отображения.
var OrderActions = []Action{
	ActionSubmitDiagnosis,
	ActionRequestParts,
	ActionApproveParts,
	ActionRejectParts,
	ActionConfirmPurchase,
	ActionAddLog,
	ActionCompleteRepair,
	ActionSubmitInspection,
	ActionConfirmPayment,
}

// View — раздел интерфейса.
type View string

const (
	ViewDashboard      View = "dashboard"
	ViewSpareparts     View = "spareparts"
	ViewPartRequests   View = "part-requests"
	ViewPurchaseOrders View = "purchase-orders"
	ViewQC             View = "qc"
	ViewFinance        View = "finance"
	ViewCustomerPortal View = "customer-portal"
)

type rule struct {
	statuses []model.OrderStatus
	roles    []model.Role
}

// Policy — единая таблица прав (роль, статус, действие) и разделов по ролям.
// Ей пользуются и движок, и HTTP-слой.
type Policy struct {
	order  map[Action]rule
	global map[Action][]model.Role
	views  map[model.Role][]View
}

// DefaultPolicy возвращает таблицу прав сервиса.
func DefaultPolicy() *Policy {
	return &Policy{
		order: map[Action]rule{
			ActionSubmitDiagnosis: {
				statuses: []model.OrderStatus{model.OrderStatusNew},
				roles:    []model.Role{model.RoleEngineer},
			},
			ActionRequestParts: {
				statuses: []model.OrderStatus{model.OrderStatusNew, model.OrderStatusRepair},
				roles:    []model.Role{model.RoleEngineer},
			},
			ActionApproveParts: {
				statuses: []model.OrderStatus{model.OrderStatusNew, model.OrderStatusRepair},
				roles:    []model.Role{model.RoleMarketing},
			},
			ActionRejectParts: {
				statuses: []model.OrderStatus{model.OrderStatusNew, model.OrderStatusRepair},
				roles:    []model.Role{model.RoleMarketing},
			},
			ActionConfirmPurchase: {
				statuses: []model.OrderStatus{model.OrderStatusRepair},
				roles:    []model.Role{model.RoleEngineer},
			},
			ActionAddLog: {
				statuses: []model.OrderStatus{model.OrderStatusRepair},
				roles:    []model.Role{model.RoleEngineer, model.RolePPIC},
			},
			ActionCompleteRepair: {
				statuses: []model.OrderStatus{model.OrderStatusRepair},
				roles:    []model.Role{model.RoleEngineer},
			},
			ActionSubmitInspection: {
				statuses: []model.OrderStatus{model.OrderStatusQC},
				roles:    []model.Role{model.RoleQC},
			},
			ActionConfirmPayment: {
				statuses: []model.OrderStatus{model.OrderStatusDelivery},
				roles:    []model.Role{model.RoleFinance},
			},
		},
		global: map[Action][]model.Role{
			ActionCreateOrder:     {model.RoleMarketing},
			ActionAddStock:        {model.RolePPIC},
			ActionRequestPurchase: {model.RoleEngineer},
		},
		views: map[model.Role][]View{
			model.RoleAdmin:     {ViewDashboard, ViewSpareparts, ViewPartRequests, ViewPurchaseOrders, ViewQC, ViewFinance},
			model.RoleCustomer:  {ViewCustomerPortal},
			model.RoleMarketing: {ViewDashboard, ViewFinance, ViewPartRequests},
			model.RoleEngineer:  {ViewDashboard, ViewSpareparts},
			model.RolePPIC:      {ViewDashboard, ViewSpareparts, ViewPartRequests, ViewPurchaseOrders},
			model.RoleQC:        {ViewDashboard, ViewQC},
			model.RoleFinance:   {ViewDashboard, ViewFinance},
		},
	}
}

// Allows сообщает, может ли роль выполнить действие над заказом в статусе status.
// Для действий вне заказа статус не учитывается.
func (p *Policy) Allows(role model.Role, status model.OrderStatus, action Action) bool {
	if roles, ok := p.global[action]; ok {
		return slices.Contains(roles, role)
	}
	r, ok := p.order[action]
	if !ok {
		return false
	}
	return slices.Contains(r.roles, role) && slices.Contains(r.statuses, status)
}

// AllowsGlobal сообщает, может ли роль выполнить действие вне заказа.
func (p *Policy) AllowsGlobal(role model.Role, action Action) bool {
	roles, ok := p.global[action]
	return ok && slices.Contains(roles, role)
}

// Views возвращает разделы, доступные роли.
func (p *Policy) Views(role model.Role) []View {
	return slices.Clone(p.views[role])
}

// CanView сообщает, доступен ли раздел роли.
func (p *Policy) CanView(role model.Role, view View) bool {
	return slices.Contains(p.views[role], view)
}
