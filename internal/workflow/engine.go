package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/service-tracker/internal/model"
)

// Шаги прогресса заказа.
const (
	progressCreated   = 5
	progressRequested = 25
	progressDiagnosed = 40
	progressApproved  = 60
	progressOrdered   = 70
	progressRepaired  = 90
	progressPassed    = 95
	progressPaid      = 100
)

const defaultNotes = "No additional notes."

// Тексты записей журнала.
const (
	LogInitialDiagnosis = "Initial Diagnosis"
	LogPartRequest      = "Diagnosis & Part Request"
	LogRequestApproved  = "Request Approved"
	LogRequestRejected  = "Request Rejected"
	LogPurchaseOrder    = "Purchase Order Confirmed"
	LogRepairLogAdded   = "Repair Log Added"
	LogPPIC             = "PPIC Log"
	LogRepairCompleted  = "Repair Completed"
	LogQCInspection     = "QC Inspection: "
	LogPaymentConfirmed = "Payment Confirmed"
)

// Actor — пользователь, выполняющий действие.
type Actor struct {
	ID       string
	Username string
	Role     model.Role
}

// Command — параметры действия над заказом.
type Command struct {
	Action     Action
	Notes      string
	RepairType model.RepairType
	PartID     string
	Quantity   int
	Result     model.QCResult
}

// OrderDraft — данные новой заявки на ремонт.
type OrderDraft struct {
	CustomerName string
	Equipment    string
	RepairType   model.RepairType
}

// Outcome — результат перехода: новое состояние заказа и сопутствующие записи.
type Outcome struct {
	Order           model.Order
	NewRequest      *model.PartRequest
	UpdatedRequests []model.PartRequest
	PurchaseOrders  []model.PurchaseOrder
	Log             model.RepairLog
}

// Engine вычисляет переходы заказа. Не обращается к хранилищу и не изменяет
// переданные значения.
type Engine struct {
	policy *Policy
	now    func() time.Time
	newID  func() string
}

// Option настраивает Engine.
type Option func(*Engine)

// WithClock задаёт источник времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs задаёт генератор идентификаторов.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithPolicy задаёт таблицу прав.
func WithPolicy(p *Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// NewEngine создаёт движок с таблицей прав по умолчанию.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: DefaultPolicy(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy возвращает таблицу прав движка.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// NewOrder создаёт заказ в статусе New.
func (e *Engine) NewOrder(actor Actor, draft OrderDraft) (*model.Order, error) {
	if !e.policy.AllowsGlobal(actor.Role, ActionCreateOrder) {
		return nil, fmt.Errorf("%w: %s cannot %s", ErrForbidden, actor.Role, ActionCreateOrder)
	}

	customer := strings.TrimSpace(draft.CustomerName)
	equipment := strings.TrimSpace(draft.Equipment)
	if customer == "" || equipment == "" {
		return nil, invalid("Customer name and equipment are required.")
	}
	if !draft.RepairType.Valid() {
		return nil, invalid("Select a valid repair type.")
	}

	now := e.now()
	return &model.Order{
		ServiceID:        e.serviceID(now),
		CustomerName:     customer,
		Equipment:        equipment,
		RequestDate:      now,
		RepairType:       draft.RepairType,
		AssignedEngineer: "N/A",
		Progress:         progressCreated,
		Status:           model.OrderStatusNew,
		RepairLogs:       []model.RepairLog{},
		UserID:           actor.ID,
	}, nil
}

func (e *Engine) serviceID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(e.newID(), "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("SRV-%d-%s", now.Year(), suffix)
}

// AllowedActions возвращает действия, которые actor может выполнить сейчас.
func (e *Engine) AllowedActions(actor Actor, order model.Order, requests []model.PartRequest) []Action {
	if order.Status == model.OrderStatusPaid {
		return nil
	}

	var res []Action
	for _, a := range OrderActions {
		if !e.policy.Allows(actor.Role, order.Status, a) {
			continue
		}
		if gated(a, order, requests) != nil {
			continue
		}
		res = append(res, a)
	}
	return res
}

// gated проверяет предусловия, зависящие от заявок на запчасти.
func gated(a Action, order model.Order, requests []model.PartRequest) error {
	switch a {
	case ActionSubmitDiagnosis:
		if hasStatus(requests, model.PartRequestPending) {
			return invalid("Waiting for marketing to review the pending part request.")
		}
	case ActionRequestParts:
		if order.Status == model.OrderStatusNew && hasStatus(requests, model.PartRequestPending) {
			return invalid("Waiting for marketing to review the pending part request.")
		}
	case ActionApproveParts, ActionRejectParts:
		if !hasStatus(requests, model.PartRequestPending) {
			return invalid("There are no pending part requests for this order.")
		}
	case ActionConfirmPurchase:
		if !hasStatus(requests, model.PartRequestApproved) {
			return invalid("No approved parts available to create a purchase order.")
		}
	}
	return nil
}

// Apply проверяет право и предусловия действия и вычисляет результат.
// part требуется только для request-parts.
func (e *Engine) Apply(actor Actor, order model.Order, requests []model.PartRequest, part *model.Sparepart, cmd Command) (*Outcome, error) {
	if order.Status == model.OrderStatusPaid {
		return nil, ErrTerminal
	}
	if !isOrderAction(cmd.Action) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, cmd.Action)
	}
	if !e.policy.Allows(actor.Role, order.Status, cmd.Action) {
		return nil, fmt.Errorf("%w: %s cannot %s while order is %q", ErrForbidden, actor.Role, cmd.Action, order.Status)
	}
	if err := gated(cmd.Action, order, requests); err != nil {
		return nil, err
	}

	next := order.Clone()
	out := &Outcome{}

	switch cmd.Action {
	case ActionSubmitDiagnosis:
		rt, err := repairTypeOf(order, cmd)
		if err != nil {
			return nil, err
		}
		next.RepairType = rt
		next.AssignedEngineer = actor.Username
		next.Status = model.OrderStatusRepair
		next.Progress = advance(order.Progress, progressDiagnosed)
		out.Log = e.log(actor, order.ServiceID, LogInitialDiagnosis, cmd.Notes)

	case ActionRequestParts:
		rt, err := repairTypeOf(order, cmd)
		if err != nil {
			return nil, err
		}
		if part == nil || part.PartID != cmd.PartID || cmd.Quantity <= 0 || part.Stock < cmd.Quantity {
			return nil, invalid("Invalid quantity or part not available in sufficient stock.")
		}

		now := e.now()
		out.NewRequest = &model.PartRequest{
			RequestID:         e.newID(),
			ServiceID:         order.ServiceID,
			PartID:            part.PartID,
			PartName:          part.Name,
			QuantityRequested: cmd.Quantity,
			RequestorName:     actor.Username,
			RequestorID:       actor.ID,
			RequestDate:       now,
			Status:            model.PartRequestPending,
			CustomerName:      order.CustomerName,
			JobType:           model.JobTypeFor(rt),
		}

		note := fmt.Sprintf("Diagnosed and requested %d x %s. Awaiting marketing approval.", cmd.Quantity, part.Name)
		if notes := strings.TrimSpace(cmd.Notes); notes != "" {
			note = fmt.Sprintf("Diagnosis: %s. Requested %d x %s.", notes, cmd.Quantity, part.Name)
		}

		next.RepairType = rt
		next.AssignedEngineer = actor.Username
		next.Progress = advance(order.Progress, progressRequested)
		out.Log = e.log(actor, order.ServiceID, LogPartRequest, note)

	case ActionApproveParts:
		out.UpdatedRequests = transition(requests, model.PartRequestPending, model.PartRequestApproved)
		next.Status = model.OrderStatusRepair
		next.Progress = advance(order.Progress, progressApproved)
		out.Log = e.log(actor, order.ServiceID, LogRequestApproved, "Parts request approved. Repair can now begin.")

	case ActionRejectParts:
		out.UpdatedRequests = transition(requests, model.PartRequestPending, model.PartRequestRejected)
		next.Progress = advance(order.Progress, progressRequested)
		out.Log = e.log(actor, order.ServiceID, LogRequestRejected, "Parts request rejected. Awaiting engineer action.")

	case ActionConfirmPurchase:
		out.UpdatedRequests = transition(requests, model.PartRequestApproved, model.PartRequestOrdered)
		now := e.now()
		for _, pr := range out.UpdatedRequests {
			out.PurchaseOrders = append(out.PurchaseOrders, model.PurchaseOrder{
				PurchaseOrderID: e.newID(),
				ServiceID:       order.ServiceID,
				PartID:          pr.PartID,
				PartName:        pr.PartName,
				Quantity:        pr.QuantityRequested,
				Justification:   "For service order " + order.ServiceID,
				Requestor:       actor.Username,
				RequestorID:     actor.ID,
				RequestDate:     now,
				Status:          model.PurchaseOrderPending,
			})
		}
		next.Progress = advance(order.Progress, progressOrdered)
		note := fmt.Sprintf("PO created for %d approved part(s). Sent to PPIC.", len(out.PurchaseOrders))
		out.Log = e.log(actor, order.ServiceID, LogPurchaseOrder, note)

	case ActionAddLog:
		if strings.TrimSpace(cmd.Notes) == "" {
			return nil, invalid("Notes cannot be empty for a log entry.")
		}
		action := LogRepairLogAdded
		if actor.Role == model.RolePPIC {
			action = LogPPIC
		}
		out.Log = e.log(actor, order.ServiceID, action, cmd.Notes)

	case ActionCompleteRepair:
		note := "Repair work completed."
		if notes := strings.TrimSpace(cmd.Notes); notes != "" {
			note = "Final repair note: " + notes
		}
		next.Status = model.OrderStatusQC
		next.Progress = advance(order.Progress, progressRepaired)
		out.Log = e.log(actor, order.ServiceID, LogRepairCompleted, note)

	case ActionSubmitInspection:
		switch cmd.Result {
		case model.QCResultPass:
			next.Status = model.OrderStatusDelivery
			next.Progress = advance(order.Progress, progressPassed)
		case model.QCResultFail:
		default:
			return nil, invalid("Inspection result must be Pass or Fail.")
		}
		next.QCResult = cmd.Result
		out.Log = e.log(actor, order.ServiceID, LogQCInspection+string(cmd.Result), cmd.Notes)

	case ActionConfirmPayment:
		next.Status = model.OrderStatusPaid
		next.Progress = advance(order.Progress, progressPaid)
		out.Log = e.log(actor, order.ServiceID, LogPaymentConfirmed, "Payment received and order is now closed.")
	}

	next.RepairLogs = append(next.RepairLogs, out.Log)
	out.Order = next
	return out, nil
}

func (e *Engine) log(actor Actor, serviceID, action, notes string) model.RepairLog {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = defaultNotes
	}
	return model.RepairLog{
		LogID:     "LOG-" + e.newID(),
		ServiceID: serviceID,
		Action:    action,
		Date:      e.now(),
		Author:    actor.Username,
		Notes:     notes,
	}
}

// advance не даёт прогрессу уменьшиться.
func advance(current, step int) int {
	return max(current, step)
}

func repairTypeOf(order model.Order, cmd Command) (model.RepairType, error) {
	if cmd.RepairType == "" {
		return order.RepairType, nil
	}
	if !cmd.RepairType.Valid() {
		return "", invalid("Select a valid repair type.")
	}
	return cmd.RepairType, nil
}

func transition(requests []model.PartRequest, from, to model.PartRequestStatus) []model.PartRequest {
	var res []model.PartRequest
	for _, pr := range requests {
		if pr.Status == from {
			pr.Status = to
			res = append(res, pr)
		}
	}
	return res
}

func hasStatus(requests []model.PartRequest, status model.PartRequestStatus) bool {
	for _, pr := range requests {
		if pr.Status == status {
			return true
		}
	}
	return false
}

func isOrderAction(a Action) bool {
	for _, known := range OrderActions {
		if a == known {
			return true
		}
	}
	return false
}
