// Package projection строит представления для ролей из текущих данных хранилища.
// Все функции чистые: одинаковые входные данные дают одинаковый результат.
package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/service-tracker/internal/model"
)

// Column — колонка канбан-доски.
type Column struct {
	Status model.OrderStatus `json:"status"`
	Orders []model.Order     `json:"orders"`
}

// Board группирует заказы по статусам в порядке этапов. Порядок заказов
// внутри колонки сохраняется.
func Board(orders []model.Order) []Column {
	cols := make([]Column, len(model.OrderStatusSequence))
	index := make(map[model.OrderStatus]int, len(cols))
	for i, st := range model.OrderStatusSequence {
		cols[i] = Column{Status: st, Orders: []model.Order{}}
		index[st] = i
	}

	for _, o := range orders {
		i, ok := index[o.Status]
		if !ok {
			continue
		}
		cols[i].Orders = append(cols[i].Orders, o)
	}
	return cols
}

// PartRequestGroup — заявки на запчасти одного заказа.
type PartRequestGroup struct {
	ServiceID       string                  `json:"serviceId"`
	CustomerName    string                  `json:"customerName"`
	RequestorName   string                  `json:"requestorName"`
	JobType         model.JobType           `json:"jobType"`
	LastRequestDate time.Time               `json:"lastRequestDate"`
	Status          model.PartRequestStatus `json:"status"`
	Parts           []model.PartRequest     `json:"parts"`
}

// statusPrecedence задаёт приоритет статуса группы.
var statusPrecedence = []model.PartRequestStatus{
	model.PartRequestPending,
	model.PartRequestApproved,
	model.PartRequestOrdered,
	model.PartRequestRejected,
}

// GroupPartRequests группирует заявки по заказу. Метаданные группы берутся из
// самой поздней заявки, статус выбирается по приоритету Pending > Approved >
// Ordered > Rejected. Группы упорядочены по дате последней заявки, новые первыми.
func GroupPartRequests(requests []model.PartRequest) []PartRequestGroup {
	byService := make(map[string]*PartRequestGroup)
	var order []string

	for _, pr := range requests {
		g, ok := byService[pr.ServiceID]
		if !ok {
			g = &PartRequestGroup{ServiceID: pr.ServiceID}
			byService[pr.ServiceID] = g
			order = append(order, pr.ServiceID)
		}
		if len(g.Parts) == 0 || pr.RequestDate.After(g.LastRequestDate) {
			g.CustomerName = pr.CustomerName
			g.RequestorName = pr.RequestorName
			g.JobType = pr.JobType
			g.LastRequestDate = pr.RequestDate
		}
		g.Parts = append(g.Parts, pr)
	}

	res := make([]PartRequestGroup, 0, len(order))
	for _, id := range order {
		g := byService[id]
		g.Status = groupStatus(g.Parts)
		res = append(res, *g)
	}

	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].LastRequestDate.Equal(res[j].LastRequestDate) {
			return res[i].LastRequestDate.After(res[j].LastRequestDate)
		}
		return res[i].ServiceID < res[j].ServiceID
	})
	return res
}

func groupStatus(parts []model.PartRequest) model.PartRequestStatus {
	for _, st := range statusPrecedence {
		for _, p := range parts {
			if p.Status == st {
				return st
			}
		}
	}
	if len(parts) > 0 {
		return parts[0].Status
	}
	return ""
}

// StepState — состояние этапа на шкале клиента.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
)

// TimelineStep — этап шкалы.
type TimelineStep struct {
	Status model.OrderStatus `json:"status"`
	State  StepState         `json:"state"`
}

// CustomerTimeline — представление заказа для клиента.
type CustomerTimeline struct {
	ServiceID   string            `json:"serviceId"`
	Equipment   string            `json:"equipment"`
	RequestDate time.Time         `json:"requestDate"`
	Status      model.OrderStatus `json:"status"`
	Progress    int               `json:"progress"`
	Steps       []TimelineStep    `json:"steps"`
	Logs        []model.RepairLog `json:"logs"`
	QCResult    model.QCResult    `json:"qcResult,omitempty"`
}

// Timeline строит шкалу этапов заказа для клиента.
func Timeline(o model.Order) CustomerTimeline {
	current := o.Status.Index()
	steps := make([]TimelineStep, len(model.OrderStatusSequence))
	for i, st := range model.OrderStatusSequence {
		state := StepUpcoming
		switch {
		case i < current:
			state = StepCompleted
		case i == current:
			state = StepCurrent
		}
		steps[i] = TimelineStep{Status: st, State: state}
	}

	logs := append([]model.RepairLog{}, o.RepairLogs...)
	return CustomerTimeline{
		ServiceID:   o.ServiceID,
		Equipment:   o.Equipment,
		RequestDate: o.RequestDate,
		Status:      o.Status,
		Progress:    o.Progress,
		Steps:       steps,
		Logs:        logs,
		QCResult:    o.QCResult,
	}
}

// FinanceSummary — суммы по счетам.
type FinanceSummary struct {
	Revenue decimal.Decimal `json:"revenue"`
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
	Count   int             `json:"count"`
}

// Finance считает выручку по оплаченным счетам и суммы ожидающих и просроченных.
func Finance(invoices []model.Invoice) FinanceSummary {
	s := FinanceSummary{Revenue: decimal.Zero, Pending: decimal.Zero, Overdue: decimal.Zero}
	for _, inv := range invoices {
		switch inv.Status {
		case model.InvoicePaid:
			s.Revenue = s.Revenue.Add(inv.Amount)
		case model.InvoicePending:
			s.Pending = s.Pending.Add(inv.Amount)
		case model.InvoiceOverdue:
			s.Overdue = s.Overdue.Add(inv.Amount)
		}
		s.Count++
	}
	return s
}
