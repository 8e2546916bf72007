// Package model содержит доменные сущности сервиса учёта ремонтных заказов.
package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCustomer  Role = "CUSTOMER"
	RoleMarketing Role = "MARKETING"
	RoleEngineer  Role = "ENGINEER"
	RolePPIC      Role = "PPIC"
	RoleQC        Role = "QC"
	RoleFinance   Role = "FINANCE"
)

// Roles перечисляет все известные роли.
var Roles = []Role{RoleAdmin, RoleCustomer, RoleMarketing, RoleEngineer, RolePPIC, RoleQC, RoleFinance}

// Valid сообщает, является ли роль известной.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// OrderStatus описывает этап ремонтного заказа.
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "New Request"
	OrderStatusRepair   OrderStatus = "Repair in Progress"
	OrderStatusQC       OrderStatus = "Quality Control"
	OrderStatusDelivery OrderStatus = "Ready for Delivery"
	OrderStatusPaid     OrderStatus = "Paid & Closed"
)

// OrderStatusSequence задаёт порядок этапов заказа.
var OrderStatusSequence = []OrderStatus{
	OrderStatusNew,
	OrderStatusRepair,
	OrderStatusQC,
	OrderStatusDelivery,
	OrderStatusPaid,
}

// Index возвращает позицию статуса в последовательности или -1 для неизвестного статуса.
func (s OrderStatus) Index() int {
	for i, st := range OrderStatusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// RepairType описывает вид ремонта.
type RepairType string

const (
	RepairTypeMinor RepairType = "Minor"
	RepairTypeFull  RepairType = "Full Service"
)

// Valid сообщает, является ли вид ремонта известным.
func (t RepairType) Valid() bool {
	return t == RepairTypeMinor || t == RepairTypeFull
}

// QCResult описывает результат контроля качества.
type QCResult string

const (
	QCResultNone QCResult = ""
	QCResultPass QCResult = "Pass"
	QCResultFail QCResult = "Fail"
)

// JobType описывает тип работ, к которому относится заявка на запчасти.
type JobType string

const (
	JobTypeInjector JobType = "Injector"
	JobTypeFuelPump JobType = "Fuel Pump"
)

// JobTypeFor выводит тип работ из вида ремонта.
func JobTypeFor(t RepairType) JobType {
	if t == RepairTypeMinor {
		return JobTypeInjector
	}
	return JobTypeFuelPump
}

// RepairLog описывает неизменяемую запись журнала работ по заказу.
type RepairLog struct {
	LogID     string    `json:"logId"`
	ServiceID string    `json:"serviceId"`
	Action    string    `json:"action"`
	Date      time.Time `json:"date"`
	Author    string    `json:"author"`
	Notes     string    `json:"notes"`
}

// Order описывает ремонтный заказ.
type Order struct {
	ServiceID        string      `json:"serviceId"`
	CustomerName     string      `json:"customerName"`
	Equipment        string      `json:"equipment"`
	RequestDate      time.Time   `json:"requestDate"`
	RepairType       RepairType  `json:"repairType"`
	AssignedEngineer string      `json:"assignedEngineer"`
	Progress         int         `json:"progress"`
	Status           OrderStatus `json:"status"`
	QCResult         QCResult    `json:"qcResult,omitempty"`
	RepairLogs       []RepairLog `json:"repairLogs"`
	UserID           string      `json:"userId,omitempty"`
	Version          int64       `json:"version"`
}

// Clone возвращает копию заказа, не разделяющую журнал с исходным.
func (o Order) Clone() Order {
	c := o
	c.RepairLogs = append([]RepairLog(nil), o.RepairLogs...)
	return c
}

// SparepartStatus описывает статус складской позиции.
type SparepartStatus string

const (
	SparepartAvailable SparepartStatus = "Available"
	SparepartBackOrder SparepartStatus = "Back Order"
	SparepartOrdered   SparepartStatus = "Ordered"
)

// MaxStock — верхняя граница остатка, совпадает с диапазоном колонки stock.
const MaxStock = math.MaxInt32

// Sparepart описывает позицию склада запчастей.
type Sparepart struct {
	PartID   string          `json:"partId"`
	Name     string          `json:"name"`
	Stock    int             `json:"stock"`
	Status   SparepartStatus `json:"status"`
	Location string          `json:"location"`
}

// PartRequestStatus описывает статус заявки на запчасти.
type PartRequestStatus string

const (
	PartRequestPending  PartRequestStatus = "Pending"
	PartRequestApproved PartRequestStatus = "Approved"
	PartRequestRejected PartRequestStatus = "Rejected"
	PartRequestOrdered  PartRequestStatus = "Ordered"
)

// PartRequest описывает заявку инженера на запчасти по заказу.
type PartRequest struct {
	RequestID         string            `json:"requestId"`
	ServiceID         string            `json:"serviceId"`
	PartID            string            `json:"partId"`
	PartName          string            `json:"partName"`
	QuantityRequested int               `json:"quantityRequested"`
	RequestorName     string            `json:"requestorName"`
	RequestorID       string            `json:"requestorId"`
	RequestDate       time.Time         `json:"requestDate"`
	Status            PartRequestStatus `json:"status"`
	CustomerName      string            `json:"customerName"`
	JobType           JobType           `json:"jobType"`
}

// PurchaseOrderStatus описывает статус заказа на закупку.
type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "Pending Approval"
	PurchaseOrderApproved  PurchaseOrderStatus = "Approved"
	PurchaseOrderOrdered   PurchaseOrderStatus = "Ordered"
	PurchaseOrderReceived  PurchaseOrderStatus = "Received"
	PurchaseOrderCancelled PurchaseOrderStatus = "Cancelled"
)

// PurchaseOrder описывает заказ на закупку запчастей.
type PurchaseOrder struct {
	PurchaseOrderID string              `json:"purchaseOrderId"`
	ServiceID       string              `json:"serviceId,omitempty"`
	PartID          string              `json:"partId"`
	PartName        string              `json:"partName"`
	Quantity        int                 `json:"quantity"`
	Justification   string              `json:"justification"`
	Requestor       string              `json:"requestor"`
	RequestorID     string              `json:"requestorId"`
	RequestDate     time.Time           `json:"requestDate"`
	Status          PurchaseOrderStatus `json:"status"`
}

// QCReport описывает протокол контроля качества.
type QCReport struct {
	QCID               string    `json:"qcId"`
	ServiceID          string    `json:"serviceId"`
	TestResult         QCResult  `json:"testResult"`
	CertificateFileURL string    `json:"certificateFileUrl,omitempty"`
	InspectionDate     time.Time `json:"inspectionDate"`
	Inspector          string    `json:"inspector"`
	Notes              string    `json:"notes"`
}

// InvoiceStatus описывает статус счёта.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "Pending"
	InvoicePaid    InvoiceStatus = "Paid"
	InvoiceOverdue InvoiceStatus = "Overdue"
)

// Invoice описывает счёт клиенту.
type Invoice struct {
	InvoiceID    string          `json:"invoiceId"`
	ServiceID    string          `json:"serviceId"`
	CustomerName string          `json:"customerName"`
	Amount       decimal.Decimal `json:"amount"`
	Status       InvoiceStatus   `json:"status"`
	DueDate      time.Time       `json:"dueDate"`
	IssueDate    time.Time       `json:"issueDate"`
}

// Profile связывает идентификатор пользователя из системы аутентификации с ролью.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Role            Role   `json:"role"`
	CustomerOrderID string `json:"customerOrderId,omitempty"`
}

// Credential хранит учётные данные локального провайдера аутентификации.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
