package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus — статус заказа.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefund    OrderStatus = "refund"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled, OrderRefund:
		return true
	}

	return false
}

// OrderItem — позиция заказа. Цена не дублируется: при отображении берётся из товара.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// PaymentResult — данные подтверждённого платежа.
type PaymentResult struct {
	ExternalID       string
	Status           string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ShippingAddress — адрес доставки в том виде, в каком его прислал клиент.
type ShippingAddress struct {
	Address    string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

// Order — неизменяемый результат оплаты корзины.
// Четыре суммы копируются из агрегата корзины на момент оформления.
// Мутируются позже только Status/DeliverAt (администратором).
type Order struct {
	ID              string
	UserID          uuid.UUID
	Items           []OrderItem
	Payment         PaymentResult
	ShippingAddress ShippingAddress
	Status          OrderStatus
	Price           float64
	TaxPrice        float64
	ShippingPrice   float64
	TotalPrice      float64
	PaidAt          time.Time
	DeliverAt       *time.Time
	CreatedAt       time.Time
}

// OrderStatusPatch — изменение заказа администратором. Nil-поля не трогаются.
type OrderStatusPatch struct {
	Status    *OrderStatus
	DeliverAt *time.Time
}
