package models

// PaymentIntent — заказ на стороне платёжного шлюза.
// Amount — сумма в минимальных единицах валюты (копейки, пайсы, центы).
type PaymentIntent struct {
	GatewayOrderID string
	Amount         int64
	Currency       string
}

// PaymentCallback — то, что клиентский виджет оплаты вернул серверу.
// Суммы и адрес считаются клиентом по корзине на момент оформления.
type PaymentCallback struct {
	ExternalID       string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	CartID           string
	Items            []OrderItem
	ShippingAddress  ShippingAddress
	Totals           CartAggregate
}
