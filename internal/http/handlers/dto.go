package handlers

import (
	"time"

	"github.com/pribylovaa/go-social-shop/internal/models"
)

// Время в ответах — Unix UTC (секунды), 0 — не задано.

type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type Comment struct {
	ID        string    `json:"id"` // Mongo ObjectID
	ThreadID  string    `json:"thread_id"`
	ParentID  string    `json:"parent_id,omitempty"` // "" — корень
	AuthorID  string    `json:"author_id"`
	Author    *Author   `json:"author,omitempty"`
	Message   string    `json:"message"`
	ReplyIDs  []string  `json:"reply_ids"`
	Replies   []Comment `json:"replies,omitempty"`
	CreatedAt int64     `json:"created_at"`
}

type CommentRequest struct {
	Message string `json:"message"`
}

type ListCommentsResponse struct {
	Comments []Comment `json:"comments"`
}

type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	CreatedAt int64   `json:"created_at"`
}

type CreateProductRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type CartLine struct {
	ProductID      string  `json:"product_id"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Price          float64 `json:"price"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	TotalPrice     float64 `json:"total_price"`
}

type Aggregate struct {
	Price         float64 `json:"price"`
	TaxPrice      float64 `json:"tax_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TotalPrice    float64 `json:"total_price"`
}

type CartResponse struct {
	ID        string     `json:"id,omitempty"` // пусто — корзина ещё не создана
	Items     []CartLine `json:"items"`
	Aggregate Aggregate  `json:"aggregate"`
	UpdatedAt int64      `json:"updated_at"`
}

type UpsertCartLineRequest struct {
	Quantity int `json:"quantity"`
}

type PaymentIntentResponse struct {
	GatewayOrderID string       `json:"gateway_order_id"`
	Amount         int64        `json:"amount"` // минимальные единицы валюты
	Currency       string       `json:"currency"`
	KeyID          string       `json:"key_id,omitempty"`
	Cart           CartResponse `json:"cart"`
}

// Тело колбэка оплаты. Имена полей фиксированы клиентским виджетом (camelCase).
type VerifyPaymentRequest struct {
	ID               string          `json:"id"`
	GatewayOrderID   string          `json:"gatewayOrderId"`
	GatewayPaymentID string          `json:"gatewayPaymentId"`
	Signature        string          `json:"signature"`
	OrderItems       []OrderItem     `json:"orderItems"`
	ShippingAddress  ShippingAddress `json:"shippingAddress"`
	Price            float64         `json:"price"`
	TaxPrice         float64         `json:"taxPrice"`
	ShippingPrice    float64         `json:"shippingPrice"`
	TotalPrice       float64         `json:"totalPrice"`
	CartID           string          `json:"cartId"`
}

type VerifyPaymentResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type PaymentResult struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"order_items"`
	Payment         PaymentResult   `json:"payment_result"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Status          string          `json:"order_status"`
	Price           float64         `json:"price"`
	TaxPrice        float64         `json:"tax_price"`
	ShippingPrice   float64         `json:"shipping_price"`
	TotalPrice      float64         `json:"total_price"`
	PaidAt          int64           `json:"paid_at"`
	DeliverAt       int64           `json:"deliver_at,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

// UpdateOrderRequest — nil-поля не меняются. deliver_at — Unix UTC.
type UpdateOrderRequest struct {
	Status    *string `json:"order_status"`
	DeliverAt *int64  `json:"deliver_at"`
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().Unix()
}

func commentFromModel(c models.Comment) Comment {
	ids := c.ReplyIDs
	if ids == nil {
		ids = []string{}
	}

	return Comment{
		ID:        c.ID,
		ThreadID:  c.ThreadID,
		ParentID:  c.ParentID,
		AuthorID:  c.AuthorID.String(),
		Message:   c.Message,
		ReplyIDs:  ids,
		CreatedAt: unix(c.CreatedAt),
	}
}

func expandedFromModel(c models.ExpandedComment) Comment {
	out := commentFromModel(c.Comment)
	out.Author = &Author{
		ID:        c.Author.ID.String(),
		Username:  c.Author.Username,
		AvatarURL: c.Author.AvatarURL,
	}

	for _, r := range c.Replies {
		out.Replies = append(out.Replies, expandedFromModel(r))
	}

	return out
}

func productFromModel(p *models.Product) Product {
	return Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: unix(p.CreatedAt),
	}
}

func aggregateFromModel(a models.CartAggregate) Aggregate {
	return Aggregate{
		Price:         a.Price,
		TaxPrice:      a.TaxPrice,
		ShippingPrice: a.ShippingPrice,
		TotalPrice:    a.TotalPrice,
	}
}

func cartFromModel(c *models.Cart, agg models.CartAggregate) CartResponse {
	out := CartResponse{Items: make([]CartLine, 0, len(c.Items)), Aggregate: aggregateFromModel(agg)}
	out.ID = c.ID
	out.UpdatedAt = unix(c.UpdatedAt)

	for _, l := range c.Items {
		out.Items = append(out.Items, CartLine{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Price:          l.Price,
			TaxAmount:      l.TaxAmount,
			ShippingAmount: l.ShippingAmount,
			TotalPrice:     l.TotalPrice,
		})
	}

	return out
}

func (m VerifyPaymentRequest) toModel() models.PaymentCallback {
	items := make([]models.OrderItem, 0, len(m.OrderItems))
	for _, it := range m.OrderItems {
		items = append(items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return models.PaymentCallback{
		ExternalID:       m.ID,
		GatewayOrderID:   m.GatewayOrderID,
		GatewayPaymentID: m.GatewayPaymentID,
		Signature:        m.Signature,
		CartID:           m.CartID,
		Items:            items,
		ShippingAddress:  models.ShippingAddress(m.ShippingAddress),
		Totals: models.CartAggregate{
			Price:         m.Price,
			TaxPrice:      m.TaxPrice,
			ShippingPrice: m.ShippingPrice,
			TotalPrice:    m.TotalPrice,
		},
	}
}

func (m UpdateOrderRequest) toModel() models.OrderStatusPatch {
	var patch models.OrderStatusPatch

	if m.Status != nil {
		s := models.OrderStatus(*m.Status)
		patch.Status = &s
	}

	if m.DeliverAt != nil {
		t := time.Unix(*m.DeliverAt, 0).UTC()
		patch.DeliverAt = &t
	}

	return patch
}

func orderFromModel(o *models.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out := Order{
		ID:     o.ID,
		UserID: o.UserID.String(),
		Items:  items,
		Payment: PaymentResult{
			ID:               o.Payment.ExternalID,
			Status:           o.Payment.Status,
			GatewayOrderID:   o.Payment.GatewayOrderID,
			GatewayPaymentID: o.Payment.GatewayPaymentID,
		},
		ShippingAddress: ShippingAddress(o.ShippingAddress),
		Status:          string(o.Status),
		Price:           o.Price,
		TaxPrice:        o.TaxPrice,
		ShippingPrice:   o.ShippingPrice,
		TotalPrice:      o.TotalPrice,
		PaidAt:          unix(o.PaidAt),
		CreatedAt:       unix(o.CreatedAt),
	}

	if o.DeliverAt != nil {
		out.DeliverAt = unix(*o.DeliverAt)
	}

	return out
}
