package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-social-shop/internal/models"
)

func TestVerifyPaymentRequest_ToModel(t *testing.T) {
	t.Parallel()

	in := VerifyPaymentRequest{
		ID:               "ext",
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
		OrderItems:       []OrderItem{{ProductID: "p1", Quantity: 2}},
		ShippingAddress:  ShippingAddress{City: "Pune", Country: "IN"},
		Price:            100,
		TaxPrice:         10,
		ShippingPrice:    5,
		TotalPrice:       115,
		CartID:           "cart1",
	}

	cb := in.toModel()
	require.Equal(t, "ext", cb.ExternalID)
	require.Equal(t, "cart1", cb.CartID)
	require.Equal(t, []models.OrderItem{{ProductID: "p1", Quantity: 2}}, cb.Items)
	require.Equal(t, "Pune", cb.ShippingAddress.City)
	require.Equal(t, models.CartAggregate{Price: 100, TaxPrice: 10, ShippingPrice: 5, TotalPrice: 115}, cb.Totals)
}

func TestUpdateOrderRequest_ToModel(t *testing.T) {
	t.Parallel()

	require.Equal(t, models.OrderStatusPatch{}, UpdateOrderRequest{}.toModel())

	status := "refund"
	at := int64(1743465600)
	p := UpdateOrderRequest{Status: &status, DeliverAt: &at}.toModel()
	require.Equal(t, models.OrderRefund, *p.Status)
	require.Equal(t, time.Unix(at, 0).UTC(), *p.DeliverAt)
}

func TestCommentFromModel_NilReplyIDsBecomeEmpty(t *testing.T) {
	t.Parallel()

	out := commentFromModel(models.Comment{ID: "c1", AuthorID: uuid.Nil})
	require.NotNil(t, out.ReplyIDs)
	require.Empty(t, out.ReplyIDs)
	require.Zero(t, out.CreatedAt)
}

func TestOrderFromModel_DeliverAtOptional(t *testing.T) {
	t.Parallel()

	paid := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := &models.Order{ID: "o1", Status: models.OrderPending, PaidAt: paid, Payment: models.PaymentResult{ExternalID: "ext"}}

	out := orderFromModel(o)
	require.Equal(t, "pending", out.Status)
	require.Equal(t, paid.Unix(), out.PaidAt)
	require.Zero(t, out.DeliverAt)
	require.Equal(t, "ext", out.Payment.ID)
	require.Empty(t, out.Items)

	d := paid.Add(48 * time.Hour)
	o.DeliverAt = &d
	require.Equal(t, d.Unix(), orderFromModel(o).DeliverAt)
}
