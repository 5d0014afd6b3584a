package service

import (
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/shopspring/decimal"
)

// Ставки, применяемые при изменении корзины.
const (
	TaxRate      = 0.10
	ShippingRate = 0.05
)

// moneyPlaces — точность отображения денежных сумм.
const moneyPlaces = 2

// PriceLine считает строку корзины по базовой цене товара:
// Price = unit*qty, налог и доставка — доли Price, TotalPrice — их сумма.
// Значения не округляются: округляется только агрегат по корзине.
func PriceLine(productID string, unitPrice float64, quantity int) models.CartLine {
	base := unitPrice * float64(quantity)
	tax := base * TaxRate
	shipping := base * ShippingRate

	return models.CartLine{
		ProductID:      productID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		Price:          base,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		TotalPrice:     base + tax + shipping,
	}
}

// upsertLine заменяет строку с тем же ProductID или дописывает новую в конец.
// Исходный срез не изменяется.
func upsertLine(items []models.CartLine, line models.CartLine) []models.CartLine {
	c := models.Cart{Items: make([]models.CartLine, len(items), len(items)+1)}
	copy(c.Items, items)

	if i := c.Line(line.ProductID); i >= 0 {
		c.Items[i] = line
		return c.Items
	}

	return append(c.Items, line)
}

// AggregateCart суммирует четыре измерения по всем строкам и округляет каждую сумму
// до 2 знаков отдельно. Порядок важен: округляется сумма неокруглённых строк,
// а не сумма округлённых.
func AggregateCart(items []models.CartLine) models.CartAggregate {
	var price, tax, shipping, total float64

	for _, it := range items {
		price += it.Price
		tax += it.TaxAmount
		shipping += it.ShippingAmount
		total += it.TotalPrice
	}

	return models.CartAggregate{
		Price:         roundMoney(price),
		TaxPrice:      roundMoney(tax),
		ShippingPrice: roundMoney(shipping),
		TotalPrice:    roundMoney(total),
	}
}

// roundMoney — округление половины от нуля по кратчайшему десятичному представлению float64.
func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(moneyPlaces).InexactFloat64()
}

// toMinorUnits переводит сумму в минимальные единицы валюты (x100, округление до целого).
func toMinorUnits(v float64) int64 {
	return decimal.NewFromFloat(v).Shift(moneyPlaces).Round(0).IntPart()
}
