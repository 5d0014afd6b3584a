package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine — позиция корзины. Цены фиксируются в момент изменения корзины,
// а не подтягиваются из товара при чтении.
//   - Price = UnitPrice * Quantity (базовая цена строки);
//   - TaxAmount/ShippingAmount — доли от Price;
//   - TotalPrice = Price + TaxAmount + ShippingAmount.
type CartLine struct {
	ProductID      string
	Quantity       int
	UnitPrice      float64
	Price          float64
	TaxAmount      float64
	ShippingAmount float64
	TotalPrice     float64
}

// Cart — единственная открытая корзина пользователя.
// Items упорядочены по времени добавления; ProductID уникален в пределах корзины.
type Cart struct {
	ID        string
	UserID    uuid.UUID
	Items     []CartLine
	UpdatedAt time.Time
}

// Line возвращает индекс строки с productID или -1.
func (c *Cart) Line(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}

	return -1
}

// CartAggregate — суммы по корзине, каждая округлена до 2 знаков.
type CartAggregate struct {
	Price         float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
}
