package models

import "time"

// Product — товар каталога. Price — актуальная базовая цена за единицу.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
}
