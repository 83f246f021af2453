package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceCategory — категория в каталоге услуг.
type ServiceCategory struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Title string    `db:"title" json:"title"`
}

// Service — карточка услуги подрядчика.
type Service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ContractorID    uuid.UUID `db:"contractor_id" json:"contractor_id"`
	CategoryID      uuid.UUID `db:"category_id" json:"category_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	Price           int       `db:"price" json:"price"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// FinalPrice возвращает цену услуги с учётом скидки.
func (s Service) FinalPrice() int {
	if s.DiscountPercent <= 0 {
		return s.Price
	}
	return s.Price - s.Price*s.DiscountPercent/100
}

// ServiceSet — корзина клиента. PaidAt == nil означает открытую корзину,
// у клиента не может быть больше одной открытой корзины.
type ServiceSet struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ClientID  uuid.UUID  `db:"client_id" json:"client_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	Services []Service `db:"-" json:"services,omitempty"`
}

// Total возвращает суммарную стоимость услуг в корзине с учётом скидок.
func (s ServiceSet) Total() int {
	total := 0
	for _, svc := range s.Services {
		total += svc.FinalPrice()
	}
	return total
}
