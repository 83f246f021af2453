package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя, определённая один раз на входе в диалог.
type Role string

const (
	RoleVisitor    Role = "visitor"
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
	RoleManager    Role = "manager"
	RoleOwner      Role = "owner"
)

// Person описывает учётную запись из чат-платформы.
// TelegramID неизменяем после создания, имя и телефон можно обновлять.
type Person struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TelegramID int64     `db:"telegram_id" json:"telegram_id"`
	Name       string    `db:"name" json:"name"`
	Phone      string    `db:"phone" json:"phone"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Client — ролевое расширение Person для заказчиков услуг.
type Client struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PersonID uuid.UUID `db:"person_id" json:"person_id"`
}

// Contractor — ролевое расширение Person для подрядчиков.
// Active выставляется менеджером после собеседования.
type Contractor struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PersonID uuid.UUID `db:"person_id" json:"person_id"`
	Active   bool      `db:"active" json:"active"`
	Comment  string    `db:"comment" json:"comment"`
}

// Manager — ролевое расширение Person для менеджеров.
type Manager struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PersonID uuid.UUID `db:"person_id" json:"person_id"`
	Active   bool      `db:"active" json:"active"`
}

// Owner — ролевое расширение Person для владельцев проекта.
type Owner struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PersonID uuid.UUID `db:"person_id" json:"person_id"`
	Active   bool      `db:"active" json:"active"`
}

// Tariff описывает тарифный план подписки.
// Тарифы, на которые ссылаются подписки, никогда не удаляются.
type Tariff struct {
	ID                           uuid.UUID `db:"id" json:"id"`
	Title                        string    `db:"title" json:"title"`
	OrdersLimit                  int       `db:"orders_limit" json:"orders_limit"`
	Price                        int       `db:"price" json:"price"`
	ValidityDays                 int       `db:"validity_days" json:"validity_days"`
	AnswerDelayHours             int       `db:"answer_delay_hours" json:"answer_delay_hours"`
	ContractorContactsVisible    bool      `db:"contractor_contacts_visible" json:"contractor_contacts_visible"`
	PersonalContractorAssignable bool      `db:"personal_contractor_assignable" json:"personal_contractor_assignable"`
}

// Validity возвращает срок действия тарифа как duration.
func (t Tariff) Validity() time.Duration {
	return time.Duration(t.ValidityDays) * 24 * time.Hour
}

// Subscription — купленный клиентом экземпляр тарифа.
// У клиента может накапливаться история подписок, действующей считается
// последняя созданная.
type Subscription struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	TariffID     uuid.UUID  `db:"tariff_id" json:"tariff_id"`
	ContractorID *uuid.UUID `db:"contractor_id" json:"contractor_id,omitempty"`
	PaymentID    string     `db:"payment_id" json:"payment_id"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`

	Tariff *Tariff `db:"-" json:"tariff,omitempty"`
}

// ExpiresAt возвращает момент окончания действия подписки.
func (s Subscription) ExpiresAt() time.Time {
	if s.Tariff == nil {
		return s.StartedAt
	}
	return s.StartedAt.Add(s.Tariff.Validity())
}

// OrderState — производное состояние заказа, в базе не хранится.
type OrderState string

const (
	OrderOpen     OrderState = "open"
	OrderAssigned OrderState = "assigned"
	OrderFinished OrderState = "finished"
	OrderDeclined OrderState = "declined"
)

// Order — заявка клиента в счёт квоты его подписки.
type Order struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	SubscriptionID uuid.UUID  `db:"subscription_id" json:"subscription_id"`
	ContractorID   *uuid.UUID `db:"contractor_id" json:"contractor_id,omitempty"`
	Description    string     `db:"description" json:"description"`
	Salary         int        `db:"salary" json:"salary"`
	Declined       bool       `db:"declined" json:"declined"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	TakeAt         *time.Time `db:"take_at" json:"take_at,omitempty"`
	EstimatedTime  *time.Time `db:"estimated_time" json:"estimated_time,omitempty"`
	FinishedAt     *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// State вычисляет состояние заказа по заполненным полям.
// Declined — независимая ось, проверяется первой.
func (o Order) State() OrderState {
	switch {
	case o.Declined:
		return OrderDeclined
	case o.FinishedAt != nil:
		return OrderFinished
	case o.ContractorID != nil:
		return OrderAssigned
	default:
		return OrderOpen
	}
}

// IsOpen сообщает, доступен ли заказ подрядчикам.
func (o Order) IsOpen() bool {
	return o.ContractorID == nil && o.TakeAt == nil && !o.Declined
}

// OrderComment — уточнение к заказу, append-only.
type OrderComment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	Author    Role      `db:"author" json:"author"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Complaint — претензия клиента к заказу. Закрывается менеджером или владельцем.
type Complaint struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	OrderID    uuid.UUID  `db:"order_id" json:"order_id"`
	Complaint  string     `db:"complaint" json:"complaint"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedByID *uuid.UUID `db:"closed_by_id" json:"closed_by_id,omitempty"`
}
