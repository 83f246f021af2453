package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GariBroman/osminog/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepository отвечает за подписки клиентов.
type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create создаёт подписку по оплаченному тарифу.
func (r *SubscriptionRepository) Create(ctx context.Context, clientID, tariffID uuid.UUID, paymentID string) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		INSERT INTO subscriptions (client_id, tariff_id, payment_id)
		VALUES ($1, $2, $3)
		RETURNING id, client_id, tariff_id, contractor_id, payment_id, started_at
	`
	if err := r.db.GetContext(ctx, &sub, query, clientID, tariffID, paymentID); err != nil {
		return nil, fmt.Errorf("subscription repository: create %w", err)
	}
	return &sub, nil
}

// LatestForClient возвращает последнюю созданную подписку клиента вместе с тарифом.
// Более старые подписки хранятся для истории и здесь не рассматриваются.
func (r *SubscriptionRepository) LatestForClient(ctx context.Context, clientID uuid.UUID) (*models.Subscription, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT s.id, s.client_id, s.tariff_id, s.contractor_id, s.payment_id, s.started_at,
		       t.id, t.title, t.orders_limit, t.price, t.validity_days, t.answer_delay_hours,
		       t.contractor_contacts_visible, t.personal_contractor_assignable
		FROM subscriptions s
		JOIN tariffs t ON t.id = s.tariff_id
		WHERE s.client_id = $1
		ORDER BY s.started_at DESC, s.id DESC
		LIMIT 1
	`, clientID)

	var sub models.Subscription
	var tariff models.Tariff
	err := row.Scan(
		&sub.ID, &sub.ClientID, &sub.TariffID, &sub.ContractorID, &sub.PaymentID, &sub.StartedAt,
		&tariff.ID, &tariff.Title, &tariff.OrdersLimit, &tariff.Price, &tariff.ValidityDays,
		&tariff.AnswerDelayHours, &tariff.ContractorContactsVisible, &tariff.PersonalContractorAssignable,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("subscription repository: latest for client %w", err)
	}
	sub.Tariff = &tariff
	return &sub, nil
}

// CountOrders считает заказы, когда-либо созданные под подпиской.
// Отклонённые заказы тоже учитываются: так считает квоту действующая
// тарифная политика.
func (r *SubscriptionRepository) CountOrders(ctx context.Context, subscriptionID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE subscription_id = $1`
	if err := r.db.GetContext(ctx, &count, query, subscriptionID); err != nil {
		return 0, fmt.Errorf("subscription repository: count orders %w", err)
	}
	return count, nil
}
