package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/repository"
)

// SubscriptionStore описывает взаимодействие леджера с хранилищем подписок.
type SubscriptionStore interface {
	LatestForClient(ctx context.Context, clientID uuid.UUID) (*models.Subscription, error)
	CountOrders(ctx context.Context, subscriptionID uuid.UUID) (int, error)
}

// SubscriptionService — леджер подписок: квоты, сроки действия, права клиента.
// Подписка никогда не завершается активно, срок проверяется лениво при
// каждом обращении.
type SubscriptionService struct {
	subs SubscriptionStore
	now  func() time.Time
}

// NewSubscriptionService создаёт новый леджер подписок.
func NewSubscriptionService(subs SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{
		subs: subs,
		now:  time.Now,
	}
}

// QuotaRemaining возвращает остаток заявок: лимит тарифа минус количество
// заказов, когда-либо созданных под подпиской. Отклонённые заказы из квоты
// не возвращаются — так работает действующая тарифная политика.
func (s *SubscriptionService) QuotaRemaining(ctx context.Context, sub *models.Subscription) (int, error) {
	if sub.Tariff == nil {
		return 0, fmt.Errorf("subscription service: подписка %s без тарифа", sub.ID)
	}
	count, err := s.subs.CountOrders(ctx, sub.ID)
	if err != nil {
		return 0, err
	}
	return sub.Tariff.OrdersLimit - count, nil
}

// IsCurrent сообщает, действует ли подписка в данный момент.
// Граница включительная: подписка действительна ровно до started_at + validity.
func (s *SubscriptionService) IsCurrent(sub *models.Subscription) bool {
	if sub == nil || sub.Tariff == nil {
		return false
	}
	return !s.now().After(sub.ExpiresAt())
}

// Current возвращает последнюю созданную подписку клиента независимо от того,
// действует она или нет. Исторические подписки не рассматриваются.
func (s *SubscriptionService) Current(ctx context.Context, clientID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.LatestForClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// HasUsable сообщает, есть ли у клиента действующая подписка.
func (s *SubscriptionService) HasUsable(ctx context.Context, clientID uuid.UUID) (bool, error) {
	sub, err := s.Current(ctx, clientID)
	if err != nil {
		return false, err
	}
	return s.IsCurrent(sub), nil
}

// RequestAllowed сообщает, может ли клиент создать новую заявку:
// подписка действует и квота не исчерпана.
func (s *SubscriptionService) RequestAllowed(ctx context.Context, clientID uuid.UUID) (bool, error) {
	sub, err := s.Current(ctx, clientID)
	if err != nil {
		return false, err
	}
	if !s.IsCurrent(sub) {
		return false, nil
	}
	left, err := s.QuotaRemaining(ctx, sub)
	if err != nil {
		return false, err
	}
	return left > 0, nil
}

// ContractorContactsVisible сообщает, даёт ли действующий тариф клиента
// право видеть контакты подрядчика.
func (s *SubscriptionService) ContractorContactsVisible(ctx context.Context, clientID uuid.UUID) (bool, error) {
	sub, err := s.Current(ctx, clientID)
	if err != nil {
		return false, err
	}
	if !s.IsCurrent(sub) {
		return false, nil
	}
	return sub.Tariff.ContractorContactsVisible, nil
}

// Info возвращает человекочитаемое описание подписки для сообщения клиенту.
func (s *SubscriptionService) Info(ctx context.Context, sub *models.Subscription) (string, error) {
	left, err := s.QuotaRemaining(ctx, sub)
	if err != nil {
		return "", err
	}
	if left < 0 {
		left = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Тариф «%s»\n", sub.Tariff.Title)
	fmt.Fprintf(&b, "Осталось заявок: %d из %d\n", left, sub.Tariff.OrdersLimit)
	fmt.Fprintf(&b, "Действует до: %s\n", sub.ExpiresAt().Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Время ответа на заявку: %d ч.", sub.Tariff.AnswerDelayHours)
	if sub.Tariff.ContractorContactsVisible {
		b.WriteString("\nДоступны контакты подрядчика.")
	}
	if sub.Tariff.PersonalContractorAssignable {
		b.WriteString("\nМожно закрепить за собой подрядчика.")
	}
	return b.String(), nil
}
