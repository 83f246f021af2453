package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/cache"
	"github.com/GariBroman/osminog/internal/logger"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/repository"
)

// TariffStore описывает взаимодействие сервиса с хранилищем тарифов.
type TariffStore interface {
	List(ctx context.Context) ([]models.Tariff, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tariff, error)
}

// SubscriptionCreator описывает создание подписки по оплаченному тарифу.
type SubscriptionCreator interface {
	Create(ctx context.Context, clientID, tariffID uuid.UUID, paymentID string) (*models.Subscription, error)
}

// ClientStore описывает поиск клиентского расширения учётной записи.
type ClientStore interface {
	GetClient(ctx context.Context, telegramID int64) (*models.Client, error)
	GetOrCreateClient(ctx context.Context, telegramID int64) (*models.Client, error)
}

// ManagerNotifier описывает уведомления об оплате.
type ManagerNotifier interface {
	NotifyManagers(ctx context.Context, text string) error
	NotifyUser(ctx context.Context, telegramID int64, text string)
}

// Invoice — дескриптор счёта для платёжного провайдера.
type Invoice struct {
	Token         string
	Title         string
	Description   string
	AmountKopecks int
}

// PaymentService сопоставляет асинхронный колбэк платёжного шлюза с ранее
// начатой покупкой подписки через одноразовый токен в эфемерном кэше.
type PaymentService struct {
	store    cache.Store
	tariffs  TariffStore
	subs     SubscriptionCreator
	clients  ClientStore
	notifier ManagerNotifier
	tokenTTL time.Duration
}

// NewPaymentService создаёт новый сервис платежей.
func NewPaymentService(store cache.Store, tariffs TariffStore, subs SubscriptionCreator, clients ClientStore, notifier ManagerNotifier, tokenTTL time.Duration) *PaymentService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &PaymentService{
		store:    store,
		tariffs:  tariffs,
		subs:     subs,
		clients:  clients,
		notifier: notifier,
		tokenTTL: tokenTTL,
	}
}

func tokenKey(token string) string     { return "pay:" + token }
func tokenUserKey(token string) string { return "pay:" + token + ":user" }

// BeginPurchase начинает покупку тарифа: генерирует токен корреляции,
// сохраняет параметры покупки в кэше с ограниченным TTL и возвращает
// дескриптор счёта для отправки пользователю.
func (s *PaymentService) BeginPurchase(ctx context.Context, telegramID int64, tariffID uuid.UUID) (*Invoice, error) {
	tariff, err := s.tariffs.GetByID(ctx, tariffID)
	if err != nil {
		if errors.Is(err, repository.ErrTariffNotFound) {
			return nil, apperror.ErrTariffNotFound
		}
		return nil, err
	}

	token := uuid.NewString()
	if err := s.store.Set(ctx, tokenKey(token), tariff.ID.String(), s.tokenTTL); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить данные платежа")
	}
	if err := s.store.Set(ctx, tokenUserKey(token), strconv.FormatInt(telegramID, 10), s.tokenTTL); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить данные платежа")
	}

	return &Invoice{
		Token:         token,
		Title:         tariff.Title,
		Description:   fmt.Sprintf("Подписка «%s»: %d заявок на %d дней", tariff.Title, tariff.OrdersLimit, tariff.ValidityDays),
		AmountKopecks: tariff.Price * 100,
	}, nil
}

// ConfirmPurchase завершает покупку по колбэку платёжного шлюза.
// Промах кэша — потерянная покупка: токен истёк или уже был использован.
// Такой случай виден оператору в логах и никогда не глотается молча.
// Удаление ключей при первом успехе делает повторную доставку того же
// колбэка безопасной: второй вызов завершится ошибкой, а не дублем подписки.
func (s *PaymentService) ConfirmPurchase(ctx context.Context, token string) (*models.Subscription, error) {
	log := logger.WithComponent("payment").WithField("token", token)

	tariffRaw, err := s.store.Get(ctx, tokenKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			log.Error("подтверждение платежа: токен не найден в кэше (истёк или повторный колбэк)")
			return nil, apperror.ErrPaymentExpired
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "кэш платежей недоступен")
	}

	userRaw, err := s.store.Get(ctx, tokenUserKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			log.Error("подтверждение платежа: токен без привязки к пользователю")
			return nil, apperror.ErrPaymentExpired
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "кэш платежей недоступен")
	}

	tariffID, err := uuid.Parse(tariffRaw)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые данные платежа")
	}
	telegramID, err := strconv.ParseInt(userRaw, 10, 64)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "повреждённые данные платежа")
	}

	tariff, err := s.tariffs.GetByID(ctx, tariffID)
	if err != nil {
		return nil, fmt.Errorf("payment service: тариф по токену: %w", err)
	}

	// Оплатить подписку может и пользователь без клиентской роли, поэтому
	// расширение создаётся по необходимости.
	client, err := s.clients.GetOrCreateClient(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("payment service: клиент по токену: %w", err)
	}

	sub, err := s.subs.Create(ctx, client.ID, tariff.ID, token)
	if err != nil {
		return nil, fmt.Errorf("payment service: создание подписки: %w", err)
	}
	sub.Tariff = tariff

	if err := s.store.Delete(ctx, tokenKey(token)); err != nil {
		log.Warnf("не удалось удалить платёжный ключ: %v", err)
	}
	if err := s.store.Delete(ctx, tokenUserKey(token)); err != nil {
		log.Warnf("не удалось удалить платёжный ключ: %v", err)
	}

	if err := s.notifier.NotifyManagers(ctx, fmt.Sprintf("Оплачена подписка «%s»", tariff.Title)); err != nil {
		log.Warnf("не удалось уведомить менеджеров об оплате: %v", err)
	}
	s.notifier.NotifyUser(ctx, telegramID,
		fmt.Sprintf("✅ Оплата прошла успешно!\nПодписка «%s» активирована.\n\nТеперь вы можете отправлять заявки.", tariff.Title))

	return sub, nil
}

// ListTariffs возвращает тарифы для экрана выбора подписки.
func (s *PaymentService) ListTariffs(ctx context.Context) ([]models.Tariff, error) {
	return s.tariffs.List(ctx)
}
