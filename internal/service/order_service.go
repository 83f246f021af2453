package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/validation"
)

// OrderStore описывает взаимодействие сервиса с хранилищем заказов.
type OrderStore interface {
	Create(ctx context.Context, subscriptionID uuid.UUID, description string) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListAvailable(ctx context.Context) ([]models.Order, error)
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
	ListActiveForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.Order, error)
	AssignContractor(ctx context.Context, orderID, contractorID uuid.UUID) (*models.Order, error)
	SetEstimate(ctx context.Context, orderID, contractorID uuid.UUID, estimate time.Time) (*models.Order, error)
	Close(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Decline(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AddComment(ctx context.Context, orderID uuid.UUID, author models.Role, comment string) (*models.OrderComment, error)
	CreateComplaint(ctx context.Context, orderID uuid.UUID, text string) (*models.Complaint, error)
	ListOpenComplaints(ctx context.Context) ([]models.Complaint, error)
	CloseComplaint(ctx context.Context, complaintID, closedByID uuid.UUID) (*models.Complaint, error)
	SalaryReport(ctx context.Context, contractorID uuid.UUID, from, to time.Time) (int, int, error)
}

// Ledger описывает минимальный контракт леджера подписок для заказов.
type Ledger interface {
	Current(ctx context.Context, clientID uuid.UUID) (*models.Subscription, error)
	HasUsable(ctx context.Context, clientID uuid.UUID) (bool, error)
	RequestAllowed(ctx context.Context, clientID uuid.UUID) (bool, error)
}

// ContactStore описывает минимальный контракт для получения контактов подрядчика.
type ContactStore interface {
	GetPersonByContractorID(ctx context.Context, contractorID uuid.UUID) (*models.Person, error)
}

// OrderService управляет жизненным циклом заказа: создание, назначение
// подрядчика, срок выполнения, закрытие, комментарии и претензии.
type OrderService struct {
	orders   OrderStore
	ledger   Ledger
	contacts ContactStore
	now      func() time.Time
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(orders OrderStore, ledger Ledger, contacts ContactStore) *OrderService {
	return &OrderService{
		orders:   orders,
		ledger:   ledger,
		contacts: contacts,
		now:      time.Now,
	}
}

// CreateOrder создаёт заявку в счёт квоты действующей подписки клиента.
func (s *OrderService) CreateOrder(ctx context.Context, clientID uuid.UUID, description string) (*models.Order, error) {
	if err := validation.ValidateText("текст заявки", description, validation.MaxRequestLength); err != nil {
		return nil, err
	}

	usable, err := s.ledger.HasUsable(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !usable {
		return nil, apperror.ErrNoSubscription
	}

	allowed, err := s.ledger.RequestAllowed(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrNoRequestsLeft
	}

	sub, err := s.ledger.Current(ctx, clientID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, sub.ID, description)
	if err != nil {
		return nil, err
	}

	// Закреплённый за подпиской подрядчик получает заявку сразу, минуя
	// список свободных заказов.
	if sub.ContractorID != nil {
		assigned, err := s.orders.AssignContractor(ctx, order.ID, *sub.ContractorID)
		if err != nil {
			return nil, fmt.Errorf("order service: назначение закреплённого подрядчика: %w", err)
		}
		return assigned, nil
	}
	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListAvailableOrders возвращает свободные заказы, старые первыми.
func (s *OrderService) ListAvailableOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListAvailable(ctx)
}

// ListClientOrders возвращает текущие заказы клиента.
func (s *OrderService) ListClientOrders(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListForClient(ctx, clientID)
}

// ListContractorOrders возвращает взятые подрядчиком незавершённые заказы.
func (s *OrderService) ListContractorOrders(ctx context.Context, contractorID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListActiveForContractor(ctx, contractorID)
}

// AssignContractor закрепляет свободный заказ за подрядчиком.
// Проигравший гонку подрядчик получает Conflict «заказ уже взят».
func (s *OrderService) AssignContractor(ctx context.Context, orderID, contractorID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.AssignContractor(ctx, orderID, contractorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderTaken):
			return nil, apperror.ErrOrderTaken
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// SetEstimate разбирает присланный подрядчиком срок и сохраняет его.
// Ошибка разбора — ValidationFailure, обработчик диалога перезапросит ввод.
func (s *OrderService) SetEstimate(ctx context.Context, orderID, contractorID uuid.UUID, raw string) (*models.Order, error) {
	estimate, err := validation.ParseEstimate(raw, s.now())
	if err != nil {
		return nil, err
	}

	order, err := s.orders.SetEstimate(ctx, orderID, contractorID, estimate)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// CloseOrder помечает заказ выполненным.
func (s *OrderService) CloseOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.Close(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// DeclineOrder отклоняет заказ от имени менеджера или владельца.
func (s *OrderService) DeclineOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.Decline(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// AddComment добавляет уточнение к заказу от имени указанной роли.
func (s *OrderService) AddComment(ctx context.Context, orderID uuid.UUID, author models.Role, text string) (*models.OrderComment, error) {
	if err := validation.ValidateText("комментарий", text, validation.MaxCommentLength); err != nil {
		return nil, err
	}
	return s.orders.AddComment(ctx, orderID, author, text)
}

// FileComplaint создаёт претензию к заказу.
func (s *OrderService) FileComplaint(ctx context.Context, orderID uuid.UUID, text string) (*models.Complaint, error) {
	if err := validation.ValidateText("претензия", text, validation.MaxComplaintLength); err != nil {
		return nil, err
	}
	return s.orders.CreateComplaint(ctx, orderID, text)
}

// ListOpenComplaints возвращает незакрытые претензии.
func (s *OrderService) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	return s.orders.ListOpenComplaints(ctx)
}

// CloseComplaint закрывает претензию от имени менеджера или владельца.
func (s *OrderService) CloseComplaint(ctx context.Context, complaintID, closedByID uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.orders.CloseComplaint(ctx, complaintID, closedByID)
	if err != nil {
		if errors.Is(err, repository.ErrComplaintNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "претензия не найдена или уже закрыта")
		}
		return nil, err
	}
	return complaint, nil
}

// ContractorContact возвращает контакты подрядчика по заказу.
// Для заказа без подрядчика возвращается понятная пользователю ошибка,
// а не общий сбой.
func (s *OrderService) ContractorContact(ctx context.Context, orderID uuid.UUID) (*models.Person, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ContractorID == nil {
		return nil, apperror.ErrContractorNotSet
	}

	person, err := s.contacts.GetPersonByContractorID(ctx, *order.ContractorID)
	if err != nil {
		if errors.Is(err, repository.ErrContractorNotFound) {
			return nil, apperror.ErrContractorNotSet
		}
		return nil, err
	}
	return person, nil
}

// SalaryReport агрегирует выплаты подрядчика за период.
// Если период не задан, берётся календарный месяц текущей даты.
func (s *OrderService) SalaryReport(ctx context.Context, contractorID uuid.UUID, from, to *time.Time) (int, int, error) {
	var start, end time.Time
	if from != nil && to != nil {
		start, end = *from, *to
	} else {
		start, end = MonthBounds(s.now())
	}
	return s.orders.SalaryReport(ctx, contractorID, start, end)
}

// MonthBounds возвращает границы календарного месяца точки point: [начало, конец).
// Конец месяца вычисляется шагом за 28-е число плюс четыре дня — это
// корректно переносит через месяцы любой длины, включая високосный февраль.
func MonthBounds(point time.Time) (time.Time, time.Time) {
	start := time.Date(point.Year(), point.Month(), 1, 0, 0, 0, 0, point.Location())
	nextMonth := time.Date(point.Year(), point.Month(), 28, 0, 0, 0, 0, point.Location()).
		Add(4 * 24 * time.Hour)
	end := time.Date(nextMonth.Year(), nextMonth.Month(), 1, 0, 0, 0, 0, point.Location())
	return start, end
}
