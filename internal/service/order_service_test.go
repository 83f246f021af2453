package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/repository"
)

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, subscriptionID uuid.UUID, description string) (*models.Order, error) {
	args := m.Called(ctx, subscriptionID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListAvailable(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) ListForClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) ListActiveForContractor(ctx context.Context, contractorID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, contractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) AssignContractor(ctx context.Context, orderID, contractorID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID, contractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) SetEstimate(ctx context.Context, orderID, contractorID uuid.UUID, estimate time.Time) (*models.Order, error) {
	args := m.Called(ctx, orderID, contractorID, estimate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) Close(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) Decline(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) AddComment(ctx context.Context, orderID uuid.UUID, author models.Role, comment string) (*models.OrderComment, error) {
	args := m.Called(ctx, orderID, author, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderComment), args.Error(1)
}

func (m *mockOrderStore) CreateComplaint(ctx context.Context, orderID uuid.UUID, text string) (*models.Complaint, error) {
	args := m.Called(ctx, orderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *mockOrderStore) ListOpenComplaints(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *mockOrderStore) CloseComplaint(ctx context.Context, complaintID, closedByID uuid.UUID) (*models.Complaint, error) {
	args := m.Called(ctx, complaintID, closedByID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *mockOrderStore) SalaryReport(ctx context.Context, contractorID uuid.UUID, from, to time.Time) (int, int, error) {
	args := m.Called(ctx, contractorID, from, to)
	return args.Int(0), args.Int(1), args.Error(2)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Current(ctx context.Context, clientID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockLedger) HasUsable(ctx context.Context, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) RequestAllowed(ctx context.Context, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

type mockContactStore struct {
	mock.Mock
}

func (m *mockContactStore) GetPersonByContractorID(ctx context.Context, contractorID uuid.UUID) (*models.Person, error) {
	args := m.Called(ctx, contractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Person), args.Error(1)
}

func newOrderServiceWithMocks() (*OrderService, *mockOrderStore, *mockLedger, *mockContactStore) {
	orders := new(mockOrderStore)
	ledger := new(mockLedger)
	contacts := new(mockContactStore)
	return NewOrderService(orders, ledger, contacts), orders, ledger, contacts
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	svc, orders, ledger, _ := newOrderServiceWithMocks()

	clientID := uuid.New()
	sub := testSubscription(time.Now(), 5, 30)
	ledger.On("HasUsable", mock.Anything, clientID).Return(true, nil)
	ledger.On("RequestAllowed", mock.Anything, clientID).Return(true, nil)
	ledger.On("Current", mock.Anything, clientID).Return(sub, nil)
	orders.On("Create", mock.Anything, sub.ID, "нужен сайт").
		Return(&models.Order{ID: uuid.New(), SubscriptionID: sub.ID, Description: "нужен сайт"}, nil)

	order, err := svc.CreateOrder(context.Background(), clientID, "нужен сайт")
	assert.NoError(t, err)
	assert.Equal(t, "нужен сайт", order.Description)
	orders.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestOrderService_CreateOrder_PinnedContractor(t *testing.T) {
	svc, orders, ledger, _ := newOrderServiceWithMocks()

	clientID := uuid.New()
	pinned := uuid.New()
	sub := testSubscription(time.Now(), 5, 30)
	sub.ContractorID = &pinned

	orderID := uuid.New()
	ledger.On("HasUsable", mock.Anything, clientID).Return(true, nil)
	ledger.On("RequestAllowed", mock.Anything, clientID).Return(true, nil)
	ledger.On("Current", mock.Anything, clientID).Return(sub, nil)
	orders.On("Create", mock.Anything, sub.ID, "нужен сайт").
		Return(&models.Order{ID: orderID, SubscriptionID: sub.ID, Description: "нужен сайт"}, nil)
	orders.On("AssignContractor", mock.Anything, orderID, pinned).
		Return(&models.Order{ID: orderID, SubscriptionID: sub.ID, ContractorID: &pinned, Description: "нужен сайт"}, nil)

	// Заявка под подпиской с закреплённым подрядчиком уходит ему сразу.
	order, err := svc.CreateOrder(context.Background(), clientID, "нужен сайт")
	assert.NoError(t, err)
	require.NotNil(t, order.ContractorID)
	assert.Equal(t, pinned, *order.ContractorID)
	orders.AssertExpectations(t)
}

func TestOrderService_CreateOrder_NoSubscription(t *testing.T) {
	svc, orders, ledger, _ := newOrderServiceWithMocks()

	clientID := uuid.New()
	ledger.On("HasUsable", mock.Anything, clientID).Return(false, nil)

	_, err := svc.CreateOrder(context.Background(), clientID, "нужен сайт")
	assert.ErrorIs(t, err, apperror.ErrNoSubscription)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_QuotaExhausted(t *testing.T) {
	svc, orders, ledger, _ := newOrderServiceWithMocks()

	clientID := uuid.New()
	ledger.On("HasUsable", mock.Anything, clientID).Return(true, nil)
	ledger.On("RequestAllowed", mock.Anything, clientID).Return(false, nil)

	_, err := svc.CreateOrder(context.Background(), clientID, "нужен сайт")
	assert.ErrorIs(t, err, apperror.ErrNoRequestsLeft)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_TooLong(t *testing.T) {
	svc, _, ledger, _ := newOrderServiceWithMocks()

	long := make([]rune, 1001)
	for i := range long {
		long[i] = 'а'
	}
	_, err := svc.CreateOrder(context.Background(), uuid.New(), string(long))
	assert.True(t, apperror.IsValidation(err))
	ledger.AssertNotCalled(t, "HasUsable", mock.Anything, mock.Anything)
}

func TestOrderService_AssignContractor_Race(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	orderID := uuid.New()
	winner := uuid.New()
	loser := uuid.New()
	contractorID := winner

	taken := &models.Order{ID: orderID, ContractorID: &contractorID}
	orders.On("AssignContractor", mock.Anything, orderID, winner).Return(taken, nil).Once()
	orders.On("AssignContractor", mock.Anything, orderID, loser).Return(nil, repository.ErrOrderTaken).Once()

	got, err := svc.AssignContractor(context.Background(), orderID, winner)
	assert.NoError(t, err)
	assert.Equal(t, winner, *got.ContractorID)

	_, err = svc.AssignContractor(context.Background(), orderID, loser)
	assert.ErrorIs(t, err, apperror.ErrOrderTaken)
	orders.AssertExpectations(t)
}

func TestOrderService_AssignContractor_NotFound(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	orderID := uuid.New()
	orders.On("AssignContractor", mock.Anything, orderID, mock.Anything).
		Return(nil, repository.ErrOrderNotFound)

	_, err := svc.AssignContractor(context.Background(), orderID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestOrderService_SetEstimate(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	orderID := uuid.New()
	contractorID := uuid.New()
	want := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	orders.On("SetEstimate", mock.Anything, orderID, contractorID, want).
		Return(&models.Order{ID: orderID, EstimatedTime: &want}, nil)

	order, err := svc.SetEstimate(context.Background(), orderID, contractorID, "2024:03:15:10:30")
	assert.NoError(t, err)
	assert.Equal(t, want, *order.EstimatedTime)
}

func TestOrderService_SetEstimate_Invalid(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	_, err := svc.SetEstimate(context.Background(), uuid.New(), uuid.New(), "когда-нибудь")
	assert.True(t, apperror.IsValidation(err))
	orders.AssertNotCalled(t, "SetEstimate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_ContractorContact_NotSet(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID}, nil)

	_, err := svc.ContractorContact(context.Background(), orderID)
	assert.ErrorIs(t, err, apperror.ErrContractorNotSet)
}

func TestOrderService_ContractorContact(t *testing.T) {
	svc, orders, _, contacts := newOrderServiceWithMocks()

	orderID := uuid.New()
	contractorID := uuid.New()
	orders.On("GetByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, ContractorID: &contractorID}, nil)
	contacts.On("GetPersonByContractorID", mock.Anything, contractorID).
		Return(&models.Person{Name: "Иван", Phone: "+79991234567"}, nil)

	person, err := svc.ContractorContact(context.Background(), orderID)
	assert.NoError(t, err)
	assert.Equal(t, "+79991234567", person.Phone)
}

func TestOrderService_SalaryReport_DefaultPeriod(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()
	svc.now = func() time.Time { return time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC) }

	contractorID := uuid.New()
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orders.On("SalaryReport", mock.Anything, contractorID, start, end).Return(3, 45000, nil)

	count, total, err := svc.SalaryReport(context.Background(), contractorID, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 45000, total)
	orders.AssertExpectations(t)
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		name  string
		point time.Time
		start time.Time
		end   time.Time
	}{
		{
			"обычный месяц",
			time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"високосный февраль",
			time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"декабрь переходит через год",
			time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthBounds(tt.point)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestOrderService_CloseComplaint_NotFound(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	complaintID := uuid.New()
	closedByID := uuid.New()
	orders.On("CloseComplaint", mock.Anything, complaintID, closedByID).
		Return(nil, repository.ErrComplaintNotFound)

	_, err := svc.CloseComplaint(context.Background(), complaintID, closedByID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_GetOrder_WrapsSentinel(t *testing.T) {
	svc, orders, _, _ := newOrderServiceWithMocks()

	orderID := uuid.New()
	orders.On("GetByID", mock.Anything, orderID).Return(nil, repository.ErrOrderNotFound)

	_, err := svc.GetOrder(context.Background(), orderID)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
	assert.False(t, errors.Is(err, repository.ErrOrderNotFound))
}
