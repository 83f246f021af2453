package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GariBroman/osminog/internal/cache"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/service"
)

// fakeGateway записывает всё отправленное движком. Потокобезопасен:
// часть сообщений уходит из фоновых горутин.
type fakeGateway struct {
	mu       sync.Mutex
	messages []Message
	cleared  []int64
}

func (g *fakeGateway) SendMessage(_ context.Context, _ int64, msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, msg)
	return nil
}

func (g *fakeGateway) SendText(_ context.Context, _ int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, Message{Text: text})
	return nil
}

func (g *fakeGateway) SendContact(_ context.Context, _ int64, name, phone string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, Message{Text: name + " " + phone})
	return nil
}

func (g *fakeGateway) SendInvoice(_ context.Context, _ int64, inv service.Invoice) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, Message{Text: "invoice " + inv.Title})
	return nil
}

func (g *fakeGateway) ClearAffordances(_ context.Context, _, messageID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cleared = append(g.cleared, messageID)
	return nil
}

func (g *fakeGateway) texts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.messages))
	for i, m := range g.messages {
		out[i] = m.Text
	}
	return out
}

func (g *fakeGateway) lastMessage(t *testing.T) Message {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.messages, "движок ничего не отправил")
	return g.messages[len(g.messages)-1]
}

// fakeDirectory — справочник людей в памяти. Заполненные поля играют
// роль строк базы, ошибки репозитория воспроизводятся отсутствием.
type fakeDirectory struct {
	person    *models.Person
	role      models.Role
	client    *models.Client
	clientErr error
	upserts   int
}

func (d *fakeDirectory) GetByTelegramID(context.Context, int64) (*models.Person, error) {
	if d.person == nil {
		return nil, repository.ErrPersonNotFound
	}
	return d.person, nil
}

func (d *fakeDirectory) Upsert(_ context.Context, telegramID int64, name, phone string) (*models.Person, error) {
	d.upserts++
	d.person = &models.Person{ID: uuid.New(), TelegramID: telegramID, Name: name, Phone: phone}
	return d.person, nil
}

func (d *fakeDirectory) ResolveRole(context.Context, int64) (models.Role, error) {
	return d.role, nil
}

func (d *fakeDirectory) GetOrCreateClient(context.Context, int64) (*models.Client, error) {
	if d.clientErr != nil {
		return nil, d.clientErr
	}
	if d.client == nil {
		d.client = &models.Client{ID: uuid.New()}
	}
	return d.client, nil
}

func (d *fakeDirectory) GetClient(context.Context, int64) (*models.Client, error) {
	if d.clientErr != nil {
		return nil, d.clientErr
	}
	if d.client == nil {
		return nil, repository.ErrClientNotFound
	}
	return d.client, nil
}

func (d *fakeDirectory) GetContractor(context.Context, int64) (*models.Contractor, error) {
	return nil, repository.ErrContractorNotFound
}

func (d *fakeDirectory) CreateContractorApplication(_ context.Context, _ int64, comment string) (*models.Contractor, error) {
	return &models.Contractor{ID: uuid.New(), Comment: comment}, nil
}

func (d *fakeDirectory) ApproveContractor(context.Context, uuid.UUID) error { return nil }

func (d *fakeDirectory) ListContractorApplications(context.Context) ([]models.Contractor, error) {
	return nil, nil
}

func (d *fakeDirectory) GetPersonByContractorID(context.Context, uuid.UUID) (*models.Person, error) {
	return nil, repository.ErrPersonNotFound
}

// fakeSubscriptionLedger подменяет хранилище подписок: либо одна
// действующая подписка, либо ни одной.
type fakeSubscriptionLedger struct {
	sub    *models.Subscription
	orders int
}

func (l *fakeSubscriptionLedger) LatestForClient(context.Context, uuid.UUID) (*models.Subscription, error) {
	if l.sub == nil {
		return nil, repository.ErrSubscriptionNotFound
	}
	return l.sub, nil
}

func (l *fakeSubscriptionLedger) CountOrders(context.Context, uuid.UUID) (int, error) {
	return l.orders, nil
}

// fakeOrderBook реализует хранилище заказов; тесты маршрутизатора
// задействуют только создание и списки.
type fakeOrderBook struct {
	created []string
}

func (b *fakeOrderBook) Create(_ context.Context, subscriptionID uuid.UUID, description string) (*models.Order, error) {
	b.created = append(b.created, description)
	return &models.Order{ID: uuid.New(), SubscriptionID: subscriptionID, Description: description}, nil
}

func (b *fakeOrderBook) GetByID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) ListAvailable(context.Context) ([]models.Order, error) { return nil, nil }

func (b *fakeOrderBook) ListForClient(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (b *fakeOrderBook) ListActiveForContractor(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (b *fakeOrderBook) AssignContractor(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) SetEstimate(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) Close(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) Decline(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) AddComment(context.Context, uuid.UUID, models.Role, string) (*models.OrderComment, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) CreateComplaint(context.Context, uuid.UUID, string) (*models.Complaint, error) {
	return nil, repository.ErrOrderNotFound
}

func (b *fakeOrderBook) ListOpenComplaints(context.Context) ([]models.Complaint, error) {
	return nil, nil
}

func (b *fakeOrderBook) CloseComplaint(context.Context, uuid.UUID, uuid.UUID) (*models.Complaint, error) {
	return nil, repository.ErrComplaintNotFound
}

func (b *fakeOrderBook) SalaryReport(context.Context, uuid.UUID, time.Time, time.Time) (int, int, error) {
	return 0, 0, nil
}

type emptyRoster struct{}

func (emptyRoster) ListActiveManagers(context.Context) ([]int64, error) { return nil, nil }

type botFixture struct {
	engine   *Engine
	sessions *Sessions
	gw       *fakeGateway
	dir      *fakeDirectory
	ledger   *fakeSubscriptionLedger
	orders   *fakeOrderBook
}

func newBotFixture() *botFixture {
	gw := &fakeGateway{}
	dir := &fakeDirectory{}
	ledger := &fakeSubscriptionLedger{}
	orders := &fakeOrderBook{}

	subs := service.NewSubscriptionService(ledger)
	orderSvc := service.NewOrderService(orders, subs, dir)
	notify := service.NewNotifyService(emptyRoster{}, gw)
	sessions := NewSessions(cache.NewMemoryStore(), 0)

	engine := NewEngine(sessions, gw, dir, subs, orderSvc, nil, nil, notify, 0)
	return &botFixture{
		engine:   engine,
		sessions: sessions,
		gw:       gw,
		dir:      dir,
		ledger:   ledger,
		orders:   orders,
	}
}

// usableSubscription выдаёт фикстуре действующую подписку.
func (f *botFixture) usableSubscription(limit int) {
	f.ledger.sub = &models.Subscription{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		StartedAt: time.Now().Add(-time.Hour),
		Tariff:    &models.Tariff{Title: "Стандарт", OrdersLimit: limit, ValidityDays: 30},
	}
}

func (f *botFixture) setState(t *testing.T, chatID int64, state State) {
	t.Helper()
	require.NoError(t, f.sessions.SetState(context.Background(), chatID, state))
}

func (f *botFixture) state(t *testing.T, chatID int64) State {
	t.Helper()
	state, err := f.sessions.State(context.Background(), chatID)
	require.NoError(t, err)
	return state
}

func TestHandleUpdate_RegistrationFlow(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(100)

	// Незнакомый пользователь начинает с запроса телефона.
	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Command: "start"})
	require.NoError(t, err)
	assert.Equal(t, StateVisitorPhone, f.state(t, chatID))

	msg := f.gw.lastMessage(t)
	assert.Equal(t, msgHelloVisitor, msg.Text)
	require.NotEmpty(t, msg.Keyboard)
	assert.True(t, msg.Keyboard[0][0].RequestContact)

	// Контакт с валидным номером завершает регистрацию.
	err = f.engine.HandleUpdate(ctx, Update{
		ChatID:  chatID,
		Name:    "ivan",
		Contact: &Contact{Phone: "+79991234567", FirstName: "Иван"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.dir.upserts)
	assert.Equal(t, "+79991234567", f.dir.person.Phone)
	assert.Equal(t, "Иван", f.dir.person.Name)
	assert.Contains(t, f.gw.texts(), msgRegistrationComplete)

	// Ролей пока нет, пользователю предлагают выбрать.
	assert.Equal(t, msgCheckRole, f.gw.lastMessage(t).Text)
	assert.Equal(t, StateVisitor, f.state(t, chatID))
}

func TestHandleUpdate_InvalidPhoneStaysOnStep(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(101)
	f.setState(t, chatID, StateVisitorPhone)

	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Text: "не телефон"})
	require.NoError(t, err)

	assert.Equal(t, StateVisitorPhone, f.state(t, chatID))
	assert.Zero(t, f.dir.upserts)
	assert.Contains(t, f.gw.lastMessage(t).Text, "не похож на телефонный")
}

func TestHandleUpdate_RequestTooLongStaysOnStep(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(102)
	f.usableSubscription(5)
	f.setState(t, chatID, StateClientNewRequest)

	long := strings.Repeat("ы", 1001)
	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Text: long})
	require.NoError(t, err)

	assert.Equal(t, StateClientNewRequest, f.state(t, chatID))
	assert.Empty(t, f.orders.created)
	assert.Equal(t, msgTooLong, f.gw.lastMessage(t).Text)
}

func TestHandleUpdate_CreateRequest(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(103)
	f.usableSubscription(5)
	f.setState(t, chatID, StateClientNewRequest)

	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Text: "нужен сантехник"})
	require.NoError(t, err)

	assert.Equal(t, StateClient, f.state(t, chatID))
	assert.Equal(t, []string{"нужен сантехник"}, f.orders.created)
	assert.Contains(t, f.gw.texts(), msgSuccessRequest)
}

func TestHandleUpdate_NewRequestWithoutSubscription(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(104)
	f.dir.client = &models.Client{ID: uuid.New()}
	f.setState(t, chatID, StateClient)

	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Callback: cbNewRequest})
	require.NoError(t, err)

	// Без подписки кнопка новой заявки уводит в оформление подписки.
	assert.Equal(t, StateSubscription, f.state(t, chatID))
	assert.Equal(t, msgSubscriptionAlert, f.gw.lastMessage(t).Text)
	assert.Empty(t, f.orders.created)
}

func TestHandleUpdate_StartClearsFlow(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(105)
	f.dir.person = &models.Person{TelegramID: chatID, Phone: "+79990000000"}
	f.setState(t, chatID, StateClientNewComment)
	require.NoError(t, f.sessions.SetFlowValue(ctx, chatID, flowOrder, uuid.NewString()))

	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Command: "start"})
	require.NoError(t, err)

	val, err := f.sessions.FlowValue(ctx, chatID, flowOrder)
	require.NoError(t, err)
	assert.Empty(t, val, "брошенный сценарий должен сброситься на /start")
	assert.Equal(t, StateVisitor, f.state(t, chatID))
}

func TestHandleUpdate_CallbackClearsAffordances(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(106)
	f.setState(t, chatID, StateClient)

	err := f.engine.HandleUpdate(ctx, Update{
		ChatID:            chatID,
		Callback:          cbClientMain,
		CallbackMessageID: 42,
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{42}, f.gw.cleared)
	assert.Equal(t, msgClientMain, f.gw.lastMessage(t).Text)
	assert.Equal(t, StateClient, f.state(t, chatID))
}

func TestHandleUpdate_UnroutedEventIgnored(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(107)
	f.setState(t, chatID, StateClient)

	// В главном меню заказчика текст не маршрутизируется.
	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Text: "просто текст"})
	require.NoError(t, err)

	assert.Empty(t, f.gw.texts())
	assert.Equal(t, StateClient, f.state(t, chatID))
}

func TestHandleUpdate_HandlerErrorKeepsState(t *testing.T) {
	f := newBotFixture()
	ctx := context.Background()
	const chatID = int64(108)
	f.dir.clientErr = errors.New("база недоступна")
	f.setState(t, chatID, StateClient)

	err := f.engine.HandleUpdate(ctx, Update{ChatID: chatID, Callback: cbClientOrders})
	require.Error(t, err)

	assert.Equal(t, StateClient, f.state(t, chatID), "ошибка не должна менять состояние")
	assert.Equal(t, msgApology, f.gw.lastMessage(t).Text)
}
