package bot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/GariBroman/osminog/internal/logger"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/service"
)

// PersonDirectory — справочник учётных записей и ролей, нужный движку диалога.
type PersonDirectory interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Person, error)
	Upsert(ctx context.Context, telegramID int64, name, phone string) (*models.Person, error)
	ResolveRole(ctx context.Context, telegramID int64) (models.Role, error)
	GetOrCreateClient(ctx context.Context, telegramID int64) (*models.Client, error)
	GetClient(ctx context.Context, telegramID int64) (*models.Client, error)
	GetContractor(ctx context.Context, telegramID int64) (*models.Contractor, error)
	CreateContractorApplication(ctx context.Context, telegramID int64, comment string) (*models.Contractor, error)
	ApproveContractor(ctx context.Context, contractorID uuid.UUID) error
	ListContractorApplications(ctx context.Context) ([]models.Contractor, error)
	GetPersonByContractorID(ctx context.Context, contractorID uuid.UUID) (*models.Person, error)
}

type handlerFunc func(ctx context.Context, up Update) (State, error)

// route — строка таблицы переходов: тип события, для callback — глагол,
// и обработчик.
type route struct {
	kind   EventKind
	verb   string
	handle handlerFunc
}

func (r route) matches(up Update) bool {
	if up.Kind() != r.kind {
		return false
	}
	if r.kind == KindCallback && r.verb != "" {
		verb, _, _ := strings.Cut(up.Callback, cbSep)
		return verb == r.verb
	}
	return true
}

// Engine — движок диалога. Таблица переходов строится один раз в
// конструкторе, всё состояние сессий живёт во внешнем кэше.
type Engine struct {
	sessions  *Sessions
	gw        Gateway
	persons   PersonDirectory
	subs      *service.SubscriptionService
	orders    *service.OrderService
	payments  *service.PaymentService
	catalog   *service.CatalogService
	notify    *service.NotifyService
	menuDelay time.Duration

	log   *logrus.Entry
	table map[State][]route
}

func NewEngine(
	sessions *Sessions,
	gw Gateway,
	persons PersonDirectory,
	subs *service.SubscriptionService,
	orders *service.OrderService,
	payments *service.PaymentService,
	catalog *service.CatalogService,
	notify *service.NotifyService,
	menuDelay time.Duration,
) *Engine {
	e := &Engine{
		sessions:  sessions,
		gw:        gw,
		persons:   persons,
		subs:      subs,
		orders:    orders,
		payments:  payments,
		catalog:   catalog,
		notify:    notify,
		menuDelay: menuDelay,
		log:       logger.WithComponent("bot"),
	}
	e.table = e.buildTable()
	return e
}

// buildTable возвращает статическую таблицу переходов. Каждый переход
// диалога объявлен здесь, обработчики не переключают маршруты сами.
func (e *Engine) buildTable() map[State][]route {
	staff := []route{
		{KindCallback, cbOpenComplaints, e.openComplaints},
		{KindCallback, cbCloseComplaint, e.closeComplaint},
		{KindCallback, cbDeclineOrder, e.declineOrder},
		{KindCallback, cbApplications, e.contractorApplications},
		{KindCallback, cbApproveContractor, e.approveContractor},
	}
	return map[State][]route{
		StateVisitor: {
			{KindCallback, cbCheckAccess, e.checkAccess},
			{KindCallback, cbNewClient, e.newClient},
			{KindCallback, cbNewContractor, e.askContractorApplication},
			{KindText, "", e.helloVisitorAgain},
		},
		StateVisitorPhone: {
			{KindContact, "", e.registerPhone},
			{KindText, "", e.registerPhone},
		},
		StateClient: {
			{KindCallback, cbNewRequest, e.requireSubscription(e.requireQuota(e.askRequest))},
			{KindCallback, cbClientOrders, e.clientOrders},
			{KindCallback, cbShowOrder, e.showOrder},
			{KindCallback, cbOrderComment, e.askComment},
			{KindCallback, cbOrderComplaint, e.askComplaint},
			{KindCallback, cbContractorContacts, e.sendContractorContacts},
			{KindCallback, cbClientTariff, e.currentTariff},
			{KindCallback, cbCatalog, e.showCategories},
			{KindCallback, cbCart, e.showCart},
			{KindCallback, cbNewContractor, e.askContractorApplication},
			{KindCallback, cbClientMain, e.helloClient},
		},
		StateClientNewRequest: {
			{KindCallback, cbCancel, e.cancelToClient},
			{KindText, "", e.createRequest},
		},
		StateClientNewComment: {
			{KindCallback, cbCancel, e.cancelToClient},
			{KindText, "", e.createComment},
		},
		StateClientNewComplaint: {
			{KindCallback, cbCancel, e.cancelToClient},
			{KindText, "", e.createComplaint},
		},
		StateSubscription: {
			{KindCallback, cbCreateSubscription, e.tellAboutTariffs},
			{KindCallback, cbActivateTariff, e.activateTariff},
			{KindCallback, cbCancel, e.cancelSubscription},
			{KindCallback, cbClientMain, e.helloClient},
		},
		StateNewContractor: {
			{KindCallback, cbCancel, e.cancelToVisitor},
			{KindText, "", e.createContractorApplication},
		},
		StateContractor: {
			{KindCallback, cbAvailableOrders, e.availableOrders},
			{KindCallback, cbTakeOrder, e.takeOrder},
			{KindCallback, cbContractorOrders, e.contractorOrders},
			{KindCallback, cbSetEstimate, e.askEstimate},
			{KindCallback, cbFinishOrder, e.finishOrder},
			{KindCallback, cbSalary, e.salary},
			{KindCallback, cbMyServices, e.myServices},
			{KindCallback, cbNewService, e.askServiceCategory},
			{KindCallback, cbDeleteService, e.deleteService},
			{KindCallback, cbContractorMain, e.helloContractor},
		},
		StateSetEstimate: {
			{KindCallback, cbCancel, e.cancelToContractor},
			{KindText, "", e.setEstimate},
		},
		StateCatalog: {
			{KindCallback, cbCategory, e.showCategoryServices},
			{KindCallback, cbAddToCart, e.addToCart},
			{KindCallback, cbCart, e.showCart},
			{KindCallback, cbClearCart, e.clearCart},
			{KindCallback, cbCheckout, e.checkout},
			{KindCallback, cbCatalog, e.showCategories},
			{KindCallback, cbClientMain, e.helloClient},
		},
		StateCatalogNewService: {
			{KindCallback, cbCategory, e.pickServiceCategory},
			{KindCallback, cbCancel, e.cancelToContractor},
			{KindText, "", e.createService},
		},
		StateManager: staff,
		StateOwner:   staff,
	}
}

// HandleUpdate — единая точка входа для событий чат-платформы.
// Команда /start перезапускает диалог из любого состояния.
func (e *Engine) HandleUpdate(ctx context.Context, up Update) error {
	if up.Kind() == KindCommand {
		if up.Command == "start" {
			return e.restart(ctx, up)
		}
		return nil
	}

	state, err := e.sessions.State(ctx, up.ChatID)
	if err != nil {
		return err
	}

	// Устаревшие кнопки убираются до обработки: повторное нажатие
	// отработавшей клавиатуры не должно дублировать действие.
	if up.Kind() == KindCallback && up.CallbackMessageID != 0 {
		if err := e.gw.ClearAffordances(ctx, up.ChatID, up.CallbackMessageID); err != nil {
			e.log.WithError(err).Debug("не удалось убрать клавиатуру")
		}
	}

	for _, r := range e.table[state] {
		if !r.matches(up) {
			continue
		}
		next, err := r.handle(ctx, up)
		if err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"chat_id": up.ChatID,
				"state":   state,
			}).Error("ошибка обработчика диалога")
			_ = e.gw.SendText(ctx, up.ChatID, msgApology)
			return err
		}
		if next == "" {
			next = state
		}
		return e.sessions.SetState(ctx, up.ChatID, next)
	}

	e.log.WithFields(logrus.Fields{
		"chat_id": up.ChatID,
		"state":   state,
	}).Debug("событие без маршрута, игнорируем")
	return nil
}

// restart сбрасывает брошенные сценарии и заново определяет роль.
func (e *Engine) restart(ctx context.Context, up Update) error {
	if err := e.sessions.ClearFlow(ctx, up.ChatID); err != nil {
		e.log.WithError(err).Warn("не удалось сбросить шаги сценария")
	}
	next, err := e.start(ctx, up)
	if err != nil {
		return err
	}
	return e.sessions.SetState(ctx, up.ChatID, next)
}
