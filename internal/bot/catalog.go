package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/validation"
)

// Каталог услуг: заказчик ходит по категориям и собирает корзину,
// подрядчик управляет своими карточками.

func (e *Engine) showCategories(ctx context.Context, up Update) (State, error) {
	categories, err := e.catalog.Categories(ctx)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgSelectCategory,
		Keyboard: categoriesKeyboard(categories, cbClientMain),
	}); err != nil {
		return "", err
	}
	return StateCatalog, nil
}

func (e *Engine) showCategoryServices(ctx context.Context, up Update) (State, error) {
	categoryID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	services, err := e.catalog.ServicesByCategory(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if len(services) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     "В этой категории пока нет услуг",
			Keyboard: Keyboard{row(btn("К категориям", cbCatalog))},
		}); err != nil {
			return "", err
		}
		return StateCatalog, nil
	}

	var cards []string
	for _, s := range services {
		cards = append(cards, msgService(s))
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     strings.Join(cards, "\n\n———\n\n"),
		Keyboard: servicesKeyboard(services),
	}); err != nil {
		return "", err
	}
	return StateCatalog, nil
}

func (e *Engine) addToCart(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	serviceID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	set, err := e.catalog.AddToCart(ctx, client.ID, serviceID)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgAddedToCart + "\n\n" + msgCart(set),
		Keyboard: cartKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateCatalog, nil
}

func (e *Engine) showCart(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	set, err := e.catalog.Cart(ctx, client.ID)
	if err != nil {
		return "", err
	}
	kb := cartKeyboard()
	if set == nil || len(set.Services) == 0 {
		kb = Keyboard{
			row(btn("Каталог услуг", cbCatalog)),
			row(btn("На главную", cbClientMain)),
		}
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgCart(set),
		Keyboard: kb,
	}); err != nil {
		return "", err
	}
	return StateCatalog, nil
}

func (e *Engine) clearCart(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	if err := e.catalog.ClearCart(ctx, client.ID); err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgCartCleared,
		Keyboard: Keyboard{row(btn("Каталог услуг", cbCatalog)), row(btn("На главную", cbClientMain))},
	}); err != nil {
		return "", err
	}
	return StateCatalog, nil
}

// checkout фиксирует корзину и передаёт её менеджерам.
func (e *Engine) checkout(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	set, err := e.catalog.Checkout(ctx, client.ID)
	if apperror.IsValidation(err) {
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgCartEmpty,
			Keyboard: Keyboard{row(btn("Каталог услуг", cbCatalog))},
		}); sendErr != nil {
			return "", sendErr
		}
		return StateCatalog, nil
	}
	if err != nil {
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, "NEW SERVICE SET\n\n"+msgCart(set))
	if err := e.gw.SendText(ctx, up.ChatID,
		"✅ Заказ оформлен! Менеджер свяжется с вами для оплаты."); err != nil {
		return "", err
	}
	return e.helloClient(ctx, up)
}

// askServiceCategory начинает создание карточки услуги с выбора категории.
func (e *Engine) askServiceCategory(ctx context.Context, up Update) (State, error) {
	categories, err := e.catalog.Categories(ctx)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgSelectCategory,
		Keyboard: categoriesKeyboard(categories, cbContractorMain),
	}); err != nil {
		return "", err
	}
	return StateCatalogNewService, nil
}

func (e *Engine) pickServiceCategory(ctx context.Context, up Update) (State, error) {
	categoryID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if err := e.sessions.SetFlowValue(ctx, up.ChatID, flowCategory, categoryID.String()); err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgNewService,
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateCatalogNewService, nil
}

// createService разбирает карточку «название; описание; цена» и создаёт
// услугу в выбранной категории.
func (e *Engine) createService(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	rawCategory, err := e.sessions.FlowValue(ctx, up.ChatID, flowCategory)
	if err != nil {
		return "", err
	}
	categoryID, err := uuid.Parse(rawCategory)
	if err != nil {
		// Категория не выбрана, возвращаем подрядчика к выбору.
		return e.askServiceCategory(ctx, up)
	}

	parts := strings.SplitN(up.Text, ";", 3)
	if len(parts) != 3 {
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNewService,
			Keyboard: cancelKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateCatalogNewService, nil
	}
	title := strings.TrimSpace(parts[0])
	description := strings.TrimSpace(parts[1])

	price, err := validation.ParsePrice(strings.TrimSpace(parts[2]))
	if err == nil {
		_, err = e.catalog.CreateService(ctx, contractor.ID, categoryID, title, description, price)
	}
	if apperror.IsValidation(err) {
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNewService,
			Keyboard: cancelKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateCatalogNewService, nil
	}
	if err != nil {
		return "", err
	}

	if err := e.gw.SendText(ctx, up.ChatID, msgServiceAdded); err != nil {
		return "", err
	}
	return e.myServices(ctx, up)
}

func (e *Engine) myServices(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	services, err := e.catalog.ContractorServices(ctx, contractor.ID)
	if err != nil {
		return "", err
	}
	text := msgContractorServicesEmpty
	if len(services) > 0 {
		var cards []string
		for _, s := range services {
			cards = append(cards, msgService(s))
		}
		text = "Ваши услуги:\n\n" + strings.Join(cards, "\n\n———\n\n")
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     text,
		Keyboard: myServicesKeyboard(services),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) deleteService(ctx context.Context, up Update) (State, error) {
	serviceID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if err := e.catalog.DeactivateService(ctx, serviceID); err != nil {
		return "", err
	}
	if err := e.gw.SendText(ctx, up.ChatID, msgServiceDeleted); err != nil {
		return "", err
	}
	return e.myServices(ctx, up)
}
