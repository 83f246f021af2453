package bot

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/GariBroman/osminog/internal/goroutine"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
)

func (e *Engine) helloClient(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgClientMain,
		Keyboard: clientMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateClient, nil
}

func (e *Engine) askRequest(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgDescribeRequest,
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateClientNewRequest, nil
}

// createRequest создаёт заявку из текста клиента. Слишком длинный текст
// возвращает подсказку и оставляет клиента на этом же шаге, исчерпанная
// квота уводит в оформление подписки.
func (e *Engine) createRequest(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}

	order, err := e.orders.CreateOrder(ctx, client.ID, up.Text)
	switch {
	case apperror.IsValidation(err):
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgTooLong,
			Keyboard: cancelKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateClientNewRequest, nil
	case errors.Is(err, apperror.ErrNoSubscription):
		return e.subscriptionPitch(ctx, up)
	case errors.Is(err, apperror.ErrNoRequestsLeft):
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoAvailableRequests,
			Keyboard: subscribeKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateSubscription, nil
	case err != nil:
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyNewOrder(*order))
	if err := e.gw.SendText(ctx, up.ChatID, msgSuccessRequest); err != nil {
		return "", err
	}
	// Главное меню показывается с паузой, чтобы подтверждение успело
	// прочитаться.
	e.returnToClientMain(ctx, up.ChatID)
	return StateClient, nil
}

// returnToClientMain показывает главное меню заказчика после паузы.
func (e *Engine) returnToClientMain(ctx context.Context, chatID int64) {
	goroutine.AfterFunc(e.menuDelay, func() {
		if err := e.gw.SendMessage(ctx, chatID, Message{
			Text:     msgClientMain,
			Keyboard: clientMainKeyboard(),
		}); err != nil {
			e.log.WithError(err).Warn("не удалось показать главное меню")
		}
	})
}

func (e *Engine) clientOrders(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	orders, err := e.orders.ListClientOrders(ctx, client.ID)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoActiveOrders,
			Keyboard: clientMainKeyboard(),
		}); err != nil {
			return "", err
		}
		return StateClient, nil
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOrders("Ваши текущие заказы:", orders),
		Keyboard: clientOrdersKeyboard(orders),
	}); err != nil {
		return "", err
	}
	return StateClient, nil
}

func (e *Engine) showOrder(ctx context.Context, up Update) (State, error) {
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	contactsVisible := false
	if client, err := e.persons.GetClient(ctx, up.ChatID); err == nil {
		contactsVisible, err = e.subs.ContractorContactsVisible(ctx, client.ID)
		if err != nil {
			return "", err
		}
	}

	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOrderLine(*order),
		Keyboard: clientOrderKeyboard(*order, contactsVisible),
	}); err != nil {
		return "", err
	}
	return StateClient, nil
}

func (e *Engine) askComment(ctx context.Context, up Update) (State, error) {
	return e.askOrderText(ctx, up, msgNewClientComment, StateClientNewComment)
}

func (e *Engine) askComplaint(ctx context.Context, up Update) (State, error) {
	return e.askOrderText(ctx, up, msgNewComplaint, StateClientNewComplaint)
}

// askOrderText запоминает заказ и спрашивает текст следующим сообщением.
func (e *Engine) askOrderText(ctx context.Context, up Update, prompt string, next State) (State, error) {
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if err := e.sessions.SetFlowValue(ctx, up.ChatID, flowOrder, orderID.String()); err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     prompt,
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return "", err
	}
	return next, nil
}

func (e *Engine) createComment(ctx context.Context, up Update) (State, error) {
	orderID, err := e.flowOrderID(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if _, err := e.orders.AddComment(ctx, orderID, models.RoleClient, up.Text); err != nil {
		if apperror.IsValidation(err) {
			if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgTooLong,
				Keyboard: cancelKeyboard(),
			}); sendErr != nil {
				return "", sendErr
			}
			return StateClientNewComment, nil
		}
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyNewComment(*order, up.Text))
	if err := e.gw.SendText(ctx, up.ChatID, msgSuccessComment); err != nil {
		return "", err
	}
	return e.helloClient(ctx, up)
}

func (e *Engine) createComplaint(ctx context.Context, up Update) (State, error) {
	orderID, err := e.flowOrderID(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	if _, err := e.orders.FileComplaint(ctx, orderID, up.Text); err != nil {
		if apperror.IsValidation(err) {
			if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgTooLong,
				Keyboard: cancelKeyboard(),
			}); sendErr != nil {
				return "", sendErr
			}
			return StateClientNewComplaint, nil
		}
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyNewComplaint(*order, up.Text))
	if err := e.gw.SendText(ctx, up.ChatID, msgSuccessComplaint); err != nil {
		return "", err
	}
	return e.helloClient(ctx, up)
}

// sendContractorContacts отправляет контакт исполнителя, если тариф
// клиента это разрешает. Кнопка показывается только на таких тарифах,
// но право проверяется ещё раз здесь.
func (e *Engine) sendContractorContacts(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	visible, err := e.subs.ContractorContactsVisible(ctx, client.ID)
	if err != nil {
		return "", err
	}
	if !visible {
		return e.subscriptionPitch(ctx, up)
	}

	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	person, err := e.orders.ContractorContact(ctx, orderID)
	if errors.Is(err, apperror.ErrContractorNotSet) {
		if sendErr := e.gw.SendText(ctx, up.ChatID, msgContractorNotFound); sendErr != nil {
			return "", sendErr
		}
		return StateClient, nil
	}
	if err != nil {
		return "", err
	}

	if err := e.gw.SendContact(ctx, up.ChatID, person.Name, person.Phone); err != nil {
		return "", err
	}
	return StateClient, nil
}

func (e *Engine) currentTariff(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetClient(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	sub, err := e.subs.Current(ctx, client.ID)
	if err != nil {
		return "", err
	}
	if sub == nil || !e.subs.IsCurrent(sub) {
		return e.subscriptionPitch(ctx, up)
	}
	info, err := e.subs.Info(ctx, sub)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     info,
		Keyboard: clientMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateClient, nil
}

func (e *Engine) cancelToClient(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendText(ctx, up.ChatID, msgOK); err != nil {
		return "", err
	}
	return e.helloClient(ctx, up)
}

func (e *Engine) flowOrderID(ctx context.Context, chatID int64) (uuid.UUID, error) {
	raw, err := e.sessions.FlowValue(ctx, chatID, flowOrder)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}
