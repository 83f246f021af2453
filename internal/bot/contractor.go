package bot

import (
	"context"
	"errors"

	"github.com/GariBroman/osminog/internal/pkg/apperror"
)

func (e *Engine) helloContractor(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgContractorMain,
		Keyboard: contractorMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) availableOrders(ctx context.Context, up Update) (State, error) {
	orders, err := e.orders.ListAvailableOrders(ctx)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoAvailableOrders,
			Keyboard: contractorMainKeyboard(),
		}); err != nil {
			return "", err
		}
		return StateContractor, nil
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOrders("Доступные вам заказы:", orders),
		Keyboard: availableOrdersKeyboard(orders),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

// takeOrder назначает подрядчика на заказ. Опоздавшему при гонке за
// один заказ отвечаем без смены состояния.
func (e *Engine) takeOrder(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}

	order, err := e.orders.AssignContractor(ctx, orderID, contractor.ID)
	if errors.Is(err, apperror.ErrOrderTaken) {
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgOrderTaken,
			Keyboard: contractorMainKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateContractor, nil
	}
	if err != nil {
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyOrderTaken(*order))
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgApproveOrderContractor,
		Keyboard: contractorMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) contractorOrders(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	orders, err := e.orders.ListContractorOrders(ctx, contractor.ID)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoActiveOrders,
			Keyboard: contractorMainKeyboard(),
		}); err != nil {
			return "", err
		}
		return StateContractor, nil
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOrders("Ваши текущие заказы:", orders),
		Keyboard: contractorOrdersKeyboard(orders),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) askEstimate(ctx context.Context, up Update) (State, error) {
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if err := e.sessions.SetFlowValue(ctx, up.ChatID, flowOrder, orderID.String()); err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgSetEstimate,
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateSetEstimate, nil
}

// setEstimate принимает срок выполнения. Нераспознанная дата оставляет
// подрядчика на этом же шаге с повторной подсказкой формата.
func (e *Engine) setEstimate(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	orderID, err := e.flowOrderID(ctx, up.ChatID)
	if err != nil {
		return "", err
	}

	order, err := e.orders.SetEstimate(ctx, orderID, contractor.ID, up.Text)
	if apperror.IsValidation(err) {
		if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgSetEstimate,
			Keyboard: cancelKeyboard(),
		}); sendErr != nil {
			return "", sendErr
		}
		return StateSetEstimate, nil
	}
	if err != nil {
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyEstimateSet(*order))
	return e.helloContractor(ctx, up)
}

func (e *Engine) finishOrder(ctx context.Context, up Update) (State, error) {
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	order, err := e.orders.CloseOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	e.notify.NotifyManagersAsync(ctx, notifyOrderFinished(*order))
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOrderClosed,
		Keyboard: contractorMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) salary(ctx context.Context, up Update) (State, error) {
	contractor, err := e.persons.GetContractor(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	count, total, err := e.orders.SalaryReport(ctx, contractor.ID, nil, nil)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgSalary(count, total),
		Keyboard: contractorMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateContractor, nil
}

func (e *Engine) cancelToContractor(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendText(ctx, up.ChatID, msgOK); err != nil {
		return "", err
	}
	return e.helloContractor(ctx, up)
}
