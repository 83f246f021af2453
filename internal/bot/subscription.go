package bot

import (
	"context"
)

// tellAboutTariffs показывает список тарифов с кнопками оплаты.
func (e *Engine) tellAboutTariffs(ctx context.Context, up Update) (State, error) {
	tariffs, err := e.payments.ListTariffs(ctx)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgTariffs(tariffs),
		Keyboard: tariffsKeyboard(tariffs),
	}); err != nil {
		return "", err
	}
	return StateSubscription, nil
}

// activateTariff выставляет счет на выбранный тариф. Подписка появится
// после подтверждения оплаты платёжным провайдером.
func (e *Engine) activateTariff(ctx context.Context, up Update) (State, error) {
	tariffID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	invoice, err := e.payments.BeginPurchase(ctx, up.ChatID, tariffID)
	if err != nil {
		return "", err
	}
	if err := e.gw.SendInvoice(ctx, up.ChatID, *invoice); err != nil {
		return "", err
	}
	return StateSubscription, nil
}

// NotifyPaymentFailure сообщает плательщику, что оплату зачесть не удалось,
// и предлагает оформить подписку заново. Состояние диалога переводится в
// выбор тарифа, чтобы кнопка повтора сработала.
func (e *Engine) NotifyPaymentFailure(ctx context.Context, chatID int64) {
	if err := e.gw.SendMessage(ctx, chatID, Message{
		Text:     msgPaymentExpired,
		Keyboard: subscribeKeyboard(),
	}); err != nil {
		e.log.WithError(err).Error("не удалось сообщить о сгоревшем счете")
		return
	}
	if err := e.sessions.SetState(ctx, chatID, StateSubscription); err != nil {
		e.log.WithError(err).Error("не удалось перевести диалог к подписке")
	}
}

func (e *Engine) cancelSubscription(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendText(ctx, up.ChatID, msgOK); err != nil {
		return "", err
	}
	return e.greetByRole(ctx, up)
}
