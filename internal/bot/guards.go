package bot

import (
	"context"
	"errors"

	"github.com/GariBroman/osminog/internal/repository"
)

// Охранные обёртки. Переход разрешается только если заказчик
// соответствует условию, иначе диалог сворачивает на оформление подписки.

// requireSubscription пропускает дальше только заказчика с действующей
// подпиской.
func (e *Engine) requireSubscription(h handlerFunc) handlerFunc {
	return func(ctx context.Context, up Update) (State, error) {
		client, err := e.persons.GetClient(ctx, up.ChatID)
		if errors.Is(err, repository.ErrClientNotFound) {
			return e.subscriptionPitch(ctx, up)
		}
		if err != nil {
			return "", err
		}
		usable, err := e.subs.HasUsable(ctx, client.ID)
		if err != nil {
			return "", err
		}
		if !usable {
			return e.subscriptionPitch(ctx, up)
		}
		return h(ctx, up)
	}
}

// requireQuota дополнительно требует неисчерпанной квоты заявок.
func (e *Engine) requireQuota(h handlerFunc) handlerFunc {
	return func(ctx context.Context, up Update) (State, error) {
		client, err := e.persons.GetClient(ctx, up.ChatID)
		if errors.Is(err, repository.ErrClientNotFound) {
			return e.subscriptionPitch(ctx, up)
		}
		if err != nil {
			return "", err
		}
		allowed, err := e.subs.RequestAllowed(ctx, client.ID)
		if err != nil {
			return "", err
		}
		if !allowed {
			if err := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgNoAvailableRequests,
				Keyboard: subscribeKeyboard(),
			}); err != nil {
				return "", err
			}
			return StateSubscription, nil
		}
		return h(ctx, up)
	}
}

// subscriptionPitch показывает предупреждение и предложение оформить
// подписку.
func (e *Engine) subscriptionPitch(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgSubscriptionAlert,
		Keyboard: subscribeKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateSubscription, nil
}
