package bot

import (
	"context"
	"errors"

	"github.com/GariBroman/osminog/internal/pkg/apperror"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/validation"
)

// start определяет, с чего начать диалог: незарегистрированный
// пользователь проходит через ввод телефона, остальных встречаем по роли.
func (e *Engine) start(ctx context.Context, up Update) (State, error) {
	person, err := e.persons.GetByTelegramID(ctx, up.ChatID)
	if errors.Is(err, repository.ErrPersonNotFound) || (err == nil && person.Phone == "") {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgHelloVisitor,
			Keyboard: phoneKeyboard(),
		}); err != nil {
			return "", err
		}
		return StateVisitorPhone, nil
	}
	if err != nil {
		return "", err
	}
	return e.greetByRole(ctx, up)
}

// greetByRole выбирает главное меню по роли. Пользователь с несколькими
// ролями попадает в старшую из них.
func (e *Engine) greetByRole(ctx context.Context, up Update) (State, error) {
	role, err := e.persons.ResolveRole(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	switch role {
	case models.RoleOwner:
		return e.helloOwner(ctx, up)
	case models.RoleManager:
		return e.helloManager(ctx, up)
	case models.RoleContractor:
		return e.helloContractor(ctx, up)
	case models.RoleClient:
		return e.helloClient(ctx, up)
	default:
		return e.helloVisitorAgain(ctx, up)
	}
}

func (e *Engine) helloVisitorAgain(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgCheckRole,
		Keyboard: roleKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateVisitor, nil
}

// registerPhone принимает телефон текстом или контактом платформы.
// Невалидный номер возвращает подсказку и оставляет пользователя на
// этом же шаге.
func (e *Engine) registerPhone(ctx context.Context, up Update) (State, error) {
	raw := up.Text
	name := up.Name
	if up.Contact != nil {
		raw = up.Contact.Phone
		if up.Contact.FirstName != "" {
			name = up.Contact.FirstName
		}
	}

	phone := validation.NormalizePhone(raw)
	if err := validation.ValidatePhone(phone); err != nil {
		if apperror.IsValidation(err) {
			if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgInvalidPhone(raw),
				Keyboard: phoneKeyboard(),
			}); sendErr != nil {
				return "", sendErr
			}
			return StateVisitorPhone, nil
		}
		return "", err
	}

	if _, err := e.persons.Upsert(ctx, up.ChatID, name, phone); err != nil {
		return "", err
	}
	if err := e.gw.SendText(ctx, up.ChatID, msgRegistrationComplete); err != nil {
		return "", err
	}
	return e.greetByRole(ctx, up)
}

// checkAccess обрабатывает кнопки «Я заказчик» и «Я подрядчик».
func (e *Engine) checkAccess(ctx context.Context, up Update) (State, error) {
	switch cbArg(up.Callback) {
	case "client":
		_, err := e.persons.GetClient(ctx, up.ChatID)
		if errors.Is(err, repository.ErrClientNotFound) {
			return e.newClient(ctx, up)
		}
		if err != nil {
			return "", err
		}
		return e.helloClient(ctx, up)
	case "contractor":
		contractor, err := e.persons.GetContractor(ctx, up.ChatID)
		if errors.Is(err, repository.ErrContractorNotFound) {
			return e.askContractorApplication(ctx, up)
		}
		if err != nil {
			return "", err
		}
		if !contractor.Active {
			if err := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgNotContractor,
				Keyboard: roleKeyboard(),
			}); err != nil {
				return "", err
			}
			return StateVisitor, nil
		}
		return e.helloContractor(ctx, up)
	default:
		return e.helloVisitorAgain(ctx, up)
	}
}

// newClient регистрирует заказчика. Без действующей подписки диалог
// сразу уходит в оформление.
func (e *Engine) newClient(ctx context.Context, up Update) (State, error) {
	client, err := e.persons.GetOrCreateClient(ctx, up.ChatID)
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
	return e.helloClient(ctx, up)
}

func (e *Engine) askContractorApplication(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgNewContractor,
		Keyboard: cancelKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateNewContractor, nil
}

// createContractorApplication принимает текст специализации и передаёт
// заявку менеджерам.
func (e *Engine) createContractorApplication(ctx context.Context, up Update) (State, error) {
	if err := validation.ValidateText("заявка", up.Text, validation.MaxCommentLength); err != nil {
		if apperror.IsValidation(err) {
			if sendErr := e.gw.SendMessage(ctx, up.ChatID, Message{
				Text:     msgTooLong,
				Keyboard: cancelKeyboard(),
			}); sendErr != nil {
				return "", sendErr
			}
			return StateNewContractor, nil
		}
		return "", err
	}

	if _, err := e.persons.CreateContractorApplication(ctx, up.ChatID, up.Text); err != nil {
		return "", err
	}
	e.notify.NotifyManagersAsync(ctx, notifyNewContractor(up.Name, up.Text))

	if err := e.gw.SendText(ctx, up.ChatID, msgNewContractorCreated); err != nil {
		return "", err
	}
	return e.greetByRole(ctx, up)
}

func (e *Engine) cancelToVisitor(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendText(ctx, up.ChatID, msgOK); err != nil {
		return "", err
	}
	// Заказчик, передумавший становиться подрядчиком, возвращается в своё
	// меню, остальные — к выбору роли.
	return e.greetByRole(ctx, up)
}
