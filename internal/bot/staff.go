package bot

import (
	"context"
	"fmt"
	"strings"
)

func (e *Engine) helloManager(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgManagerMain,
		Keyboard: managerMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateManager, nil
}

func (e *Engine) helloOwner(ctx context.Context, up Update) (State, error) {
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     msgOwnerMain,
		Keyboard: managerMainKeyboard(),
	}); err != nil {
		return "", err
	}
	return StateOwner, nil
}

func (e *Engine) openComplaints(ctx context.Context, up Update) (State, error) {
	complaints, err := e.orders.ListOpenComplaints(ctx)
	if err != nil {
		return "", err
	}
	if len(complaints) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoOpenComplaints,
			Keyboard: managerMainKeyboard(),
		}); err != nil {
			return "", err
		}
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Открытые претензии:")
	for num, c := range complaints {
		fmt.Fprintf(&b, "\n\nПретензия %d.\n%s", num+1, c.Complaint)
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     b.String(),
		Keyboard: complaintsKeyboard(complaints),
	}); err != nil {
		return "", err
	}
	return "", nil
}

func (e *Engine) closeComplaint(ctx context.Context, up Update) (State, error) {
	person, err := e.persons.GetByTelegramID(ctx, up.ChatID)
	if err != nil {
		return "", err
	}
	complaintID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if _, err := e.orders.CloseComplaint(ctx, complaintID, person.ID); err != nil {
		return "", err
	}
	if err := e.gw.SendText(ctx, up.ChatID, "Претензия закрыта"); err != nil {
		return "", err
	}
	return "", nil
}

func (e *Engine) declineOrder(ctx context.Context, up Update) (State, error) {
	orderID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if _, err := e.orders.DeclineOrder(ctx, orderID); err != nil {
		return "", err
	}
	if err := e.gw.SendText(ctx, up.ChatID, "Заказ отклонен"); err != nil {
		return "", err
	}
	return "", nil
}

func (e *Engine) contractorApplications(ctx context.Context, up Update) (State, error) {
	apps, err := e.persons.ListContractorApplications(ctx)
	if err != nil {
		return "", err
	}
	if len(apps) == 0 {
		if err := e.gw.SendMessage(ctx, up.ChatID, Message{
			Text:     msgNoApplications,
			Keyboard: managerMainKeyboard(),
		}); err != nil {
			return "", err
		}
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Заявки подрядчиков:")
	for num, a := range apps {
		fmt.Fprintf(&b, "\n\nЗаявка %d.\n%s", num+1, a.Comment)
	}
	if err := e.gw.SendMessage(ctx, up.ChatID, Message{
		Text:     b.String(),
		Keyboard: applicationsKeyboard(apps),
	}); err != nil {
		return "", err
	}
	return "", nil
}

// approveContractor активирует подрядчика и сообщает ему об этом.
func (e *Engine) approveContractor(ctx context.Context, up Update) (State, error) {
	contractorID, err := cbArgUUID(up.Callback)
	if err != nil {
		return "", err
	}
	if err := e.persons.ApproveContractor(ctx, contractorID); err != nil {
		return "", err
	}

	if person, err := e.persons.GetPersonByContractorID(ctx, contractorID); err == nil {
		e.notify.NotifyUser(ctx, person.TelegramID,
			"Ваша заявка одобрена! Нажмите /start, чтобы начать работу.")
	} else {
		e.log.WithError(err).Warn("подрядчик одобрен, но уведомление не отправлено")
	}

	if err := e.gw.SendText(ctx, up.ChatID, "Заявка одобрена"); err != nil {
		return "", err
	}
	return "", nil
}
