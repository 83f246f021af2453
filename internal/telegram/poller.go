package telegram

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GariBroman/osminog/internal/bot"
	"github.com/GariBroman/osminog/internal/goroutine"
	"github.com/GariBroman/osminog/internal/logger"
	"github.com/GariBroman/osminog/internal/service"
)

// update — событие getUpdates в том объёме, который нужен диалогу.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text    string `json:"text"`
		Contact *struct {
			PhoneNumber string `json:"phone_number"`
			FirstName   string `json:"first_name"`
		} `json:"contact"`
		SuccessfulPayment *struct {
			InvoicePayload string `json:"invoice_payload"`
		} `json:"successful_payment"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
		} `json:"from"`
		Message *struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
		Data string `json:"data"`
	} `json:"callback_query"`
	PreCheckoutQuery *struct {
		ID string `json:"id"`
	} `json:"pre_checkout_query"`
}

// Poller забирает события long poll'ом и раздаёт их движку диалога.
type Poller struct {
	client   *Client
	engine   *bot.Engine
	payments *service.PaymentService
	log      *logrus.Entry
}

func NewPoller(client *Client, engine *bot.Engine, payments *service.PaymentService) *Poller {
	return &Poller{
		client:   client,
		engine:   engine,
		payments: payments,
		log:      logger.WithComponent("telegram"),
	}
}

// Run крутит цикл getUpdates до отмены контекста. Ошибки сети не
// останавливают цикл: после паузы запрашиваем события снова.
func (p *Poller) Run(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.WithError(err).Warn("не удалось получить события")
			time.Sleep(3 * time.Second)
			continue
		}

		for _, up := range updates {
			if up.UpdateID >= offset {
				offset = up.UpdateID + 1
			}
			up := up
			goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
				p.handle(ctx, up)
			})
		}
	}
}

func (p *Poller) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	raw, err := p.client.call(ctx, "getUpdates", map[string]any{
		"offset":  offset,
		"timeout": 50,
		"allowed_updates": []string{
			"message", "callback_query", "pre_checkout_query",
		},
	})
	if err != nil {
		return nil, err
	}
	var updates []update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// handle превращает событие платформы в bot.Update. Платёжные события
// обрабатываются здесь же, минуя машину состояний.
func (p *Poller) handle(ctx context.Context, up update) {
	switch {
	case up.PreCheckoutQuery != nil:
		// Провайдер ждёт подтверждения не дольше 10 секунд.
		if _, err := p.client.call(ctx, "answerPreCheckoutQuery", map[string]any{
			"pre_checkout_query_id": up.PreCheckoutQuery.ID,
			"ok":                    true,
		}); err != nil {
			p.log.WithError(err).Error("не удалось подтвердить pre checkout")
		}
		return

	case up.Message != nil && up.Message.SuccessfulPayment != nil:
		token := up.Message.SuccessfulPayment.InvoicePayload
		if _, err := p.payments.ConfirmPurchase(ctx, token); err != nil {
			p.log.WithError(err).Error("не удалось зачесть оплату")
			p.engine.NotifyPaymentFailure(ctx, up.Message.Chat.ID)
		}
		return

	case up.Message != nil:
		botUp := bot.Update{
			ChatID: up.Message.Chat.ID,
			Name:   up.Message.From.FirstName,
			Text:   up.Message.Text,
		}
		if cmd, ok := strings.CutPrefix(up.Message.Text, "/"); ok {
			botUp.Command, _, _ = strings.Cut(cmd, " ")
			botUp.Text = ""
		}
		if up.Message.Contact != nil {
			botUp.Contact = &bot.Contact{
				Phone:     up.Message.Contact.PhoneNumber,
				FirstName: up.Message.Contact.FirstName,
			}
		}
		if err := p.engine.HandleUpdate(ctx, botUp); err != nil {
			p.log.WithError(err).WithField("chat_id", botUp.ChatID).Error("ошибка обработки сообщения")
		}

	case up.CallbackQuery != nil:
		botUp := bot.Update{
			ChatID:   up.CallbackQuery.From.ID,
			Name:     up.CallbackQuery.From.FirstName,
			Callback: up.CallbackQuery.Data,
		}
		if up.CallbackQuery.Message != nil {
			botUp.ChatID = up.CallbackQuery.Message.Chat.ID
			botUp.CallbackMessageID = up.CallbackQuery.Message.MessageID
		}
		// Снимаем «часики» с кнопки до обработки.
		if _, err := p.client.call(ctx, "answerCallbackQuery", map[string]any{
			"callback_query_id": up.CallbackQuery.ID,
		}); err != nil {
			p.log.WithError(err).Debug("не удалось подтвердить нажатие")
		}
		if err := p.engine.HandleUpdate(ctx, botUp); err != nil {
			p.log.WithError(err).WithField("chat_id", botUp.ChatID).Error("ошибка обработки нажатия")
		}
	}
}
