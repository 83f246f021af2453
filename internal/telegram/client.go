package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GariBroman/osminog/internal/bot"
	"github.com/GariBroman/osminog/internal/service"
)

// Client — минимальный клиент Bot API, реализует bot.Gateway.
type Client struct {
	baseURL      string
	token        string
	paymentToken string
	httpClient   *http.Client
}

func NewClient(baseURL, token, paymentToken string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		paymentToken: paymentToken,
		httpClient: &http.Client{
			Timeout: 65 * time.Second, // дольше интервала long poll
		},
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

type replyButton struct {
	Text           string `json:"text"`
	RequestContact bool   `json:"request_contact,omitempty"`
}

// markup собирает клавиатуру для платформы. Кнопки запроса контакта
// платформа принимает только в reply-разметке, остальные — inline.
func markup(kb bot.Keyboard) any {
	if len(kb) == 0 {
		return nil
	}
	for _, r := range kb {
		for _, b := range r {
			if b.RequestContact {
				rows := make([][]replyButton, 0, len(kb))
				for _, rr := range kb {
					row := make([]replyButton, 0, len(rr))
					for _, bb := range rr {
						row = append(row, replyButton{Text: bb.Text, RequestContact: bb.RequestContact})
					}
					rows = append(rows, row)
				}
				return map[string]any{
					"keyboard":          rows,
					"resize_keyboard":   true,
					"one_time_keyboard": true,
				}
			}
		}
	}

	rows := make([][]inlineButton, 0, len(kb))
	for _, r := range kb {
		row := make([]inlineButton, 0, len(r))
		for _, b := range r {
			row = append(row, inlineButton{Text: b.Text, CallbackData: b.Callback})
		}
		rows = append(rows, row)
	}
	return map[string]any{"inline_keyboard": rows}
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, msg bot.Message) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    msg.Text,
	}
	if m := markup(msg.Keyboard); m != nil {
		payload["reply_markup"] = m
	}
	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, chatID, bot.Message{Text: text})
}

func (c *Client) SendContact(ctx context.Context, chatID int64, name, phone string) error {
	_, err := c.call(ctx, "sendContact", map[string]any{
		"chat_id":      chatID,
		"phone_number": phone,
		"first_name":   name,
	})
	return err
}

// SendInvoice выставляет счет. Токен покупки уходит в payload счета и
// вернётся в уведомлении об оплате.
func (c *Client) SendInvoice(ctx context.Context, chatID int64, inv service.Invoice) error {
	_, err := c.call(ctx, "sendInvoice", map[string]any{
		"chat_id":        chatID,
		"title":          inv.Title,
		"description":    inv.Description,
		"payload":        inv.Token,
		"provider_token": c.paymentToken,
		"currency":       "RUB",
		"prices": []map[string]any{
			{"label": inv.Title, "amount": inv.AmountKopecks},
		},
	})
	return err
}

// ClearAffordances убирает inline-клавиатуру у отработавшего сообщения.
func (c *Client) ClearAffordances(ctx context.Context, chatID, messageID int64) error {
	_, err := c.call(ctx, "editMessageReplyMarkup", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// apiResponse — конверт ответа Bot API.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("telegram: токен бота не задан")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("telegram: %s: разбор ответа: %w", method, err)
	}
	if !api.OK {
		return nil, fmt.Errorf("telegram: %s: %s", method, api.Description)
	}
	return api.Result, nil
}
