package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GariBroman/osminog/internal/bot"
	"github.com/GariBroman/osminog/internal/service"
)

// newTestClient поднимает поддельный Bot API и возвращает клиент,
// направленный на него, вместе с каналом перехваченных запросов.
func newTestClient(t *testing.T, status int, response string) (*Client, *[]map[string]any) {
	t.Helper()
	var calls []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payload["_path"] = r.URL.Path
		calls = append(calls, payload)
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", "provider-token"), &calls
}

func TestClientSendMessageInlineKeyboard(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK, `{"ok": true, "result": {}}`)

	err := client.SendMessage(context.Background(), 42, bot.Message{
		Text: "привет",
		Keyboard: bot.Keyboard{
			{{Text: "Кнопка", Callback: "verb:::arg"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/bottest-token/sendMessage", call["_path"])
	assert.Equal(t, "привет", call["text"])

	markup := call["reply_markup"].(map[string]any)
	assert.Contains(t, markup, "inline_keyboard")
}

func TestClientSendMessageContactKeyboard(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK, `{"ok": true, "result": {}}`)

	// Кнопка запроса контакта переключает разметку на reply-клавиатуру.
	err := client.SendMessage(context.Background(), 42, bot.Message{
		Text: "поделитесь номером",
		Keyboard: bot.Keyboard{
			{{Text: "Поделиться номером", RequestContact: true}},
		},
	})
	require.NoError(t, err)

	markup := (*calls)[0]["reply_markup"].(map[string]any)
	assert.Contains(t, markup, "keyboard")
	assert.NotContains(t, markup, "inline_keyboard")
	assert.Equal(t, true, markup["one_time_keyboard"])
}

func TestClientSendInvoice(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK, `{"ok": true, "result": {}}`)

	err := client.SendInvoice(context.Background(), 42, service.Invoice{
		Token:         "purchase-token",
		Title:         "Стандарт",
		Description:   "Подписка",
		AmountKopecks: 500000,
	})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, "/bottest-token/sendInvoice", call["_path"])
	assert.Equal(t, "purchase-token", call["payload"], "токен покупки возвращается в уведомлении об оплате")
	assert.Equal(t, "provider-token", call["provider_token"])

	prices := call["prices"].([]any)
	require.Len(t, prices, 1)
	assert.Equal(t, float64(500000), prices[0].(map[string]any)["amount"])
}

func TestClientAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadRequest,
		`{"ok": false, "description": "Bad Request: chat not found"}`)

	err := client.SendText(context.Background(), 42, "привет")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClientRequiresToken(t *testing.T) {
	client := NewClient("", "", "")
	err := client.SendText(context.Background(), 42, "привет")
	assert.Error(t, err)
}
