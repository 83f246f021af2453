package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GariBroman/osminog/internal/bot"
	"github.com/GariBroman/osminog/internal/cache"
	"github.com/GariBroman/osminog/internal/service"
)

func TestPollerStalePaymentApology(t *testing.T) {
	client, calls := newTestClient(t, http.StatusOK, `{"ok": true, "result": {}}`)

	sessions := bot.NewSessions(cache.NewMemoryStore(), 0)
	engine := bot.NewEngine(sessions, client, nil, nil, nil, nil, nil, nil, 0)
	// Токена нет в хранилище: счет уже сгорел или выставлен другим процессом.
	payments := service.NewPaymentService(cache.NewMemoryStore(), nil, nil, nil, nil, time.Hour)
	poller := NewPoller(client, engine, payments)

	var up update
	require.NoError(t, json.Unmarshal([]byte(`{
		"update_id": 1,
		"message": {
			"message_id": 7,
			"from": {"id": 42, "first_name": "Аня"},
			"chat": {"id": 42},
			"successful_payment": {"invoice_payload": "потерянный-токен"}
		}
	}`), &up))

	poller.handle(context.Background(), up)

	require.Len(t, *calls, 1)
	sent := (*calls)[0]
	assert.Equal(t, "/bottest-token/sendMessage", sent["_path"])
	assert.Equal(t, float64(42), sent["chat_id"])
	assert.Contains(t, sent["text"], "Счет устарел")

	state, err := sessions.State(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, bot.StateSubscription, state)
}
