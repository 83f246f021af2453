package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GariBroman/osminog/internal/cache"
	"github.com/GariBroman/osminog/internal/http/middleware"
	"github.com/GariBroman/osminog/internal/models"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/service"
)

type stubTariffs struct{ tariff *models.Tariff }

func (s stubTariffs) List(context.Context) ([]models.Tariff, error) {
	return []models.Tariff{*s.tariff}, nil
}

func (s stubTariffs) GetByID(_ context.Context, id uuid.UUID) (*models.Tariff, error) {
	if s.tariff == nil || s.tariff.ID != id {
		return nil, repository.ErrTariffNotFound
	}
	return s.tariff, nil
}

type stubSubscriptions struct{ created int }

func (s *stubSubscriptions) Create(_ context.Context, clientID, tariffID uuid.UUID, paymentID string) (*models.Subscription, error) {
	s.created++
	return &models.Subscription{
		ID:        uuid.New(),
		ClientID:  clientID,
		TariffID:  tariffID,
		PaymentID: paymentID,
		StartedAt: time.Now(),
	}, nil
}

type stubClients struct{ client models.Client }

func (s stubClients) GetClient(context.Context, int64) (*models.Client, error) {
	return &s.client, nil
}

func (s stubClients) GetOrCreateClient(context.Context, int64) (*models.Client, error) {
	return &s.client, nil
}

type stubNotifier struct{}

func (stubNotifier) NotifyManagers(context.Context, string) error { return nil }
func (stubNotifier) NotifyUser(context.Context, int64, string)    {}

type webhookFixture struct {
	router   *gin.Engine
	payments *service.PaymentService
	subs     *stubSubscriptions
	tariffID uuid.UUID
}

func newWebhookFixture() *webhookFixture {
	gin.SetMode(gin.TestMode)

	tariff := &models.Tariff{ID: uuid.New(), Title: "Стандарт", OrdersLimit: 5, Price: 5000, ValidityDays: 30}
	subs := &stubSubscriptions{}
	payments := service.NewPaymentService(
		cache.NewMemoryStore(),
		stubTariffs{tariff: tariff},
		subs,
		stubClients{client: models.Client{ID: uuid.New()}},
		stubNotifier{},
		time.Hour,
	)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/payment/webhook", NewPaymentHandler(payments).Webhook)

	return &webhookFixture{router: r, payments: payments, subs: subs, tariffID: tariff.ID}
}

func (f *webhookFixture) post(body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/payment/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func webhookBody(token string) string {
	return fmt.Sprintf(`{
		"event": "payment.succeeded",
		"object": {"id": "pay-1", "status": "succeeded", "metadata": {"token": %q}}
	}`, token)
}

func TestPaymentHandler_Webhook_BadJSON(t *testing.T) {
	f := newWebhookFixture()
	w := f.post(`{"event":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Webhook_IgnoresOtherEvents(t *testing.T) {
	f := newWebhookFixture()
	w := f.post(`{"event": "payment.canceled", "object": {"id": "pay-1", "status": "canceled"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
	assert.Zero(t, f.subs.created)
}

func TestPaymentHandler_Webhook_ConfirmsPurchase(t *testing.T) {
	f := newWebhookFixture()

	invoice, err := f.payments.BeginPurchase(context.Background(), 500100, f.tariffID)
	require.NoError(t, err)

	w := f.post(webhookBody(invoice.Token))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.Equal(t, 1, f.subs.created)

	// Повторная доставка того же уведомления не создаёт дубль подписки.
	w = f.post(webhookBody(invoice.Token))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1, f.subs.created)
}

func TestPaymentHandler_Webhook_UnknownToken(t *testing.T) {
	f := newWebhookFixture()
	w := f.post(webhookBody(uuid.NewString()))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, f.subs.created)
}
