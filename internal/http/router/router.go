package router

import (
	"github.com/gin-gonic/gin"

	"github.com/GariBroman/osminog/internal/config"
	"github.com/GariBroman/osminog/internal/http/handlers"
	"github.com/GariBroman/osminog/internal/http/middleware"
)

// SetupRouter собирает HTTP-поверхность: вебхук платёжного провайдера
// и health check.
func SetupRouter(
	cfg *config.Config,
	paymentHandler *handlers.PaymentHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())

	r.GET("/health", healthHandler.Health)

	payment := r.Group("/payment")
	payment.Use(middleware.RateLimit(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		payment.POST("/webhook", paymentHandler.Webhook)
	}

	return r
}
