package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GariBroman/osminog/internal/bot"
	"github.com/GariBroman/osminog/internal/cache"
	"github.com/GariBroman/osminog/internal/config"
	"github.com/GariBroman/osminog/internal/db"
	httpHandlers "github.com/GariBroman/osminog/internal/http/handlers"
	httpRouter "github.com/GariBroman/osminog/internal/http/router"
	"github.com/GariBroman/osminog/internal/logger"
	"github.com/GariBroman/osminog/internal/repository"
	"github.com/GariBroman/osminog/internal/service"
	"github.com/GariBroman/osminog/internal/telegram"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Кэш сессий и платёжных токенов. Без Redis работаем на памяти —
	// годится для разработки, сессии не переживают рестарт.
	var store cache.Store
	redisStore, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		if cfg.Env == "production" {
			log.Fatalf("main: ошибка подключения к redis: %v", err)
		}
		log.Printf("main: redis недоступен, используем кэш в памяти: %v", err)
		store = cache.NewMemoryStore()
	} else {
		defer redisStore.Close()
		store = redisStore
	}

	// Репозитории.
	personRepo := repository.NewPersonRepository(dbConn)
	tariffRepo := repository.NewTariffRepository(dbConn)
	subscriptionRepo := repository.NewSubscriptionRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)

	// Транспорт чат-платформы.
	tgClient := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, cfg.PaymentToken)

	// Сервисы.
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)
	orderService := service.NewOrderService(orderRepo, subscriptionService, personRepo)
	notifyService := service.NewNotifyService(personRepo, tgClient)
	paymentService := service.NewPaymentService(store, tariffRepo, subscriptionRepo, personRepo, notifyService, cfg.PaymentTTL)
	catalogService := service.NewCatalogService(catalogRepo)

	// Движок диалога.
	sessions := bot.NewSessions(store, 0)
	engine := bot.NewEngine(sessions, tgClient, personRepo,
		subscriptionService, orderService, paymentService, catalogService,
		notifyService, cfg.MenuReturnDelay)

	poller := telegram.NewPoller(tgClient, engine, paymentService)
	go poller.Run(ctx)

	// HTTP: вебхук платёжного провайдера и health check.
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, store)
	router := httpRouter.SetupRouter(cfg, paymentHandler, healthHandler)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
