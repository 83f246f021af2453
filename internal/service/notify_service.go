package service

import (
	"context"

	"github.com/GariBroman/osminog/internal/goroutine"
	"github.com/GariBroman/osminog/internal/logger"
)

// Messenger описывает исходящий канал чат-платформы.
type Messenger interface {
	SendText(ctx context.Context, telegramID int64, text string) error
}

// ManagerRoster описывает источник списка действующих менеджеров.
type ManagerRoster interface {
	ListActiveManagers(ctx context.Context) ([]int64, error)
}

// NotifyService рассылает события менеджерам: новая заявка, комментарий,
// претензия, назначение подрядчика, оплата.
type NotifyService struct {
	roster    ManagerRoster
	messenger Messenger
}

// NewNotifyService создаёт новый сервис уведомлений.
func NewNotifyService(roster ManagerRoster, messenger Messenger) *NotifyService {
	return &NotifyService{
		roster:    roster,
		messenger: messenger,
	}
}

// NotifyManagers доставляет сообщение всем действующим менеджерам.
// Семантика best-effort: сбой доставки одному менеджеру логируется и не
// мешает доставке остальным.
func (s *NotifyService) NotifyManagers(ctx context.Context, text string) error {
	managers, err := s.roster.ListActiveManagers(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("notify")
	for _, telegramID := range managers {
		if err := s.messenger.SendText(ctx, telegramID, text); err != nil {
			log.WithField("manager_telegram_id", telegramID).
				Warnf("не удалось доставить уведомление: %v", err)
		}
	}
	return nil
}

// NotifyManagersAsync запускает рассылку в фоне, не блокируя обработчик
// события, который её инициировал.
func (s *NotifyService) NotifyManagersAsync(ctx context.Context, text string) {
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		if err := s.NotifyManagers(ctx, text); err != nil {
			logger.WithComponent("notify").Errorf("рассылка менеджерам не выполнена: %v", err)
		}
	})
}

// NotifyUser отправляет личное уведомление пользователю, best-effort.
func (s *NotifyService) NotifyUser(ctx context.Context, telegramID int64, text string) {
	if err := s.messenger.SendText(ctx, telegramID, text); err != nil {
		logger.WithComponent("notify").
			WithField("telegram_id", telegramID).
			Warnf("не удалось доставить уведомление пользователю: %v", err)
	}
}
