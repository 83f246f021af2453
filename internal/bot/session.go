package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GariBroman/osminog/internal/cache"
)

// Sessions хранит состояние диалога и промежуточные значения шагов во
// внешнем кэше. Движок остаётся без состояния: несколько экземпляров
// могут обслуживать один чат.
type Sessions struct {
	store cache.Store
	ttl   time.Duration
}

func NewSessions(store cache.Store, ttl time.Duration) *Sessions {
	return &Sessions{store: store, ttl: ttl}
}

func stateKey(chatID int64) string { return fmt.Sprintf("sess:%d", chatID) }

func flowKey(chatID int64, name string) string {
	return fmt.Sprintf("sess:%d:%s", chatID, name)
}

// State возвращает текущее состояние чата. Отсутствие записи — новый
// посетитель.
func (s *Sessions) State(ctx context.Context, chatID int64) (State, error) {
	raw, err := s.store.Get(ctx, stateKey(chatID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return StateVisitor, nil
	}
	if err != nil {
		return "", fmt.Errorf("sessions: get state: %w", err)
	}
	return State(raw), nil
}

func (s *Sessions) SetState(ctx context.Context, chatID int64, state State) error {
	if err := s.store.Set(ctx, stateKey(chatID), string(state), s.ttl); err != nil {
		return fmt.Errorf("sessions: set state: %w", err)
	}
	return nil
}

// SetFlowValue сохраняет промежуточное значение многошагового сценария,
// например идентификатор заказа между выбором и вводом текста.
func (s *Sessions) SetFlowValue(ctx context.Context, chatID int64, name, value string) error {
	if err := s.store.Set(ctx, flowKey(chatID, name), value, s.ttl); err != nil {
		return fmt.Errorf("sessions: set flow %s: %w", name, err)
	}
	return nil
}

func (s *Sessions) FlowValue(ctx context.Context, chatID int64, name string) (string, error) {
	raw, err := s.store.Get(ctx, flowKey(chatID, name))
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sessions: get flow %s: %w", name, err)
	}
	return raw, nil
}

// ClearFlow удаляет все промежуточные значения чата. Вызывается на
// /start и при возврате в главное меню, чтобы брошенный на полпути
// сценарий не влиял на следующий.
func (s *Sessions) ClearFlow(ctx context.Context, chatID int64) error {
	var lastErr error
	for _, name := range []string{flowOrder, flowCategory} {
		if err := s.store.Delete(ctx, flowKey(chatID, name)); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("sessions: clear flow: %w", lastErr)
	}
	return nil
}

// Имена промежуточных значений.
const (
	flowOrder    = "order"
	flowCategory = "category"
)
