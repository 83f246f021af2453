package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []int64
	failFor  map[int64]error
	lastText string
}

func (f *fakeMessenger) SendText(ctx context.Context, telegramID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[telegramID]; ok {
		return err
	}
	f.sent = append(f.sent, telegramID)
	f.lastText = text
	return nil
}

type fakeRoster struct {
	managers []int64
	err      error
}

func (f *fakeRoster) ListActiveManagers(ctx context.Context) ([]int64, error) {
	return f.managers, f.err
}

func TestNotifyService_NotifyManagers(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotifyService(&fakeRoster{managers: []int64{1, 2, 3}}, messenger)

	err := svc.NotifyManagers(context.Background(), "NEW ORDER")
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, messenger.sent)
	assert.Equal(t, "NEW ORDER", messenger.lastText)
}

// Сбой доставки одному менеджеру не прерывает рассылку остальным.
func TestNotifyService_NotifyManagers_PartialFailure(t *testing.T) {
	messenger := &fakeMessenger{
		failFor: map[int64]error{2: errors.New("чат заблокирован")},
	}
	svc := NewNotifyService(&fakeRoster{managers: []int64{1, 2, 3}}, messenger)

	err := svc.NotifyManagers(context.Background(), "NEW COMPLAINT")
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, messenger.sent)
}

func TestNotifyService_NotifyManagers_RosterError(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotifyService(&fakeRoster{err: errors.New("база недоступна")}, messenger)

	err := svc.NotifyManagers(context.Background(), "NEW ORDER")
	assert.Error(t, err)
	assert.Empty(t, messenger.sent)
}

func TestNotifyService_NotifyUser_SwallowsError(t *testing.T) {
	messenger := &fakeMessenger{
		failFor: map[int64]error{42: errors.New("чат заблокирован")},
	}
	svc := NewNotifyService(&fakeRoster{}, messenger)

	// Ошибка доставки не должна подниматься к вызывающему.
	svc.NotifyUser(context.Background(), 42, "привет")
	assert.Empty(t, messenger.sent)
}
