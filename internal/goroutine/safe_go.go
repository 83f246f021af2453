package goroutine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/GariBroman/osminog/internal/logger"
)

// SafeGo запускает горутину с обработкой panic.
// Используется для fire-and-forget задач: рассылки уведомлений и отложенных
// продолжений диалога, падение которых не должно ронять обработчик события.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic()
		fn(ctx)
	}()
}

// AfterFunc планирует отложенный вызов fn через delay в защищённой горутине.
// Неблокирующая замена sleep внутри обработчиков диалога.
func AfterFunc(delay time.Duration, fn func()) {
	time.AfterFunc(delay, func() {
		defer recoverPanic()
		fn()
	})
}

func recoverPanic() {
	if r := recover(); r != nil {
		logger.WithComponent("goroutine").
			Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
	}
}
