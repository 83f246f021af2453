package bot

import (
	"context"

	"github.com/GariBroman/osminog/internal/service"
)

// Button — кнопка клавиатуры. Кнопка либо несёт callback-данные, либо
// запрашивает контакт пользователя (reply-клавиатура платформы).
type Button struct {
	Text           string
	Callback       string
	RequestContact bool
}

// Keyboard — строки кнопок в том виде, в каком их ждёт платформа.
type Keyboard [][]Button

// Message — исходящее сообщение с необязательной клавиатурой.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// Gateway — транспорт чат-платформы. Движок диалога ничего не знает о
// конкретном API: он отправляет сообщения, счета и контакты и просит
// убрать клавиатуру у уже отработавшего сообщения.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, msg Message) error
	SendText(ctx context.Context, chatID int64, text string) error
	SendContact(ctx context.Context, chatID int64, name, phone string) error
	SendInvoice(ctx context.Context, chatID int64, inv service.Invoice) error
	// ClearAffordances убирает клавиатуру у сообщения, чтобы устаревшие
	// кнопки нельзя было нажать повторно. Ошибки игнорируются вызывающим.
	ClearAffordances(ctx context.Context, chatID, messageID int64) error
}

func row(buttons ...Button) []Button { return buttons }

func btn(text, callback string) Button {
	return Button{Text: text, Callback: callback}
}
