package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GariBroman/osminog/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxRequestLength      = 1000
	MaxCommentLength      = 1000
	MaxComplaintLength    = 1000
	MaxServiceTitleLength = 200
	MinPrice              = 1
	MaxPrice              = 100000000 // 100 миллионов
)

var (
	phoneShapeRe = regexp.MustCompile(`^\+?\d{7,15}$`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// NormalizePhone приводит введённый номер к виду с ведущим «+».
// Ничего кроме добавления префикса не делает: конвертация внутренних
// форматов (8XXX → +7XXX) сознательно не выполняется, такие номера
// отклоняет ValidatePhone с подсказкой.
func NormalizePhone(raw string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return phone
	}
	if phone[0] != '+' {
		phone = "+" + phone
	}
	return phone
}

// ValidatePhone проверяет номер в международном формате.
// Каноничное правило: принимаются только номера вида +<7..15 цифр>,
// первая цифра не ноль; номера, начинающиеся с «+8», отклоняются —
// на практике это всегда российский внутренний формат, который нужно
// вводить как +7XXXXXXXXXX.
func ValidatePhone(phone string) error {
	if !phoneShapeRe.MatchString(phone) || !strings.HasPrefix(phone, "+") {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("номер %q не похож на телефонный", phone))
	}
	digits := phone[1:]
	if digits[0] == '0' {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("номер %q не может начинаться с нуля", phone))
	}
	if digits[0] == '8' {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("номер %q указан во внутреннем формате, введите его как +7...", phone))
	}
	return nil
}

// ValidateText проверяет длину свободного текста в рунах.
func ValidateText(fieldName, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("%s не может быть пустым", fieldName))
	}
	if utf8.RuneCountInString(value) > max {
		return apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("%s должен быть не более %d символов", fieldName, max))
	}
	return nil
}

// ParseEstimate разбирает срок выполнения заказа в формате ГГГГ:ММ:ДД:ЧЧ:ММ.
// Разделители допускаются любые нецифровые: «2024-03-15 10:30» тоже принимается.
// Срок в прошлом считается ошибкой ввода.
func ParseEstimate(raw string, now time.Time) (time.Time, error) {
	fields := digitsRe.FindAllString(raw, -1)
	if len(fields) != 5 {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("не удалось разобрать срок %q, ожидается ГГГГ:ММ:ДД:ЧЧ:ММ", raw))
	}

	nums := make([]int, 5)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, apperror.Wrap(err, apperror.ErrCodeValidation,
				fmt.Sprintf("не удалось разобрать срок %q", raw))
		}
		nums[i] = n
	}

	year, month, day, hour, minute := nums[0], nums[1], nums[2], nums[3], nums[4]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("срок %q содержит недопустимую дату", raw))
	}

	estimate := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())
	// time.Date нормализует 31 февраля в март, такой ввод отклоняем.
	if estimate.Day() != day || estimate.Month() != time.Month(month) {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("даты %q не существует", raw))
	}
	if !estimate.After(now) {
		return time.Time{}, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("срок %q уже прошёл", raw))
	}
	return estimate, nil
}

// ParsePrice разбирает цену услуги из свободного текста.
func ParsePrice(raw string) (int, error) {
	price, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeValidation,
			fmt.Sprintf("цена %q должна быть числом", raw))
	}
	if price < MinPrice || price > MaxPrice {
		return 0, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("цена должна быть от %d до %d", MinPrice, MaxPrice))
	}
	return price, nil
}
