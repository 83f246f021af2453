package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodePolicyDenied ErrorCode = "POLICY_DENIED"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeExternal     ErrorCode = "EXTERNAL_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError несёт код ошибки, сообщение для пользователя и причину.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodePolicyDenied:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsPolicyDenied(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodePolicyDenied
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func IsExternal(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeExternal
}

var (
	ErrPersonNotFound   = New(ErrCodeNotFound, "пользователь не найден")
	ErrOrderNotFound    = New(ErrCodeNotFound, "заказ не найден")
	ErrTariffNotFound   = New(ErrCodeNotFound, "тариф не найден")
	ErrContractorNotSet = New(ErrCodeNotFound, "исполнитель на ваш заказ еще не назначен")
	ErrNoSubscription   = New(ErrCodePolicyDenied, "у вас нет активной подписки")
	ErrNoRequestsLeft   = New(ErrCodePolicyDenied, "достигнут лимит заявок по вашей подписке")
	ErrNotContractor    = New(ErrCodePolicyDenied, "вы не являетесь подрядчиком")
	ErrOrderTaken       = New(ErrCodeConflict, "заказ уже взят другим подрядчиком")
	ErrPaymentExpired   = New(ErrCodeExternal, "данные платежа не найдены или устарели")
)
