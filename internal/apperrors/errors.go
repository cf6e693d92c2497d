package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType классифицирует ошибки ядра очереди.
type ErrorType string

const (
	// ErrorTypeValidation — некорректный запрос, до записи в хранилище.
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeNotFound — запись не найдена.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeCapacityExceeded — дневной лимит провайдера исчерпан.
	ErrorTypeCapacityExceeded ErrorType = "CAPACITY_EXCEEDED"
	// ErrorTypeInvalidTransition — запрошенный статус недостижим из текущего.
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"
	// ErrorTypePreconditionFailed — состояние изменилось, нужно перечитать перед повтором.
	ErrorTypePreconditionFailed ErrorType = "PRECONDITION_FAILED"
	// ErrorTypeStoreUnavailable — хранилище недоступно, операция прервана целиком.
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"
	// ErrorTypeNotificationDelivery — уведомление не доставлено (best effort).
	ErrorTypeNotificationDelivery ErrorType = "NOTIFICATION_DELIVERY"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the AppError type of err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func NewValidationError(format string, args ...any) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewCapacityExceededError(current, max int64) *AppError {
	return &AppError{
		Type:    ErrorTypeCapacityExceeded,
		Message: fmt.Sprintf("provider queue is full (%d/%d), choose another provider or date, or mark as urgent", current, max),
	}
}

// NewInvalidTransitionError называет текущий и запрошенный статус.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Message: fmt.Sprintf("cannot move appointment from %q to %q", from, to),
	}
}

func NewPreconditionFailedError(format string, args ...any) *AppError {
	return &AppError{Type: ErrorTypePreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func NewStoreUnavailableError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeStoreUnavailable, Message: message, Err: err}
}

func NewNotificationDeliveryError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNotificationDelivery, Message: message, Err: err}
}
