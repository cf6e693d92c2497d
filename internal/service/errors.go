package service

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/appointment-queue/internal/apperrors"
)

var codeByType = map[apperrors.ErrorType]codes.Code{
	apperrors.ErrorTypeValidation:           codes.InvalidArgument,
	apperrors.ErrorTypeNotFound:             codes.NotFound,
	apperrors.ErrorTypeCapacityExceeded:     codes.ResourceExhausted,
	apperrors.ErrorTypeInvalidTransition:    codes.FailedPrecondition,
	apperrors.ErrorTypePreconditionFailed:   codes.Aborted,
	apperrors.ErrorTypeStoreUnavailable:     codes.Unavailable,
	apperrors.ErrorTypeNotificationDelivery: codes.Internal,
}

// toStatus переводит ошибку приложения в gRPC-статус.
// Уже готовый статус (например, из разбора запроса) возвращается как есть.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, err.Error())
	}

	code, ok := codeByType[appErr.Type]
	if !ok {
		code = codes.Internal
	}
	// причина из хранилища наружу не отдаётся
	return status.Error(code, appErr.Message)
}
