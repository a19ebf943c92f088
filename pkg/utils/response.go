package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "fleetcare/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HttpResponse struct {
	Status     bool        `json:"status"`
	Body       interface{} `json:"body,omitempty"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	TotalCount *uint64     `json:"total_count,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, totalCount ...uint64) error {
	resp := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(totalCount) > 0 {
		resp.TotalCount = &totalCount[0]
	}
	return ctx.JSON(code, resp)
}

// ErrorResponse переводит ошибку доменного слоя в HTTP-ответ.
// Таксономия: 401 аутентификация, 403 отказ авторизации, 400 валидация,
// 409 отклоненный переход / конфликт версий, 404 не найдено, 503 хранилище.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := http.StatusInternalServerError
	message := "внутренняя ошибка сервера"
	var details interface{}

	var httpErr *apperrors.HttpError
	var inputErr *apperrors.InvalidInputError
	var deniedErr *apperrors.AccessDeniedError
	var transitionErr *apperrors.TransitionError
	var echoErr *echo.HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &echoErr):
		code = echoErr.Code
		message = fmt.Sprintf("%v", echoErr.Message)
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		message = "ошибка валидации"
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		details = fields
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
		if httpErr.Details != nil {
			details = httpErr.Details
		}
	case errors.As(err, &inputErr):
		code = http.StatusBadRequest
		message = inputErr.Message
		if inputErr.Field != "" {
			details = map[string]string{"field": inputErr.Field}
		}
	case errors.As(err, &deniedErr):
		code = http.StatusForbidden
		message = deniedErr.Message
		details = map[string]string{"reason": deniedErr.Reason}
	case errors.As(err, &transitionErr):
		code = http.StatusConflict
		message = transitionErr.Error()
		details = map[string]string{
			"reason": transitionErr.Reason,
			"from":   transitionErr.From,
			"to":     transitionErr.To,
		}
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
		message = apperrors.ErrNotFound.Error()
	case errors.Is(err, apperrors.ErrVersionConflict):
		code = http.StatusConflict
		message = apperrors.ErrVersionConflict.Error()
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenIsNotAccess),
		errors.Is(err, apperrors.ErrTokenIsNotRefresh),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrUserIDNotFoundInContext):
		code = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		code = http.StatusForbidden
		message = apperrors.ErrForbidden.Error()
	case errors.Is(err, apperrors.ErrBadRequest):
		code = http.StatusBadRequest
		message = apperrors.ErrBadRequest.Error()
	default:
		if logger != nil {
			logger.Error("необработанная ошибка", zap.Error(err))
		}
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Message: message,
		Details: details,
	})
}
