package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Аутентификация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Персистентность: запись изменилась между чтением и записью.
	// Вызывающая сторона обязана считать переход НЕпримененным.
	ErrVersionConflict = fmt.Errorf("конфликт версий: запись была изменена параллельно")
)

// HttpError — ошибка, которую контроллер отдает наружу.
// Message — то, что видит пользователь; Err — техническая причина для логов.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]string
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]string) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// InvalidInputError — ошибка валидации входных данных (поле + причина).
type InvalidInputError struct {
	Message string
	Field   string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

func NewFieldError(field, format string, args ...interface{}) error {
	return &InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedError — отказ Access Guard. Reason — машинный код причины
// (insufficient-permission, cross-tenant, branch-scope, vehicle-type-scope,
// self-modification). Отказ терминален, частичной авторизации не бывает.
type AccessDeniedError struct {
	Reason  string
	Message string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
}

func NewAccessDeniedError(reason, format string, args ...interface{}) error {
	return &AccessDeniedError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Причины отклонения перехода статуса.
const (
	ReasonInvalidTransition           = "invalid-transition"
	ReasonPendingApprovalsOutstanding = "pending-approvals-outstanding"
)

// TransitionError — отклоненный переход статуса заказ-наряда.
// Это ожидаемое бизнес-правило, а не сбой: отдается типизированно, без паники.
type TransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("переход %s -> %s отклонён: %s", e.From, e.To, e.Reason)
}

func NewTransitionError(from, to, reason string) error {
	return &TransitionError{From: from, To: to, Reason: reason}
}
