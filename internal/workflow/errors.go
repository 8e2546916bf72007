package workflow

import "errors"

var (
	// ErrForbidden возвращается, если роль не может выполнить действие в текущем статусе.
	ErrForbidden = errors.New("action not permitted for this role")
	// ErrTerminal возвращается при попытке изменить оплаченный заказ.
	ErrTerminal = errors.New("order is closed")
	// ErrUnknownAction возвращается для неизвестного действия.
	ErrUnknownAction = errors.New("unknown action")
)

// ValidationError описывает нарушенное предусловие. Сообщение показывается пользователю.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation сообщает, является ли err ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
