package domain

import "errors"

var (
	// Ошибка пустого запроса.
	ErrDemandsRequired = errors.New("at least one product demand is required")
	// Ошибка некорректного идентификатора изделия.
	ErrProductIDInvalid = errors.New("product id must be a positive integer")
	// Ошибка неположительного количества.
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// ErrCatalogUnavailable: хранилище справочников не ответило, запрос целиком завершается ошибкой.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrStorageNotInitialized возвращается при обращении к незакрытому/неоткрытому хранилищу.
	ErrStorageNotInitialized = errors.New("storage is not initialized")
	// ErrPublishFailed: событие распределения не удалось отправить.
	ErrPublishFailed = errors.New("allocation event publish failed")
)

// IsCatalogUnavailable проверяет, связана ли ошибка с недоступностью справочников.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}
