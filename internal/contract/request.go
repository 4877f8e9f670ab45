// Package contract описывает внешний формат запроса и ответа расчёта материалов.
// Транспорты (HTTP, gRPC) разбирают тело запроса здесь и отдают ядру уже проверенные Demand.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Тексты ошибок отдаются клиенту как есть.
const (
	MsgNoData           = "No data provided."
	MsgNoProducts       = "No products provided."
	MsgInvalidProduct   = "Invalid product data."
	MsgMissingFields    = "Request must include 'product' and 'quantity'."
	MsgProductNotInt    = "Product ID must be an integer."
	MsgProductNotPos    = "Product ID must be a positive integer."
	MsgProductRange     = "Product ID is out of range."
	MsgQuantityNotNum   = "Quantity must be a number."
	MsgQuantityNotPos   = "Quantity must be greater than zero."
	MsgMalformedPayload = "Malformed JSON payload."
)

// Количество должно помещаться в колонку NUMERIC(20, 6): не больше 14 знаков до запятой и 6 после.
const (
	maxQuantityIntDigits = 14
	maxQuantityScale     = 6
	// minQuantityExponent отсекает литералы вроде 1e-30000000 до любой арифметики над ними.
	minQuantityExponent = -64
)

// ErrMalformedRequest означает, что тело запроса не соответствует формату списка позиций.
var ErrMalformedRequest = errors.New("malformed request")

// ValidationError описывает ошибку проверки входных данных с сообщением для клиента.
type ValidationError struct {
	Message string
	// Index равен номеру позиции запроса или -1, если ошибка относится ко всему телу.
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(index int, msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Index: index, Err: err}
}

// IsValidationError сообщает, что ошибка вызвана некорректным запросом.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseDemands разбирает JSON-список {"product": int, "quantity": number}.
// Проверки идут в том же порядке, что и сообщения об ошибках: сначала тело целиком, затем каждая позиция.
func ParseDemands(body []byte) ([]domain.Demand, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, invalid(-1, MsgNoData, domain.ErrDemandsRequired)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, invalid(-1, MsgMalformedPayload, errors.Join(ErrMalformedRequest, err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, invalid(-1, MsgMalformedPayload, ErrMalformedRequest)
	}

	if isEmptyPayload(payload) {
		return nil, invalid(-1, MsgNoData, domain.ErrDemandsRequired)
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, invalid(-1, MsgNoProducts, domain.ErrDemandsRequired)
	}

	demands := make([]domain.Demand, 0, len(items))
	for i, item := range items {
		demand, err := parseDemand(i, item)
		if err != nil {
			return nil, err
		}
		demands = append(demands, demand)
	}

	return demands, nil
}

func parseDemand(index int, item any) (domain.Demand, error) {
	entry, ok := item.(map[string]any)
	if !ok {
		return domain.Demand{}, invalid(index, MsgInvalidProduct, ErrMalformedRequest)
	}

	rawProduct, hasProduct := entry["product"]
	rawQuantity, hasQuantity := entry["quantity"]
	if !hasProduct || !hasQuantity {
		return domain.Demand{}, invalid(index, MsgMissingFields, ErrMalformedRequest)
	}

	productNum, ok := rawProduct.(json.Number)
	if !ok {
		return domain.Demand{}, invalid(index, MsgProductNotInt, domain.ErrProductIDInvalid)
	}
	productID, err := productNum.Int64()
	if err != nil {
		if _, isInt := new(big.Int).SetString(productNum.String(), 10); isInt {
			return domain.Demand{}, invalid(index, MsgProductRange, domain.ErrProductIDInvalid)
		}
		return domain.Demand{}, invalid(index, MsgProductNotInt, domain.ErrProductIDInvalid)
	}

	quantityNum, ok := rawQuantity.(json.Number)
	if !ok {
		return domain.Demand{}, invalid(index, MsgQuantityNotNum, domain.ErrQuantityInvalid)
	}
	quantity, err := decimal.NewFromString(quantityNum.String())
	if err != nil || !quantityInRange(quantity) {
		return domain.Demand{}, invalid(index, MsgQuantityNotNum, domain.ErrQuantityInvalid)
	}

	demand := domain.Demand{ProductID: productID, Quantity: quantity}
	for _, verr := range demand.Validate() {
		switch {
		case errors.Is(verr, domain.ErrProductIDInvalid):
			return domain.Demand{}, invalid(index, MsgProductNotPos, verr)
		case errors.Is(verr, domain.ErrQuantityInvalid):
			return domain.Demand{}, invalid(index, MsgQuantityNotPos, verr)
		}
	}

	return demand, nil
}

// quantityInRange проверяет разрядность без перевода числа в полную запись:
// показатель и число цифр мантиссы смотрятся до округления и сравнений.
func quantityInRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := d.Exponent()
	if exp < minQuantityExponent {
		return false
	}
	if int64(d.NumDigits())+int64(exp) > maxQuantityIntDigits {
		return false
	}
	return exp >= -maxQuantityScale || d.Round(maxQuantityScale).Equal(d)
}

// isEmptyPayload отсекает null, пустые списки и объекты, пустые строки, ноль и false.
func isEmptyPayload(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return err == nil && d.IsZero()
	default:
		return false
	}
}
