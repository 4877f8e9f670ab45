package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

func TestParseDemands_Valid(t *testing.T) {
	demands, err := ParseDemands([]byte(`[{"product": 1, "quantity": 2}, {"product": 2, "quantity": 0.5}, {"product": 1, "quantity": 3}]`))
	require.NoError(t, err)
	require.Len(t, demands, 3)

	require.Equal(t, int64(1), demands[0].ProductID)
	require.Equal(t, "2", demands[0].Quantity.String())
	require.Equal(t, int64(2), demands[1].ProductID)
	require.Equal(t, "0.5", demands[1].Quantity.String())
	// Повтор изделия сохраняется отдельной позицией.
	require.Equal(t, int64(1), demands[2].ProductID)
	require.Equal(t, "3", demands[2].Quantity.String())
}

func TestParseDemands_ExtraFieldsIgnored(t *testing.T) {
	demands, err := ParseDemands([]byte(`[{"product": 5, "quantity": 1e1, "comment": "rush"}]`))
	require.NoError(t, err)
	require.Len(t, demands, 1)
	require.Equal(t, "10", demands[0].Quantity.String())
}

func TestParseDemands_Errors(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		message  string
		sentinel error
		index    int
	}{
		{name: "empty body", body: "", message: MsgNoData, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "whitespace", body: "  \n", message: MsgNoData, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "null", body: "null", message: MsgNoData, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "empty list", body: "[]", message: MsgNoData, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "empty object", body: "{}", message: MsgNoData, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "object", body: `{"product": 1, "quantity": 2}`, message: MsgNoProducts, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "string", body: `"shirt"`, message: MsgNoProducts, sentinel: domain.ErrDemandsRequired, index: -1},
		{name: "broken json", body: `[{"product": 1,`, message: MsgMalformedPayload, sentinel: ErrMalformedRequest, index: -1},
		{name: "trailing data", body: `[{"product": 1, "quantity": 1}] []`, message: MsgMalformedPayload, sentinel: ErrMalformedRequest, index: -1},
		{name: "entry not object", body: `[{"product": 1, "quantity": 1}, 7]`, message: MsgInvalidProduct, sentinel: ErrMalformedRequest, index: 1},
		{name: "missing quantity", body: `[{"product": 1}]`, message: MsgMissingFields, sentinel: ErrMalformedRequest, index: 0},
		{name: "missing product", body: `[{"quantity": 1}]`, message: MsgMissingFields, sentinel: ErrMalformedRequest, index: 0},
		{name: "product string", body: `[{"product": "1", "quantity": 1}]`, message: MsgProductNotInt, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product fractional", body: `[{"product": 1.5, "quantity": 1}]`, message: MsgProductNotInt, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product bool", body: `[{"product": true, "quantity": 1}]`, message: MsgProductNotInt, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product overflows int64", body: `[{"product": 99999999999999999999, "quantity": 1}]`, message: MsgProductRange, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product negative overflow", body: `[{"product": -99999999999999999999, "quantity": 1}]`, message: MsgProductRange, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product exponent form", body: `[{"product": 1e2, "quantity": 1}]`, message: MsgProductNotInt, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "product zero", body: `[{"product": 0, "quantity": 1}]`, message: MsgProductNotPos, sentinel: domain.ErrProductIDInvalid, index: 0},
		{name: "quantity string", body: `[{"product": 1, "quantity": "2"}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity null", body: `[{"product": 1, "quantity": null}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity huge exponent", body: `[{"product": 1, "quantity": 1e30000000}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity huger exponent", body: `[{"product": 1, "quantity": 1e300000000}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity tiny exponent", body: `[{"product": 1, "quantity": 1e-30000000}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity too many integer digits", body: `[{"product": 1, "quantity": 100000000000000}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity too many fraction digits", body: `[{"product": 1, "quantity": 0.0000001}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity huge negative", body: `[{"product": 1, "quantity": -1e30000000}]`, message: MsgQuantityNotNum, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity zero", body: `[{"product": 1, "quantity": 0}]`, message: MsgQuantityNotPos, sentinel: domain.ErrQuantityInvalid, index: 0},
		{name: "quantity negative", body: `[{"product": 1, "quantity": 2}, {"product": 2, "quantity": -1}]`, message: MsgQuantityNotPos, sentinel: domain.ErrQuantityInvalid, index: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			demands, err := ParseDemands([]byte(tc.body))
			require.Error(t, err)
			require.Nil(t, demands)
			require.True(t, IsValidationError(err))
			require.ErrorIs(t, err, tc.sentinel)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, tc.message, ve.Error())
			require.Equal(t, tc.index, ve.Index)
		})
	}
}

func TestParseDemands_QuantityBounds(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{body: `[{"product": 1, "quantity": 99999999999999.999999}]`, want: "99999999999999.999999"},
		{body: `[{"product": 1, "quantity": 0.000001}]`, want: "0.000001"},
		{body: `[{"product": 1, "quantity": 1.50000000}]`, want: "1.5"},
		{body: `[{"product": 1, "quantity": 25e-1}]`, want: "2.5"},
		{body: `[{"product": 1, "quantity": 1e13}]`, want: "10000000000000"},
	}

	for _, tc := range cases {
		demands, err := ParseDemands([]byte(tc.body))
		require.NoError(t, err, tc.body)
		require.Len(t, demands, 1)
		require.Equal(t, tc.want, demands[0].Quantity.String(), tc.body)
	}
}

func TestParseDemands_HugeExponentRejectedQuickly(t *testing.T) {
	start := time.Now()
	_, err := ParseDemands([]byte(`[{"product": 1, "quantity": 1e300000000}, {"product": 2, "quantity": 1e-300000000}]`))
	require.Error(t, err)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("rejecting oversized quantity took %s", elapsed)
	}
}

func TestIsValidationError_Plain(t *testing.T) {
	if IsValidationError(errors.New("boom")) {
		t.Error("plain error must not be reported as validation error")
	}
	if IsValidationError(nil) {
		t.Error("nil must not be reported as validation error")
	}
}
