package calc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolrpc/toolrpc/protocol"
)

func TestOperaciones(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b float64) Resultado
		a, b float64
		want float64
	}{
		{"suma", Suma, 25, 17, 42},
		{"suma negativos", Suma, -5, -3, -8},
		{"resta", Resta, 10, 4, 6},
		{"resta a negativo", Resta, 4, 10, -6},
		{"multiplicacion", Multiplicacion, 6, 7, 42},
		{"multiplicacion por cero", Multiplicacion, 99, 0, 0},
		{"division", Division, 84, 2, 42},
		{"division decimal", Division, 1, 4, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.fn(tt.a, tt.b)

			assert.True(t, r.Exito)
			assert.False(t, r.IsError())
			require.NotNil(t, r.Resultado)
			assert.Equal(t, tt.want, *r.Resultado)
			assert.Equal(t, []float64{tt.a, tt.b}, r.Operandos)
			assert.NotEmpty(t, r.Descripcion)
			assert.Empty(t, r.Error)
		})
	}
}

func TestDivisionPorCero(t *testing.T) {
	r := Division(10, 0)

	assert.False(t, r.Exito)
	assert.True(t, r.IsError())
	assert.Nil(t, r.Resultado)
	assert.Equal(t, "no se puede dividir por cero", r.Error)
	assert.Equal(t, "calculation_error", r.ErrorType)
}

func TestResultadoCeroSerializa(t *testing.T) {
	// multiplicacion por cero produce resultado 0, que debe aparecer en el
	// JSON a pesar de omitempty
	r := Multiplicacion(5, 0)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resultado":0`)
}

func TestParseOperands(t *testing.T) {
	t.Run("numbers pass through", func(t *testing.T) {
		a, b, err := ParseOperands(Entrada{A: 2.5, B: float64(4)})
		require.NoError(t, err)
		assert.Equal(t, 2.5, a)
		assert.Equal(t, 4.0, b)
	})

	t.Run("numeric strings are coerced", func(t *testing.T) {
		a, b, err := ParseOperands(Entrada{A: "3.5", B: "-2"})
		require.NoError(t, err)
		assert.Equal(t, 3.5, a)
		assert.Equal(t, -2.0, b)
	})

	t.Run("non-numeric string is rejected", func(t *testing.T) {
		_, _, err := ParseOperands(Entrada{A: "abc", B: 1.0})
		requireInvalidParams(t, err)
	})

	t.Run("missing operand is rejected", func(t *testing.T) {
		_, _, err := ParseOperands(Entrada{A: 1.0})
		requireInvalidParams(t, err)
	})

	t.Run("boolean is rejected", func(t *testing.T) {
		_, _, err := ParseOperands(Entrada{A: true, B: 1.0})
		requireInvalidParams(t, err)
	})

	t.Run("non-finite strings are rejected", func(t *testing.T) {
		for _, v := range []string{"NaN", "Inf", "-Inf"} {
			_, _, err := ParseOperands(Entrada{A: v, B: 1.0})
			requireInvalidParams(t, err)
		}
	})
}

func requireInvalidParams(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var rpcErr *protocol.Error
	require.True(t, errors.As(err, &rpcErr), "error type = %T", err)
	assert.Equal(t, protocol.CodeInvalidParams, rpcErr.Code)
}

func TestOperandSchema(t *testing.T) {
	s := OperandSchema()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "object", decoded["type"])
	assert.ElementsMatch(t, []any{"a", "b"}, decoded["required"])
	assert.Equal(t, false, decoded["additionalProperties"])
}
