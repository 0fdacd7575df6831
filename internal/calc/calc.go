// Package calc implements the arithmetic operations exposed by the
// calculadora server.
package calc

import (
	"fmt"
	"math"
	"strconv"

	"github.com/toolrpc/toolrpc/protocol"
	"github.com/toolrpc/toolrpc/schema"
)

// Resultado is the payload returned for every operation. Domain failures
// (division by zero) set Exito false and travel inside a successful
// tools/call response, never as a JSON-RPC error.
type Resultado struct {
	Exito       bool      `json:"success"`
	Operacion   string    `json:"operacion"`
	Operandos   []float64 `json:"operandos,omitempty"`
	Resultado   *float64  `json:"resultado,omitempty"`
	Descripcion string    `json:"descripcion,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorType   string    `json:"error_type,omitempty"`
}

// IsError reports whether the operation failed.
func (r Resultado) IsError() bool { return !r.Exito }

func exito(operacion string, a, b, valor float64, descripcion string) Resultado {
	return Resultado{
		Exito:       true,
		Operacion:   operacion,
		Operandos:   []float64{a, b},
		Resultado:   &valor,
		Descripcion: descripcion,
	}
}

// Suma returns a + b.
func Suma(a, b float64) Resultado {
	return exito("suma", a, b, a+b, fmt.Sprintf("%g + %g = %g", a, b, a+b))
}

// Resta returns a - b.
func Resta(a, b float64) Resultado {
	return exito("resta", a, b, a-b, fmt.Sprintf("%g - %g = %g", a, b, a-b))
}

// Multiplicacion returns a * b.
func Multiplicacion(a, b float64) Resultado {
	return exito("multiplicacion", a, b, a*b, fmt.Sprintf("%g × %g = %g", a, b, a*b))
}

// Division returns a / b, or a domain failure when b is zero.
func Division(a, b float64) Resultado {
	if b == 0 {
		return Resultado{
			Exito:     false,
			Operacion: "division",
			Operandos: []float64{a, b},
			Error:     "no se puede dividir por cero",
			ErrorType: "calculation_error",
		}
	}
	v := a / b
	return exito("division", a, b, v, fmt.Sprintf("%g ÷ %g = %g", a, b, v))
}

// Entrada is the raw tool input. Operands are declared as any because
// clients routinely send numbers as strings; ParseOperands does the
// coercion and rejects everything else.
type Entrada struct {
	A any `json:"a"`
	B any `json:"b"`
}

// ParseOperands coerces both operands to float64. Strings containing
// numbers are accepted; NaN and ±Inf are rejected because they have no
// JSON representation. Failures surface as invalid params (-32602).
func ParseOperands(in Entrada) (float64, float64, error) {
	a, err := toFloat("a", in.A)
	if err != nil {
		return 0, 0, err
	}
	b, err := toFloat("b", in.B)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func toFloat(name string, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, protocol.NewInvalidParams(
				fmt.Sprintf("operando '%s' debe ser un número, se recibió %q", name, x))
		}
		f = parsed
	case nil:
		return 0, protocol.NewInvalidParams(fmt.Sprintf("operando '%s' es requerido", name))
	default:
		return 0, protocol.NewInvalidParams(
			fmt.Sprintf("operando '%s' debe ser un número, se recibió %T", name, v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, protocol.NewInvalidParams(
			fmt.Sprintf("operando '%s' debe ser un número finito", name))
	}
	return f, nil
}

// OperandSchema is the advertised input schema for all four operations:
// two required numbers and nothing else. The handler is more lenient than
// the schema (it coerces numeric strings), so validation stays off and the
// schema is set explicitly.
func OperandSchema() *schema.Schema {
	return (&schema.Schema{
		Type: "object",
		Properties: map[string]*schema.Schema{
			"a": {Type: "number", Description: "Primer operando"},
			"b": {Type: "number", Description: "Segundo operando"},
		},
		Required: []string{"a", "b"},
	}).Closed()
}
