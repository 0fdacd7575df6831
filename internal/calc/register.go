package calc

import (
	"context"
	"fmt"

	"github.com/toolrpc/toolrpc/server"
)

// Register wires the four arithmetic tools and the explanation prompt into
// the server. Operands are coerced by ParseOperands, so the advertised
// schema is set explicitly and builder-side validation stays off.
func Register(srv *server.Server) error {
	ops := []struct {
		name string
		desc string
		fn   func(a, b float64) Resultado
	}{
		{"suma", "Suma dos números", Suma},
		{"resta", "Resta el segundo número del primero", Resta},
		{"multiplicacion", "Multiplica dos números", Multiplicacion},
		{"division", "Divide el primer número por el segundo", Division},
	}

	for _, op := range ops {
		fn := op.fn
		b := srv.Tool(op.name).
			Description(op.desc).
			InputSchema(OperandSchema()).
			Handler(func(ctx context.Context, in Entrada) (Resultado, error) {
				a, bv, err := ParseOperands(in)
				if err != nil {
					return Resultado{}, err
				}
				return fn(a, bv), nil
			})
		if err := b.Err(); err != nil {
			return fmt.Errorf("registering %s: %w", op.name, err)
		}
	}

	srv.Prompt("explicar_operacion").
		Description("Explica una operación aritmética paso a paso").
		Argument("operacion", "Nombre de la operación a explicar", true).
		Handler(func(ctx context.Context, args map[string]string) (*server.PromptResult, error) {
			return &server.PromptResult{
				Messages: []server.PromptMessage{
					{
						Role: "user",
						Content: server.TextContent{
							Type: "text",
							Text: fmt.Sprintf("Explica paso a paso cómo se calcula una %s y da un ejemplo numérico.", args["operacion"]),
						},
					},
				},
			}, nil
		})

	return nil
}
