package server

import (
	"context"
	"errors"
	"testing"
)

type twoNumbers struct {
	A float64 `json:"a" jsonschema:"required"`
	B float64 `json:"b" jsonschema:"required"`
}

func TestServer_ToolRegistry(t *testing.T) {
	t.Run("preserves registration order", func(t *testing.T) {
		srv := New(Info{Name: "calculadora", Version: "1.0.0"})

		for _, name := range []string{"suma", "resta", "multiplicacion", "division"} {
			srv.Tool(name).Handler(func(input twoNumbers) (float64, error) {
				return 0, nil
			})
		}

		tools := srv.Tools()
		want := []string{"suma", "resta", "multiplicacion", "division"}
		if len(tools) != len(want) {
			t.Fatalf("got %d tools, want %d", len(tools), len(want))
		}
		for i, name := range want {
			if tools[i].Name != name {
				t.Errorf("tools[%d].Name = %q, want %q", i, tools[i].Name, name)
			}
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})

		first := srv.Tool("suma").Handler(func(input twoNumbers) (float64, error) {
			return input.A + input.B, nil
		})
		if first.Err() != nil {
			t.Fatalf("first registration failed: %v", first.Err())
		}

		second := srv.Tool("suma").Handler(func(input twoNumbers) (float64, error) {
			return 0, nil
		})
		if !errors.Is(second.Err(), ErrDuplicateTool) {
			t.Errorf("Err() = %v, want ErrDuplicateTool", second.Err())
		}

		if len(srv.Tools()) != 1 {
			t.Errorf("duplicate registration must not grow the registry")
		}
	})

	t.Run("listing is stable across calls", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Tool("b").Handler(func(input twoNumbers) (float64, error) { return 0, nil })
		srv.Tool("a").Handler(func(input twoNumbers) (float64, error) { return 0, nil })

		for i := 0; i < 5; i++ {
			names := srv.ToolNames()
			if names[0] != "b" || names[1] != "a" {
				t.Fatalf("iteration %d: names = %v", i, names)
			}
		}
	})

	t.Run("GetTool", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Tool("division").Handler(func(input twoNumbers) (float64, error) { return 0, nil })

		if _, ok := srv.GetTool("division"); !ok {
			t.Error("registered tool not found")
		}
		if _, ok := srv.GetTool("potencia"); ok {
			t.Error("unregistered tool reported as found")
		}
	})
}

func TestServer_Manifest(t *testing.T) {
	srv := New(Info{
		Name:        "Calculadora MCP Server",
		Version:     "1.0.0",
		Description: "Servidor MCP para operaciones matemáticas básicas",
	})

	m := srv.Manifest()
	if m.Name != "Calculadora MCP Server" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.ProtocolVersion != "2024-11-05" {
		t.Errorf("ProtocolVersion = %q, want 2024-11-05", m.ProtocolVersion)
	}
	if m.Description == "" {
		t.Error("Description should be carried into the manifest")
	}
}

func TestServer_Capabilities(t *testing.T) {
	srv := New(Info{Name: "test", Version: "1.0.0"})

	if srv.HasResources() || srv.HasPrompts() {
		t.Error("fresh server should have no resources or prompts")
	}

	srv.Resource("config://clima").Name("Configuración").Handler(
		func(ctx context.Context, uri string, params map[string]string) (*ResourceContent, error) {
			return &ResourceContent{URI: uri}, nil
		})

	if !srv.HasResources() {
		t.Error("HasResources() should report true after registration")
	}

	srv.Prompt("explicar").Handler(
		func(ctx context.Context, args map[string]string) (*PromptResult, error) {
			return &PromptResult{}, nil
		})

	if !srv.HasPrompts() {
		t.Error("HasPrompts() should report true after registration")
	}
}
