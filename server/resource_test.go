package server

import (
	"context"
	"testing"
)

func TestResource_Read(t *testing.T) {
	t.Run("static URI", func(t *testing.T) {
		srv := New(Info{Name: "clima", Version: "1.0.0"})

		srv.Resource("config://clima").
			Name("Configuración del servidor").
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*ResourceContent, error) {
				return &ResourceContent{
					URI:      uri,
					MimeType: "application/json",
					Text:     `{"timeout_segundos":30}`,
				}, nil
			})

		r, ok := srv.FindResourceForURI("config://clima")
		if !ok {
			t.Fatal("resource not found")
		}

		content, err := r.Read(context.Background(), "config://clima")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if content.Text != `{"timeout_segundos":30}` {
			t.Errorf("Text = %q", content.Text)
		}
	})

	t.Run("templated URI extracts params", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})

		var gotCity string
		srv.Resource("clima://{ciudad}").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*ResourceContent, error) {
				gotCity = params["ciudad"]
				return &ResourceContent{URI: uri}, nil
			})

		r, ok := srv.FindResourceForURI("clima://Madrid")
		if !ok {
			t.Fatal("resource not found")
		}
		if _, err := r.Read(context.Background(), "clima://Madrid"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotCity != "Madrid" {
			t.Errorf("ciudad = %q, want Madrid", gotCity)
		}
	})

	t.Run("non-matching URI", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Resource("config://clima").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*ResourceContent, error) {
				return &ResourceContent{URI: uri}, nil
			})

		if _, ok := srv.FindResourceForURI("config://otro"); ok {
			t.Error("unexpected match")
		}
	})
}

func TestMatchURI(t *testing.T) {
	tests := []struct {
		name     string
		template string
		uri      string
		want     bool
		params   map[string]string
	}{
		{"exact match", "config://clima", "config://clima", true, map[string]string{}},
		{"single param", "clima://{ciudad}", "clima://Paris", true, map[string]string{"ciudad": "Paris"}},
		{"no match", "config://clima", "config://calculadora", false, nil},
		{"param does not span slashes", "a://{x}", "a://b/c", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, ok := matchURI(tt.template, tt.uri)
			if ok != tt.want {
				t.Fatalf("matchURI() ok = %v, want %v", ok, tt.want)
			}
			for k, v := range tt.params {
				if params[k] != v {
					t.Errorf("params[%q] = %q, want %q", k, params[k], v)
				}
			}
		})
	}
}
