package schema

import (
	"encoding/json"
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Run("generates object schema from struct", func(t *testing.T) {
		type Input struct {
			Query string `json:"query" jsonschema:"required,description=Search term"`
			Limit int    `json:"limit"`
		}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if s.Type != "object" {
			t.Errorf("Type = %q, want %q", s.Type, "object")
		}
		if len(s.Required) != 1 || s.Required[0] != "query" {
			t.Errorf("Required = %v, want [query]", s.Required)
		}
		if s.Properties["query"].Type != "string" {
			t.Errorf("query type = %q, want string", s.Properties["query"].Type)
		}
		if s.Properties["query"].Description != "Search term" {
			t.Errorf("query description = %q", s.Properties["query"].Description)
		}
		if s.Properties["limit"].Type != "integer" {
			t.Errorf("limit type = %q, want integer", s.Properties["limit"].Type)
		}
	})

	t.Run("skips unexported and ignored fields", func(t *testing.T) {
		type Input struct {
			Visible string `json:"visible"`
			Ignored string `json:"-"`
			hidden  string
		}
		_ = Input{hidden: ""}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(s.Properties) != 1 {
			t.Errorf("Properties = %v, want only visible", s.Properties)
		}
	})

	t.Run("parses numeric constraint tags", func(t *testing.T) {
		type Input struct {
			Limit int `json:"limit" jsonschema:"minimum=1,maximum=20,default=5"`
		}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		limit := s.Properties["limit"]
		if limit.Minimum == nil || *limit.Minimum != 1 {
			t.Errorf("Minimum = %v, want 1", limit.Minimum)
		}
		if limit.Maximum == nil || *limit.Maximum != 20 {
			t.Errorf("Maximum = %v, want 20", limit.Maximum)
		}
		if limit.Default != 5 {
			t.Errorf("Default = %v (%T), want int 5", limit.Default, limit.Default)
		}
	})

	t.Run("parses string constraint tags", func(t *testing.T) {
		type Input struct {
			Ciudad   string `json:"ciudad" jsonschema:"required,minLength=1"`
			Pais     string `json:"codigo_pais" jsonschema:"pattern=^[A-Z]{2}$"`
			Unidades string `json:"unidades" jsonschema:"enum=metric|imperial|standard,default=metric"`
		}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ml := s.Properties["ciudad"].MinLength; ml == nil || *ml != 1 {
			t.Errorf("MinLength = %v, want 1", ml)
		}
		if p := s.Properties["codigo_pais"].Pattern; p != "^[A-Z]{2}$" {
			t.Errorf("Pattern = %q", p)
		}
		enum := s.Properties["unidades"].Enum
		if len(enum) != 3 || enum[0] != "metric" {
			t.Errorf("Enum = %v", enum)
		}
		if s.Properties["unidades"].Default != "metric" {
			t.Errorf("Default = %v", s.Properties["unidades"].Default)
		}
	})

	t.Run("generates array schema", func(t *testing.T) {
		type Input struct {
			Tags []string `json:"tags"`
		}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tags := s.Properties["tags"]
		if tags.Type != "array" || tags.Items == nil || tags.Items.Type != "string" {
			t.Errorf("tags schema = %+v", tags)
		}
	})
}

func TestSchema_Closed(t *testing.T) {
	s := &Schema{Type: "object", Properties: map[string]*Schema{}}
	if s.AdditionalProperties != nil {
		t.Fatal("fresh schema should leave additionalProperties unset")
	}

	s.Closed()
	if s.AdditionalProperties == nil || *s.AdditionalProperties {
		t.Error("Closed() should set additionalProperties to false")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", decoded["additionalProperties"])
	}
}
