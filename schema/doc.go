// Package schema provides JSON Schema generation and validation for tool
// inputs.
//
// Schemas are generated from Go struct types using reflection. Struct tags
// control the generated schema:
//
//	type ClimaInput struct {
//	    Ciudad   string `json:"ciudad" jsonschema:"required,minLength=1,description=Nombre de la ciudad"`
//	    Unidades string `json:"unidades" jsonschema:"enum=metric|imperial|standard,default=metric"`
//	    Limit    int    `json:"limit" jsonschema:"minimum=1,maximum=20,default=5"`
//	}
//
// Supported jsonschema tag keys: required, description=, default=, enum=
// (values separated by |), minimum=, maximum=, minLength=, pattern=.
//
// Generated schemas double as validators: Validate checks raw JSON
// arguments against required fields, declared types, enum membership,
// numeric ranges, string length/pattern, and (for schemas marked Closed)
// undeclared properties.
package schema
