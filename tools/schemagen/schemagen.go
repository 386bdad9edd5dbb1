// Package main generates JSON schemas for the lunex wire payloads: the
// compile diagnostic and the MCP tool inputs and outputs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/lunex/internal/mcp"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

const draft07 = "https://json-schema.org/draft-07/schema#"

// Schema represents a JSON Schema.
type Schema struct {
	Schema      string             `json:"$schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// payloads maps a schema file name to the type it describes.
var payloads = map[string]any{
	"diagnostic":      diag.Diagnostic{},
	"compile_input":   mcp.CompileInput{},
	"compile_output":  mcp.CompileOutput{},
	"tokenize_input":  mcp.TokenizeInput{},
	"tokenize_output": mcp.TokenizeOutput{},
}

func main() {
	outputDir := flag.String("o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if err := writeSchema(*outputDir, name, schemaFor(name, payloads[name])); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing schema for %s: %v\n", name, err)
			os.Exit(1)
		}

		fmt.Printf("Generated schema for %s\n", name)
	}
}

// schemaFor builds the root schema of v. Named nested structs go to
// definitions and are referenced.
func schemaFor(name string, v any) *Schema {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	defs := make(map[string]*Schema)
	props, required := propertiesOf(t, defs)

	root := &Schema{
		Schema:     draft07,
		Title:      "lunex " + strings.ReplaceAll(name, "_", " "),
		Type:       "object",
		Properties: props,
		Required:   required,
	}

	if len(defs) > 0 {
		root.Definitions = defs
	}

	return root
}

// propertiesOf maps the JSON-tagged fields of t. Fields without omitempty
// are required; the jsonschema tag, when present, is the description.
func propertiesOf(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for _, field := range reflect.VisibleFields(t) {
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")

		fieldSchema := typeSchema(field.Type, defs)
		if desc := field.Tag.Get("jsonschema"); desc != "" && fieldSchema.Ref == "" {
			fieldSchema.Description = desc
		}

		props[name] = fieldSchema

		if !slices.Contains(strings.Split(opts, ","), "omitempty") {
			required = append(required, name)
		}
	}

	return props, required
}

func typeSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: typeSchema(t.Elem(), defs)}
	case reflect.Map:
		return &Schema{Type: "object"}
	case reflect.Ptr:
		return typeSchema(t.Elem(), defs)
	case reflect.Struct:
		if t.Name() == "" {
			props, required := propertiesOf(t, defs)

			return &Schema{Type: "object", Properties: props, Required: required}
		}

		if _, ok := defs[t.Name()]; !ok {
			// Reserve the name first so recursive types terminate.
			defs[t.Name()] = &Schema{Type: "object"}
			props, required := propertiesOf(t, defs)
			defs[t.Name()] = &Schema{Type: "object", Properties: props, Required: required}
		}

		return &Schema{Ref: "#/definitions/" + t.Name()}
	default:
		return &Schema{}
	}
}

func writeSchema(dir, name string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	//nolint:gosec // schemas are published documentation.
	return os.WriteFile(filepath.Join(dir, name+".json"), append(data, '\n'), 0o644)
}
