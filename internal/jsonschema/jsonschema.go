package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema that model backends accept for tool
// parameters.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	Default              any                `json:"default,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
}

// Generate derives a schema for T from its exported fields, json tags and
// jsonschema tags. Struct fields that refer back to an enclosing struct are
// rendered as a plain object.
//
// Supported jsonschema tag keys: description=..., enum=... (repeatable),
// minimum=..., maximum=..., default=..., required.
func Generate[T any]() (*Schema, error) {
	g := &generator{inProgress: map[reflect.Type]bool{}}
	return g.schemaFor(reflect.TypeFor[T]())
}

type generator struct {
	inProgress map[reflect.Type]bool
}

func (g *generator) schemaFor(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Slice, reflect.Array:
		items, err := g.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		values, err := g.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Struct:
		return g.structSchema(t)
	default:
		return &Schema{Type: "object"}, nil
	}
}

func (g *generator) structSchema(t reflect.Type) (*Schema, error) {
	if g.inProgress[t] {
		return &Schema{Type: "object"}, nil
	}
	g.inProgress[t] = true
	defer delete(g.inProgress, t)

	s := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		fs, err := g.schemaFor(field.Type)
		if err != nil {
			return nil, err
		}
		forced, err := applyTag(field.Type, field.Tag.Get("jsonschema"), fs)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		s.Properties[name] = fs

		if forced || (!omitEmpty && field.Type.Kind() != reflect.Pointer) {
			s.Required = append(s.Required, name)
		}
	}
	return s, nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty") || strings.Contains(opts, "omitzero"), false
}

// applyTag reports whether the tag marks the field as required.
func applyTag(t reflect.Type, tag string, s *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	required := false
	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(strings.TrimSpace(item), "=")
		if !hasValue {
			if key == "required" {
				required = true
			}
			continue
		}
		switch key {
		case "description":
			s.Description = value
		case "enum":
			v, err := convert(t, value)
			if err != nil {
				return false, fmt.Errorf("enum %q: %w", value, err)
			}
			s.Enum = append(s.Enum, v)
		case "default":
			v, err := convert(t, value)
			if err != nil {
				return false, fmt.Errorf("default %q: %w", value, err)
			}
			s.Default = v
		case "minimum", "maximum":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return false, fmt.Errorf("%s %q: %w", key, value, err)
			}
			if key == "minimum" {
				s.Minimum = &f
			} else {
				s.Maximum = &f
			}
		}
	}
	return required, nil
}

func convert(t reflect.Type, value string) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Bool:
		return strconv.ParseBool(value)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(value, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(value, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(value, 10, 64)
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

// Map returns the schema as a generic JSON object, the shape SDK clients
// expect for function parameters.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}

// String returns the compact JSON form.
func (s *Schema) String() string {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(raw)
}
