// Package jsonschema derives tool parameter schemas from Go structs with
// reflection. [Generate] is the entry point.
package jsonschema
