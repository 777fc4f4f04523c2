// Package parse decodes model-produced tool arguments leniently, using
// jsonrepair when the model's JSON is malformed.
package parse
