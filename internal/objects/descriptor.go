package objects

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/paths"
)

// descriptor is the on-disk shape of <id>/<id>.json. Callable properties
// appear as {"verb": true, "file": ...} or {"function": true, "file": ...}.
type descriptor struct {
	Name       string                     `json:"name"`
	Aliases    []string                   `json:"aliases"`
	TraitIDs   []string                   `json:"traitIds"`
	LocationID string                     `json:"locationId,omitempty"`
	UserID     string                     `json:"userId,omitempty"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// callableMarker stands in for a callable inside the descriptor.
type callableMarker struct {
	Verb     bool   `json:"verb,omitempty"`
	Function bool   `json:"function,omitempty"`
	File     string `json:"file"`
}

// decodedProperty is a property as read from the descriptor, before
// callables are hydrated from their files.
type decodedProperty struct {
	literal  any
	callable bool
	file     string
}

// errNotObject is returned for descriptors that are valid JSON but not an
// object, such as null or [].
var errNotObject = errors.New("descriptor must be a JSON object")

func decodeDescriptor(data []byte) (*descriptor, map[string]decodedProperty, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil, errNotObject
	}
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, nil, err
	}

	props := make(map[string]decodedProperty, len(d.Properties))
	for key, raw := range d.Properties {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, nil, fmt.Errorf("property %q: %w", key, err)
		}
		if m, ok := v.(map[string]any); ok && (truthy(m["verb"]) || truthy(m["function"])) {
			file, _ := m["file"].(string)
			if file == "" {
				file = paths.DefaultCallableFile(key)
			}
			props[key] = decodedProperty{callable: true, file: file}
			continue
		}
		props[key] = decodedProperty{literal: v}
	}
	return &d, props, nil
}

// truthy follows the loose truthiness descriptors have always been written
// with: true, non-zero numbers and non-empty strings count.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return false
}

// checkProperty rejects values that would not read back as written: literals
// shaped like callable markers, and callables whose file lies outside the
// object directory or is not a code file.
func checkProperty(key string, value model.PropertyValue) error {
	var file string
	switch v := value.(type) {
	case model.Literal:
		data, err := json.Marshal(v.Value)
		if err != nil {
			return model.Validation(fmt.Sprintf("property %q is not JSON: %v", key, err))
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return model.Validation(fmt.Sprintf("property %q is not JSON: %v", key, err))
		}
		if m, ok := decoded.(map[string]any); ok && (truthy(m["verb"]) || truthy(m["function"])) {
			return model.Validation(fmt.Sprintf("literal property %q must not carry a verb or function marker", key))
		}
		return nil
	case *model.Verb:
		if v == nil {
			return model.InvalidCallable(key)
		}
		file = v.File
	case *model.Function:
		if v == nil {
			return model.InvalidCallable(key)
		}
		file = v.File
	}
	if file != "" && !paths.ValidCallableFile(file) {
		return model.Validation(fmt.Sprintf("property %q: invalid file name %q", key, file))
	}
	return nil
}

// encodeDescriptor renders an object's descriptor. markers holds the
// callable properties, already written to their own files.
func encodeDescriptor(obj *model.Object, markers map[string]callableMarker) ([]byte, error) {
	type ordered struct {
		Name       string         `json:"name"`
		Aliases    []string       `json:"aliases"`
		TraitIDs   []string       `json:"traitIds"`
		LocationID string         `json:"locationId,omitempty"`
		UserID     string         `json:"userId,omitempty"`
		Properties map[string]any `json:"properties"`
	}

	out := ordered{
		Name:       obj.Name,
		Aliases:    nonNil(obj.Aliases),
		TraitIDs:   nonNil(obj.TraitIDs),
		LocationID: obj.LocationID,
		UserID:     obj.UserID,
		Properties: make(map[string]any, len(obj.Properties)),
	}
	for key, v := range obj.Properties {
		if m, ok := markers[key]; ok {
			out.Properties[key] = m
			continue
		}
		if lit, ok := v.(model.Literal); ok {
			out.Properties[key] = lit.Value
			continue
		}
		out.Properties[key] = nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
