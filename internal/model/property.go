package model

import "encoding/json"

// PropertyValue is one entry in an object's property bag. It is exactly one
// of Literal, Verb or Function.
type PropertyValue interface {
	isPropertyValue()
}

// Literal is plain structured data with no callable semantics: a string,
// float64, bool, []any, map[string]any or nil, as decoded from JSON.
type Literal struct {
	Value any
}

// Verb is a command handler matched against an invocation pattern.
type Verb struct {
	Pattern string
	DobjArg string
	PrepArg string
	IobjArg string
	Body    string

	// File is the source file name inside the object's directory. Empty
	// means <property>.js.
	File string
}

// Function is a plain code body with no invocation pattern.
type Function struct {
	Body string

	// File is the source file name inside the object's directory. Empty
	// means <property>.js.
	File string
}

func (Literal) isPropertyValue()  {}
func (*Verb) isPropertyValue()     {}
func (*Function) isPropertyValue() {}

// IsCallable reports whether v is a Verb or a Function.
func IsCallable(v PropertyValue) bool {
	switch v.(type) {
	case *Verb, *Function:
		return true
	}
	return false
}

// CallableFile returns the file name a callable is stored under, defaulting
// to <key>.js. The second result is false for non-callable values.
func CallableFile(key string, v PropertyValue) (string, bool) {
	var file string
	switch c := v.(type) {
	case *Verb:
		file = c.File
	case *Function:
		file = c.File
	default:
		return "", false
	}
	if file == "" {
		file = key + ".js"
	}
	return file, true
}

// view is the hydrated, human-facing shape of a property, used for JSON and
// YAML output. It is never written to a descriptor file.
func (l Literal) view() any { return l.Value }

func (v *Verb) view() map[string]any {
	m := map[string]any{
		"verb":    true,
		"pattern": v.Pattern,
		"dobjarg": v.DobjArg,
		"preparg": v.PrepArg,
		"iobjarg": v.IobjArg,
		"body":    v.Body,
	}
	if v.File != "" {
		m["file"] = v.File
	}
	return m
}

func (f *Function) view() map[string]any {
	m := map[string]any{
		"function": true,
		"body":     f.Body,
	}
	if f.File != "" {
		m["file"] = f.File
	}
	return m
}

func (l Literal) MarshalJSON() ([]byte, error)   { return json.Marshal(l.view()) }
func (v *Verb) MarshalJSON() ([]byte, error)     { return json.Marshal(v.view()) }
func (f *Function) MarshalJSON() ([]byte, error) { return json.Marshal(f.view()) }

func (l Literal) MarshalYAML() (any, error)   { return l.view(), nil }
func (v *Verb) MarshalYAML() (any, error)     { return v.view(), nil }
func (f *Function) MarshalYAML() (any, error) { return f.view(), nil }
