package sqlval

import (
	"bytes"
	"fmt"
)

// ArgumentMap is an insertion-ordered mapping from argument name to Value.
//
// Names follow the translated placeholder convention: "arg1".."argN" for
// rewritten positional placeholders, "doc" (or "doc1".."docN") for INSERT
// document payloads. Keys are unique; insertion order follows parameter
// consumption order so that output is deterministic for testing.
type ArgumentMap struct {
	names  []string
	values map[string]Value
}

// NewArgumentMap creates an empty ArgumentMap.
func NewArgumentMap() *ArgumentMap {
	return &ArgumentMap{values: make(map[string]Value)}
}

// Set binds name to v. Re-binding an existing name overwrites the value
// but keeps the original position.
func (m *ArgumentMap) Set(name string, v Value) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = v
}

// Get returns the value bound to name.
func (m *ArgumentMap) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Names returns the argument names in insertion order.
// The returned slice must not be modified.
func (m *ArgumentMap) Names() []string {
	return m.names
}

// Len returns the number of bound arguments.
func (m *ArgumentMap) Len() int {
	return len(m.names)
}

// MarshalJSON implements json.Marshaler, preserving insertion order.
func (m *ArgumentMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", name, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalCanonical(m.values[name])
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", name, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the map for diagnostics and text-mode CLI output.
func (m *ArgumentMap) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(GoString(m.values[name]))
	}
	buf.WriteByte('}')
	return buf.String()
}
