// Package storage provides crash-safe persistence primitives: an atomic
// file writer and a generic JSON document store used by the session layer.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// DocumentStore performs atomic read/write of a JSON document at a fixed
// path. It is deliberately generic: the session manager uses one instance
// for the state file and one for the cross-session globals file.
type DocumentStore struct {
	path string
}

// NewDocumentStore creates a store bound to path.
func NewDocumentStore(path string) *DocumentStore {
	return &DocumentStore{path: path}
}

// Path returns the backing file path.
func (d *DocumentStore) Path() string {
	return d.path
}

// Exists reports whether the backing file is present.
func (d *DocumentStore) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Read unmarshals the document into v. A missing file returns os.ErrNotExist;
// malformed JSON returns the decode error. Numbers are decoded through
// json.Number so integral values survive a round trip as int64.
func (d *DocumentStore) Read(v any) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", d.path, err)
	}
	return nil
}

// Write marshals v and writes it atomically.
func (d *DocumentStore) Write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return AtomicWriteFile(d.path, data, 0644)
}

// NormalizeValue converts decoded JSON values into the canonical in-memory
// representation: json.Number becomes int64 when integral and float64
// otherwise; maps and slices are normalized recursively.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = NormalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// NormalizeVariables applies NormalizeValue to every entry of a variable map.
func NormalizeVariables(vars map[string]any) map[string]any {
	if vars == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = NormalizeValue(v)
	}
	return out
}
