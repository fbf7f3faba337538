package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Ordered is a string-keyed map that remembers insertion order. Iteration and
// JSON encoding follow that order, so serialised history is reproducible.
// The zero value is empty and ready to use.
type Ordered[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

// Change holds the before and after value of one attribute. A nil side means
// the value was absent (before a create, after a destroy) or null.
type Change struct {
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

// Changes maps attribute names to their change, in trackable order.
type Changes = Ordered[Change]

// Attributes is an ordered attribute snapshot of a related entity.
type Attributes = Ordered[interface{}]

// NewOrdered returns an empty ordered map.
func NewOrdered[V any]() *Ordered[V] {
	return &Ordered[V]{m: orderedmap.NewOrderedMap[string, V]()}
}

// Set stores value under key. Existing keys keep their position.
func (o *Ordered[V]) Set(key string, value V) {
	if o.m == nil {
		o.m = orderedmap.NewOrderedMap[string, V]()
	}
	o.m.Set(key, value)
}

// Get returns the value stored under key.
func (o *Ordered[V]) Get(key string) (V, bool) {
	if o == nil || o.m == nil {
		var zero V
		return zero, false
	}
	return o.m.Get(key)
}

// Len returns the number of keys.
func (o *Ordered[V]) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the keys in insertion order.
func (o *Ordered[V]) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for each entry in order until fn returns false.
func (o *Ordered[V]) Range(fn func(key string, value V) bool) {
	if o == nil || o.m == nil {
		return
	}
	for el := o.m.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, el.Value) {
			return
		}
	}
}

// Map copies the entries into a plain map.
func (o *Ordered[V]) Map() map[string]V {
	out := make(map[string]V, o.Len())
	o.Range(func(key string, value V) bool {
		out[key] = value
		return true
	})
	return out
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (o *Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	var encodeErr error
	o.Range(func(key string, value V) bool {
		k, err := json.Marshal(key)
		if err != nil {
			encodeErr = err
			return false
		}
		v, err := json.Marshal(value)
		if err != nil {
			encodeErr = fmt.Errorf("encoding %q: %w", key, err)
			return false
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	o.m = orderedmap.NewOrderedMap[string, V]()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ordered map: expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key, got %v", tok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("ordered map: decoding %q: %w", key, err)
		}
		o.m.Set(key, value)
	}

	// closing brace
	_, err = dec.Token()
	return err
}
