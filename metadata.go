package flowdex

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import "encoding/json"

// Metadata is an ordered mapping from string keys to structured values,
// carried by a Node. Iteration order is insertion order and is stable
// across reads, as required by the embeddable projection (§3).
type Metadata struct {
	keys   []string
	values map[string]any
}

// NewMetadata creates an empty Metadata.
func NewMetadata() Metadata {
	return Metadata{values: make(map[string]any)}
}

// Set the value for key, appending key to the iteration order if new.
func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get the value for key.
func (m Metadata) Get(key string) (value any, ok bool) {
	value, ok = m.values[key]
	return value, ok
}

// Keys returns the metadata keys in stable insertion order.
func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m Metadata) Len() int { return len(m.keys) }

// Clone returns a deep-enough copy safe to mutate independently; used by
// Chunker implementations so every child Node gets its own Metadata that
// does not alias the parent's (§4.2 "Chunker").
func (m Metadata) Clone() Metadata {
	clone := Metadata{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]any, len(m.values)),
	}
	copy(clone.keys, m.keys)
	for k, v := range m.values {
		clone.values[k] = v
	}
	return clone
}

// metadataEntry is one ordered key/value pair, the wire shape Metadata
// marshals to so a Persister round-trips insertion order exactly (§3
// "Metadata embeddability" depends on stable iteration order surviving a
// store/reload cycle).
type metadataEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// MarshalJSON encodes Metadata as an ordered array of key/value entries.
func (m Metadata) MarshalJSON() ([]byte, error) {
	entries := make([]metadataEntry, len(m.keys))
	for i, k := range m.keys {
		entries[i] = metadataEntry{Key: k, Value: m.values[k]}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes Metadata from the ordered array MarshalJSON writes.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var entries []metadataEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*m = NewMetadata()
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return nil
}
