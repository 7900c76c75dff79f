package filter

import (
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// URLKey is the query parameter holding filter selections. Each selection is
// one "<categoryKey>:<value>" entry; the key repeats for multiple values.
const URLKey = "filters"

// StorageKey is the default storage key for persisted filter values.
const StorageKey = "filters"

// State holds the selected filter values of one table.
type State struct {
	keys  []string
	value *persist.Value[types.FilterValues]
}

// NewState builds filter state for the declared category keys. URL
// serialization and the storage key are filled in when opts leaves them
// empty.
func NewState(keys []string, opts persist.Options[types.FilterValues]) (*State, error) {
	if opts.Default == nil {
		opts.Default = types.FilterValues{}
	}
	if opts.Key == "" {
		opts.Key = StorageKey
	}
	if len(opts.URLKeys) == 0 {
		opts.URLKeys = []string{URLKey}
	}
	if opts.Serialize == nil {
		opts.Serialize = SerializeValues
	}
	if opts.Deserialize == nil {
		opts.Deserialize = DeserializeValues
	}
	value, err := persist.New(opts)
	if err != nil {
		return nil, err
	}
	return &State{keys: slices.Clone(keys), value: value}, nil
}

// Values returns a copy of the active selections for declared categories.
func (s *State) Values() types.FilterValues {
	out := types.FilterValues{}
	for key, values := range s.value.Get() {
		if len(values) == 0 || !slices.Contains(s.keys, key) {
			continue
		}
		out[key] = slices.Clone(values)
	}
	return out
}

// SetValues replaces all selections.
func (s *State) SetValues(values types.FilterValues) {
	s.value.Set(values.Clone())
}

// SetCategoryValues replaces the selections of one category. An empty slice
// clears the category.
func (s *State) SetCategoryValues(key string, values []string) {
	next := s.Values()
	if len(values) == 0 {
		delete(next, key)
	} else {
		next[key] = slices.Clone(values)
	}
	s.SetValues(next)
}

// ClearAll removes every selection.
func (s *State) ClearAll() {
	s.SetValues(types.FilterValues{})
}

// HasActive reports whether any declared category has a selection.
func (s *State) HasActive() bool {
	return len(s.Values()) > 0
}

// SerializeValues encodes selections for the URL. Categories are written in
// key order and values in selection order.
func SerializeValues(values types.FilterValues) url.Values {
	out := url.Values{}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		for _, v := range values[key] {
			out.Add(URLKey, key+":"+v)
		}
	}
	return out
}

// DeserializeValues decodes selections written by SerializeValues. Entries
// without a category separator are skipped.
func DeserializeValues(q url.Values) types.FilterValues {
	out := types.FilterValues{}
	for _, entry := range q[URLKey] {
		key, v, ok := strings.Cut(entry, ":")
		if !ok || key == "" {
			continue
		}
		out[key] = append(out[key], v)
	}
	return out
}
