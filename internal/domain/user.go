package domain

import (
	"encoding/json"
	"slices"
)

type User struct {
	ID        int64           `json:"id"`
	Favorites Favorites       `json:"favorites"`
	Raw       json.RawMessage `json:"raw,omitempty"` // full backend payload, replayed on write-back
}

// Favorites is an ordered set of hotel ids.
type Favorites []int64

func (f Favorites) Has(id int64) bool { return slices.Contains(f, id) }

// Add appends id unless already present. The bool reports a change.
func (f Favorites) Add(id int64) (Favorites, bool) {
	if f.Has(id) {
		return f, false
	}
	return append(f, id), true
}

// Remove drops every occurrence of id. The bool reports a change.
func (f Favorites) Remove(id int64) (Favorites, bool) {
	out := make(Favorites, 0, len(f))
	for _, v := range f {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(f)
}
