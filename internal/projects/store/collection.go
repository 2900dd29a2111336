package store

import (
	"encoding/json"
	"sort"

	"github.com/xiaq/persistent/hash"
	"github.com/xiaq/persistent/hashmap"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

// Collection maps project keys to projects. It is a persistent value: every
// modifying method returns a new Collection sharing structure with the old
// one, and methods that change nothing return the receiver itself.
type Collection struct {
	m hashmap.Map
}

var emptyMap = hashmap.New(keyEqual, keyHash)

func keyEqual(a, b interface{}) bool { return a.(string) == b.(string) }

func keyHash(k interface{}) uint32 { return hash.String(k.(string)) }

// NewCollection returns a collection holding projects, later entries
// overwriting earlier ones with the same key.
func NewCollection(projects ...domain.Project) Collection {
	c := Collection{m: emptyMap}
	for _, p := range projects {
		c = c.Set(p)
	}
	return c
}

func (c Collection) hm() hashmap.Map {
	if c.m == nil {
		return emptyMap
	}
	return c.m
}

func (c Collection) Len() int { return c.hm().Len() }

func (c Collection) Get(projectKey string) (domain.Project, bool) {
	v, ok := c.hm().Index(projectKey)
	if !ok {
		return domain.Project{}, false
	}
	return v.(domain.Project), true
}

func (c Collection) Has(projectKey string) bool {
	_, ok := c.hm().Index(projectKey)
	return ok
}

// Set inserts or overwrites the entry at p.ProjectKey.
func (c Collection) Set(p domain.Project) Collection {
	return Collection{m: c.hm().Assoc(p.ProjectKey, p)}
}

func (c Collection) Delete(projectKey string) Collection {
	if !c.Has(projectKey) {
		return c
	}
	return Collection{m: c.hm().Dissoc(projectKey)}
}

// Update replaces the project at projectKey with fn's result. A missing key
// leaves the collection untouched.
func (c Collection) Update(projectKey string, fn func(domain.Project) domain.Project) Collection {
	p, ok := c.Get(projectKey)
	if !ok {
		return c
	}
	return c.Set(fn(p))
}

// Filter keeps the entries for which keep returns true.
func (c Collection) Filter(keep func(domain.Project) bool) Collection {
	out := c
	for it := c.hm().Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		if !keep(v.(domain.Project)) {
			out = Collection{m: out.hm().Dissoc(k)}
		}
	}
	return out
}

// Same reports whether c and o are the same value, not merely equal ones.
func (c Collection) Same(o Collection) bool {
	return c.hm() == o.hm()
}

// Keys returns the project keys in sorted order.
func (c Collection) Keys() []string {
	keys := make([]string, 0, c.Len())
	for it := c.hm().Iterator(); it.HasElem(); it.Next() {
		k, _ := it.Elem()
		keys = append(keys, k.(string))
	}
	sort.Strings(keys)
	return keys
}

// Projects returns every project ordered by key.
func (c Collection) Projects() []domain.Project {
	keys := c.Keys()
	out := make([]domain.Project, 0, len(keys))
	for _, k := range keys {
		p, _ := c.Get(k)
		out = append(out, p)
	}
	return out
}

// Equal reports whether both collections hold equal projects under the same
// keys.
func (c Collection) Equal(o Collection) bool {
	if c.Same(o) {
		return true
	}
	if c.Len() != o.Len() {
		return false
	}
	for it := c.hm().Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		other, ok := o.Get(k.(string))
		if !ok || !projectsEqual(v.(domain.Project), other) {
			return false
		}
	}
	return true
}

func projectsEqual(a, b domain.Project) bool {
	if (a.UpdatedAt == nil) != (b.UpdatedAt == nil) {
		return false
	}
	if a.UpdatedAt != nil && *a.UpdatedAt != *b.UpdatedAt {
		return false
	}
	return a.ProjectKey == b.ProjectKey &&
		a.Sources == b.Sources &&
		a.Instructions == b.Instructions &&
		a.EnabledLibraries.Equal(b.EnabledLibraries) &&
		a.HiddenUIComponents.Equal(b.HiddenUIComponents) &&
		a.ExternalLocations == b.ExternalLocations &&
		a.IsArchived == b.IsArchived
}

func (c Collection) MarshalJSON() ([]byte, error) {
	out := make(map[string]domain.Project, c.Len())
	for it := c.hm().Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		out[k.(string)] = v.(domain.Project)
	}
	return json.Marshal(out)
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	var in map[string]domain.Project
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := NewCollection()
	for k, p := range in {
		p.ProjectKey = k
		out = out.Set(p)
	}
	*c = out
	return nil
}

// Diff lists the keys whose entries were added or changed going from prev
// to next, and the keys that were removed. Both lists are sorted.
func Diff(prev, next Collection) (changed, removed []string) {
	if prev.Same(next) {
		return nil, nil
	}
	for _, k := range next.Keys() {
		p, ok := prev.Get(k)
		if n, _ := next.Get(k); !ok || !projectsEqual(p, n) {
			changed = append(changed, k)
		}
	}
	for _, k := range prev.Keys() {
		if !next.Has(k) {
			removed = append(removed, k)
		}
	}
	return changed, removed
}
