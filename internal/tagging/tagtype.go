package tagging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// ErrTagTypeNotFound is returned when a tag type id is outside the registry.
var ErrTagTypeNotFound = errors.New("tag type not found")

// TagType is an entity type such as PER or LOC.
type TagType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Start is the tag string marking the first token of an entity.
func (t TagType) Start() string {
	return "B-" + t.Name
}

// Inside is the tag string marking a continuation token of an entity.
func (t TagType) Inside() string {
	return "I-" + t.Name
}

// Registry is the ordered set of configured tag types. Ids are dense,
// starting at 1, and double as the keyboard shortcut digit.
type Registry struct {
	types  []TagType
	byName map[string]TagType
}

// NewRegistry builds a registry from tag names in shortcut order.
func NewRegistry(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one tag type is required")
	}
	r := &Registry{byName: make(map[string]TagType, len(names))}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("tag type %d has an empty name", i+1)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate tag type %q", name)
		}
		t := TagType{ID: i + 1, Name: name}
		r.types = append(r.types, t)
		r.byName[name] = t
	}
	return r, nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.types)
}

// Types returns the registered types in id order.
func (r *Registry) Types() []TagType {
	out := make([]TagType, len(r.types))
	copy(out, r.types)
	return out
}

// IsTagType reports whether s is a decimal id of a registered type.
func (r *Registry) IsTagType(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return id >= 1 && id <= len(r.types)
}

// Get returns the type with the given id.
func (r *Registry) Get(id int) (TagType, error) {
	if id < 1 || id > len(r.types) {
		return TagType{}, fmt.Errorf("%w: %d", ErrTagTypeNotFound, id)
	}
	return r.types[id-1], nil
}

// Start returns the default selection, the type with id 1.
func (r *Registry) Start() TagType {
	return r.types[0]
}

// Resolve maps a tag string like "B-PER" to its type. The empty tag and
// "O" resolve to nothing, as does a name missing from the registry.
func (r *Registry) Resolve(tag string) (TagType, bool) {
	if tag == "" || tag == grid.Outside || len(tag) < 2 {
		return TagType{}, false
	}
	t, ok := r.byName[tag[2:]]
	return t, ok
}
