// Package schema holds entity metadata and resolves dotted attribute paths.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// Attribute is one field of an entity.
type Attribute struct {
	Name   string
	Column string       // defaults to mapping.ColumnName(Name)
	Kind   mapping.Kind // KindEntity for references
	Ref    string       // referenced entity name when Kind == KindEntity

	// JoinColumn and RefColumn link a reference in relational stores:
	// owner.JoinColumn = referenced.RefColumn. They default to <column>_id
	// and id.
	JoinColumn string
	RefColumn  string
}

// Entity describes a filterable entity type.
type Entity struct {
	Name       string
	Table      string // table / collection / key prefix; defaults to mapping.TableName(Name)
	Attributes map[string]Attribute
}

// NewEntity creates an entity with the default table name.
func NewEntity(name string) *Entity {
	return &Entity{
		Name:       name,
		Table:      mapping.TableName(name),
		Attributes: make(map[string]Attribute),
	}
}

// Attr adds a scalar attribute and returns e for chaining.
func (e *Entity) Attr(name string, kind mapping.Kind) *Entity {
	e.Attributes[name] = Attribute{Name: name, Column: mapping.ColumnName(name), Kind: kind}
	return e
}

// Ref adds a reference to another entity.
func (e *Entity) Ref(name, entity string) *Entity {
	col := mapping.ColumnName(name)
	e.Attributes[name] = Attribute{
		Name:       name,
		Column:     col,
		Kind:       mapping.KindEntity,
		Ref:        entity,
		JoinColumn: col + "_id",
		RefColumn:  "id",
	}
	return e
}

// WithTable overrides the table name.
func (e *Entity) WithTable(table string) *Entity {
	e.Table = table
	return e
}

// AttributeNames returns scalar attribute names sorted.
func (e *Entity) AttributeNames() []string {
	names := make([]string, 0, len(e.Attributes))
	for name, a := range e.Attributes {
		if a.Kind != mapping.KindEntity {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// REGISTRY
// ============================================================================

// Registry is the attribute-path resolver over a set of entities.
// Safe for concurrent use; entities must not be mutated after Register.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRegistry creates a registry holding entities.
func NewRegistry(entities ...*Entity) *Registry {
	r := &Registry{entities: make(map[string]*Entity)}
	for _, e := range entities {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an entity.
func (r *Registry) Register(e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[e.Name] = e
}

// Entity looks up an entity by name.
func (r *Registry) Entity(name string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity: %s", name)
	}
	return e, nil
}

// Names returns registered entity names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAttributeType walks path one segment at a time from entity and
// returns the kind of the final attribute.
func (r *Registry) ResolveAttributeType(entity, path string) (mapping.Kind, error) {
	attr, err := r.ResolveAttribute(entity, path)
	if err != nil {
		return mapping.KindUnknown, err
	}
	return attr.Kind, nil
}

// ResolveAttribute is ResolveAttributeType returning the whole attribute.
func (r *Registry) ResolveAttribute(entity, path string) (Attribute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.entities[entity]
	if !ok {
		return Attribute{}, &models.FilterError{Err: models.ErrUnknownAttributePath, Path: path, Segment: entity}
	}

	segments := strings.Split(path, ".")
	for i, seg := range segments {
		attr, ok := current.Attributes[seg]
		if !ok || seg == "" {
			return Attribute{}, &models.FilterError{Err: models.ErrUnknownAttributePath, Path: path, Segment: seg}
		}
		if i == len(segments)-1 {
			return attr, nil
		}
		if attr.Kind != mapping.KindEntity {
			// scalar attribute in the middle of a path
			return Attribute{}, &models.FilterError{Err: models.ErrUnknownAttributePath, Path: path, Segment: segments[i+1]}
		}
		next, ok := r.entities[attr.Ref]
		if !ok {
			return Attribute{}, &models.FilterError{Err: models.ErrUnknownAttributePath, Path: path, Segment: attr.Ref}
		}
		current = next
	}
	return Attribute{}, &models.FilterError{Err: models.ErrUnknownAttributePath, Path: path}
}

// Hop is one reference step of an attribute path.
type Hop struct {
	Alias      string // column segments of the path so far joined by "__": user, user__manager
	Parent     string // alias of the owning side, "" for the root entity
	Table      string // referenced table
	JoinColumn string
	RefColumn  string
}

// Hops returns the reference steps of path, root first, and the column of
// its final attribute. A single-segment path has no hops.
func (r *Registry) Hops(entity, path string) ([]Hop, string, error) {
	if _, err := r.ResolveAttribute(entity, path); err != nil {
		return nil, "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := r.entities[entity]
	segments := strings.Split(path, ".")
	hops := make([]Hop, 0, len(segments)-1)
	parent := ""
	for _, seg := range segments[:len(segments)-1] {
		attr := current.Attributes[seg]
		current = r.entities[attr.Ref]
		alias := attr.Column
		if parent != "" {
			alias = parent + "__" + attr.Column
		}
		hops = append(hops, Hop{
			Alias:      alias,
			Parent:     parent,
			Table:      current.Table,
			JoinColumn: attr.JoinColumn,
			RefColumn:  attr.RefColumn,
		})
		parent = alias
	}
	return hops, current.Attributes[segments[len(segments)-1]].Column, nil
}
