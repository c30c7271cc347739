package entity

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roach88/songmeta/internal/meta"
)

// Abstract roots present in every Registry.
const (
	BaseEntity              = "BaseEntity"
	SinglePkEntity          = "SinglePkEntity"
	DependentEntity         = "DependentEntity"
	DependentRowEntity      = "DependentRowEntity"
	ExtensionEntity         = "ExtensionEntity"
	BinaryAssociationEntity = "BinaryAssociationEntity"
)

// Registry holds declared entity types by name.
// Declare is meant for program initialization; lookups are safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*Type
	order  []*Type
	logger zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry returns a registry seeded with the abstract roots.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:  make(map[string]*Type),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.MustDeclare(Declaration{Name: BaseEntity, Baseline: true})
	for _, root := range []struct {
		name  string
		shape Shape
	}{
		{SinglePkEntity, ShapeSingleKey},
		{DependentEntity, ShapeDependent},
		{DependentRowEntity, ShapeDependentRow},
		{ExtensionEntity, ShapeExtension},
		{BinaryAssociationEntity, ShapeAssociation},
	} {
		r.MustDeclare(Declaration{Name: root.name, Extends: BaseEntity, Shape: root.shape})
	}
	return r
}

// Declare validates d and registers the resulting type.
// On failure the returned error joins every *DeclarationError found and
// nothing is registered.
func (r *Registry) Declare(d Declaration) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, errs := r.build(d)
	if len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		err := errors.Join(joined...)
		r.logger.Debug().Str("type", d.Name).Int("errors", len(errs)).Msg("declaration rejected")
		return nil, err
	}

	r.types[t.name] = t
	r.order = append(r.order, t)
	r.logger.Debug().
		Str("type", t.name).
		Str("shape", t.shape.String()).
		Bool("concrete", t.concrete).
		Str("table", t.tableName).
		Msg("entity type declared")
	return t, nil
}

// MustDeclare is Declare for static declarations; it panics on error.
func (r *Registry) MustDeclare(d Declaration) *Type {
	t, err := r.Declare(d)
	if err != nil {
		panic(fmt.Sprintf("declare %s: %v", d.Name, err))
	}
	return t
}

// build validates d against the registry. The caller holds r.mu.
func (r *Registry) build(d Declaration) (*Type, []*DeclarationError) {
	v := &validator{name: d.Name}

	// E201: name is an identifier and not yet taken
	if v.identifier(ErrCodeDuplicateType, "", "entity name", d.Name) {
		if _, dup := r.types[d.Name]; dup {
			v.add(ErrCodeDuplicateType, "", "entity type %q already declared", d.Name)
		}
	}

	// E207: parent must exist
	var parent *Type
	if d.Extends != "" {
		p, ok := r.types[d.Extends]
		if !ok {
			v.add(ErrCodeUnknownParent, "extends", "parent type %q is not declared", d.Extends)
			return nil, v.errs
		}
		parent = p
	}

	v.validateAttrs(d)

	// E210: a frozen set comes from this declaration or the lineage
	frozen := r.frozenSet(d, parent)
	if frozen == nil {
		v.add(ErrCodeStructural, AttrFrozenAttrs, "no baseline frozen set on the lineage; declare Baseline or extend a registered type")
	}

	// E208: re-asserted shapes may only refine
	shape := d.Shape
	if parent != nil {
		if shape == ShapeNone {
			shape = parent.shape
		} else if !shape.refines(parent.shape) {
			v.add(ErrCodeShapeConflict, "shape", "%s does not refine parent shape %s", shape, parent.shape)
		}
	}

	if v.validateIncomplete(d) {
		return nil, v.errs
	}

	t := &Type{
		name:   d.Name,
		parent: parent,
		shape:  shape,
		frozen: frozen,
		attrs:  maps.Clone(d.Attrs),
	}
	if t.attrs == nil {
		t.attrs = make(map[string]meta.Value)
	}

	if d.TableName != nil {
		v.validateMetadata(d)
		t.concrete = true
		t.hasMeta = true
		t.tableName = *d.TableName
		t.table = *d.Table
		t.pk = *d.PrimaryKey
		t.fks = *d.ForeignKeys
		t.slots = t.table.Names()
	} else if parent != nil && parent.hasMeta {
		// Abstract subtype: metadata readable, never instantiable.
		t.hasMeta = true
		t.tableName = parent.tableName
		t.table = parent.table
		t.pk = parent.pk
		t.fks = parent.fks
		t.slots = parent.Slots()
	}

	if len(v.errs) > 0 {
		return nil, v.errs
	}

	// E209: the shape law for concrete declarations
	if t.concrete {
		if errs := checkShape(t); len(errs) > 0 {
			return nil, errs
		}
	}
	return t, nil
}

// frozenSet resolves the frozen attribute names for d, or nil when neither d
// nor any ancestor provides a baseline.
func (r *Registry) frozenSet(d Declaration, parent *Type) map[string]struct{} {
	var base map[string]struct{}
	switch {
	case d.Baseline:
		base = make(map[string]struct{}, len(metadataAttrs)+2)
		for _, name := range metadataAttrs {
			base[name] = struct{}{}
		}
		base[AttrFrozenAttrs] = struct{}{}
		base[AttrSlotSource] = struct{}{}
	case parent != nil && parent.frozen != nil:
		base = maps.Clone(parent.frozen)
	default:
		return nil
	}
	for _, name := range d.ExtraFrozen {
		base[name] = struct{}{}
	}
	return base
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns every registered type in declaration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Concrete returns the concrete types in declaration order.
func (r *Registry) Concrete() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Type
	for _, t := range r.order {
		if t.concrete {
			out = append(out, t)
		}
	}
	return out
}

// ByTable returns the first concrete type declared for table.
func (r *Registry) ByTable(table string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.order {
		if t.concrete && t.tableName == table {
			return t, true
		}
	}
	return nil, false
}
