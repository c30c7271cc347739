package entity

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/roach88/songmeta/internal/ident"
	"github.com/roach88/songmeta/internal/meta"
)

// Names of the frozen metadata pieces and bookkeeping attributes.
const (
	AttrTableName   = "table_name"
	AttrTableMeta   = "table_meta"
	AttrPrimaryKey  = "primary_key"
	AttrForeignKeys = "foreign_keys"
	AttrFrozenAttrs = "frozen_attrs"
	AttrSlotSource  = "slot_source"
	AttrIsConcrete  = "is_concrete"
)

// metadataAttrs are the four all-or-nothing pieces, in declaration order.
var metadataAttrs = []string{AttrTableName, AttrTableMeta, AttrPrimaryKey, AttrForeignKeys}

// reservedAttrs may never be declared as free-form attributes.
var reservedAttrs = []string{
	AttrTableName, AttrTableMeta, AttrPrimaryKey, AttrForeignKeys,
	AttrFrozenAttrs, AttrSlotSource, AttrIsConcrete,
}

// Type is a registered entity type. The metadata fields are set once by
// Registry.Declare and never written again.
type Type struct {
	name     string
	parent   *Type
	shape    Shape
	concrete bool
	hasMeta  bool // metadata is available, declared here or inherited

	tableName string
	table     meta.TableMeta
	pk        meta.PrimaryKey
	fks       meta.ForeignKeys

	frozen map[string]struct{}
	slots  []string

	mu    sync.RWMutex
	attrs map[string]meta.Value
}

// Name returns the entity type name.
func (t *Type) Name() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// Parent returns the type this one extends, or nil for a root.
func (t *Type) Parent() *Type { return t.parent }

// Shape returns the effective taxonomy shape.
func (t *Type) Shape() Shape { return t.shape }

// Concrete reports whether the type declared all four metadata pieces.
func (t *Type) Concrete() bool { return t.concrete }

// HasMetadata reports whether metadata is readable on t, either declared by t
// or inherited from an ancestor.
func (t *Type) HasMetadata() bool { return t.hasMeta }

// TableName returns the table name, or "" when no metadata is available.
func (t *Type) TableName() string { return t.tableName }

// Table returns the column metadata.
func (t *Type) Table() meta.TableMeta { return t.table }

// PrimaryKey returns the primary key columns.
func (t *Type) PrimaryKey() meta.PrimaryKey { return t.pk }

// ForeignKeys returns the foreign-key relationships.
func (t *Type) ForeignKeys() meta.ForeignKeys { return t.fks }

// Slots returns the column names backing instance storage.
func (t *Type) Slots() []string { return slices.Clone(t.slots) }

// Frozen returns the sorted frozen attribute names.
func (t *Type) Frozen() []string {
	out := make([]string, 0, len(t.frozen))
	for name := range t.frozen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsFrozen reports whether name can no longer be reassigned or deleted.
func (t *Type) IsFrozen(name string) bool {
	if name == AttrIsConcrete {
		return true
	}
	_, ok := t.frozen[name]
	return ok
}

// Attr looks up a free-form attribute on t, then on its ancestors.
func (t *Type) Attr(name string) (meta.Value, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.attrs[name]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// SetAttr assigns a free-form attribute on t.
func (t *Type) SetAttr(name string, v meta.Value) error {
	if t.IsFrozen(name) {
		return fmt.Errorf("%s: set %q: %w", t.name, name, ErrFrozenAttribute)
	}
	if err := ident.Check(name).Err("attribute", name); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	if meta.IsUnset(v) {
		v = meta.Unset
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attrs == nil {
		t.attrs = make(map[string]meta.Value)
	}
	t.attrs[name] = v
	return nil
}

// DeleteAttr removes a free-form attribute declared on t itself.
func (t *Type) DeleteAttr(name string) error {
	if t.IsFrozen(name) {
		return fmt.Errorf("%s: delete %q: %w", t.name, name, ErrFrozenAttribute)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.attrs[name]; !ok {
		return fmt.Errorf("%s: delete %q: %w", t.name, name, ErrUnknownAttribute)
	}
	delete(t.attrs, name)
	return nil
}

// requireMetadata fails for types with nothing to operate on.
func (t *Type) requireMetadata() error {
	if !t.hasMeta {
		return fmt.Errorf("%s: %w", t.name, ErrAbstractType)
	}
	return nil
}

// requireConcrete fails unless t may back instances.
func (t *Type) requireConcrete() error {
	if !t.concrete {
		return fmt.Errorf("%s: %w", t.name, ErrAbstractType)
	}
	return nil
}

// PKName returns the sole primary-key column of a single-key type.
func (t *Type) PKName() (string, error) {
	if t.shape != ShapeSingleKey {
		return "", fmt.Errorf("%s: PKName on %s: %w", t.name, t.shape, ErrWrongShape)
	}
	if err := t.requireMetadata(); err != nil {
		return "", err
	}
	return t.pk.Names()[0], nil
}

// RefMapping returns the single relationship of a dependent type.
func (t *Type) RefMapping() (meta.RefMapping, error) {
	if !t.shape.dependent() {
		return meta.RefMapping{}, fmt.Errorf("%s: RefMapping on %s: %w", t.name, t.shape, ErrWrongShape)
	}
	if err := t.requireMetadata(); err != nil {
		return meta.RefMapping{}, err
	}
	return t.fks.Relations()[0].Mapping, nil
}

// ParentTable returns the referenced table of a dependent type.
func (t *Type) ParentTable() (string, error) {
	if !t.shape.dependent() {
		return "", fmt.Errorf("%s: ParentTable on %s: %w", t.name, t.shape, ErrWrongShape)
	}
	if err := t.requireMetadata(); err != nil {
		return "", err
	}
	return t.fks.Relations()[0].Table, nil
}

// FKColumn returns the local column holding refTable.refColumn.
func (t *Type) FKColumn(refTable, refColumn string) (string, error) {
	if err := t.requireMetadata(); err != nil {
		return "", err
	}
	m, ok := t.fks.Mapping(refTable)
	if !ok {
		return "", fmt.Errorf("%s: table %q: %w", t.name, refTable, ErrNoRelationship)
	}
	local, ok := m.Local(refColumn)
	if !ok {
		return "", fmt.Errorf("%s: column %s.%s: %w", t.name, refTable, refColumn, ErrNoRelationship)
	}
	return local, nil
}

// FKColumnToSingleKey returns the local column referencing parent's key.
func (t *Type) FKColumnToSingleKey(parent *Type) (string, error) {
	if parent == nil {
		return "", fmt.Errorf("%s: nil parent type: %w", t.name, ErrNoRelationship)
	}
	pkName, err := parent.PKName()
	if err != nil {
		return "", err
	}
	return t.FKColumn(parent.tableName, pkName)
}

// String returns "Name(shape)".
func (t *Type) String() string {
	return fmt.Sprintf("%s(%s)", t.name, t.shape)
}
