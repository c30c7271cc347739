package entity

import (
	"fmt"
	"sort"

	"github.com/roach88/songmeta/internal/meta"
)

// Instance is a sparse set of column values for one concrete Type.
// An omitted column is unset and is left out of every write.
// Instances are not safe for concurrent mutation.
type Instance struct {
	typ  *Type
	vals map[string]meta.Value
}

// New builds an instance of t from fields. Unset and nil values are dropped;
// every remaining value must be a known, well-typed column, and every
// primary-key column must be present.
func New(t *Type, fields meta.Fields) (*Instance, error) {
	if t == nil {
		return nil, fmt.Errorf("new instance: %w", ErrAbstractType)
	}
	if err := t.requireConcrete(); err != nil {
		return nil, err
	}

	inst := &Instance{typ: t, vals: make(map[string]meta.Value, len(fields))}
	present := fields.Present()
	names := make([]string, 0, len(present))
	for name := range present {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := inst.Set(name, present[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range t.pk.Names() {
		if _, ok := inst.vals[name]; !ok {
			return nil, fieldErr(ErrMissingRequiredField, t, name, "primary key column is required")
		}
	}
	return inst, nil
}

// MustNew is New for values known to be valid; it panics on error.
func MustNew(t *Type, fields meta.Fields) *Instance {
	inst, err := New(t, fields)
	if err != nil {
		panic(err)
	}
	return inst
}

// Type returns the instance's entity type.
func (i *Instance) Type() *Type { return i.typ }

// Get returns the current value of a column: Null for a stored NULL, Unset
// for an omitted non-key column.
func (i *Instance) Get(name string) (meta.Value, error) {
	fm, ok := i.typ.table.Field(name)
	if !ok {
		return nil, fieldErr(ErrUnknownField, i.typ, name, "not a column of %s", i.typ.tableName)
	}
	v, set := i.vals[name]
	if !set {
		if i.typ.pk.Contains(name) {
			return nil, fieldErr(ErrMissingRequiredField, i.typ, name, "primary key column is unset")
		}
		return meta.Unset, nil
	}
	if !fm.Accepts(v) {
		return nil, fieldErr(ErrTypeMismatch, i.typ, name, "stored %s, want %s", meta.TypeName(v), fm.Allowed())
	}
	return v, nil
}

// Set stores a column value. Unset clears a non-key column.
func (i *Instance) Set(name string, v meta.Value) error {
	fm, ok := i.typ.table.Field(name)
	if !ok {
		return fieldErr(ErrUnknownField, i.typ, name, "not a column of %s", i.typ.tableName)
	}
	if meta.IsUnset(v) {
		if i.typ.pk.Contains(name) {
			return fieldErr(ErrPrimaryKeyUnset, i.typ, name, "")
		}
		delete(i.vals, name)
		return nil
	}
	if !fm.Accepts(v) {
		return fieldErr(ErrTypeMismatch, i.typ, name, "got %s, want %s", meta.TypeName(v), fm.Allowed())
	}
	i.vals[name] = v
	return nil
}

// Fields returns a copy of the present values.
func (i *Instance) Fields() meta.Fields {
	out := make(meta.Fields, len(i.vals))
	for k, v := range i.vals {
		out[k] = v
	}
	return out
}

// PKValues returns the primary-key values. It fails if any is unset.
func (i *Instance) PKValues() (meta.Fields, error) {
	out := make(meta.Fields, i.typ.pk.Len())
	for _, name := range i.typ.pk.Names() {
		v, ok := i.vals[name]
		if !ok {
			return nil, fieldErr(ErrMissingRequiredField, i.typ, name, "primary key column is unset")
		}
		out[name] = v
	}
	return out, nil
}

// PKValue returns the key value of a single-key instance.
func (i *Instance) PKValue() (meta.Value, error) {
	name, err := i.typ.PKName()
	if err != nil {
		return nil, err
	}
	return i.Get(name)
}

// SetPKValue assigns the key of a single-key instance.
func (i *Instance) SetPKValue(v meta.Value) error {
	name, err := i.typ.PKName()
	if err != nil {
		return err
	}
	return i.Set(name, v)
}

// FKValue returns the local value that references refTable.refColumn.
func (i *Instance) FKValue(refTable, refColumn string) (meta.Value, error) {
	col, err := i.typ.FKColumn(refTable, refColumn)
	if err != nil {
		return nil, err
	}
	return i.Get(col)
}

// SetFKValue assigns the local value that references refTable.refColumn.
func (i *Instance) SetFKValue(refTable, refColumn string, v meta.Value) error {
	col, err := i.typ.FKColumn(refTable, refColumn)
	if err != nil {
		return err
	}
	return i.Set(col, v)
}

// present returns the set columns among names, in the order given.
func (i *Instance) present(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := i.vals[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
