package entity

import "github.com/roach88/songmeta/internal/meta"

// Declaration describes an entity type before registration.
//
// The four metadata pointers are all-or-nothing: leave every one nil for an
// abstract type, or set all four (Concrete does this) for a concrete type.
type Declaration struct {
	// Name is the entity type name; it must be a valid identifier.
	Name string
	// Extends names the parent type. Empty declares a root, which needs
	// Baseline to have a frozen set.
	Extends string
	// Shape re-asserts a taxonomy shape. ShapeNone inherits the parent's.
	Shape Shape
	// Baseline starts a new frozen set instead of inheriting one.
	Baseline bool
	// ExtraFrozen adds attribute names to the frozen set.
	ExtraFrozen []string
	// Attrs are free-form annotations, e.g. "provider".
	Attrs map[string]meta.Value

	TableName   *string
	Table       *meta.TableMeta
	PrimaryKey  *meta.PrimaryKey
	ForeignKeys *meta.ForeignKeys
}

// Concrete returns a copy of d with all four metadata pieces set.
func (d Declaration) Concrete(table string, tm meta.TableMeta, pk meta.PrimaryKey, fks meta.ForeignKeys) Declaration {
	d.TableName = &table
	d.Table = &tm
	d.PrimaryKey = &pk
	d.ForeignKeys = &fks
	return d
}

// declared returns the names of the metadata pieces d sets, and of those it omits.
func (d Declaration) declared() (set, missing []string) {
	flags := []bool{d.TableName != nil, d.Table != nil, d.PrimaryKey != nil, d.ForeignKeys != nil}
	for i, ok := range flags {
		if ok {
			set = append(set, metadataAttrs[i])
		} else {
			missing = append(missing, metadataAttrs[i])
		}
	}
	return set, missing
}
