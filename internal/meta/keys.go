package meta

import "slices"

// PrimaryKey is an ordered list of column names.
type PrimaryKey struct {
	names []string
}

// NewPrimaryKey builds a PrimaryKey in the given order.
func NewPrimaryKey(names ...string) PrimaryKey {
	return PrimaryKey{names: slices.Clone(names)}
}

// Names returns a copy of the key columns in order.
func (pk PrimaryKey) Names() []string {
	return slices.Clone(pk.names)
}

// Len returns the number of key columns.
func (pk PrimaryKey) Len() int {
	return len(pk.names)
}

// Contains reports whether name is a key column.
func (pk PrimaryKey) Contains(name string) bool {
	return slices.Contains(pk.names, name)
}

// RefMapping maps a referenced column to the local column that holds it.
type RefMapping struct {
	refs []Ref
}

// Ref is a single referenced column to local column pair.
type Ref struct {
	RefColumn   string
	LocalColumn string
}

// NewRefMapping builds a RefMapping in the given order.
func NewRefMapping(refs ...Ref) RefMapping {
	return RefMapping{refs: slices.Clone(refs)}
}

// Refs returns a copy of the pairs in order.
func (m RefMapping) Refs() []Ref {
	return slices.Clone(m.refs)
}

// Len returns the number of column pairs.
func (m RefMapping) Len() int {
	return len(m.refs)
}

// Local returns the local column for a referenced column.
func (m RefMapping) Local(refColumn string) (string, bool) {
	for _, r := range m.refs {
		if r.RefColumn == refColumn {
			return r.LocalColumn, true
		}
	}
	return "", false
}

// LocalColumns returns the local columns in order.
func (m RefMapping) LocalColumns() []string {
	out := make([]string, len(m.refs))
	for i, r := range m.refs {
		out[i] = r.LocalColumn
	}
	return out
}

// Relation is one foreign-key relationship to a referenced table.
type Relation struct {
	Table   string
	Mapping RefMapping
}

// References builds a Relation from alternating ref/local column pairs,
// e.g. References("artists", "artist_id", "primary_artist_id").
func References(table string, pairs ...string) Relation {
	refs := make([]Ref, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		refs = append(refs, Ref{RefColumn: pairs[i], LocalColumn: pairs[i+1]})
	}
	return Relation{Table: table, Mapping: NewRefMapping(refs...)}
}

// ForeignKeys is an ordered set of relationships, keyed by referenced table.
type ForeignKeys struct {
	rels []Relation
}

// NewForeignKeys builds ForeignKeys in the given order. A repeated table is
// kept so registration can reject it; lookups resolve to the first entry.
func NewForeignKeys(rels ...Relation) ForeignKeys {
	return ForeignKeys{rels: slices.Clone(rels)}
}

// NoForeignKeys is the empty mapping.
func NoForeignKeys() ForeignKeys {
	return ForeignKeys{}
}

// Relations returns a copy of the relationships in order.
func (fk ForeignKeys) Relations() []Relation {
	return slices.Clone(fk.rels)
}

// Len returns the number of relationships.
func (fk ForeignKeys) Len() int {
	return len(fk.rels)
}

// Mapping returns the RefMapping for a referenced table.
func (fk ForeignKeys) Mapping(table string) (RefMapping, bool) {
	for _, r := range fk.rels {
		if r.Table == table {
			return r.Mapping, true
		}
	}
	return RefMapping{}, false
}

// LocalColumns returns every local column named by any relationship, in order,
// without duplicates.
func (fk ForeignKeys) LocalColumns() []string {
	var out []string
	for _, r := range fk.rels {
		for _, ref := range r.Mapping.refs {
			if !slices.Contains(out, ref.LocalColumn) {
				out = append(out, ref.LocalColumn)
			}
		}
	}
	return out
}
