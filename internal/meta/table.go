package meta

import "sort"

// FieldMeta describes one column: its logical type and whether NULL is allowed.
type FieldMeta struct {
	Type     Type
	Nullable bool
}

// Accepts reports whether v satisfies the (type, nullability) contract.
// Unset is never accepted here; callers decide what an omitted field means.
func (f FieldMeta) Accepts(v Value) bool {
	if IsUnset(v) {
		return false
	}
	if IsNull(v) {
		return f.Nullable
	}
	return f.Type.Accepts(v)
}

// Allowed describes the accepted value kinds, e.g. "text" or "text|null".
func (f FieldMeta) Allowed() string {
	if f.Nullable {
		return f.Type.String() + "|null"
	}
	return f.Type.String()
}

// Column pairs a name with its FieldMeta.
type Column struct {
	Name string
	FieldMeta
}

// Required builds a non-nullable column.
func Required(name string, t Type) Column {
	return Column{Name: name, FieldMeta: FieldMeta{Type: t}}
}

// Optional builds a nullable column.
func Optional(name string, t Type) Column {
	return Column{Name: name, FieldMeta: FieldMeta{Type: t, Nullable: true}}
}

// TableMeta is an ordered, immutable set of columns.
type TableMeta struct {
	cols  []Column
	index map[string]int
}

// NewTableMeta builds a TableMeta in the given column order.
// Duplicate names are kept in Columns so registration can report them;
// lookups resolve to the first occurrence.
func NewTableMeta(cols ...Column) TableMeta {
	tm := TableMeta{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	copy(tm.cols, cols)
	for i, c := range tm.cols {
		if _, dup := tm.index[c.Name]; !dup {
			tm.index[c.Name] = i
		}
	}
	return tm
}

// Len returns the number of declared columns, duplicates included.
func (tm TableMeta) Len() int {
	return len(tm.cols)
}

// Columns returns a copy of the columns in declaration order.
func (tm TableMeta) Columns() []Column {
	out := make([]Column, len(tm.cols))
	copy(out, tm.cols)
	return out
}

// Names returns the column names in declaration order.
func (tm TableMeta) Names() []string {
	out := make([]string, len(tm.cols))
	for i, c := range tm.cols {
		out[i] = c.Name
	}
	return out
}

// Field looks up a column's metadata.
func (tm TableMeta) Field(name string) (FieldMeta, bool) {
	i, ok := tm.index[name]
	if !ok {
		return FieldMeta{}, false
	}
	return tm.cols[i].FieldMeta, true
}

// Has reports whether name is a declared column.
func (tm TableMeta) Has(name string) bool {
	_, ok := tm.index[name]
	return ok
}

// Duplicates returns column names declared more than once, sorted.
func (tm TableMeta) Duplicates() []string {
	seen := make(map[string]int, len(tm.cols))
	for _, c := range tm.cols {
		seen[c.Name]++
	}
	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// Fields is a sparse map of column name to value.
type Fields map[string]Value

// Present returns a copy of f without Unset or nil entries.
func (f Fields) Present() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if IsUnset(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// Names returns the keys of f, sorted.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
