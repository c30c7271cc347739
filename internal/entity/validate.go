package entity

import (
	"fmt"
	"slices"

	"github.com/roach88/songmeta/internal/ident"
	"github.com/roach88/songmeta/internal/meta"
)

// validator accumulates declaration errors for one type.
// It does not fail fast: every problem in the declaration is reported.
type validator struct {
	name string
	errs []*DeclarationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, &DeclarationError{
		Code:    code,
		Type:    v.name,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// identifier records an error under code unless name passes the validator.
func (v *validator) identifier(code, field, subject, name string) bool {
	if err := ident.Check(name).Err(subject, name); err != nil {
		v.add(code, field, "%v", err)
		return false
	}
	return true
}

// validateAttrs checks free-form attributes and the extra frozen names.
func (v *validator) validateAttrs(d Declaration) {
	names := make([]string, 0, len(d.Attrs))
	for name := range d.Attrs {
		names = append(names, name)
	}
	slices.Sort(names)

	// E210: bookkeeping and metadata names cannot be declared as attributes
	for _, name := range names {
		if slices.Contains(reservedAttrs, name) {
			v.add(ErrCodeStructural, name, "%q is reserved and cannot be declared as an attribute", name)
			continue
		}
		v.identifier(ErrCodeStructural, name, "attribute", name)
	}
	for i, name := range d.ExtraFrozen {
		v.identifier(ErrCodeStructural, fmt.Sprintf("extra_frozen[%d]", i), "frozen attribute", name)
	}
}

// validateTableName checks the table name piece.
func (v *validator) validateTableName(name string) {
	// E203: table name is required and must be an identifier
	v.identifier(ErrCodeTableName, AttrTableName, "table name", name)
}

// validateTable checks the column set.
func (v *validator) validateTable(tm meta.TableMeta) {
	// E204: at least one column
	if tm.Len() == 0 {
		v.add(ErrCodeTableMeta, AttrTableMeta, "table meta must declare at least one column")
		return
	}
	for _, dup := range tm.Duplicates() {
		v.add(ErrCodeTableMeta, dup, "column %q declared more than once", dup)
	}
	for _, c := range tm.Columns() {
		v.identifier(ErrCodeTableMeta, c.Name, "column", c.Name)
		// E204: the absence type is never a field type
		if !c.Type.Valid() {
			v.add(ErrCodeTableMeta, c.Name, "column %q has no logical type", c.Name)
		}
	}
}

// validatePrimaryKey checks the key against the column set.
func (v *validator) validatePrimaryKey(pk meta.PrimaryKey, tm meta.TableMeta) {
	names := pk.Names()
	// E205: non-empty, known, unique and non-nullable
	if len(names) == 0 {
		v.add(ErrCodePrimaryKey, AttrPrimaryKey, "primary key must name at least one column")
		return
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !v.identifier(ErrCodePrimaryKey, AttrPrimaryKey, "primary key column", name) {
			continue
		}
		if seen[name] {
			v.add(ErrCodePrimaryKey, AttrPrimaryKey, "column %q listed more than once", name)
			continue
		}
		seen[name] = true
		fm, ok := tm.Field(name)
		if !ok {
			v.add(ErrCodePrimaryKey, AttrPrimaryKey, "column %q is not in table meta", name)
			continue
		}
		if fm.Nullable {
			v.add(ErrCodePrimaryKey, AttrPrimaryKey, "column %q is nullable", name)
		}
	}
}

// validateForeignKeys checks every relationship against the column set.
func (v *validator) validateForeignKeys(fks meta.ForeignKeys, tm meta.TableMeta) {
	seen := make(map[string]bool, fks.Len())
	for _, rel := range fks.Relations() {
		field := AttrForeignKeys + "." + rel.Table
		// E206: identifiers, one relationship per table, non-empty mapping
		if !v.identifier(ErrCodeForeignKeys, field, "referenced table", rel.Table) {
			continue
		}
		if seen[rel.Table] {
			v.add(ErrCodeForeignKeys, field, "table %q referenced more than once", rel.Table)
			continue
		}
		seen[rel.Table] = true
		if rel.Mapping.Len() == 0 {
			v.add(ErrCodeForeignKeys, field, "relationship to %q maps no columns", rel.Table)
			continue
		}
		refSeen := make(map[string]bool, rel.Mapping.Len())
		for _, ref := range rel.Mapping.Refs() {
			if v.identifier(ErrCodeForeignKeys, field, "referenced column", ref.RefColumn) {
				if refSeen[ref.RefColumn] {
					v.add(ErrCodeForeignKeys, field, "referenced column %q mapped more than once", ref.RefColumn)
				}
				refSeen[ref.RefColumn] = true
			}
			if !v.identifier(ErrCodeForeignKeys, field, "local column", ref.LocalColumn) {
				continue
			}
			if !tm.Has(ref.LocalColumn) {
				v.add(ErrCodeForeignKeys, field, "local column %q is not in table meta", ref.LocalColumn)
			}
		}
	}
}

// validateMetadata runs the base checks over the four pieces.
func (v *validator) validateMetadata(d Declaration) {
	v.validateTableName(*d.TableName)
	v.validateTable(*d.Table)
	v.validatePrimaryKey(*d.PrimaryKey, *d.Table)
	v.validateForeignKeys(*d.ForeignKeys, *d.Table)
}

// validateIncomplete reports a partial declaration, or nothing when it is
// either complete or empty.
func (v *validator) validateIncomplete(d Declaration) bool {
	set, missing := d.declared()
	if len(set) == 0 || len(missing) == 0 {
		return false
	}
	// E202: all four pieces, or none
	v.add(ErrCodeIncomplete, "", "metadata is all-or-nothing: declared %v, missing %v", set, missing)
	return true
}
