package entity

import (
	"fmt"
	"slices"
)

// Shape is the relational shape of an entity type.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSingleKey
	ShapeDependent
	ShapeDependentRow
	ShapeExtension
	ShapeAssociation
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeSingleKey:
		return "single-key"
	case ShapeDependent:
		return "dependent"
	case ShapeDependentRow:
		return "dependent-row"
	case ShapeExtension:
		return "extension"
	case ShapeAssociation:
		return "association"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape maps a shape name back to a Shape. The empty string is ShapeNone.
func ParseShape(s string) (Shape, error) {
	switch s {
	case "", "none":
		return ShapeNone, nil
	case "single-key":
		return ShapeSingleKey, nil
	case "dependent":
		return ShapeDependent, nil
	case "dependent-row":
		return ShapeDependentRow, nil
	case "extension":
		return ShapeExtension, nil
	case "association":
		return ShapeAssociation, nil
	default:
		return ShapeNone, fmt.Errorf("unknown shape %q", s)
	}
}

// dependent reports whether s carries the single-parent rule.
func (s Shape) dependent() bool {
	return s == ShapeDependent || s == ShapeDependentRow || s == ShapeExtension
}

// refines reports whether a child may assert s under a parent of shape parent.
func (s Shape) refines(parent Shape) bool {
	if s == parent || parent == ShapeNone {
		return true
	}
	return parent == ShapeDependent && (s == ShapeDependentRow || s == ShapeExtension)
}

// checkShape applies the taxonomy rule for t's shape. t has passed base validation.
func checkShape(t *Type) []*DeclarationError {
	violation := func(format string, args ...any) []*DeclarationError {
		return []*DeclarationError{{
			Code:    ErrCodeShapeViolation,
			Type:    t.name,
			Message: fmt.Sprintf("%s: ", t.shape) + fmt.Sprintf(format, args...),
		}}
	}

	pk := t.pk.Names()
	switch {
	case t.shape == ShapeSingleKey:
		if len(pk) != 1 {
			return violation("must have exactly one primary key column, got %d", len(pk))
		}

	case t.shape.dependent():
		if t.fks.Len() != 1 {
			return violation("must reference exactly one table, got %d", t.fks.Len())
		}
		fkCols := t.fks.LocalColumns()
		for _, c := range fkCols {
			if !slices.Contains(pk, c) {
				return violation("foreign key column %q must be part of the primary key", c)
			}
		}
		// fkCols is a subset of pk here, so comparing sizes decides equality.
		switch t.shape {
		case ShapeDependentRow:
			if len(fkCols) == len(pk) {
				return violation("foreign key columns must be a proper subset of the primary key")
			}
		case ShapeExtension:
			if len(fkCols) != len(pk) {
				return violation("foreign key columns must exactly match the primary key")
			}
		}

	case t.shape == ShapeAssociation:
		if len(pk) != 2 {
			return violation("must have exactly two primary key columns, got %d", len(pk))
		}
		rels := t.fks.Relations()
		if len(rels) != 2 {
			return violation("must have exactly two foreign key relationships, got %d", len(rels))
		}
		for _, rel := range rels {
			if rel.Mapping.Len() != 1 {
				return violation("relationship to %q must map exactly one column, got %d", rel.Table, rel.Mapping.Len())
			}
		}
		fkCols := t.fks.LocalColumns()
		if len(fkCols) != 2 || !slices.Contains(pk, fkCols[0]) || !slices.Contains(pk, fkCols[1]) {
			return violation("foreign key columns %v must exactly match the primary key %v", fkCols, pk)
		}
	}
	return nil
}
