package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/songmeta/internal/meta"
)

// Statement is one parameterized SQL statement.
// Identifiers come from frozen, validated metadata; values are always bound.
type Statement struct {
	SQL  string
	Args []any
}

// MissingFieldsError lists the non-nullable columns an insert lacks.
type MissingFieldsError struct {
	Type   string
	Fields []string
}

// Error implements the error interface.
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Type, ErrMissingRequiredFields, strings.Join(e.Fields, ", "))
}

// Unwrap exposes ErrMissingRequiredFields to errors.Is.
func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingRequiredFields
}

// BuildInsert returns the INSERT for every present column of inst.
// With onConflictIgnore the statement is a no-op on a primary-key conflict.
func BuildInsert(inst *Instance, onConflictIgnore bool) (Statement, error) {
	t := inst.typ
	var missing []string
	for _, c := range t.table.Columns() {
		if _, ok := inst.vals[c.Name]; !ok && !c.Nullable {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		// Columns are in declaration order; report them sorted.
		slices.Sort(missing)
		return Statement{}, &MissingFieldsError{Type: t.name, Fields: missing}
	}

	cols := inst.present(t.slots)
	args, err := inst.args(cols)
	if err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)",
		t.tableName, strings.Join(cols, ", "), placeholders(len(cols)))
	if onConflictIgnore {
		fmt.Fprintf(&b, " ON CONFLICT(%s) DO NOTHING", strings.Join(t.pk.Names(), ", "))
	}
	return Statement{SQL: b.String(), Args: args}, nil
}

// BuildPatch returns the UPDATE for the present non-key columns of inst.
// ok is false when there is nothing to update.
func BuildPatch(inst *Instance) (stmt Statement, ok bool, err error) {
	t := inst.typ
	where, whereArgs, err := inst.keyPredicate()
	if err != nil {
		return Statement{}, false, err
	}

	var cols []string
	for _, name := range inst.present(t.slots) {
		if !t.pk.Contains(name) {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return Statement{}, false, nil
	}
	args, err := inst.args(cols)
	if err != nil {
		return Statement{}, false, err
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	return Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s WHERE %s", t.tableName, strings.Join(sets, ", "), where),
		Args: append(args, whereArgs...),
	}, true, nil
}

// BuildExists returns a bounded existence probe keyed by the primary key.
func BuildExists(inst *Instance) (Statement, error) {
	where, args, err := inst.keyPredicate()
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", inst.typ.tableName, where),
		Args: args,
	}, nil
}

// BuildFetch returns the single-row SELECT of every column, keyed by the
// primary key of inst.
func BuildFetch(inst *Instance) (Statement, error) {
	where, args, err := inst.keyPredicate()
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
			strings.Join(inst.typ.slots, ", "), inst.typ.tableName, where),
		Args: args,
	}, nil
}

// keyPredicate renders "pk1 = ? AND pk2 = ?" with its arguments.
func (i *Instance) keyPredicate() (string, []any, error) {
	names := i.typ.pk.Names()
	for _, name := range names {
		if _, ok := i.vals[name]; !ok {
			return "", nil, fieldErr(ErrMissingRequiredField, i.typ, name, "primary key column is unset")
		}
	}
	args, err := i.args(names)
	if err != nil {
		return "", nil, err
	}
	conds := make([]string, len(names))
	for j, name := range names {
		conds[j] = name + " = ?"
	}
	return strings.Join(conds, " AND "), args, nil
}

// args converts the values of cols to driver arguments.
func (i *Instance) args(cols []string) ([]any, error) {
	out := make([]any, len(cols))
	for j, c := range cols {
		v, err := meta.DriverValue(i.vals[c])
		if err != nil {
			return nil, fieldErr(ErrTypeMismatch, i.typ, c, "%v", err)
		}
		out[j] = v
	}
	return out, nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
