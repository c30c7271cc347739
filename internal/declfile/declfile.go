package declfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/ident"
	"github.com/roach88/songmeta/internal/meta"
)

// ErrNoFiles is returned by LoadDir for a directory without .cue files.
var ErrNoFiles = errors.New("no CUE files found")

// LoadError is a declaration-file error with its source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadErrors returns every *LoadError in err.
func LoadErrors(err error) []*LoadError {
	var out []*LoadError
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *LoadError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		default:
			walk(errors.Unwrap(err))
		}
	}
	walk(err)
	return out
}

var knownKeys = []string{
	"extends", "shape", "baseline", "frozen", "attrs",
	"table", "fields", "primary_key", "foreign_keys",
}

// Parse reads the declarations in one CUE document. A document without an
// entity struct yields no declarations. Every bad declaration is reported;
// the good ones are still returned.
func Parse(src []byte, filename string) ([]entity.Declaration, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, nil
	}
	iter, err := entities.Fields()
	if err != nil {
		return nil, &LoadError{Field: "entity", Message: "must be a struct of declarations", Pos: entities.Pos()}
	}

	var decls []entity.Declaration
	var errs []error
	for iter.Next() {
		d, err := parseDeclaration(iter.Label(), iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decls = append(decls, d)
	}
	return decls, errors.Join(errs...)
}

// LoadDir parses every .cue file under dir, in lexical path order.
func LoadDir(dir string) ([]entity.Declaration, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("declarations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("declarations directory: %s is not a directory", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFiles)
	}

	var decls []entity.Declaration
	var errs []error
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ds, err := Parse(src, path)
		if err != nil {
			errs = append(errs, err)
		}
		decls = append(decls, ds...)
	}
	return decls, errors.Join(errs...)
}

// FindCUEFiles walks dir and returns the .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// Register declares decls into reg in order. Declarations that fail do
// not stop the rest; the error joins every failure.
func Register(reg *entity.Registry, decls []entity.Declaration) ([]*entity.Type, error) {
	var types []*entity.Type
	var errs []error
	for _, d := range decls {
		t, err := reg.Declare(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		types = append(types, t)
	}
	return types, errors.Join(errs...)
}

func parseDeclaration(name string, v cue.Value) (entity.Declaration, error) {
	d := entity.Declaration{Name: name, Extends: entity.BaseEntity}
	field := func(key string) string { return "entity." + name + "." + key }

	iter, err := v.Fields()
	if err != nil {
		return d, &LoadError{Field: "entity." + name, Message: "declaration must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		key := iter.Label()
		if !slices.Contains(knownKeys, key) {
			return d, &LoadError{Field: field(key), Message: "unknown key", Pos: iter.Value().Pos()}
		}
	}

	if s, ok, err := optString(v, "extends", field); err != nil {
		return d, err
	} else if ok {
		d.Extends = s
	}
	if s, ok, err := optString(v, "shape", field); err != nil {
		return d, err
	} else if ok {
		shape, err := entity.ParseShape(s)
		if err != nil {
			return d, &LoadError{Field: field("shape"), Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("shape")).Pos()}
		}
		d.Shape = shape
	}
	if bv := v.LookupPath(cue.ParsePath("baseline")); bv.Exists() {
		b, err := bv.Bool()
		if err != nil {
			return d, &LoadError{Field: field("baseline"), Message: "must be a bool", Pos: bv.Pos()}
		}
		d.Baseline = b
	}
	if fv := v.LookupPath(cue.ParsePath("frozen")); fv.Exists() {
		names, err := nameList(fv, field("frozen"), "frozen attribute")
		if err != nil {
			return d, err
		}
		d.ExtraFrozen = names
	}
	if av := v.LookupPath(cue.ParsePath("attrs")); av.Exists() {
		attrs, err := parseAttrs(av, field("attrs"))
		if err != nil {
			return d, err
		}
		d.Attrs = attrs
	}

	if s, ok, err := optString(v, "table", field); err != nil {
		return d, err
	} else if ok {
		d.TableName = &s
	}
	if fv := v.LookupPath(cue.ParsePath("fields")); fv.Exists() {
		tm, err := parseFields(fv, field("fields"))
		if err != nil {
			return d, err
		}
		d.Table = &tm
	}
	if pv := v.LookupPath(cue.ParsePath("primary_key")); pv.Exists() {
		names, err := nameList(pv, field("primary_key"), "primary key column")
		if err != nil {
			return d, err
		}
		pk := meta.NewPrimaryKey(names...)
		d.PrimaryKey = &pk
	}
	if kv := v.LookupPath(cue.ParsePath("foreign_keys")); kv.Exists() {
		fks, err := parseForeignKeys(kv, field("foreign_keys"))
		if err != nil {
			return d, err
		}
		d.ForeignKeys = &fks
	}
	return d, nil
}

func optString(v cue.Value, key string, field func(string) string) (string, bool, error) {
	sv := v.LookupPath(cue.ParsePath(key))
	if !sv.Exists() {
		return "", false, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", false, &LoadError{Field: field(key), Message: "must be a string", Pos: sv.Pos()}
	}
	return s, true, nil
}

// nameList reads a list of names. Non-string elements are reported the
// way the identifier check classifies them; the registry checks the rest.
func nameList(v cue.Value, field, subject string) ([]string, error) {
	list, err := v.List()
	if err != nil {
		return nil, &LoadError{Field: field, Message: "must be a list", Pos: v.Pos()}
	}
	var names []string
	for list.Next() {
		x, err := scalar(list.Value())
		if err != nil {
			return nil, &LoadError{Field: field, Message: err.Error(), Pos: list.Value().Pos()}
		}
		s, ok := x.(string)
		if !ok {
			msg := ident.CheckAny(x).Err(subject, x).Error()
			return nil, &LoadError{Field: field, Message: msg, Pos: list.Value().Pos()}
		}
		names = append(names, s)
	}
	return names, nil
}

func parseAttrs(v cue.Value, field string) (map[string]meta.Value, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &LoadError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	attrs := make(map[string]meta.Value)
	for iter.Next() {
		x, err := scalar(iter.Value())
		if err != nil {
			return nil, &LoadError{Field: field + "." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		mv, err := meta.ValueOf(x)
		if err != nil {
			return nil, &LoadError{Field: field + "." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		attrs[iter.Label()] = mv
	}
	return attrs, nil
}

func parseFields(v cue.Value, field string) (meta.TableMeta, error) {
	iter, err := v.Fields()
	if err != nil {
		return meta.TableMeta{}, &LoadError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	var cols []meta.Column
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()
		colField := field + "." + name

		tv := fv.LookupPath(cue.ParsePath("type"))
		if !tv.Exists() {
			return meta.TableMeta{}, &LoadError{Field: colField, Message: "type is required", Pos: fv.Pos()}
		}
		ts, err := tv.String()
		if err != nil {
			return meta.TableMeta{}, &LoadError{Field: colField + ".type", Message: "must be a string", Pos: tv.Pos()}
		}
		typ, err := meta.ParseType(ts)
		if err != nil {
			return meta.TableMeta{}, &LoadError{Field: colField + ".type", Message: err.Error(), Pos: tv.Pos()}
		}

		nullable := false
		if nv := fv.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
			if nullable, err = nv.Bool(); err != nil {
				return meta.TableMeta{}, &LoadError{Field: colField + ".nullable", Message: "must be a bool", Pos: nv.Pos()}
			}
		}
		cols = append(cols, meta.Column{Name: name, FieldMeta: meta.FieldMeta{Type: typ, Nullable: nullable}})
	}
	return meta.NewTableMeta(cols...), nil
}

func parseForeignKeys(v cue.Value, field string) (meta.ForeignKeys, error) {
	iter, err := v.Fields()
	if err != nil {
		return meta.ForeignKeys{}, &LoadError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	var rels []meta.Relation
	for iter.Next() {
		table := iter.Label()
		refs, err := iter.Value().Fields()
		if err != nil {
			return meta.ForeignKeys{}, &LoadError{Field: field + "." + table, Message: "must map referenced columns to local columns", Pos: iter.Value().Pos()}
		}
		var pairs []string
		for refs.Next() {
			local, err := refs.Value().String()
			if err != nil {
				return meta.ForeignKeys{}, &LoadError{
					Field:   field + "." + table + "." + refs.Label(),
					Message: "local column must be a string",
					Pos:     refs.Value().Pos(),
				}
			}
			pairs = append(pairs, refs.Label(), local)
		}
		rels = append(rels, meta.References(table, pairs...))
	}
	return meta.NewForeignKeys(rels...), nil
}

// scalar converts a concrete CUE scalar to a Go value.
func scalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.BoolKind:
		return v.Bool()
	case cue.BytesKind:
		return v.Bytes()
	default:
		return nil, fmt.Errorf("unsupported value kind %v", v.IncompleteKind())
	}
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Field: "cue", Message: first.Error()}
}
