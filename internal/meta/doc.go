// Package meta holds the pure data that describes entity tables.
//
// A table is described by a TableMeta (ordered columns, each with a logical
// Type and a nullability flag), a PrimaryKey and a ForeignKeys mapping. These
// containers are built once by their constructors and expose no mutators;
// every accessor that returns a collection returns a copy. This makes metadata
// safe to share across goroutines once an entity type has been registered.
//
// Field values are represented by the sealed Value interface:
//   - Null      SQL NULL, accepted only by nullable fields
//   - Unset     field intentionally omitted, distinct from Null
//   - Text, Int, Bool, Real, Blob
//
// A Go nil Value is treated as Unset everywhere.
//
// meta imports nothing internal. Validation of names and cross-references
// happens at entity registration, not here.
package meta
