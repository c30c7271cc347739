// Package ident validates names before they are trusted in generated SQL.
//
// Every table, column, primary-key and foreign-key name that enters the
// metadata layer passes through Check (or CheckAny for untyped input). Names
// are interpolated into statements verbatim, so an identifier is restricted to
// ASCII letters, digits and underscores, must not start with a digit, and must
// not collide with an SQLite or Go keyword.
//
// ident imports nothing internal.
package ident
