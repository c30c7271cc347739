package entity

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/roach88/songmeta/internal/meta"
)

// fixture is a small registry of one type per shape.
type fixture struct {
	reg     *Registry
	artist  *Type // artists, single key
	album   *Type // albums, single key, references artists
	image   *Type // artist_images, dependent row
	bio     *Type // artist_bios, extension
	credit  *Type // credits, association
	comment *Type // album_notes, dependent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := NewRegistry()
	f := &fixture{reg: reg}

	f.artist = mustDeclare(t, reg, Declaration{Name: "Artist", Extends: SinglePkEntity}.Concrete(
		"artists",
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Required("name", meta.TypeText),
			meta.Optional("popularity", meta.TypeInteger),
		),
		meta.NewPrimaryKey("artist_id"),
		meta.NoForeignKeys(),
	))

	f.album = mustDeclare(t, reg, Declaration{Name: "Album", Extends: SinglePkEntity}.Concrete(
		"albums",
		meta.NewTableMeta(
			meta.Required("album_id", meta.TypeText),
			meta.Required("title", meta.TypeText),
			meta.Required("artist_id", meta.TypeText),
			meta.Optional("explicit", meta.TypeBool),
		),
		meta.NewPrimaryKey("album_id"),
		meta.NewForeignKeys(meta.References("artists", "artist_id", "artist_id")),
	))

	f.image = mustDeclare(t, reg, Declaration{Name: "ArtistImage", Extends: DependentRowEntity}.Concrete(
		"artist_images",
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Required("url", meta.TypeText),
			meta.Optional("width", meta.TypeInteger),
		),
		meta.NewPrimaryKey("artist_id", "url"),
		meta.NewForeignKeys(meta.References("artists", "artist_id", "artist_id")),
	))

	f.bio = mustDeclare(t, reg, Declaration{Name: "ArtistBio", Extends: ExtensionEntity}.Concrete(
		"artist_bios",
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Optional("bio", meta.TypeText),
		),
		meta.NewPrimaryKey("artist_id"),
		meta.NewForeignKeys(meta.References("artists", "artist_id", "artist_id")),
	))

	f.credit = mustDeclare(t, reg, Declaration{Name: "Credit", Extends: BinaryAssociationEntity}.Concrete(
		"credits",
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Required("album_id", meta.TypeText),
		),
		meta.NewPrimaryKey("artist_id", "album_id"),
		meta.NewForeignKeys(
			meta.References("artists", "artist_id", "artist_id"),
			meta.References("albums", "album_id", "album_id"),
		),
	))

	f.comment = mustDeclare(t, reg, Declaration{Name: "AlbumNote", Extends: DependentEntity}.Concrete(
		"album_notes",
		meta.NewTableMeta(
			meta.Required("album_id", meta.TypeText),
			meta.Required("seq", meta.TypeInteger),
			meta.Required("body", meta.TypeText),
		),
		meta.NewPrimaryKey("album_id", "seq"),
		meta.NewForeignKeys(meta.References("albums", "album_id", "album_id")),
	))
	return f
}

func mustDeclare(t *testing.T, reg *Registry, d Declaration) *Type {
	t.Helper()
	typ, err := reg.Declare(d)
	require.NoError(t, err)
	return typ
}

const fixtureSchema = `
CREATE TABLE artists (
	artist_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	popularity INTEGER
);
CREATE TABLE albums (
	album_id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist_id TEXT NOT NULL REFERENCES artists(artist_id),
	explicit INTEGER CHECK (explicit IN (0, 1))
);
CREATE TABLE artist_images (
	artist_id TEXT NOT NULL REFERENCES artists(artist_id),
	url TEXT NOT NULL,
	width INTEGER,
	PRIMARY KEY (artist_id, url)
);
CREATE TABLE artist_bios (
	artist_id TEXT PRIMARY KEY REFERENCES artists(artist_id),
	bio TEXT
);
CREATE TABLE credits (
	artist_id TEXT NOT NULL REFERENCES artists(artist_id),
	album_id TEXT NOT NULL REFERENCES albums(album_id),
	PRIMARY KEY (artist_id, album_id)
);
CREATE TABLE album_notes (
	album_id TEXT NOT NULL REFERENCES albums(album_id),
	seq INTEGER NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (album_id, seq)
);
`

// createTestDB opens a fresh SQLite file with the fixture tables.
func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)
	return db
}

// recordingExecer records statements without running them.
type recordingExecer struct {
	statements []string
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	r.statements = append(r.statements, query)
	return driverResult(0), nil
}

func (r *recordingExecer) QueryContext(_ context.Context, query string, _ ...any) (*sql.Rows, error) {
	r.statements = append(r.statements, query)
	return nil, sql.ErrConnDone
}

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }
