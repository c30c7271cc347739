package entity

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/songmeta/internal/meta"
)

func seedArtist(t *testing.T, db *sql.DB, f *fixture, id, name string) {
	t.Helper()
	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text(id), "name": meta.Text(name)})
	n, err := Insert(context.Background(), db, inst, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func seedAlbum(t *testing.T, db *sql.DB, f *fixture, id, artistID string) {
	t.Helper()
	inst := MustNew(f.album, meta.Fields{
		"album_id":  meta.Text(id),
		"title":     meta.Text("Debut"),
		"artist_id": meta.Text(artistID),
	})
	_, err := Insert(context.Background(), db, inst, false)
	require.NoError(t, err)
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)

	inst := MustNew(f.artist, meta.Fields{
		"artist_id":  meta.Text("a1"),
		"name":       meta.Text("Björk"),
		"popularity": meta.Int(71),
	})
	n, err := Insert(ctx, db, inst, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A duplicate without ignore is a driver error.
	_, err = Insert(ctx, db, inst, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert artists")

	n, err = Insert(ctx, db, inst, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsert_MissingRequiredFields(t *testing.T) {
	ctx := context.Background()
	rec := &recordingExecer{}
	f := newFixture(t)

	inst := MustNew(f.album, meta.Fields{"album_id": meta.Text("al1"), "artist_id": meta.Text("a1")})
	_, err := Insert(ctx, rec, inst, false)
	assert.ErrorIs(t, err, ErrMissingRequiredFields)
	assert.Empty(t, rec.statements)
}

func TestOperations_NoHandle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1"), "name": meta.Text("x")})

	_, err := Insert(ctx, nil, inst, false)
	assert.ErrorIs(t, err, ErrNoHandle)
	_, err = Patch(ctx, nil, inst)
	assert.ErrorIs(t, err, ErrNoHandle)
	assert.ErrorIs(t, Upsert(ctx, nil, inst), ErrNoHandle)
	_, err = Exists(ctx, nil, inst)
	assert.ErrorIs(t, err, ErrNoHandle)
	_, err = Fetch(ctx, nil, f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	assert.ErrorIs(t, err, ErrNoHandle)
}

func TestPatch(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)
	seedArtist(t, db, f, "a1", "Bjork")

	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1"), "popularity": meta.Int(80)})
	changed, err := Patch(ctx, db, inst)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := Fetch(ctx, db, f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	require.NoError(t, err)
	assert.Equal(t, meta.Fields{
		"artist_id":  meta.Text("a1"),
		"name":       meta.Text("Bjork"),
		"popularity": meta.Int(80),
	}, got.Fields())

	missing := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a9"), "popularity": meta.Int(1)})
	changed, err = Patch(ctx, db, missing)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPatch_KeyOnlyIssuesNoStatement(t *testing.T) {
	ctx := context.Background()
	rec := &recordingExecer{}
	f := newFixture(t)

	inst := MustNew(f.image, meta.Fields{"artist_id": meta.Text("a1"), "url": meta.Text("u")})
	changed, err := Patch(ctx, rec, inst)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, rec.statements)
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)

	inst := MustNew(f.artist, meta.Fields{
		"artist_id": meta.Text("a1"),
		"name":      meta.Text("Björk"),
	})
	require.NoError(t, Upsert(ctx, db, inst))
	first, err := Fetch(ctx, db, f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	require.NoError(t, err)

	require.NoError(t, Upsert(ctx, db, inst))
	second, err := Fetch(ctx, db, f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	require.NoError(t, err)
	assert.Equal(t, first.Fields(), second.Fields())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsert_PatchesExistingRow(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)
	seedArtist(t, db, f, "a1", "Bjork")
	seedAlbum(t, db, f, "al1", "a1")

	// Only the supplied column changes; the referencing album survives.
	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1"), "name": meta.Text("Björk")})
	require.NoError(t, Upsert(ctx, db, inst))

	got, err := Fetch(ctx, db, f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	require.NoError(t, err)
	name, err := got.Get("name")
	require.NoError(t, err)
	assert.Equal(t, meta.Text("Björk"), name)

	ok, err := Exists(ctx, db, MustNew(f.album, meta.Fields{"album_id": meta.Text("al1")}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpsert_KeyOnlyFallsThroughToInsert(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)
	seedArtist(t, db, f, "a1", "Bjork")

	image := MustNew(f.image, meta.Fields{"artist_id": meta.Text("a1"), "url": meta.Text("u1")})
	require.NoError(t, Upsert(ctx, db, image))

	ok, err := Exists(ctx, db, image)
	require.NoError(t, err)
	assert.True(t, ok)

	// The row now exists, so the fall-through insert conflicts.
	err = Upsert(ctx, db, image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert artist_images")
}

func TestAssociation_InsertOnly(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)
	seedArtist(t, db, f, "a1", "Bjork")
	seedAlbum(t, db, f, "al1", "a1")

	credit := MustNew(f.credit, meta.Fields{"artist_id": meta.Text("a1"), "album_id": meta.Text("al1")})

	n, err := Insert(ctx, db, credit, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = Insert(ctx, db, credit, false)
	require.NoError(t, err, "association inserts always ignore conflicts")
	assert.Equal(t, int64(0), n)

	_, err = Patch(ctx, db, credit)
	assert.ErrorIs(t, err, ErrImmutableAssociation)
	assert.ErrorIs(t, Upsert(ctx, db, credit), ErrImmutableAssociation)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM credits").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)

	probe := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1")})
	ok, err := Exists(ctx, db, probe)
	require.NoError(t, err)
	assert.False(t, ok)

	seedArtist(t, db, f, "a1", "Bjork")
	ok, err = Exists(ctx, db, probe)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_UnsetKeyIssuesNoStatement(t *testing.T) {
	ctx := context.Background()
	rec := &recordingExecer{}
	f := newFixture(t)

	inst := &Instance{typ: f.image, vals: map[string]meta.Value{"artist_id": meta.Text("a1")}}
	_, err := Exists(ctx, rec, inst)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
	assert.Empty(t, rec.statements)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)
	seedArtist(t, db, f, "a1", "Bjork")

	_, err := Insert(ctx, db, MustNew(f.album, meta.Fields{
		"album_id":  meta.Text("al1"),
		"title":     meta.Text("Debut"),
		"artist_id": meta.Text("a1"),
		"explicit":  meta.Bool(true),
	}), false)
	require.NoError(t, err)

	got, err := Fetch(ctx, db, f.album, meta.Fields{"album_id": meta.Text("al1")})
	require.NoError(t, err)
	explicit, err := got.Get("explicit")
	require.NoError(t, err)
	assert.Equal(t, meta.Bool(true), explicit)

	_, err = Fetch(ctx, db, f.album, meta.Fields{"album_id": meta.Text("nope")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	_, err = Fetch(ctx, db, f.album, meta.Fields{})
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestOperations_InTransaction(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1"), "name": meta.Text("x")})
	_, err = Insert(ctx, tx, inst, false)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	ok, err := Exists(ctx, db, inst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogged(t *testing.T) {
	ctx := context.Background()
	db := createTestDB(t)
	f := newFixture(t)

	var buf bytes.Buffer
	q := Logged(db, zerolog.New(&buf).Level(zerolog.DebugLevel))

	inst := MustNew(f.artist, meta.Fields{"artist_id": meta.Text("a1"), "name": meta.Text("x")})
	_, err := Insert(ctx, q, inst, false)
	require.NoError(t, err)
	_, err = Exists(ctx, q, inst)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"sql":"INSERT INTO artists (artist_id, name) VALUES (?, ?)"`)
	assert.Contains(t, out, `"rows":1`)
	assert.Contains(t, out, `"message":"query"`)

	assert.Nil(t, Logged(nil, zerolog.Nop()))
}
