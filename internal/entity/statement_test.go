package entity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/songmeta/internal/meta"
)

func renderStatement(b *strings.Builder, label string, stmt Statement) {
	fmt.Fprintf(b, "-- %s\n%s\n", label, stmt.SQL)
	fmt.Fprintf(b, "args: %v\n\n", stmt.Args)
}

func TestStatements_Golden(t *testing.T) {
	f := newFixture(t)
	var b strings.Builder

	album := MustNew(f.album, meta.Fields{
		"album_id":  meta.Text("al1"),
		"title":     meta.Text("Homogenic"),
		"artist_id": meta.Text("a1"),
		"explicit":  meta.Bool(true),
	})
	credit := MustNew(f.credit, meta.Fields{"artist_id": meta.Text("a1"), "album_id": meta.Text("al1")})
	image := MustNew(f.image, meta.Fields{
		"artist_id": meta.Text("a1"),
		"url":       meta.Text("https://i.scdn.co/image/ab67"),
		"width":     meta.Null,
	})

	stmt, err := BuildInsert(album, false)
	require.NoError(t, err)
	renderStatement(&b, "insert album", stmt)

	stmt, err = BuildInsert(credit, true)
	require.NoError(t, err)
	renderStatement(&b, "insert credit ignoring conflicts", stmt)

	stmt, ok, err := BuildPatch(album)
	require.NoError(t, err)
	require.True(t, ok)
	renderStatement(&b, "patch album", stmt)

	stmt, ok, err = BuildPatch(image)
	require.NoError(t, err)
	require.True(t, ok)
	renderStatement(&b, "patch image", stmt)

	stmt, err = BuildExists(image)
	require.NoError(t, err)
	renderStatement(&b, "exists image", stmt)

	stmt, err = BuildFetch(album)
	require.NoError(t, err)
	renderStatement(&b, "fetch album", stmt)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "statements", []byte(b.String()))
}

func TestBuildInsert_MissingRequiredFields(t *testing.T) {
	f := newFixture(t)
	inst := MustNew(f.album, meta.Fields{"album_id": meta.Text("al1")})

	_, err := BuildInsert(inst, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredFields)

	var mf *MissingFieldsError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"artist_id", "title"}, mf.Fields)
	assert.EqualError(t, err, "Album: missing required fields: artist_id, title")
}

func TestBuildPatch_KeyOnly(t *testing.T) {
	f := newFixture(t)
	inst := MustNew(f.image, meta.Fields{"artist_id": meta.Text("a1"), "url": meta.Text("u")})

	_, ok, err := BuildPatch(inst)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildExists_UnsetKey(t *testing.T) {
	f := newFixture(t)
	inst := &Instance{typ: f.image, vals: map[string]meta.Value{"artist_id": meta.Text("a1")}}

	_, err := BuildExists(inst)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}
