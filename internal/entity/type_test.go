package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/songmeta/internal/meta"
)

func TestType_FrozenMetadata(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{
		AttrTableName, AttrTableMeta, AttrPrimaryKey, AttrForeignKeys,
		AttrFrozenAttrs, AttrSlotSource, AttrIsConcrete,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, f.artist.IsFrozen(name))
			assert.ErrorIs(t, f.artist.SetAttr(name, meta.Text("x")), ErrFrozenAttribute)
			assert.ErrorIs(t, f.artist.DeleteAttr(name), ErrFrozenAttribute)
		})
	}
	assert.Equal(t, "artists", f.artist.TableName())
	assert.True(t, f.artist.Concrete())
}

func TestType_AccessorsReturnCopies(t *testing.T) {
	f := newFixture(t)

	names := f.artist.PrimaryKey().Names()
	names[0] = "hijacked"
	slots := f.artist.Slots()
	slots[0] = "hijacked"
	cols := f.artist.Table().Columns()
	cols[0].Nullable = true

	pk, err := f.artist.PKName()
	require.NoError(t, err)
	assert.Equal(t, "artist_id", pk)
	assert.Equal(t, "artist_id", f.artist.Slots()[0])
	fm, ok := f.artist.Table().Field("artist_id")
	require.True(t, ok)
	assert.False(t, fm.Nullable)
}

func TestType_Attributes(t *testing.T) {
	reg := NewRegistry()
	provider := mustDeclare(t, reg, Declaration{
		Name:        "SpotifyEntity",
		Extends:     SinglePkEntity,
		ExtraFrozen: []string{"provider"},
		Attrs:       map[string]meta.Value{"provider": meta.Text("spotify")},
	})
	child := mustDeclare(t, reg, songDecl().withExtends("SpotifyEntity"))

	v, ok := child.Attr("provider")
	require.True(t, ok)
	assert.Equal(t, meta.Text("spotify"), v)
	assert.ErrorIs(t, child.SetAttr("provider", meta.Text("genius")), ErrFrozenAttribute)
	assert.ErrorIs(t, provider.DeleteAttr("provider"), ErrFrozenAttribute)

	require.NoError(t, child.SetAttr("market", meta.Text("US")))
	v, ok = child.Attr("market")
	require.True(t, ok)
	assert.Equal(t, meta.Text("US"), v)
	_, ok = provider.Attr("market")
	assert.False(t, ok)

	require.NoError(t, child.DeleteAttr("market"))
	assert.ErrorIs(t, child.DeleteAttr("market"), ErrUnknownAttribute)
	assert.Error(t, child.SetAttr("bad name", meta.Int(1)))
}

func TestType_BaselineStartsNewFrozenSet(t *testing.T) {
	reg := NewRegistry()
	mustDeclare(t, reg, Declaration{
		Name:        "Tagged",
		Extends:     BaseEntity,
		ExtraFrozen: []string{"provider"},
	})
	inherited := mustDeclare(t, reg, Declaration{Name: "TaggedChild", Extends: "Tagged"})
	fresh := mustDeclare(t, reg, Declaration{Name: "AltRoot", Extends: "Tagged", Baseline: true})

	assert.Contains(t, inherited.Frozen(), "provider")
	assert.NotContains(t, fresh.Frozen(), "provider")
	assert.Equal(t, []string{
		AttrForeignKeys, AttrFrozenAttrs, AttrPrimaryKey, AttrSlotSource, AttrTableMeta, AttrTableName,
	}, fresh.Frozen())

	require.NoError(t, fresh.SetAttr("provider", meta.Text("genius")))
}

func TestType_StandaloneBaselineRoot(t *testing.T) {
	reg := NewRegistry()
	root, err := reg.Declare(Declaration{Name: "LegacyRoot", Baseline: true})
	require.NoError(t, err)
	assert.Nil(t, root.Parent())
	assert.Equal(t, ShapeNone, root.Shape())
	assert.Equal(t, "LegacyRoot(none)", root.String())
}

func (d Declaration) withExtends(parent string) Declaration {
	d.Extends = parent
	return d
}
