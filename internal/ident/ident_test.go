package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		want Verdict
	}{
		{"artist_id", Valid},
		{"_private", Valid},
		{"track2", Valid},
		{"", Empty},
		{"2track", NotIdentifier},
		{"artist-id", NotIdentifier},
		{"artist id", NotIdentifier},
		{"café", NotIdentifier},
		{"select", Reserved},
		{"SELECT", Reserved},
		{"Table", Reserved},
		{"func", Reserved},
		{"range", Reserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.name))
		})
	}
}

func TestCheckAny_NonString(t *testing.T) {
	assert.Equal(t, NotString, CheckAny(42))
	assert.Equal(t, NotString, CheckAny(nil))
	assert.Equal(t, NotString, CheckAny([]byte("artist_id")))
	assert.Equal(t, Valid, CheckAny("artist_id"))
}

func TestVerdictErr(t *testing.T) {
	assert.NoError(t, Valid.Err("column", "title"))

	err := Reserved.Err("column", "order")
	assert.EqualError(t, err, `column: "order" is a reserved word`)

	err = NotString.Err("table name", 7)
	assert.EqualError(t, err, "table name: non-string name of type int")
}

func TestMusicColumnsAreNotReserved(t *testing.T) {
	// Columns used by the catalog tables must stay valid.
	for _, name := range []string{
		"name", "title", "url", "width", "height", "label", "language", "explicit",
		"popularity", "genres", "release_date", "album_type", "disc_number", "image_url",
	} {
		assert.Equal(t, Valid, Check(name), name)
	}
}
