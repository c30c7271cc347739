package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roach88/songmeta/internal/catalog"
	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
	"github.com/roach88/songmeta/internal/store"
)

const (
	artistA = "4Z8W4fKeB5YxbusRsdQVPb"
	artistB = "0OdUWJ0sBjDrqHygGUXeCF"
	artistC = "3jOstUTkEu2JkjvRdBA5Gu"
	album1  = "6dVIqQ8qmQ5GBnJ9shOYGE"
	album2  = "1bt6q2SruMsBtcerNVtpZB"
	track1  = "3SVAN3BRByDmHOhKyIDxfC"
	track2  = "2zYzyRzz6pRmhPzyfMEC8s"
	track3  = "7dS5EaCoMnN7DzlpT6aRn2"
)

// unknownArtist is never stored.
const unknownArtist = "1dfeR4HaWDbWqFHLkxsg1d"

type fixture struct {
	lib *Library
	cat *catalog.Catalog
	db  entity.Execer
	st  *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	cat := catalog.Default()
	return &fixture{
		lib: New(cat, zerolog.Nop()),
		cat: cat,
		db:  st.DB(),
		st:  st,
	}
}

func (f *fixture) artist(t *testing.T, id, name string) *entity.Instance {
	t.Helper()
	return entity.MustNew(f.cat.Artist, catalog.ArtistInit{
		ArtistID:   meta.Text(id),
		Name:       meta.Text(name),
		Popularity: meta.Int(70),
	}.Fields())
}

func (f *fixture) album(t *testing.T, id, primaryArtist string) *entity.Instance {
	t.Helper()
	return entity.MustNew(f.cat.Album, catalog.AlbumInit{
		AlbumID:         meta.Text(id),
		Title:           meta.Text("OK Computer"),
		PrimaryArtistID: meta.Text(primaryArtist),
		AlbumType:       meta.Text("album"),
		TotalTracks:     meta.Int(12),
		ReleaseDate:     meta.Text("1997-05-21"),
	}.Fields())
}

func (f *fixture) song(t *testing.T, id, primaryArtist, album string, disc, track int64) *entity.Instance {
	t.Helper()
	return entity.MustNew(f.cat.Song, catalog.SongInit{
		TrackID:         meta.Text(id),
		Title:           meta.Text("Track " + id[:4]),
		PrimaryArtistID: meta.Text(primaryArtist),
		AlbumID:         meta.Text(album),
		DiscNumber:      meta.Int(disc),
		TrackNumber:     meta.Int(track),
		DurationMS:      meta.Int(238000),
		Explicit:        meta.Bool(false),
		Popularity:      meta.Int(55),
	}.Fields())
}

func (f *fixture) artistImage(t *testing.T, owner, url string) *entity.Instance {
	t.Helper()
	return entity.MustNew(f.cat.ArtistImage, catalog.ImageInit{
		OwnerID: meta.Text(owner),
		URL:     meta.Text(url),
		Width:   meta.Int(640),
		Height:  meta.Int(640),
	}.ArtistImageFields())
}

func (f *fixture) albumImage(t *testing.T, owner, url string) *entity.Instance {
	t.Helper()
	return entity.MustNew(f.cat.AlbumImage, catalog.ImageInit{
		OwnerID: meta.Text(owner),
		URL:     meta.Text(url),
	}.AlbumImageFields())
}

// bundle builds a song on album1 with the given primary and featured artists.
func (f *fixture) bundle(t *testing.T, track, primary string, trackNumber int64, featured ...string) SongBundle {
	t.Helper()
	b := SongBundle{
		Song:          f.song(t, track, primary, album1, 1, trackNumber),
		PrimaryArtist: ArtistBundle{Artist: f.artist(t, primary, "Artist "+primary[:4])},
		Album:         AlbumBundle{Album: f.album(t, album1, artistA)},
	}
	for _, id := range featured {
		b.Featured = append(b.Featured, ArtistBundle{Artist: f.artist(t, id, "Artist "+id[:4])})
	}
	return b
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	err := f.st.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
