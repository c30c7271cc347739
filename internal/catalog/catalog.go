package catalog

import (
	"fmt"
	"sync"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
)

// Table names.
const (
	TableArtists           = "artists"
	TableAlbums            = "albums"
	TableSongs             = "songs"
	TableDiscography       = "discography"
	TableArtistImages      = "artist_images"
	TableAlbumImages       = "album_images"
	TableGeniusArtists     = "genius_artist_info"
	TableGeniusAlbums      = "genius_album_info"
	TableGeniusSongs       = "genius_song_info"
	TableGeniusDiscography = "genius_discography"
)

// Abstract provider roots.
const (
	SpotifyEntity = "SpotifyEntity"
	GeniusEntity  = "GeniusEntity"
)

// AttrProvider names the provider a type's rows come from. It is frozen on
// both provider roots.
const AttrProvider = "provider"

// Catalog holds the registered song metadata types.
type Catalog struct {
	Registry *entity.Registry

	Artist      *entity.Type
	Album       *entity.Type
	Song        *entity.Type
	Discography *entity.Type
	ArtistImage *entity.Type
	AlbumImage  *entity.Type

	GeniusArtist      *entity.Type
	GeniusAlbum       *entity.Type
	GeniusSong        *entity.Type
	GeniusDiscography *entity.Type
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog. A declaration error here is a
// programming error, so it panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(entity.NewRegistry())
		if err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// New declares every catalog type into reg.
func New(reg *entity.Registry) (*Catalog, error) {
	c := &Catalog{Registry: reg}

	steps := []struct {
		dst  **entity.Type
		decl entity.Declaration
	}{
		{nil, providerRoot(GeniusEntity, "genius")},
		{nil, providerRoot(SpotifyEntity, "spotify")},

		{&c.GeniusArtist, geniusArtistDecl()},
		{&c.GeniusAlbum, geniusAlbumDecl()},
		{&c.GeniusSong, geniusSongDecl()},
		{&c.GeniusDiscography, geniusDiscographyDecl()},

		{&c.Artist, artistDecl()},
		{&c.Album, albumDecl()},
		{&c.Song, songDecl()},
		{&c.Discography, discographyDecl()},
		{&c.ArtistImage, imageDecl("ArtistImage", TableArtistImages, TableArtists, "artist_id")},
		{&c.AlbumImage, imageDecl("AlbumImage", TableAlbumImages, TableAlbums, "album_id")},
	}
	for _, s := range steps {
		t, err := reg.Declare(s.decl)
		if err != nil {
			return nil, fmt.Errorf("declare %s: %w", s.decl.Name, err)
		}
		if s.dst != nil {
			*s.dst = t
		}
	}
	return c, nil
}

// Types returns the concrete catalog types in schema order.
func (c *Catalog) Types() []*entity.Type {
	return []*entity.Type{
		c.GeniusArtist, c.GeniusAlbum, c.GeniusSong, c.GeniusDiscography,
		c.Artist, c.Album, c.Song, c.Discography, c.ArtistImage, c.AlbumImage,
	}
}

func providerRoot(name, provider string) entity.Declaration {
	return entity.Declaration{
		Name:        name,
		Extends:     entity.BaseEntity,
		ExtraFrozen: []string{AttrProvider},
		Attrs:       map[string]meta.Value{AttrProvider: meta.Text(provider)},
	}
}

func artistDecl() entity.Declaration {
	return entity.Declaration{Name: "Artist", Extends: SpotifyEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableArtists,
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Required("name", meta.TypeText),
			meta.Optional("genius_id", meta.TypeInteger),
			meta.Optional("total_followers", meta.TypeInteger),
			meta.Optional("genres", meta.TypeText),
			meta.Optional("popularity", meta.TypeInteger),
		),
		meta.NewPrimaryKey("artist_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusArtists, "genius_id", "genius_id"),
		),
	)
}

func albumDecl() entity.Declaration {
	return entity.Declaration{Name: "Album", Extends: SpotifyEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableAlbums,
		meta.NewTableMeta(
			meta.Required("album_id", meta.TypeText),
			meta.Required("title", meta.TypeText),
			meta.Optional("genius_id", meta.TypeInteger),
			meta.Required("primary_artist_id", meta.TypeText),
			meta.Required("album_type", meta.TypeText),
			meta.Required("total_tracks", meta.TypeInteger),
			meta.Required("release_date", meta.TypeText),
			meta.Optional("label", meta.TypeText),
			meta.Optional("popularity", meta.TypeInteger),
		),
		meta.NewPrimaryKey("album_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusAlbums, "genius_id", "genius_id"),
			meta.References(TableArtists, "artist_id", "primary_artist_id"),
		),
	)
}

func songDecl() entity.Declaration {
	return entity.Declaration{Name: "Song", Extends: SpotifyEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableSongs,
		meta.NewTableMeta(
			meta.Required("track_id", meta.TypeText),
			meta.Required("title", meta.TypeText),
			meta.Optional("genius_id", meta.TypeInteger),
			meta.Required("primary_artist_id", meta.TypeText),
			meta.Required("album_id", meta.TypeText),
			meta.Required("disc_number", meta.TypeInteger),
			meta.Required("track_number", meta.TypeInteger),
			meta.Required("duration_ms", meta.TypeInteger),
			meta.Required("explicit", meta.TypeBool),
			meta.Required("popularity", meta.TypeInteger),
		),
		meta.NewPrimaryKey("track_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusSongs, "genius_id", "genius_id"),
			meta.References(TableArtists, "artist_id", "primary_artist_id"),
			meta.References(TableAlbums, "album_id", "album_id"),
		),
	)
}

func discographyDecl() entity.Declaration {
	return entity.Declaration{Name: "DiscographyEntry", Extends: SpotifyEntity, Shape: entity.ShapeAssociation}.Concrete(
		TableDiscography,
		meta.NewTableMeta(
			meta.Required("artist_id", meta.TypeText),
			meta.Required("track_id", meta.TypeText),
		),
		meta.NewPrimaryKey("artist_id", "track_id"),
		meta.NewForeignKeys(
			meta.References(TableArtists, "artist_id", "artist_id"),
			meta.References(TableSongs, "track_id", "track_id"),
		),
	)
}

// imageDecl declares an image table owned by parentTable through key.
func imageDecl(name, table, parentTable, key string) entity.Declaration {
	return entity.Declaration{Name: name, Extends: SpotifyEntity, Shape: entity.ShapeDependentRow}.Concrete(
		table,
		meta.NewTableMeta(
			meta.Required(key, meta.TypeText),
			meta.Required("url", meta.TypeText),
			meta.Optional("width", meta.TypeInteger),
			meta.Optional("height", meta.TypeInteger),
		),
		meta.NewPrimaryKey(key, "url"),
		meta.NewForeignKeys(meta.References(parentTable, key, key)),
	)
}

func geniusArtistDecl() entity.Declaration {
	return entity.Declaration{Name: "GeniusArtistInfo", Extends: GeniusEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableGeniusArtists,
		meta.NewTableMeta(
			meta.Required("genius_id", meta.TypeInteger),
			meta.Required("name", meta.TypeText),
			meta.Required("genius_url", meta.TypeText),
			meta.Optional("image_url", meta.TypeText),
		),
		meta.NewPrimaryKey("genius_id"),
		meta.NoForeignKeys(),
	)
}

func geniusAlbumDecl() entity.Declaration {
	return entity.Declaration{Name: "GeniusAlbumInfo", Extends: GeniusEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableGeniusAlbums,
		meta.NewTableMeta(
			meta.Required("genius_id", meta.TypeInteger),
			meta.Required("title", meta.TypeText),
			meta.Required("genius_url", meta.TypeText),
			meta.Required("primary_artist_genius_id", meta.TypeInteger),
			meta.Required("release_date", meta.TypeText),
			meta.Optional("image_url", meta.TypeText),
		),
		meta.NewPrimaryKey("genius_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusArtists, "genius_id", "primary_artist_genius_id"),
		),
	)
}

func geniusSongDecl() entity.Declaration {
	return entity.Declaration{Name: "GeniusSongInfo", Extends: GeniusEntity, Shape: entity.ShapeSingleKey}.Concrete(
		TableGeniusSongs,
		meta.NewTableMeta(
			meta.Required("genius_id", meta.TypeInteger),
			meta.Required("title", meta.TypeText),
			meta.Required("genius_url", meta.TypeText),
			meta.Required("primary_artist_genius_id", meta.TypeInteger),
			meta.Required("album_genius_id", meta.TypeInteger),
			meta.Required("release_date", meta.TypeText),
			meta.Optional("image_url", meta.TypeText),
			meta.Optional("apple_music_id", meta.TypeText),
			meta.Optional("youtube_video_id", meta.TypeText),
			meta.Optional("language", meta.TypeText),
		),
		meta.NewPrimaryKey("genius_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusArtists, "genius_id", "primary_artist_genius_id"),
			meta.References(TableGeniusAlbums, "genius_id", "album_genius_id"),
		),
	)
}

func geniusDiscographyDecl() entity.Declaration {
	return entity.Declaration{Name: "GeniusDiscographyEntry", Extends: GeniusEntity, Shape: entity.ShapeAssociation}.Concrete(
		TableGeniusDiscography,
		meta.NewTableMeta(
			meta.Required("artist_genius_id", meta.TypeInteger),
			meta.Required("song_genius_id", meta.TypeInteger),
		),
		meta.NewPrimaryKey("artist_genius_id", "song_genius_id"),
		meta.NewForeignKeys(
			meta.References(TableGeniusArtists, "genius_id", "artist_genius_id"),
			meta.References(TableGeniusSongs, "genius_id", "song_genius_id"),
		),
	)
}
