package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/songmeta/internal/catalog"
	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
)

// ErrInconsistentBundle reports a bundle whose rows do not reference each other.
var ErrInconsistentBundle = errors.New("inconsistent bundle")

// Library writes and reads songs through the catalog types.
type Library struct {
	cat    *catalog.Catalog
	logger zerolog.Logger
}

// New returns a Library over cat.
func New(cat *catalog.Catalog, logger zerolog.Logger) *Library {
	return &Library{cat: cat, logger: logger}
}

// Catalog returns the catalog the library writes through.
func (l *Library) Catalog() *catalog.Catalog { return l.cat }

// ArtistBundle is an artist row with its images.
type ArtistBundle struct {
	Artist *entity.Instance
	Images []*entity.Instance
}

// AlbumBundle is an album row with its images.
type AlbumBundle struct {
	Album  *entity.Instance
	Images []*entity.Instance
}

// SongBundle is everything InsertSong needs for one track.
type SongBundle struct {
	Song          *entity.Instance
	PrimaryArtist ArtistBundle
	Album         AlbumBundle
	Featured      []ArtistBundle
}

// Artists returns the primary artist followed by the featured artists.
func (b SongBundle) Artists() []ArtistBundle {
	return append([]ArtistBundle{b.PrimaryArtist}, b.Featured...)
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistentBundle, fmt.Sprintf(format, args...))
}

// get reads a column that validation has already proven present.
func get(inst *entity.Instance, col string) meta.Value {
	v, err := inst.Get(col)
	if err != nil {
		return meta.Unset
	}
	return v
}

// checkType fails unless inst is an instance of want.
func checkType(role string, inst *entity.Instance, want *entity.Type) error {
	if inst == nil {
		return inconsistent("%s is missing", role)
	}
	if inst.Type() != want {
		return inconsistent("%s is a %s, want %s", role, inst.Type().Name(), want.Name())
	}
	return nil
}

// matchFK checks that child's reference to parent's key holds parent's key value.
func matchFK(role string, child, parent *entity.Instance) error {
	col, err := child.Type().FKColumnToSingleKey(parent.Type())
	if err != nil {
		return fmt.Errorf("%s: %w", role, err)
	}
	pk, err := parent.PKValue()
	if err != nil {
		return err
	}
	if got := get(child, col); !meta.Equal(got, pk) {
		return inconsistent("%s %s = %s, want %s", role, col, meta.Format(got), meta.Format(pk))
	}
	return nil
}

// validateSong checks the bundle's cross references before any write.
func (l *Library) validateSong(b SongBundle) error {
	c := l.cat
	if err := checkType("song", b.Song, c.Song); err != nil {
		return err
	}
	if err := checkType("album", b.Album.Album, c.Album); err != nil {
		return err
	}

	artists := b.Artists()
	artistIDs := make([]meta.Value, 0, len(artists))
	for i, ab := range artists {
		if err := checkType(fmt.Sprintf("artist %d", i), ab.Artist, c.Artist); err != nil {
			return err
		}
		for j, img := range ab.Images {
			if err := checkType(fmt.Sprintf("artist %d image %d", i, j), img, c.ArtistImage); err != nil {
				return err
			}
			if err := matchFK("artist image", img, ab.Artist); err != nil {
				return err
			}
		}
		id, err := ab.Artist.PKValue()
		if err != nil {
			return err
		}
		artistIDs = append(artistIDs, id)
	}

	for j, img := range b.Album.Images {
		if err := checkType(fmt.Sprintf("album image %d", j), img, c.AlbumImage); err != nil {
			return err
		}
		if err := matchFK("album image", img, b.Album.Album); err != nil {
			return err
		}
	}

	// The song's album must be the supplied album.
	if err := matchFK("song", b.Song, b.Album.Album); err != nil {
		return err
	}

	// The album's primary artist must be one of the supplied artists.
	col, err := c.Album.FKColumnToSingleKey(c.Artist)
	if err != nil {
		return err
	}
	albumArtist := get(b.Album.Album, col)
	found := false
	for _, id := range artistIDs {
		if meta.Equal(id, albumArtist) {
			found = true
			break
		}
	}
	if !found {
		return inconsistent("album %s = %s is not among the supplied artists", col, meta.Format(albumArtist))
	}

	// The song's primary artist must be the primary artist.
	return matchFK("song", b.Song, b.PrimaryArtist.Artist)
}

// InsertSong upserts the artists, their images, the album and its images,
// then the song, then one discography row per artist.
func (l *Library) InsertSong(ctx context.Context, q entity.Execer, b SongBundle) error {
	if err := l.validateSong(b); err != nil {
		return err
	}

	artists := b.Artists()
	for _, ab := range artists {
		if err := entity.Upsert(ctx, q, ab.Artist); err != nil {
			return err
		}
		for _, img := range ab.Images {
			if err := entity.Upsert(ctx, q, img); err != nil {
				return err
			}
		}
	}

	if err := entity.Upsert(ctx, q, b.Album.Album); err != nil {
		return err
	}
	for _, img := range b.Album.Images {
		if err := entity.Upsert(ctx, q, img); err != nil {
			return err
		}
	}

	if err := entity.Upsert(ctx, q, b.Song); err != nil {
		return err
	}

	for _, ab := range artists {
		if err := l.RegisterDiscographyEntry(ctx, q, ab.Artist, b.Song); err != nil {
			return err
		}
	}

	id, _ := b.Song.PKValue()
	l.logger.Info().
		Str("track_id", meta.Format(id)).
		Int("artists", len(artists)).
		Msg("song stored")
	return nil
}

// RegisterDiscographyEntry records that artist appears on song. A repeated
// entry is a no-op.
func (l *Library) RegisterDiscographyEntry(ctx context.Context, q entity.Execer, artist, song *entity.Instance) error {
	return l.associate(ctx, q, l.cat.Discography, artist, song)
}

// RegisterArtistImage upserts img after checking that it belongs to artist.
func (l *Library) RegisterArtistImage(ctx context.Context, q entity.Execer, artist, img *entity.Instance) error {
	if err := checkType("artist image", img, l.cat.ArtistImage); err != nil {
		return err
	}
	if err := matchFK("artist image", img, artist); err != nil {
		return err
	}
	return entity.Upsert(ctx, q, img)
}

// RegisterAlbumImage upserts img after checking that it belongs to album.
func (l *Library) RegisterAlbumImage(ctx context.Context, q entity.Execer, album, img *entity.Instance) error {
	if err := checkType("album image", img, l.cat.AlbumImage); err != nil {
		return err
	}
	if err := matchFK("album image", img, album); err != nil {
		return err
	}
	return entity.Upsert(ctx, q, img)
}

// associate inserts the assoc row linking two single-key rows.
func (l *Library) associate(ctx context.Context, q entity.Execer, assoc *entity.Type, left, right *entity.Instance) error {
	fields := meta.Fields{}
	for _, side := range []*entity.Instance{left, right} {
		col, err := assoc.FKColumnToSingleKey(side.Type())
		if err != nil {
			return err
		}
		pk, err := side.PKValue()
		if err != nil {
			return err
		}
		fields[col] = pk
	}
	entry, err := entity.New(assoc, fields)
	if err != nil {
		return err
	}
	_, err = entity.Insert(ctx, q, entry, true)
	return err
}

// LinkGenius points a Spotify row at its Genius counterpart by setting the
// referencing column and patching the stored row.
func (l *Library) LinkGenius(ctx context.Context, q entity.Execer, spotify, genius *entity.Instance) error {
	col, err := spotify.Type().FKColumnToSingleKey(genius.Type())
	if err != nil {
		return err
	}
	id, err := genius.PKValue()
	if err != nil {
		return err
	}
	key, err := spotify.PKValues()
	if err != nil {
		return err
	}
	key[col] = id
	patch, err := entity.New(spotify.Type(), key)
	if err != nil {
		return err
	}
	changed, err := entity.Patch(ctx, q, patch)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("link %s to %s: %w", spotify.Type().Name(), genius.Type().Name(), entity.ErrNotFound)
	}
	return spotify.Set(col, id)
}
