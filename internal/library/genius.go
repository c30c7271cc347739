package library

import (
	"context"
	"fmt"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
)

// GeniusBundle is the Genius side of one song.
type GeniusBundle struct {
	Song          *entity.Instance
	PrimaryArtist *entity.Instance
	Album         *entity.Instance
	Featured      []*entity.Instance
}

// Artists returns the primary artist followed by the featured artists.
func (b GeniusBundle) Artists() []*entity.Instance {
	return append([]*entity.Instance{b.PrimaryArtist}, b.Featured...)
}

func (l *Library) validateGenius(b GeniusBundle) error {
	c := l.cat
	if err := checkType("genius song", b.Song, c.GeniusSong); err != nil {
		return err
	}
	if err := checkType("genius album", b.Album, c.GeniusAlbum); err != nil {
		return err
	}
	for i, a := range b.Artists() {
		if err := checkType(fmt.Sprintf("genius artist %d", i), a, c.GeniusArtist); err != nil {
			return err
		}
	}
	if err := matchFK("genius song", b.Song, b.Album); err != nil {
		return err
	}
	if err := matchFK("genius song", b.Song, b.PrimaryArtist); err != nil {
		return err
	}

	col, err := c.GeniusAlbum.FKColumnToSingleKey(c.GeniusArtist)
	if err != nil {
		return err
	}
	albumArtist := get(b.Album, col)
	for _, a := range b.Artists() {
		if id, _ := a.PKValue(); meta.Equal(id, albumArtist) {
			return nil
		}
	}
	return inconsistent("genius album %s = %s is not among the supplied artists", col, meta.Format(albumArtist))
}

// InsertGeniusSong upserts the Genius artists, album and song, then one
// Genius discography row per artist.
func (l *Library) InsertGeniusSong(ctx context.Context, q entity.Execer, b GeniusBundle) error {
	if err := l.validateGenius(b); err != nil {
		return err
	}
	artists := b.Artists()
	for _, a := range artists {
		if err := entity.Upsert(ctx, q, a); err != nil {
			return err
		}
	}
	if err := entity.Upsert(ctx, q, b.Album); err != nil {
		return err
	}
	if err := entity.Upsert(ctx, q, b.Song); err != nil {
		return err
	}
	for _, a := range artists {
		if err := l.associate(ctx, q, l.cat.GeniusDiscography, a, b.Song); err != nil {
			return err
		}
	}

	id, _ := b.Song.PKValue()
	l.logger.Info().
		Str("genius_id", meta.Format(id)).
		Int("artists", len(artists)).
		Msg("genius song stored")
	return nil
}
