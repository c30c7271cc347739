package catalog

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/songmeta/internal/meta"
)

// fieldMap builds a field map from column/value pairs. nil values stay
// unset; text is normalized to NFC so the same title always compares equal.
type fieldMap meta.Fields

func (m fieldMap) put(col string, v meta.Value) fieldMap {
	if meta.IsUnset(v) {
		return m
	}
	if s, ok := v.(meta.Text); ok {
		v = meta.Text(norm.NFC.String(string(s)))
	}
	m[col] = v
	return m
}

func (m fieldMap) fields() meta.Fields { return meta.Fields(m) }

// NormalizeText returns s in Unicode NFC form.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// ArtistInit holds optional artists columns.
type ArtistInit struct {
	ArtistID       meta.Value
	Name           meta.Value
	GeniusID       meta.Value
	TotalFollowers meta.Value
	Genres         meta.Value
	Popularity     meta.Value
}

// Fields returns the set columns.
func (a ArtistInit) Fields() meta.Fields {
	return fieldMap{}.
		put("artist_id", a.ArtistID).
		put("name", a.Name).
		put("genius_id", a.GeniusID).
		put("total_followers", a.TotalFollowers).
		put("genres", a.Genres).
		put("popularity", a.Popularity).
		fields()
}

// AlbumInit holds optional albums columns.
type AlbumInit struct {
	AlbumID         meta.Value
	Title           meta.Value
	GeniusID        meta.Value
	PrimaryArtistID meta.Value
	AlbumType       meta.Value
	TotalTracks     meta.Value
	ReleaseDate     meta.Value
	Label           meta.Value
	Popularity      meta.Value
}

// Fields returns the set columns.
func (a AlbumInit) Fields() meta.Fields {
	return fieldMap{}.
		put("album_id", a.AlbumID).
		put("title", a.Title).
		put("genius_id", a.GeniusID).
		put("primary_artist_id", a.PrimaryArtistID).
		put("album_type", a.AlbumType).
		put("total_tracks", a.TotalTracks).
		put("release_date", a.ReleaseDate).
		put("label", a.Label).
		put("popularity", a.Popularity).
		fields()
}

// SongInit holds optional songs columns.
type SongInit struct {
	TrackID         meta.Value
	Title           meta.Value
	GeniusID        meta.Value
	PrimaryArtistID meta.Value
	AlbumID         meta.Value
	DiscNumber      meta.Value
	TrackNumber     meta.Value
	DurationMS      meta.Value
	Explicit        meta.Value
	Popularity      meta.Value
}

// Fields returns the set columns.
func (s SongInit) Fields() meta.Fields {
	return fieldMap{}.
		put("track_id", s.TrackID).
		put("title", s.Title).
		put("genius_id", s.GeniusID).
		put("primary_artist_id", s.PrimaryArtistID).
		put("album_id", s.AlbumID).
		put("disc_number", s.DiscNumber).
		put("track_number", s.TrackNumber).
		put("duration_ms", s.DurationMS).
		put("explicit", s.Explicit).
		put("popularity", s.Popularity).
		fields()
}

// ImageInit holds optional image columns. OwnerID fills artist_id or
// album_id, depending on the image table.
type ImageInit struct {
	OwnerID meta.Value
	URL     meta.Value
	Width   meta.Value
	Height  meta.Value
}

// ArtistImageFields returns the set artist_images columns.
func (i ImageInit) ArtistImageFields() meta.Fields {
	return i.fields("artist_id")
}

// AlbumImageFields returns the set album_images columns.
func (i ImageInit) AlbumImageFields() meta.Fields {
	return i.fields("album_id")
}

func (i ImageInit) fields(ownerCol string) meta.Fields {
	return fieldMap{}.
		put(ownerCol, i.OwnerID).
		put("url", i.URL).
		put("width", i.Width).
		put("height", i.Height).
		fields()
}

// GeniusArtistInit holds optional genius_artist_info columns.
type GeniusArtistInit struct {
	GeniusID  meta.Value
	Name      meta.Value
	GeniusURL meta.Value
	ImageURL  meta.Value
}

// Fields returns the set columns.
func (g GeniusArtistInit) Fields() meta.Fields {
	return fieldMap{}.
		put("genius_id", g.GeniusID).
		put("name", g.Name).
		put("genius_url", g.GeniusURL).
		put("image_url", g.ImageURL).
		fields()
}

// GeniusAlbumInit holds optional genius_album_info columns.
type GeniusAlbumInit struct {
	GeniusID              meta.Value
	Title                 meta.Value
	GeniusURL             meta.Value
	PrimaryArtistGeniusID meta.Value
	ReleaseDate           meta.Value
	ImageURL              meta.Value
}

// Fields returns the set columns.
func (g GeniusAlbumInit) Fields() meta.Fields {
	return fieldMap{}.
		put("genius_id", g.GeniusID).
		put("title", g.Title).
		put("genius_url", g.GeniusURL).
		put("primary_artist_genius_id", g.PrimaryArtistGeniusID).
		put("release_date", g.ReleaseDate).
		put("image_url", g.ImageURL).
		fields()
}

// GeniusSongInit holds optional genius_song_info columns.
type GeniusSongInit struct {
	GeniusID              meta.Value
	Title                 meta.Value
	GeniusURL             meta.Value
	PrimaryArtistGeniusID meta.Value
	AlbumGeniusID         meta.Value
	ReleaseDate           meta.Value
	ImageURL              meta.Value
	AppleMusicID          meta.Value
	YouTubeVideoID        meta.Value
	Language              meta.Value
}

// Fields returns the set columns.
func (g GeniusSongInit) Fields() meta.Fields {
	return fieldMap{}.
		put("genius_id", g.GeniusID).
		put("title", g.Title).
		put("genius_url", g.GeniusURL).
		put("primary_artist_genius_id", g.PrimaryArtistGeniusID).
		put("album_genius_id", g.AlbumGeniusID).
		put("release_date", g.ReleaseDate).
		put("image_url", g.ImageURL).
		put("apple_music_id", g.AppleMusicID).
		put("youtube_video_id", g.YouTubeVideoID).
		put("language", g.Language).
		fields()
}
