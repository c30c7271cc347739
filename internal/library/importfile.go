package library

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/songmeta/internal/catalog"
	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
)

// ImportFile is the YAML document accepted by songmeta import.
//
//	songs:
//	  - song: {track_id: ..., title: ...}
//	    primary_artist:
//	      artist: {artist_id: ..., name: ...}
//	      images: [{url: ..., width: 640, height: 640}]
//	    album:
//	      album: {album_id: ..., ...}
//	      images: [...]
//	    featured: [...]
//	    genius:
//	      song: {...}
//	      primary_artist: {...}
//	      album: {...}
//	      featured: [...]
//
// Image rows may omit their owner id; it is taken from the enclosing row.
type ImportFile struct {
	Songs []ImportSong `yaml:"songs"`
}

// ImportSong is one entry of ImportFile.
type ImportSong struct {
	Song          row            `yaml:"song"`
	PrimaryArtist importArtist   `yaml:"primary_artist"`
	Album         importAlbum    `yaml:"album"`
	Featured      []importArtist `yaml:"featured"`
	Genius        *importGenius  `yaml:"genius"`
}

type row map[string]any

type importArtist struct {
	Artist row   `yaml:"artist"`
	Images []row `yaml:"images"`
}

type importAlbum struct {
	Album  row   `yaml:"album"`
	Images []row `yaml:"images"`
}

type importGenius struct {
	Song          row   `yaml:"song"`
	PrimaryArtist row   `yaml:"primary_artist"`
	Album         row   `yaml:"album"`
	Featured      []row `yaml:"featured"`
}

var (
	// ErrEmptyImport is returned for a document with no songs.
	ErrEmptyImport = errors.New("import file has no songs")
	// ErrBadValue is returned for a scalar that does not fit its column.
	ErrBadValue = errors.New("value does not fit column")
)

// ReadImport decodes an import document. Unknown top-level keys are errors.
func ReadImport(r io.Reader) (*ImportFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f ImportFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyImport
		}
		return nil, fmt.Errorf("parse import: %w", err)
	}
	if len(f.Songs) == 0 {
		return nil, ErrEmptyImport
	}
	return &f, nil
}

// Bundles converts the entry into instances of cat's types.
// The Genius bundle is nil when the entry has no genius section.
func (s ImportSong) Bundles(cat *catalog.Catalog) (SongBundle, *GeniusBundle, error) {
	var b SongBundle
	var err error

	if b.Song, err = instance(cat.Song, s.Song, nil); err != nil {
		return SongBundle{}, nil, err
	}
	if b.PrimaryArtist, err = artistBundle(cat, s.PrimaryArtist); err != nil {
		return SongBundle{}, nil, err
	}
	if b.Album.Album, err = instance(cat.Album, s.Album.Album, nil); err != nil {
		return SongBundle{}, nil, err
	}
	if b.Album.Images, err = images(cat.AlbumImage, b.Album.Album, s.Album.Images); err != nil {
		return SongBundle{}, nil, err
	}
	for _, f := range s.Featured {
		ab, err := artistBundle(cat, f)
		if err != nil {
			return SongBundle{}, nil, err
		}
		b.Featured = append(b.Featured, ab)
	}

	if s.Genius == nil {
		return b, nil, nil
	}
	g := &GeniusBundle{}
	if g.Song, err = instance(cat.GeniusSong, s.Genius.Song, nil); err != nil {
		return SongBundle{}, nil, err
	}
	if g.PrimaryArtist, err = instance(cat.GeniusArtist, s.Genius.PrimaryArtist, nil); err != nil {
		return SongBundle{}, nil, err
	}
	if g.Album, err = instance(cat.GeniusAlbum, s.Genius.Album, nil); err != nil {
		return SongBundle{}, nil, err
	}
	for _, f := range s.Genius.Featured {
		a, err := instance(cat.GeniusArtist, f, nil)
		if err != nil {
			return SongBundle{}, nil, err
		}
		g.Featured = append(g.Featured, a)
	}
	return b, g, nil
}

func artistBundle(cat *catalog.Catalog, a importArtist) (ArtistBundle, error) {
	artist, err := instance(cat.Artist, a.Artist, nil)
	if err != nil {
		return ArtistBundle{}, err
	}
	imgs, err := images(cat.ArtistImage, artist, a.Images)
	if err != nil {
		return ArtistBundle{}, err
	}
	return ArtistBundle{Artist: artist, Images: imgs}, nil
}

// images builds image rows, filling the owner column from owner when absent.
func images(t *entity.Type, owner *entity.Instance, rows []row) ([]*entity.Instance, error) {
	col, err := t.FKColumnToSingleKey(owner.Type())
	if err != nil {
		return nil, err
	}
	id, err := owner.PKValue()
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Instance, 0, len(rows))
	for _, r := range rows {
		img, err := instance(t, r, meta.Fields{col: id})
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// instance converts a decoded row into an instance of t. defaults fill
// columns the row leaves out.
func instance(t *entity.Type, r row, defaults meta.Fields) (*entity.Instance, error) {
	fields := make(meta.Fields, len(r)+len(defaults))
	for col, v := range defaults {
		fields[col] = v
	}
	for col, raw := range r {
		v, err := convert(t, col, raw)
		if err != nil {
			return nil, err
		}
		fields[col] = v
	}
	inst, err := entity.New(t, fields)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", t.Name(), err)
	}
	return inst, nil
}

// convert maps a YAML scalar onto the column's declared type. Columns the
// type does not declare pass through so entity.New can name them.
func convert(t *entity.Type, col string, raw any) (meta.Value, error) {
	if raw == nil {
		return meta.Null, nil
	}
	fm, ok := t.Table().Field(col)
	if !ok {
		return meta.ValueOf(raw)
	}
	switch fm.Type {
	case meta.TypeText:
		if s, ok := raw.(string); ok {
			return meta.Text(catalog.NormalizeText(s)), nil
		}
	case meta.TypeInteger:
		switch n := raw.(type) {
		case int:
			return meta.Int(n), nil
		case int64:
			return meta.Int(n), nil
		}
	case meta.TypeReal:
		switch n := raw.(type) {
		case float64:
			return meta.Real(n), nil
		case int:
			return meta.Real(float64(n)), nil
		}
	case meta.TypeBool:
		if b, ok := raw.(bool); ok {
			return meta.Bool(b), nil
		}
	case meta.TypeBlob:
		switch b := raw.(type) {
		case string:
			return meta.Blob(b), nil
		case []byte:
			return meta.Blob(b), nil
		}
	}
	return nil, fmt.Errorf("import %s.%s: %w: got %T, want %s", t.Name(), col, ErrBadValue, raw, fm.Type)
}
