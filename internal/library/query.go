package library

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/meta"
)

// Sort orders for joint song lists. The key column breaks remaining ties.
var (
	songOrder       = []string{"primary_artist_id", "album_id", "disc_number", "track_number", "track_id"}
	geniusSongOrder = []string{"primary_artist_genius_id", "album_genius_id", "title", "genius_id"}
)

// TracksForArtist returns the sorted track ids the artist appears on. With
// strict set, an artist missing from the artists table is ErrNotFound
// rather than an empty result.
func (l *Library) TracksForArtist(ctx context.Context, q entity.Execer, artistID string, strict bool) ([]string, error) {
	c := l.cat
	ids, err := l.members(ctx, q, c.Discography, c.Artist, c.Song, meta.Text(artistID), strict)
	if err != nil {
		return nil, err
	}
	var tracks []string
	for _, id := range ids {
		if s, ok := id.(meta.Text); ok {
			tracks = append(tracks, string(s))
		}
	}
	return tracks, nil
}

// GeniusSongsForArtist is TracksForArtist over the Genius tables.
func (l *Library) GeniusSongsForArtist(ctx context.Context, q entity.Execer, geniusID int64, strict bool) ([]int64, error) {
	c := l.cat
	ids, err := l.members(ctx, q, c.GeniusDiscography, c.GeniusArtist, c.GeniusSong, meta.Int(geniusID), strict)
	if err != nil {
		return nil, err
	}
	var songs []int64
	for _, id := range ids {
		if n, ok := id.(meta.Int); ok {
			songs = append(songs, int64(n))
		}
	}
	return songs, nil
}

// JointSongs returns the songs every listed artist appears on, ordered by
// primary artist, album, disc and track. strict applies to each artist as
// in TracksForArtist.
func (l *Library) JointSongs(ctx context.Context, q entity.Execer, artistIDs []string, strict bool) ([]*entity.Instance, error) {
	ids := make([]meta.Value, len(artistIDs))
	for i, id := range artistIDs {
		ids[i] = meta.Text(id)
	}
	c := l.cat
	return l.joint(ctx, q, c.Discography, c.Artist, c.Song, ids, strict, songOrder)
}

// GeniusJointSongs returns the Genius songs every listed artist appears on,
// ordered by primary artist, album and title.
func (l *Library) GeniusJointSongs(ctx context.Context, q entity.Execer, geniusIDs []int64, strict bool) ([]*entity.Instance, error) {
	ids := make([]meta.Value, len(geniusIDs))
	for i, id := range geniusIDs {
		ids[i] = meta.Int(id)
	}
	c := l.cat
	return l.joint(ctx, q, c.GeniusDiscography, c.GeniusArtist, c.GeniusSong, ids, strict, geniusSongOrder)
}

// members returns the sorted keys of the member rows assoc links to the
// owner row keyed by id.
func (l *Library) members(ctx context.Context, q entity.Execer, assoc, owner, member *entity.Type, id meta.Value, strict bool) ([]meta.Value, error) {
	if q == nil {
		return nil, entity.ErrNoHandle
	}
	ownerKey, err := owner.PKName()
	if err != nil {
		return nil, err
	}
	if strict {
		key, err := entity.New(owner, meta.Fields{ownerKey: id})
		if err != nil {
			return nil, err
		}
		found, err := entity.Exists(ctx, q, key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%s %s: %w", owner.TableName(), meta.Format(id), entity.ErrNotFound)
		}
	}

	ownerCol, err := assoc.FKColumnToSingleKey(owner)
	if err != nil {
		return nil, err
	}
	memberCol, err := assoc.FKColumnToSingleKey(member)
	if err != nil {
		return nil, err
	}
	memberKey, err := member.PKName()
	if err != nil {
		return nil, err
	}
	fm, _ := member.Table().Field(memberKey)

	arg, err := meta.DriverValue(id)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		memberCol, assoc.TableName(), ownerCol, memberCol)
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", assoc.TableName(), meta.Format(id), err)
	}
	defer rows.Close()

	var out []meta.Value
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s for %s: scan: %w", assoc.TableName(), meta.Format(id), err)
		}
		v, err := meta.FromDriver(fm.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%s for %s: %w", assoc.TableName(), meta.Format(id), err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s for %s: %w", assoc.TableName(), meta.Format(id), err)
	}
	return out, nil
}

// joint intersects the member sets of every owner id, then loads each
// member row by key and sorts the rows by order. With strict, every id is
// checked even after the intersection is empty.
func (l *Library) joint(ctx context.Context, q entity.Execer, assoc, owner, member *entity.Type, ids []meta.Value, strict bool, order []string) ([]*entity.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var shared []meta.Value
	for i, id := range ids {
		keys, err := l.members(ctx, q, assoc, owner, member, id, strict)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			shared = keys
		} else {
			shared = slices.DeleteFunc(shared, func(v meta.Value) bool {
				return !slices.ContainsFunc(keys, func(k meta.Value) bool { return meta.Equal(k, v) })
			})
		}
		if len(shared) == 0 && !strict {
			return nil, nil
		}
	}
	if len(shared) == 0 {
		return nil, nil
	}

	memberKey, err := member.PKName()
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Instance, 0, len(shared))
	for _, key := range shared {
		inst, err := entity.Fetch(ctx, q, member, meta.Fields{memberKey: key})
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}

	slices.SortFunc(out, func(a, b *entity.Instance) int {
		for _, col := range order {
			if c := compareValues(get(a, col), get(b, col)); c != 0 {
				return c
			}
		}
		return 0
	})
	return out, nil
}

func compareValues(a, b meta.Value) int {
	switch x := a.(type) {
	case meta.Text:
		if y, ok := b.(meta.Text); ok {
			return cmp.Compare(x, y)
		}
	case meta.Int:
		if y, ok := b.(meta.Int); ok {
			return cmp.Compare(x, y)
		}
	}
	// NULL and mismatched kinds sort by their rendering.
	return cmp.Compare(meta.Format(a), meta.Format(b))
}
