// Package catalog declares the song metadata tables.
//
// Spotify tables:
//
//	artists        single key (artist_id)
//	albums         single key (album_id), references artists
//	songs          single key (track_id), references artists and albums
//	discography    association of artists and songs
//	artist_images  dependent row of artists, keyed (artist_id, url)
//	album_images   dependent row of albums, keyed (album_id, url)
//
// Genius tables:
//
//	genius_artist_info  single key (genius_id)
//	genius_album_info   single key (genius_id), references genius_artist_info
//	genius_song_info    single key (genius_id), references artist and album info
//	genius_discography  association of genius artists and songs
//
// Spotify rows point at their Genius counterpart through a nullable genius_id.
// The Init structs build field maps for these tables: every field is optional
// and a nil field stays unset.
package catalog
