// Package library stores complete songs: the song row, its artists and
// album, their images and the discography rows that tie artists to songs.
//
// Every write goes through the entity operations, so a Library never builds
// SQL for the rows it stores. The only statements it writes itself are the
// multi-row discography reads behind TracksForArtist, and those take their
// column names from the catalog's foreign-key metadata.
//
// Callers own the transaction. InsertSong validates the whole bundle before
// the first write, but a failure after that leaves earlier writes to the
// caller's rollback.
package library
