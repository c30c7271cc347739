// Package declfile reads entity declarations from CUE files.
//
// Each file holds an "entity" struct keyed by type name:
//
//	entity: ArtistTag: {
//	    extends: "DependentRowEntity"
//	    table:   "artist_tags"
//	    fields: {
//	        artist_id: {type: "text"}
//	        tag:       {type: "text"}
//	        weight:    {type: "integer", nullable: true}
//	    }
//	    primary_key: ["artist_id", "tag"]
//	    foreign_keys: {artists: {artist_id: "artist_id"}}
//	}
//
// Declarations come back in file order, columns in CUE field order. Files
// are parsed with the CUE Go API; nothing is registered until the caller
// passes the declarations to Register or entity.Registry.Declare.
//
// Recognized keys: extends, shape, baseline, frozen, attrs, table, fields,
// primary_key, foreign_keys. extends defaults to BaseEntity. A declaration
// leaves every metadata key out (abstract) or names all four; the registry
// reports a partial set.
package declfile
