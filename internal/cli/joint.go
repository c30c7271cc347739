package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/library"
)

// SongRow is one song in songmeta joint output.
type SongRow struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	PrimaryArtist string `json:"primary_artist"`
	Album         string `json:"album"`
	Disc          string `json:"disc,omitempty"`
	Track         string `json:"track,omitempty"`
}

// NewJointCommand creates the joint command.
func NewJointCommand(rootOpts *RootOptions) *cobra.Command {
	var qopts queryOptions
	cmd := &cobra.Command{
		Use:   "joint <artist_id>...",
		Short: "List the songs every given artist appears on",
		Long: `List the songs shared by all given artists.

Spotify songs are ordered by primary artist, album, disc and track;
Genius songs by primary artist, album and title.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoint(rootOpts, cmd, args, qopts)
		},
	}
	qopts.bind(cmd)
	return cmd
}

func runJoint(opts *RootOptions, cmd *cobra.Command, artists []string, qopts queryOptions) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	lib := library.New(s.cat, s.logger)
	q := entity.Logged(st.DB(), s.logger)

	var songs []*entity.Instance
	if qopts.genius {
		ids, perr := parseGeniusIDs(artists)
		if perr != nil {
			return s.out.Fail(ExitCommandError, ErrCodeGeneric, perr)
		}
		songs, err = lib.GeniusJointSongs(cmd.Context(), q, ids, qopts.strict)
	} else {
		songs, err = lib.JointSongs(cmd.Context(), q, artists, qopts.strict)
	}
	if err != nil {
		return failQuery(s, err)
	}

	rows := make([]SongRow, 0, len(songs))
	for _, song := range songs {
		if qopts.genius {
			rows = append(rows, SongRow{
				ID:            text(song, "genius_id"),
				Title:         text(song, "title"),
				PrimaryArtist: text(song, "primary_artist_genius_id"),
				Album:         text(song, "album_genius_id"),
			})
			continue
		}
		rows = append(rows, SongRow{
			ID:            text(song, "track_id"),
			Title:         text(song, "title"),
			PrimaryArtist: text(song, "primary_artist_id"),
			Album:         text(song, "album_id"),
			Disc:          text(song, "disc_number"),
			Track:         text(song, "track_number"),
		})
	}

	return s.out.Success(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "no joint songs")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tPRIMARY ARTIST\tALBUM\tDISC\tTRACK")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.PrimaryArtist, r.Album, r.Disc, r.Track)
		}
		tw.Flush()
	})
}
