package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/library"
	"github.com/roach88/songmeta/internal/meta"
)

// queryOptions are the flags shared by tracks and joint.
type queryOptions struct {
	strict bool
	genius bool
}

func (q *queryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&q.strict, "strict", false, "fail when an artist is not stored")
	cmd.Flags().BoolVar(&q.genius, "genius", false, "artist ids are Genius ids")
}

// TracksResult is the payload of songmeta tracks.
type TracksResult struct {
	Artist string   `json:"artist"`
	Tracks []string `json:"tracks"`
}

// NewTracksCommand creates the tracks command.
func NewTracksCommand(rootOpts *RootOptions) *cobra.Command {
	var qopts queryOptions
	cmd := &cobra.Command{
		Use:   "tracks <artist_id>",
		Short: "List the tracks an artist appears on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracks(rootOpts, cmd, args[0], qopts)
		},
	}
	qopts.bind(cmd)
	return cmd
}

func runTracks(opts *RootOptions, cmd *cobra.Command, artist string, qopts queryOptions) error {
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
	result := TracksResult{Artist: artist, Tracks: []string{}}

	if qopts.genius {
		ids, err := parseGeniusIDs([]string{artist})
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		songs, err := lib.GeniusSongsForArtist(cmd.Context(), q, ids[0], qopts.strict)
		if err != nil {
			return failQuery(s, err)
		}
		for _, id := range songs {
			result.Tracks = append(result.Tracks, strconv.FormatInt(id, 10))
		}
	} else {
		tracks, err := lib.TracksForArtist(cmd.Context(), q, artist, qopts.strict)
		if err != nil {
			return failQuery(s, err)
		}
		result.Tracks = append(result.Tracks, tracks...)
	}

	return s.out.Success(result, func(w io.Writer) {
		for _, id := range result.Tracks {
			fmt.Fprintln(w, id)
		}
	})
}

func parseGeniusIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("genius id %q: %w", a, err)
		}
		ids[i] = n
	}
	return ids, nil
}

func failQuery(s *session, err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return s.out.Fail(ExitFailure, ErrCodeNotFound, err)
	}
	return s.out.Fail(ExitCommandError, ErrCodeDatabase, err)
}

// text renders a stored text column, or "" when it is NULL.
func text(inst *entity.Instance, col string) string {
	v, err := inst.Get(col)
	if err != nil {
		return ""
	}
	if t, ok := v.(meta.Text); ok {
		return string(t)
	}
	if meta.IsNull(v) {
		return ""
	}
	return meta.Format(v)
}
