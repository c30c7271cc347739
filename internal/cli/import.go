package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/library"
	"github.com/roach88/songmeta/internal/meta"
)

// ImportResult is the payload of songmeta import.
type ImportResult struct {
	File   string   `json:"file"`
	Songs  []string `json:"songs"`
	Genius int      `json:"genius"`
	DryRun bool     `json:"dry_run"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <bundle.yaml>",
		Short: "Store the songs described by a YAML bundle file",
		Long: `Store every song in the bundle file inside one transaction.

Each entry's Genius section, when present, is stored first and the
Spotify song is linked to it. Any inconsistent entry rolls the whole
file back. With --dry-run the statements run and are logged, then
rolled back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, cmd, args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run and log every statement, then roll back")
	return cmd
}

func runImport(opts *RootOptions, cmd *cobra.Command, path string, dryRun bool) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	dryRun = dryRun || s.cfg.DryRun

	fh, err := os.Open(path)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, err)
	}
	imp, err := library.ReadImport(fh)
	fh.Close()
	if err != nil {
		return s.out.Fail(ExitFailure, ErrCodeBundle, err)
	}

	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	lib := library.New(s.cat, s.logger)
	result := ImportResult{File: path, DryRun: dryRun}
	run := func(tx *sql.Tx) error {
		q := entity.Logged(tx, s.logger)
		for _, entry := range imp.Songs {
			stored, err := importEntry(cmd.Context(), lib, q, entry)
			if err != nil {
				return err
			}
			result.Songs = append(result.Songs, stored)
			if entry.Genius != nil {
				result.Genius++
			}
		}
		return nil
	}

	if dryRun {
		err = st.DryRun(cmd.Context(), run)
	} else {
		err = st.WithTx(cmd.Context(), run)
	}
	if err != nil {
		if errors.Is(err, library.ErrInconsistentBundle) || errors.Is(err, library.ErrBadValue) || isEntityError(err) {
			return s.out.Fail(ExitFailure, ErrCodeBundle, err)
		}
		return s.out.Fail(ExitCommandError, ErrCodeDatabase, err)
	}

	s.logger.Info().Int("songs", len(result.Songs)).Bool("dry_run", dryRun).Msg("import finished")
	return s.out.Success(result, func(w io.Writer) {
		verb := "imported"
		if dryRun {
			verb = "checked (dry run)"
		}
		fmt.Fprintf(w, "✓ %d song(s) %s from %s\n", len(result.Songs), verb, path)
		for _, id := range result.Songs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	})
}

// importEntry stores one bundle entry and returns its track id.
func importEntry(ctx context.Context, lib *library.Library, q entity.Execer, entry library.ImportSong) (string, error) {
	song, genius, err := entry.Bundles(lib.Catalog())
	if err != nil {
		return "", err
	}
	if genius != nil {
		if err := lib.InsertGeniusSong(ctx, q, *genius); err != nil {
			return "", err
		}
	}
	if err := lib.InsertSong(ctx, q, song); err != nil {
		return "", err
	}
	if genius != nil {
		if err := lib.LinkGenius(ctx, q, song.Song, genius.Song); err != nil {
			return "", err
		}
	}
	id, err := song.Song.PKValue()
	if err != nil {
		return "", err
	}
	if text, ok := id.(meta.Text); ok {
		return string(text), nil
	}
	return meta.Format(id), nil
}

// isEntityError reports errors caused by the bundle's values rather than
// the database.
func isEntityError(err error) bool {
	var fe *entity.FieldError
	var mf *entity.MissingFieldsError
	return errors.As(err, &fe) || errors.As(err, &mf)
}
