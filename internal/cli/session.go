package cli

import (
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/catalog"
	"github.com/roach88/songmeta/internal/config"
	"github.com/roach88/songmeta/internal/declfile"
	"github.com/roach88/songmeta/internal/entity"
	"github.com/roach88/songmeta/internal/logging"
	"github.com/roach88/songmeta/internal/store"
)

// session is the per-invocation state shared by commands.
type session struct {
	opts   *RootOptions
	cfg    *config.Config
	logger zerolog.Logger
	runID  string
	out    *OutputFormatter
	cat    *catalog.Catalog
	// extra holds the types loaded from the configured declarations directory.
	extra []*entity.Type
}

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// newSession resolves config, builds the logger and registers the catalog.
// Errors are already reported through the formatter.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	s := &session{
		opts:  opts,
		runID: uuid.NewString(),
	}
	s.out = &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), RunID: s.runID}

	cfg, err := config.Resolve(opts.Config, cmd.Flags().Changed("config"), lookupEnv)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, s.out.Fail(ExitCommandError, ErrCodeNotFound, err)
		}
		return nil, s.out.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	s.cfg = cfg

	logCfg := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, s.out.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	s.logger = logger.With().Str("run_id", s.runID).Str("command", cmd.Name()).Logger()

	s.cat, err = catalog.New(entity.NewRegistry(entity.WithLogger(s.logger)))
	if err != nil {
		return nil, s.out.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if cfg.Declarations != "" {
		decls, err := declfile.LoadDir(cfg.Declarations)
		if err == nil {
			s.extra, err = declfile.Register(s.cat.Registry, decls)
		}
		if err != nil {
			return nil, s.out.Fail(ExitFailure, ErrCodeDeclarations, err)
		}
		s.logger.Debug().Int("types", len(s.extra)).Str("dir", cfg.Declarations).Msg("declarations loaded")
	}
	return s, nil
}

// openStore opens the configured database.
func (s *session) openStore() (*store.Store, error) {
	st, err := store.Open(s.cfg.Database.Path, store.WithLogger(s.logger))
	if err != nil {
		return nil, s.out.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	return st, nil
}
