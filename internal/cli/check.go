package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/songmeta/internal/catalog"
	"github.com/roach88/songmeta/internal/declfile"
	"github.com/roach88/songmeta/internal/entity"
)

// CheckIssue is one problem found by songmeta check.
type CheckIssue struct {
	Code    string `json:"code"`
	Type    string `json:"type,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// CheckResult is the payload of songmeta check.
type CheckResult struct {
	Valid  bool         `json:"valid"`
	Types  []string     `json:"types,omitempty"`
	Issues []CheckIssue `json:"issues,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <declarations-dir>",
		Short: "Validate CUE entity declarations",
		Long: `Parse every .cue file under the directory and register its
declarations against the built-in catalog.

Parse errors carry their file position; registration errors carry
their E2xx code. Nothing is written to the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd, args[0])
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command, dir string) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	result := CheckResult{Valid: true}
	decls, loadErr := declfile.LoadDir(dir)
	if loadErr != nil && len(declfile.LoadErrors(loadErr)) == 0 {
		// Missing directory, no .cue files or an unreadable file.
		return s.out.Fail(ExitCommandError, ErrCodeNotFound, loadErr)
	}
	for _, le := range declfile.LoadErrors(loadErr) {
		issue := CheckIssue{Code: ErrCodeDeclarations, Field: le.Field, Message: le.Message}
		if le.Pos.IsValid() {
			issue.File, issue.Line = le.Pos.Filename(), le.Pos.Line()
		}
		result.Issues = append(result.Issues, issue)
	}

	// A fresh catalog keeps the configured declarations out of the check.
	cat, err := catalog.New(entity.NewRegistry(entity.WithLogger(s.logger)))
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	types, regErr := declfile.Register(cat.Registry, decls)
	for _, t := range types {
		result.Types = append(result.Types, t.Name())
	}
	for _, de := range entity.DeclarationErrors(regErr) {
		result.Issues = append(result.Issues, CheckIssue{
			Code:    de.Code,
			Type:    de.Type,
			Field:   de.Field,
			Message: de.Message,
		})
	}

	if len(result.Issues) > 0 {
		result.Valid = false
		s.logger.Warn().Int("issues", len(result.Issues)).Str("dir", dir).Msg("declarations invalid")
		if err := s.out.Success(result, func(w io.Writer) { writeIssues(w, result.Issues) }); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d issue(s)", len(result.Issues)))
	}

	return s.out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d declaration(s) valid\n", len(result.Types))
	})
}

func writeIssues(w io.Writer, issues []CheckIssue) {
	fmt.Fprintln(w, "✗ Check failed")
	fmt.Fprintln(w)
	for _, is := range issues {
		if is.File != "" {
			fmt.Fprintf(w, "%s:%d\n", is.File, is.Line)
		}
		subject := is.Field
		if is.Type != "" {
			subject = is.Type
			if is.Field != "" {
				subject += "." + is.Field
			}
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", is.Code, subject, is.Message)
	}
}
