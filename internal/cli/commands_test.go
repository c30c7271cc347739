package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	radiohead     = "4Z8W4fKeB5YxbusRsdQVPb"
	paranoidTrack = "3SVAN3BRByDmHOhKyIDxfC"
)

// newEnv writes a config pointing at a fresh database and returns its directory.
func newEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "database:\n  path: test.db\nlog:\n  level: error\n  format: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "songmeta.yaml"), []byte(cfg), 0o644))

	prev := lookupEnv
	lookupEnv = func(string) (string, bool) { return "", false }
	t.Cleanup(func() { lookupEnv = prev })
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// run executes a command against the environment in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	out, _, err := execute(t, append([]string{"--config", dir}, args...)...)
	return out, err
}

func decode(t *testing.T, out string, data any) Response {
	t.Helper()
	var resp Response
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestInit(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "init")
	require.NoError(t, err)
	dbPath := filepath.Join(dir, "test.db")
	assert.True(t, strings.HasPrefix(out, "✓ "+dbPath+" (schema v1, "), out)
	assert.FileExists(t, dbPath)

	out, err = run(t, dir, "--format", "json", "init")
	require.NoError(t, err)
	var result InitResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, result.Version)
	assert.Contains(t, result.Tables, "songs")
	assert.Contains(t, result.Tables, "genius_discography")
}

func TestTypesConcrete(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "types", "--concrete")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "types_concrete", []byte(out))
}

func TestTypesJSON(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "--format", "json", "types")
	require.NoError(t, err)

	var infos []TypeInfo
	decode(t, out, &infos)
	byName := make(map[string]TypeInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	song, ok := byName["Song"]
	require.True(t, ok)
	assert.True(t, song.Concrete)
	assert.Equal(t, "songs", song.Table)
	assert.Equal(t, []string{"track_id"}, song.PrimaryKey)

	spotify, ok := byName["SpotifyEntity"]
	require.True(t, ok)
	assert.False(t, spotify.Concrete)
	assert.Empty(t, spotify.Table)
}

func TestCheck_Valid(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "check", "testdata/decls")
	require.NoError(t, err)
	assert.Equal(t, "✓ 1 declaration(s) valid\n", out)
}

func TestCheck_Invalid(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "check", "testdata/decls_bad")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "check_invalid", []byte(out))
}

func TestCheck_InvalidJSON(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "--format", "json", "check", "testdata/decls_bad")
	require.Error(t, err)

	var result CheckResult
	decode(t, out, &result)
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 2)
	assert.Equal(t, "E004", result.Issues[0].Code)
	assert.Equal(t, 2, result.Issues[0].Line)
	assert.Equal(t, "E207", result.Issues[1].Code)
	assert.Equal(t, "Orphan", result.Issues[1].Type)
}

func TestCheck_MissingDir(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "check", filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestImportAndQuery(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "--format", "json", "import", "testdata/import.yaml")
	require.NoError(t, err)
	var imported ImportResult
	decode(t, out, &imported)
	assert.Equal(t, []string{paranoidTrack}, imported.Songs)
	assert.Equal(t, 1, imported.Genius)
	assert.False(t, imported.DryRun)

	// Re-importing the same file is idempotent.
	_, err = run(t, dir, "import", "testdata/import.yaml")
	require.NoError(t, err)

	out, err = run(t, dir, "tracks", radiohead)
	require.NoError(t, err)
	assert.Equal(t, paranoidTrack+"\n", out)

	out, err = run(t, dir, "tracks", "--genius", "604")
	require.NoError(t, err)
	assert.Equal(t, "1263\n", out)

	out, err = run(t, dir, "--format", "json", "joint", radiohead)
	require.NoError(t, err)
	var rows []SongRow
	decode(t, out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, SongRow{
		ID:            paranoidTrack,
		Title:         "Paranoid Android",
		PrimaryArtist: radiohead,
		Album:         "6dVIqQ8qmQ5GBnJ9shOYGE",
		Disc:          "1",
		Track:         "2",
	}, rows[0])

	out, err = run(t, dir, "joint", radiohead, "0OdUWJ0sBjDrqHygGUXeCF")
	require.NoError(t, err)
	assert.Equal(t, "no joint songs\n", out)
}

func TestImport_DryRun(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "import", "--dry-run", "testdata/import.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 song(s) checked (dry run)")

	out, err = run(t, dir, "tracks", radiohead)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, dir, "--format", "json", "tracks", "--strict", radiohead)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestImport_Inconsistent(t *testing.T) {
	dir := newEnv(t)

	out, err := run(t, dir, "import", "testdata/inconsistent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")

	out, err = run(t, dir, "tracks", radiohead)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestImport_MissingFile(t *testing.T) {
	dir := newEnv(t)

	_, err := run(t, dir, "import", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingExplicitConfig(t *testing.T) {
	newEnv(t)

	out, err := run(t, filepath.Join(t.TempDir(), "none.yaml"), "init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}
