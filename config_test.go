package modeldef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestParseConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modeldef.yml")
	require.NoError(t, writeFile(path, `
skip_tables:
  - schema_migrations
  - "ar_.*"
skip_drop: true
before_apply: "SET lock_timeout = '1s'"
`))

	config, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		SkipTables:  []string{"schema_migrations", "ar_.*"},
		SkipDrop:    true,
		BeforeApply: "SET lock_timeout = '1s'",
	}, config)

	options := Options{SkipTables: []string{"sessions"}, BeforeApply: "SET statement_timeout = 0"}
	config.Apply(&options)
	assert.Equal(t, []string{"sessions", "schema_migrations", "ar_.*"}, options.SkipTables)
	assert.True(t, options.SkipDrop)
	assert.False(t, options.Reset)
	assert.Equal(t, "SET statement_timeout = 0", options.BeforeApply)
}

func TestParseConfigErrors(t *testing.T) {
	config, err := ParseConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, config)

	path := filepath.Join(t.TempDir(), "modeldef.yml")
	require.NoError(t, writeFile(path, "skip_table: [users]\n"))
	_, err = ParseConfig(path)
	assert.Error(t, err)

	_, err = ParseConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
