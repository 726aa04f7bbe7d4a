package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/spice/spice.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:7878", cfg.Server.Addr)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.True(t, cfg.CSV.HasHeader)
	assert.Equal(t, 2, cfg.CSV.LabelColumn)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: ` + filepath.Join(dir, "ledger.db") + `
logging:
  level: debug
  format: json
import:
  csv:
    delimiter: ";"
    has_header: false
    date_layout: "02/01/2006"
    date_column: 1
    amount_column: 3
    label_column: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.False(t, cfg.CSV.HasHeader)
	assert.Equal(t, 3, cfg.CSV.AmountColumn)
}

func TestLoad_Invalid(t *testing.T) {
	v := newViper()
	v.Set("logging.level", "loud")
	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v = newViper()
	v.Set("import.csv.delimiter", "||")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v = newViper()
	v.Set("database.path", " ")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SPICE_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SPICE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "loaded", os.Getenv("SPICE_TEST_DOTENV"))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("SPICE_DATA", "/data")
	t.Setenv("SPICE_LEDGER_HOME", "~/ledger")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: "/home/tester"},
		{input: "~/spice.db", want: "/home/tester/spice.db"},
		{input: "$SPICE_DATA/spice.db", want: "/data/spice.db"},
		{input: "/abs/path.db", want: "/abs/path.db"},
		{input: "${SPICE_DATA}//nested/../spice.db", want: "/data/spice.db"},
		{input: "$SPICE_LEDGER_HOME/spice.db", want: "/home/tester/ledger/spice.db"},
		{input: ":memory:", want: ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
