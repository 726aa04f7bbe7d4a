// Package config resolves spice settings from flags, environment, .env files
// and the YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/importer"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"

// Config is the resolved application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Server       api.Config
	CSV          importer.CSVConfig
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	csv := importer.DefaultCSVConfig()
	server := api.DefaultConfig()

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("server.addr", server.Addr)
	v.SetDefault("server.allowed_origins", server.AllowedOrigins)
	v.SetDefault("import.csv.date_layout", csv.DateLayout)
	v.SetDefault("import.csv.delimiter", csv.Delimiter)
	v.SetDefault("import.csv.has_header", csv.HasHeader)
	v.SetDefault("import.csv.date_column", csv.DateColumn)
	v.SetDefault("import.csv.amount_column", csv.AmountColumn)
	v.SetDefault("import.csv.label_column", csv.LabelColumn)
}

// Load resolves the configuration from v. Values come from flags, SPICE_
// environment variables, the config file and defaults, in that order.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Server: api.Config{
			Addr:           v.GetString("server.addr"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
		},
		CSV: importer.CSVConfig{
			DateLayout:   v.GetString("import.csv.date_layout"),
			Delimiter:    v.GetString("import.csv.delimiter"),
			HasHeader:    v.GetBool("import.csv.has_header"),
			DateColumn:   v.GetInt("import.csv.date_column"),
			AmountColumn: v.GetInt("import.csv.amount_column"),
			LabelColumn:  v.GetInt("import.csv.label_column"),
		},
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if err := cfg.CSV.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ExpandPath resolves a configured file path. Environment references are
// substituted first, so a variable may itself hold a "~/" path; a leading "~"
// then becomes the user's home directory. SQLite's ":memory:" is returned as is.
func ExpandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return filepath.Clean(path)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding existing values. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(ExpandPath(path)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}
