// Package config resolves htmpl settings from flags, environment, dotenv
// files, and an optional .htmpl.yaml config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/htmpl/internal/store"
)

// Setting keys, shared by the config file, HTMPL_* variables, and flags.
const (
	KeyDriver = "driver"
	KeyDSN    = "dsn"
	KeyStrict = "strict"
)

const (
	envPrefix  = "HTMPL"
	configName = ".htmpl"
)

// Config holds the resolved settings.
type Config struct {
	Driver string // database/sql driver, see store.LookupDriver
	DSN    string // data source; a file path for SQLite
	Strict bool   // reject malformed templates
}

// Loader resolves a Config. Priority, highest first: explicitly set flags,
// HTMPL_* environment variables (including those loaded from .env.local and
// .env), the config file, defaults.
type Loader struct {
	fs   afero.Fs
	v    *viper.Viper
	home func() (string, error)
}

// NewLoader creates a Loader that reads files from fs.
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	return &Loader{fs: fs, v: v, home: homedir.Dir}
}

// BindFlags binds the --driver, --db, and --strict flags, when present in
// flags, to their settings.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for key, name := range map[string]string{KeyDriver: "driver", KeyDSN: "db", KeyStrict: "strict"} {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load resolves the configuration.
//
// If configFile is empty, .htmpl.yaml is searched for in the working
// directory and in ~/.config/htmpl; a missing file is not an error. An
// explicit configFile must exist.
func (l *Loader) Load(configFile string) (*Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	v := l.v
	v.SetDefault(KeyDriver, store.DefaultDriver)
	v.SetDefault(KeyStrict, true)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := l.home(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "htmpl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		Driver: v.GetString(KeyDriver),
		DSN:    v.GetString(KeyDSN),
		Strict: v.GetBool(KeyStrict),
	}, nil
}

// ConfigFileUsed returns the config file that was read, or "".
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// loadDotEnv applies .env.local and then .env from the working directory.
// Variables already in the environment are kept, and .env.local takes
// precedence over .env.
func (l *Loader) loadDotEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		f, err := l.fs.Open(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		vars, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); !set {
				os.Setenv(k, val)
			}
		}
	}
	return nil
}
