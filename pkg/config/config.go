package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Settings is the settings handle given to every class-based command
	// handler. Keys and values are opaque to the framework.
	Settings map[string]string

	// Config represents the mach configuration file.
	Config struct {
		// SearchPath lists additional directories that are scanned for
		// mach/commands manifests. Relative entries are resolved against
		// the directory holding the configuration file.
		SearchPath []string `yaml:"search_path,omitempty"`

		// Settings are handed to command handlers untouched
		Settings Settings `yaml:"settings,omitempty"`

		// dir is the directory the configuration was loaded from
		dir string
	}
)

// LoadConfig parses a configuration from the provided io.Reader.
//
// An empty document is accepted and yields an empty configuration, since the
// file only carries optional values.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader("search_path: [tools]"))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Println(cfg.SearchPath)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal mach config")
	}

	if cfg.Settings == nil {
		cfg.Settings = Settings{}
	}

	return &cfg, nil
}

// LoadConfigFile loads a configuration from the specified file path and
// resolves relative search path entries against the file's directory.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve config path: %s", path)
	}

	cfg.dir = filepath.Dir(abs)
	for i, entry := range cfg.SearchPath {
		if !filepath.IsAbs(entry) {
			cfg.SearchPath[i] = filepath.Join(cfg.dir, entry)
		}
	}

	return cfg, nil
}

// Path returns the location of the configuration file to load: $MACH_CONFIG
// when set, otherwise mach.yaml inside dir.
func Path(dir string, getenv func(string) string) string {
	if p := getenv(consts.ConfigEnv); p != "" {
		return p
	}

	return filepath.Join(dir, consts.ConfigFile)
}

// GetSettings returns the handler settings. It is safe to call on a nil
// config, in which case an empty handle is returned.
func (c *Config) GetSettings() Settings {
	if c == nil || c.Settings == nil {
		return Settings{}
	}

	return c.Settings
}

// GetSearchPath returns the configured search path entries. It is safe to call
// on a nil config.
func (c *Config) GetSearchPath() []string {
	if c == nil {
		return nil
	}

	return c.SearchPath
}
