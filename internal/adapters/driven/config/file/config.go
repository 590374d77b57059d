package file

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// Config is the typed configuration of the archive.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Consumer ConsumerConfig `toml:"consumer"`
	Storage  StorageConfig  `toml:"storage"`
	Rewrites []RewriteRule  `toml:"rewrite"`

	// path is where this config was loaded from.
	path string
}

// PathsConfig locates the directories and files the archive works with.
type PathsConfig struct {
	// DataDir holds the record database and the trained model.
	DataDir string `toml:"data_dir"`

	// MediaRoot is the base directory of originals, archive renditions
	// and thumbnails.
	MediaRoot string `toml:"media_root"`

	// ConsumptionDir is watched for new documents.
	ConsumptionDir string `toml:"consumption_dir"`

	// IndexDir holds the full-text index.
	IndexDir string `toml:"index_dir"`

	// ModelFile is the trained classification model.
	ModelFile string `toml:"model_file"`
}

// ConsumerConfig controls the consumption pipeline.
type ConsumerConfig struct {
	// DeleteDuplicates removes a source file whose checksum already
	// exists in the archive instead of leaving it in place.
	DeleteDuplicates bool `toml:"delete_duplicates"`

	// Workers is the number of parallel consumers the watcher runs.
	// Zero selects the CPU count.
	Workers int `toml:"workers"`

	// PreConsumeScript runs before parsing, receiving the source path.
	PreConsumeScript string `toml:"pre_consume_script"`

	// PostConsumeScript runs after a successful consume.
	PostConsumeScript string `toml:"post_consume_script"`

	// InboxTags are tag names applied to every consumed document when
	// no tag override is given. They are created and flagged as inbox
	// tags on demand.
	InboxTags []string `toml:"inbox_tags"`
}

// StorageConfig controls file placement under the media root.
type StorageConfig struct {
	// FilenameFormat is the placement template, e.g.
	// "{correspondent}/{title}". Empty means flat storage.
	FilenameFormat string `toml:"filename_format"`
}

// RewriteRule transforms incoming filenames before parsing.
type RewriteRule struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
}

// DefaultDir returns the default paperbase directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".paperbase"), nil
}

// Load reads the configuration from configDir, falling back to
// ~/.paperbase. A missing file yields the defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	cfg := defaults(configDir)
	cfg.path = filepath.Join(configDir, "config.toml")

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults(configDir)
	return cfg, nil
}

// Save persists the configuration with restricted permissions.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(c.path, data, 0600)
}

// Path returns the configuration file path.
func (c *Config) Path() string {
	return c.path
}

// WorkerCount resolves the configured worker count, defaulting to the
// CPU count.
func (c *Config) WorkerCount() int {
	if c.Consumer.Workers > 0 {
		return c.Consumer.Workers
	}
	return runtime.NumCPU()
}

func defaults(configDir string) *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:        filepath.Join(configDir, "data"),
			MediaRoot:      filepath.Join(configDir, "media"),
			ConsumptionDir: filepath.Join(configDir, "consume"),
			IndexDir:       filepath.Join(configDir, "index"),
			ModelFile:      filepath.Join(configDir, "data", "classifier.model"),
		},
		Consumer: ConsumerConfig{
			InboxTags: []string{"inbox"},
		},
	}
}

// applyDefaults fills path fields the file left empty.
func (c *Config) applyDefaults(configDir string) {
	d := defaults(configDir)
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = d.Paths.DataDir
	}
	if c.Paths.MediaRoot == "" {
		c.Paths.MediaRoot = d.Paths.MediaRoot
	}
	if c.Paths.ConsumptionDir == "" {
		c.Paths.ConsumptionDir = d.Paths.ConsumptionDir
	}
	if c.Paths.IndexDir == "" {
		c.Paths.IndexDir = d.Paths.IndexDir
	}
	if c.Paths.ModelFile == "" {
		c.Paths.ModelFile = d.Paths.ModelFile
	}
}
