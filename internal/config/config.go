package config

import (
	"fmt"
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v2"
)

// Supported output formats.
const (
	OutputSARIF = "sarif"
	OutputJSON  = "json"
)

// Environment variables overriding the YAML configuration.
const (
	EnvLogLevel  = "SCANIO_LOG_LEVEL"
	EnvMergeJobs = "SCANIO_MERGE_JOBS"
)

// Config is the YAML configuration of a merge run.
type Config struct {
	Logger     Logger   `yaml:"logger"`
	Project    Project  `yaml:"project"`
	CatalogDir string   `yaml:"catalog_dir"`
	Merge      Merge    `yaml:"merge"`
	Sources    []Source `yaml:"sources"`
	Output     Output   `yaml:"output"`
}

// Logger holds logging settings. Unset booleans fall back to their defaults.
type Logger struct {
	Level           string `yaml:"level"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
	DisableTime     *bool  `yaml:"disable_time"`
}

// Project describes the analysed code base.
type Project struct {
	BaseDir     string   `yaml:"base_dir"`     // Root that relative report paths are resolved against
	SourceDirs  []string `yaml:"source_dirs"`  // Directories tried first for relative paths
	SourceRoots []string `yaml:"source_roots"` // Directory sequences whose sub-directories are packages
	PackageDoc  string   `yaml:"package_doc"`  // Package documentation file name synthesized by the walker
	Exclude     []string `yaml:"exclude"`      // Gitignore-style patterns skipped by the walker
}

// Merge holds settings of the merge algorithm.
type Merge struct {
	Jobs int `yaml:"jobs"`
}

// Source is one configured report source.
type Source struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Flavor string `yaml:"flavor"`
}

// Output selects where and how the merged result is written.
type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// ValidateConfigPath checks that path names an existing regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file and applies environment overrides.
// An empty path yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		if err := LoadYAML(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides configuration values with the supported environment variables.
func applyEnv(cfg *Config) error {
	if jobs := os.Getenv(EnvMergeJobs); jobs != "" {
		n, err := strconv.Atoi(jobs)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvMergeJobs, err)
		}
		cfg.Merge.Jobs = n
	}
	return nil
}
