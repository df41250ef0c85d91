// Package models defines configuration and the shared data types that
// flow between the fetch, extract and emit stages.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultURL             = "https://ftp.ebi.ac.uk/pub/databases/intact/complex/current/complextab/homo_sapiens.tsv"
	DefaultIndexURL        = "https://ftp.ebi.ac.uk/pub/databases/intact/complex/current/complextab/"
	DefaultCachePath       = "homo_sapiens.tsv"
	DefaultChunkSize       = 1 << 20 // 1 MiB
	DefaultTimeout         = 5 * time.Minute
	DefaultDigestAlgorithm = "sha256"
	DefaultDBPath          = "complexportal.db"
	DefaultIdentifierField = "Complex ac"
	DefaultConfigFile      = "complexportal.yaml"
)

// NamespaceConfig holds the header metadata written into a BEL namespace.
type NamespaceConfig struct {
	Keyword         string `yaml:"keyword"`
	Name            string `yaml:"name"`
	Domain          string `yaml:"domain"`
	Species         string `yaml:"species"`
	Encoding        string `yaml:"encoding"` // label given to every value
	IdentifierField string `yaml:"identifier_field"`
	QueryValueURL   string `yaml:"query_value_url"`
	Author          string `yaml:"author"`
	AuthorContact   string `yaml:"author_contact"`
	Citation        string `yaml:"citation"`
	CitationURL     string `yaml:"citation_url"`
}

// Config holds runtime configuration. Values come from DefaultConfig,
// optionally overlaid by a YAML file and then by CLI flags.
type Config struct {
	URL             string          `yaml:"url"`
	IndexURL        string          `yaml:"index_url"`
	CachePath       string          `yaml:"cache_path"`
	ChunkSize       int             `yaml:"chunk_size"`
	Timeout         time.Duration   `yaml:"timeout"`
	DigestAlgorithm string          `yaml:"digest_algorithm"` // sha256 | blake3
	DBPath          string          `yaml:"db_path"`
	Namespace       NamespaceConfig `yaml:"namespace"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		IndexURL:        DefaultIndexURL,
		CachePath:       DefaultCachePath,
		ChunkSize:       DefaultChunkSize,
		Timeout:         DefaultTimeout,
		DigestAlgorithm: DefaultDigestAlgorithm,
		DBPath:          DefaultDBPath,
		Namespace: NamespaceConfig{
			Keyword:         "complexportal",
			Name:            "Complex Portal",
			Domain:          "Other",
			Species:         "9606",
			Encoding:        "C",
			IdentifierField: DefaultIdentifierField,
			QueryValueURL:   "https://www.ebi.ac.uk/complexportal/complex/[VALUE]",
			Author:          "Complex Portal",
			AuthorContact:   "intact-help@ebi.ac.uk",
			Citation:        "Complex Portal",
			CitationURL:     "https://www.ebi.ac.uk/complexportal",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Fields missing from
// the file keep their defaults. A missing file is an error unless
// allowMissing is set, in which case the defaults are returned.
func LoadConfig(path string, allowMissing bool) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: url must not be empty")
	}
	if c.CachePath == "" {
		return errors.New("config: cache_path must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	switch c.DigestAlgorithm {
	case "sha256", "blake3":
	default:
		return fmt.Errorf("config: unsupported digest_algorithm %q", c.DigestAlgorithm)
	}
	if c.Namespace.IdentifierField == "" {
		return errors.New("config: namespace.identifier_field must not be empty")
	}
	return nil
}
