package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the config file location
	EnvConfigPath = "DOXSEARCH_CONFIG"

	// EnvDataDir overrides data_dir
	EnvDataDir = "DOXSEARCH_DATA_DIR"

	DefaultMaxResults = 10
	DefaultCacheSize  = 256
	DefaultCacheTTL   = 7 * 24 * time.Hour

	schemaURL = "https://doxsearch.dev/schema/config.json"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

// Source is one Doxygen search directory to index.
// Exactly one of URL (remote search/ directory) or Path (local one) is set.
type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url,omitempty"`
	Path    string `yaml:"path,omitempty"`
	DocsURL string `yaml:"docs_url,omitempty"` // Base that relative targets resolve against
}

// Remote reports whether the source is downloaded
func (s Source) Remote() bool {
	return s.URL != ""
}

// Config is the in-memory representation of config.yaml
type Config struct {
	DataDir    string   `yaml:"data_dir,omitempty"`
	Sources    []Source `yaml:"sources,omitempty"`
	CacheTTL   string   `yaml:"cache_ttl,omitempty"`
	MaxResults int      `yaml:"max_results,omitempty"`
	CacheSize  int      `yaml:"cache_size,omitempty"`
	Watch      *bool    `yaml:"watch,omitempty"`

	ttl time.Duration
}

// TTL returns the parsed cache_ttl
func (c *Config) TTL() time.Duration {
	if c.ttl == 0 {
		return DefaultCacheTTL
	}
	return c.ttl
}

// WatchEnabled reports whether the data directory should be watched (default true)
func (c *Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns $DOXSEARCH_CONFIG or ~/.doxsearch-mcp/config.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".doxsearch-mcp", "config.yaml"), nil
}

// Load reads the config file at path (DefaultPath when empty).
// A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse validates and decodes a YAML document
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) > 0 {
		if err := validate(data); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.CacheTTL != "" {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: cache_ttl: %v", ErrInvalidConfig, err)
		}
		cfg.ttl = ttl
	}

	seen := make(map[string]bool)
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate source name %q", ErrInvalidConfig, s.Name)
		}
		seen[s.Name] = true

		if s.Path != "" {
			p, err := ExpandPath(s.Path)
			if err != nil {
				return nil, err
			}
			s.Path = p
		}
		if s.URL != "" && !strings.HasSuffix(s.URL, "/") {
			s.URL += "/"
		}
	}

	if cfg.DataDir != "" {
		dir, err := ExpandPath(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.ttl == 0 {
		c.ttl = DefaultCacheTTL
	}
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		if expanded, err := ExpandPath(dir); err == nil {
			c.DataDir = expanded
		}
	}
}

// validate checks the YAML document against the embedded JSON schema
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}

	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, describeValidation(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}
	return schema, nil
}

// describeValidation appends the instance locations of the leaf causes
func describeValidation(verr *jsonschema.ValidationError) string {
	var locations []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			locations = append(locations, "/"+strings.Join(e.InstanceLocation, "/"))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)

	return fmt.Sprintf("%s (at %s)", strings.TrimSpace(verr.Error()), strings.Join(locations, ", "))
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
