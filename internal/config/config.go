// Package config loads unwind.yaml or unwind.toml and validates the result
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Output formats.
const (
	FormatText      = "text"
	FormatJSON      = "json"
	FormatCanonical = "canonical"
	FormatMsgpack   = "msgpack"
)

// FileNames are the config files Find looks for, in priority order.
var FileNames = []string{"unwind.yaml", "unwind.yml", "unwind.toml"}

// Config is the resolved configuration. Field tags serve all three
// encodings: yaml and toml for files, json for CUE validation.
type Config struct {
	// Python is the interpreter command for the front end.
	Python string `yaml:"python" toml:"python" json:"python"`

	// ExtendedOperators selects the dialect that names every operator.
	ExtendedOperators bool `yaml:"extended_operators" toml:"extended_operators" json:"extended_operators"`

	// Cache is the SQLite cache path. Empty disables caching.
	Cache string `yaml:"cache" toml:"cache" json:"cache"`

	// Format is the output encoding: text, json, canonical or msgpack.
	Format string `yaml:"format" toml:"format" json:"format"`

	// Jobs bounds how many files batch lowers at once.
	Jobs int `yaml:"jobs" toml:"jobs" json:"jobs"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Python: "python3",
		Format: FormatText,
		Jobs:   4,
	}
}

// ValidationError lists every schema violation found in a config.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Issues, "; ")
}

// Load reads the config file at path over the defaults and validates it.
// The encoding is chosen by extension. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".toml":
		err = decodeTOML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%s: unsupported config extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the first config file from FileNames present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil {
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		issues := []string{}
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			issues = append(issues, fmt.Sprintf("%s: %s", strings.Join(e.Path(), "."), fmt.Sprintf(format, args...)))
		}
		return &ValidationError{Issues: issues}
	}
	return nil
}
