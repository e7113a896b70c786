package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Loading errors.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrNoFiles      = errors.New("no configuration files matched")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// Format is a file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes data without validating it.
func Parse(data []byte, format Format) (*Collection, error) {
	var c Collection
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	default:
		if !json.Valid(data) {
			return nil, ErrInvalidJSON
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	}
	return &c, nil
}

// LoadFile reads and validates one file. Relative body files are resolved
// against the file's directory.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	c, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range c.Expectations {
		for j := range c.Expectations[i].Responses {
			r := &c.Expectations[i].Responses[j]
			if r.BodyFile != "" && !filepath.IsAbs(r.BodyFile) {
				r.BodyFile = filepath.Join(dir, r.BodyFile)
			}
		}
	}
	c.Sources = []string{path}
	return c, nil
}

// Load reads every file named by patterns, in order, and merges them.
// Patterns may use doublestar globs such as "mocks/**/*.yaml"; files a
// pattern matches are read in lexical order.
func Load(patterns ...string) (*Collection, error) {
	merged := &Collection{Version: Version}
	for _, pattern := range patterns {
		paths, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			c, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			merged.Merge(c)
		}
	}
	return merged, nil
}

// LoadGlob is Load for a single pattern that must match at least one file.
func LoadGlob(pattern string) (*Collection, error) {
	paths, err := expand(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	return Load(paths...)
}

func expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", pattern, err)
	}
	return paths, nil
}

// Merge appends other's entries to c.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	c.Requirements = append(c.Requirements, other.Requirements...)
	c.Expectations = append(c.Expectations, other.Expectations...)
	c.WebSockets = append(c.WebSockets, other.WebSockets...)
	c.Sources = append(c.Sources, other.Sources...)
	if c.Name == "" {
		c.Name = other.Name
	}
}

// Count returns the number of HTTP and WebSocket expectations.
func (c *Collection) Count() int {
	return len(c.Expectations) + len(c.WebSockets)
}

// Marshal encodes c in format.
func (c *Collection) Marshal(format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(c)
	}
	return json.MarshalIndent(c, "", "  ")
}
