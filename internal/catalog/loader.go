package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/psyscore/internal/models"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the decoder from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported catalog file %s", path)
	}
}

// Parse decodes one definition. Unknown keys are rejected.
func Parse(r io.Reader, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	def.normalize()
	return &def, nil
}

// ParseFile reads and decodes a catalog file.
func ParseFile(path string) (*Definition, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	def, err := Parse(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.source = path
	return def, nil
}

// Loader reads and validates catalog files. In strict mode band gaps and
// overlaps are errors; otherwise they are logged and the instrument loads.
type Loader struct {
	Strict bool
	Logger *slog.Logger
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Expand resolves glob patterns (** supported) to a sorted, de-duplicated file list.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, err := FormatForPath(m); err != nil || seen[m] {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load parses every file matched by patterns and validates the set.
func (l *Loader) Load(patterns []string) ([]*Definition, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files match %s", strings.Join(patterns, ", "))
	}
	var (
		defs  []*Definition
		errs  []error
		codes = map[string]string{}
	)
	for _, p := range paths {
		def, err := ParseFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := l.Check(def); err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := codes[def.Code]; dup {
			errs = append(errs, fmt.Errorf("instrument %s defined in both %s and %s", def.Code, prev, p))
			continue
		}
		codes[def.Code] = p
		defs = append(defs, def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return defs, nil
}

// Check validates one definition, applying the loader's strictness to band coverage.
func (l *Loader) Check(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := def.CheckBands(); err != nil {
		if l.Strict {
			return err
		}
		l.logger().Warn("catalog band coverage", "instrument", def.Code, "source", def.source, "error", err)
	}
	return nil
}

// Seeder stores an instrument with its questions and bands.
type Seeder interface {
	ReplaceInstrument(ctx context.Context, inst *models.Instrument, bands []models.ResultBand) (*models.Instrument, error)
}

// Seed writes each definition through the seeder, stopping at the first failure.
func Seed(ctx context.Context, store Seeder, defs []*Definition) ([]*models.Instrument, error) {
	out := make([]*models.Instrument, 0, len(defs))
	for _, def := range defs {
		inst, err := store.ReplaceInstrument(ctx, def.Instrument(), def.ResultBands())
		if err != nil {
			return out, fmt.Errorf("seed %s: %w", def.Code, err)
		}
		out = append(out, inst)
	}
	return out, nil
}
