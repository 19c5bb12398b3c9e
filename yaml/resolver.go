// Package yaml loads per-origin extraction rulesets from YAML files.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fwojciec/canillita"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultFile is the base name of the default ruleset file.
const DefaultFile = "default"

var _ canillita.RuleResolver = (*Resolver)(nil)

// Resolver resolves origins to rulesets stored as <origin>.yaml files in a
// directory. Rulesets are loaded lazily on first use and cached for the
// life of the Resolver. Missing or malformed files resolve to the default
// ruleset. Resolver is safe for concurrent use.
type Resolver struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*canillita.Ruleset

	defaultOnce sync.Once
	def         *canillita.Ruleset
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report rulesets that fail to load.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver reading rulesets from dir. An empty dir
// resolves every origin to the built-in default ruleset.
func NewResolver(dir string, opts ...Option) *Resolver {
	r := &Resolver{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  make(map[string]*canillita.Ruleset),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the ruleset for an origin.
func (r *Resolver) Resolve(origin string) *canillita.Ruleset {
	origin = canillita.NormalizeOrigin(origin)

	r.mu.RLock()
	rs, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return rs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.cache[origin]; ok {
		return rs
	}

	rs = r.load(origin)
	r.cache[origin] = rs
	return rs
}

// Default returns the default ruleset: default.yaml from the directory when
// present and valid, otherwise the built-in default.
func (r *Resolver) Default() *canillita.Ruleset {
	r.defaultOnce.Do(func() {
		r.def = canillita.DefaultRuleset()
		path, ok := r.findFile(DefaultFile)
		if !ok {
			return
		}
		rs, err := LoadFile(path)
		if err != nil {
			r.logger.Warn("invalid default ruleset, using built-in", "path", path, "err", err)
			return
		}
		r.def = rs
	})
	return r.def
}

// Preload loads every ruleset file in the directory so that configuration
// errors surface at startup. Invalid files are reported in the returned
// error but still resolve to the default ruleset.
func (r *Resolver) Preload() error {
	if r.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read rules directory: %w", err)
	}

	var errs []error
	for _, e := range entries {
		origin, ok := originFromFileName(e.Name())
		if !ok || e.IsDir() || origin == DefaultFile {
			continue
		}
		path := filepath.Join(r.dir, e.Name())
		if _, err := LoadFile(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		r.Resolve(origin)
	}
	return errors.Join(errs...)
}

// Origins returns the origins resolved so far, sorted.
func (r *Resolver) Origins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	origins := make([]string, 0, len(r.cache))
	for o := range r.cache {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	return origins
}

func (r *Resolver) load(origin string) *canillita.Ruleset {
	if origin == "" || origin == DefaultFile || strings.ContainsAny(origin, `/\`) || strings.Contains(origin, "..") {
		return r.Default()
	}

	path, ok := r.findFile(origin)
	if !ok {
		return r.Default()
	}

	rs, err := LoadFile(path)
	if err != nil {
		r.logger.Warn("invalid ruleset, using default", "origin", origin, "path", path, "err", err)
		return r.Default()
	}
	if rs.Name == canillita.DefaultRulesetName {
		rs.Name = origin
	}
	return rs
}

func (r *Resolver) findFile(name string) (string, bool) {
	if r.dir == "" {
		return "", false
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(r.dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func originFromFileName(name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

// LoadFile reads and compiles a ruleset file.
func LoadFile(path string) (*canillita.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles a ruleset document. Unknown keys are errors.
func Parse(data []byte) (*canillita.Ruleset, error) {
	var rs canillita.Ruleset
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, canillita.Errorf(canillita.EINVALID, "empty ruleset")
		}
		return nil, canillita.Errorf(canillita.EINVALID, "failed to parse YAML: %v", err)
	}
	if err := rs.Compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}
