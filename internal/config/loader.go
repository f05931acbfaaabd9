package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix
const DefaultEnvPrefix = "PLAYGROUND_"

// DefaultChallengeFile is the challenge definition file name inside the project root
const DefaultChallengeFile = "challenge.yml"

// Loader loads configuration from multiple sources
type Loader struct {
	k             *koanf.Koanf
	envPrefix     string
	challengeFile string
	overrides     map[string]any
}

// Option configures the Loader
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithChallengeFile sets the path of the challenge definition
func WithChallengeFile(path string) Option {
	return func(l *Loader) {
		l.challengeFile = path
	}
}

// WithOverrides sets values applied after every other source, such as CLI flags
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source and returns the validated configuration
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.challengeFile != "" {
		ck := koanf.New(".")
		if err := ck.Load(file.Provider(l.challengeFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load challenge file %s: %w", l.challengeFile, err)
		}
		if err := l.k.MergeAt(ck, "challenge"); err != nil {
			return nil, fmt.Errorf("merge challenge file: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return nil, err
	}

	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadEnv loads configuration from environment variables.
// A single underscore separates sections and a double underscore is a literal one:
// PLAYGROUND_TOKEN_KEY -> token.key, PLAYGROUND_CHALLENGE_SOLVED__EVENT -> challenge.solved_event.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", "\x00")
		s = strings.ReplaceAll(s, "_", ".")
		return strings.ReplaceAll(s, "\x00", "_")
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// LoadMap loads configuration from a flat key map, used for flags and tests
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider
var ErrReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider loads configuration from a flat key map
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return unflatten(out), nil
}

// unflatten turns {"a.b": 1} into {"a": {"b": 1}}
func unflatten(flat map[string]any) map[string]any {
	out := map[string]any{}
	for key, v := range flat {
		parts := strings.Split(key, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return out
}
