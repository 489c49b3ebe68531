package dupedetector

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-ini/ini"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvironment
const EnvPrefix = "DUPEDETECTOR"

// Settings is the resolved configuration of one run. Values are layered:
// defaults, then the config file, then the environment, then command line
// flags.
type Settings struct {
	ChunkSize    int64
	SampleSize   int64
	HashName     string
	SymlinkMode  string
	Ignore       []string
	Output       string
	VerboseLevel int
	Debug        string
	Stats        bool
	Paths        []string
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() *Settings {
	return &Settings{
		ChunkSize:   DefaultChunkSize,
		SampleSize:  DefaultSampleSize,
		HashName:    DefaultHashName,
		SymlinkMode: SymlinkAll,
		Output:      DefaultOutput,
	}
}

// Validate checks every setting and returns the first problem found
func (s *Settings) Validate() error {
	if err := ValidateChunkSize(s.ChunkSize); err != nil {
		return &ConfigError{Key: "chunk size", Err: err}
	}
	if err := ValidateSampleSize(s.SampleSize); err != nil {
		return &ConfigError{Key: "sample size", Err: err}
	}
	if err := ValidateHashAlgorithm(s.HashName); err != nil {
		return &ConfigError{Key: "hash", Err: err}
	}
	if err := ValidateSymlinkMode(s.SymlinkMode); err != nil {
		return &ConfigError{Key: "symlinks", Err: err}
	}
	if err := ValidateVerboseLevel(s.VerboseLevel); err != nil {
		return &ConfigError{Key: "verbose level", Err: err}
	}
	for _, pattern := range s.Ignore {
		if _, err := regexp.Compile(pattern); err != nil {
			return &ConfigError{Key: "ignore pattern", Err: err}
		}
	}
	if s.Output == "" {
		return &ConfigError{Key: "output", Err: errors.New("destination must not be empty")}
	}
	if len(s.Paths) == 0 {
		return &ConfigError{Key: "paths", Err: errors.New("at least one path is required")}
	}
	return nil
}

// Config represents an ini configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// DefaultConfigPath returns $DUPEDETECTOR_CONFIG or the per-user config file
func DefaultConfigPath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dupedetector", "config")
}

// LoadConfig loads configuration from an ini file. A missing file yields an
// empty configuration; nothing is written to disk.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{configPath: configPath}

	if configPath == "" {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile
	return cfg, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.configPath
}

// Apply copies every value present in the file onto s
//
//	[sampling]  chunk_size, sample_size
//	[filehash]  default
//	[scan]      symlinks, ignore (comma-separated regexes)
//	[output]    path, stats
//	[verbose]   level, debug
func (c *Config) Apply(s *Settings) error {
	if section, err := c.ini.GetSection("sampling"); err == nil {
		if section.HasKey("chunk_size") {
			size, err := ParseSize(section.Key("chunk_size").String())
			if err != nil {
				return &ConfigError{Key: "sampling.chunk_size", Err: err}
			}
			s.ChunkSize = size
		}
		if section.HasKey("sample_size") {
			size, err := ParseSize(section.Key("sample_size").String())
			if err != nil {
				return &ConfigError{Key: "sampling.sample_size", Err: err}
			}
			s.SampleSize = size
		}
	}

	if section, err := c.ini.GetSection("filehash"); err == nil {
		if section.HasKey("default") {
			s.HashName = section.Key("default").String()
		}
	}

	if section, err := c.ini.GetSection("scan"); err == nil {
		if section.HasKey("symlinks") {
			s.SymlinkMode = section.Key("symlinks").String()
		}
		if section.HasKey("ignore") {
			s.Ignore = append(s.Ignore, section.Key("ignore").Strings(",")...)
		}
	}

	if section, err := c.ini.GetSection("output"); err == nil {
		if section.HasKey("path") {
			s.Output = section.Key("path").String()
		}
		if section.HasKey("stats") {
			stats, err := section.Key("stats").Bool()
			if err != nil {
				return &ConfigError{Key: "output.stats", Err: err}
			}
			s.Stats = stats
		}
	}

	if section, err := c.ini.GetSection("verbose"); err == nil {
		if section.HasKey("level") {
			level, err := section.Key("level").Int()
			if err != nil {
				return &ConfigError{Key: "verbose.level", Err: err}
			}
			s.VerboseLevel = level
		}
		if section.HasKey("debug") {
			s.Debug = section.Key("debug").String()
		}
	}

	return nil
}

// environment mirrors the settings that can come from DUPEDETECTOR_* variables.
// Keys are derived with split_words so that only prefixed names are read.
type environment struct {
	ChunkSize  string   `split_words:"true"`
	SampleSize string   `split_words:"true"`
	Hash       string   `split_words:"true"`
	Symlinks   string   `split_words:"true"`
	Out        string   `split_words:"true"`
	Debug      string   `split_words:"true"`
	Level      *int     `split_words:"true"`
	Stats      *bool    `split_words:"true"`
	Ignore     []string `split_words:"true"`
}

// ApplyEnvironment copies every DUPEDETECTOR_* variable that is set onto s
func ApplyEnvironment(s *Settings) error {
	var env environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		var perr *envconfig.ParseError
		if errors.As(err, &perr) {
			return &ConfigError{Key: perr.KeyName, Err: perr.Err}
		}
		return fmt.Errorf("parsing environment variables: %w", err)
	}

	if env.ChunkSize != "" {
		size, err := ParseSize(env.ChunkSize)
		if err != nil {
			return &ConfigError{Key: EnvPrefix + "_CHUNK_SIZE", Err: err}
		}
		s.ChunkSize = size
	}
	if env.SampleSize != "" {
		size, err := ParseSize(env.SampleSize)
		if err != nil {
			return &ConfigError{Key: EnvPrefix + "_SAMPLE_SIZE", Err: err}
		}
		s.SampleSize = size
	}
	if env.Hash != "" {
		s.HashName = env.Hash
	}
	if env.Symlinks != "" {
		s.SymlinkMode = env.Symlinks
	}
	if env.Out != "" {
		s.Output = env.Out
	}
	if env.Debug != "" {
		s.Debug = env.Debug
	}
	if env.Level != nil {
		s.VerboseLevel = *env.Level
	}
	if env.Stats != nil {
		s.Stats = *env.Stats
	}
	s.Ignore = append(s.Ignore, env.Ignore...)
	return nil
}

// ApplyOverrides applies command-line overrides to the settings
// Accepts strings like "chunk_size:4MB", "hash:sha256", "level:2", "debug:scan"
func ApplyOverrides(s *Settings, overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "chunk_size":
			size, err := ParseSize(value)
			if err != nil {
				return &ConfigError{Key: key, Err: err}
			}
			s.ChunkSize = size
		case "sample_size":
			size, err := ParseSize(value)
			if err != nil {
				return &ConfigError{Key: key, Err: err}
			}
			s.SampleSize = size
		case "hash":
			s.HashName = value
		case "symlinks":
			s.SymlinkMode = value
		case "ignore":
			s.Ignore = append(s.Ignore, value)
		case "out":
			s.Output = value
		case "level":
			level, err := strconv.Atoi(value)
			if err != nil {
				return &ConfigError{Key: key, Err: err}
			}
			s.VerboseLevel = level
		case "debug":
			s.Debug = value
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: chunk_size, sample_size, hash, symlinks, ignore, out, level, debug)", key)
		}
	}

	return nil
}

// ParseSize parses a byte count such as "1000000", "4MB" or "1MiB"
func ParseSize(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	size, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}
	if size == 0 {
		return 0, fmt.Errorf("size must be positive: %s", sizeStr)
	}
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	return int64(size), nil
}

// ValidateChunkSize validates the read granularity
func ValidateChunkSize(size int64) error {
	if size < 1 {
		return fmt.Errorf("chunk size must be at least 1 byte, got: %d", size)
	}
	if size > MaxChunkSize {
		return fmt.Errorf("chunk size must be at most %s, got: %d", humanize.IBytes(MaxChunkSize), size)
	}
	return nil
}

// ValidateSampleSize validates the per-anchor sample window
func ValidateSampleSize(size int64) error {
	if size < 1 {
		return fmt.Errorf("sample size must be at least 1 byte, got: %d", size)
	}
	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	_, err := GetHashAlgorithm(algorithm)
	return err
}

// ValidateSymlinkMode validates that a symlink mode is supported
func ValidateSymlinkMode(mode string) error {
	switch strings.ToLower(mode) {
	case SymlinkAll, SymlinkContained, SymlinkNone:
		return nil
	default:
		return fmt.Errorf("unsupported symlink mode: %s (supported: all, contained, none)", mode)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}
