package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/formatter"
)

// EnvPrefix is prepended to every environment variable the config reads,
// e.g. JSONWRAP_DECODE_DEPTH.
const EnvPrefix = "JSONWRAP_"

// Decode modes
const (
	ModeMap    = "map"
	ModeObject = "object"
)

// Config represents the complete configuration for jsonwrap
type Config struct {
	Decode DecodeConfig `yaml:"decode" envPrefix:"DECODE_"`
	Encode EncodeConfig `yaml:"encode" envPrefix:"ENCODE_"`
	Output OutputConfig `yaml:"output" envPrefix:"OUTPUT_"`
	Dev    DevConfig    `yaml:"dev" envPrefix:"DEV_"`
}

// DecodeConfig controls how input text is decoded
type DecodeConfig struct {
	Mode  string   `yaml:"mode" env:"MODE" validate:"oneof=map object"`
	Depth int      `yaml:"depth" env:"DEPTH" validate:"min=1,max=2147483647"`
	Flags []string `yaml:"flags" env:"FLAGS" validate:"dive,decode_flag"`
}

// EncodeConfig controls how decoded values are written back as JSON
type EncodeConfig struct {
	Pretty bool     `yaml:"pretty" env:"PRETTY"`
	Flags  []string `yaml:"flags" env:"FLAGS" validate:"dive,encode_flag"`
}

// OutputConfig controls what is rendered and where it goes
type OutputConfig struct {
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json dump summary"`
	Path   string `yaml:"path" env:"PATH"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool   `yaml:"debug" env:"DEBUG"`
	LogFile string `yaml:"log_file" env:"LOG_FILE"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Decode: DecodeConfig{
			Mode:  ModeMap,
			Depth: jsonwrap.DefaultDepth,
			Flags: []string{},
		},
		Encode: EncodeConfig{
			Pretty: false,
			Flags:  []string{},
		},
		Output: OutputConfig{
			Format: formatter.FormatJSON,
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonwrap.yml", ".jsonwrap.yaml", "jsonwrap.yml", "jsonwrap.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// LoadDotEnv loads the given dotenv files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from JSONWRAP_* environment variables.
// Variables that are not set leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

var validatorInstance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report yaml names so errors point at what the user wrote
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("encode_flag", func(fl validator.FieldLevel) bool {
		_, ok := lookupEncodeFlag(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("decode_flag", func(fl validator.FieldLevel) bool {
		_, ok := lookupDecodeFlag(fl.Field().String())
		return ok
	})
	return v
})

// Validate checks every field against its allowed values
func (c *Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "encode_flag", "decode_flag":
			problems = append(problems, fmt.Sprintf("%s: unknown flag %q", field, fe.Value()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s: %v is not one of [%s]", field, fe.Value(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s: %v violates %s=%s", field, fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// NormalizeFlagName reduces a flag name in any case style to a lookup key,
// so pretty_print, PrettyPrint, pretty-print and JSON_PRETTY_PRINT agree.
func NormalizeFlagName(name string) string {
	key := strings.ReplaceAll(strcase.ToSnake(name), "_", "")
	return strings.TrimPrefix(key, "json")
}

func lookupEncodeFlag(name string) (jsonwrap.EncodeFlag, bool) {
	key := NormalizeFlagName(name)
	for bit := jsonwrap.UnescapedUnicode; bit <= jsonwrap.InvalidUTF8Substitute; bit <<= 1 {
		if NormalizeFlagName(bit.String()) == key {
			return bit, true
		}
	}
	return 0, false
}

func lookupDecodeFlag(name string) (jsonwrap.DecodeFlag, bool) {
	key := NormalizeFlagName(name)
	for bit := jsonwrap.ObjectAsArray; bit <= jsonwrap.DecodeInvalidUTF8Substitute; bit <<= 1 {
		if NormalizeFlagName(bit.String()) == key {
			return bit, true
		}
	}
	return 0, false
}

// EncodeFlags resolves the configured encode flag names, adding
// PrettyPrint when Encode.Pretty is set.
func (c *Config) EncodeFlags() (jsonwrap.EncodeFlag, error) {
	var flags jsonwrap.EncodeFlag
	for _, name := range c.Encode.Flags {
		f, ok := lookupEncodeFlag(name)
		if !ok {
			return 0, fmt.Errorf("unknown encode flag %q", name)
		}
		flags |= f
	}
	if c.Encode.Pretty {
		flags |= jsonwrap.PrettyPrint
	}
	return flags, nil
}

// DecodeFlags resolves the configured decode flag names
func (c *Config) DecodeFlags() (jsonwrap.DecodeFlag, error) {
	var flags jsonwrap.DecodeFlag
	for _, name := range c.Decode.Flags {
		f, ok := lookupDecodeFlag(name)
		if !ok {
			return 0, fmt.Errorf("unknown decode flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

// DecodeOptions turns the decode section into facade options
func (c *Config) DecodeOptions() ([]jsonwrap.DecodeOption, error) {
	flags, err := c.DecodeFlags()
	if err != nil {
		return nil, err
	}
	return []jsonwrap.DecodeOption{
		jsonwrap.WithDepth(c.Decode.Depth),
		jsonwrap.WithFlags(flags),
	}, nil
}

// MergeConfigs merges CLI overrides into a base config.
// Non-empty values from override take precedence over base values; flag
// lists are combined and booleans can only be switched on.
func MergeConfigs(base, override *Config) *Config {
	merged := *base
	merged.Decode.Flags = appendMissing(nil, base.Decode.Flags...)
	merged.Encode.Flags = appendMissing(nil, base.Encode.Flags...)

	if override.Decode.Mode != "" {
		merged.Decode.Mode = override.Decode.Mode
	}
	if override.Decode.Depth != 0 {
		merged.Decode.Depth = override.Decode.Depth
	}
	merged.Decode.Flags = appendMissing(merged.Decode.Flags, override.Decode.Flags...)

	merged.Encode.Pretty = base.Encode.Pretty || override.Encode.Pretty
	merged.Encode.Flags = appendMissing(merged.Encode.Flags, override.Encode.Flags...)

	if override.Output.Format != "" {
		merged.Output.Format = override.Output.Format
	}
	if override.Output.Path != "" {
		merged.Output.Path = override.Output.Path
	}

	merged.Dev.Debug = base.Dev.Debug || override.Dev.Debug
	if override.Dev.LogFile != "" {
		merged.Dev.LogFile = override.Dev.LogFile
	}

	return &merged
}

func appendMissing(dst []string, names ...string) []string {
	if dst == nil {
		dst = []string{}
	}
	for _, name := range names {
		seen := false
		for _, have := range dst {
			if NormalizeFlagName(have) == NormalizeFlagName(name) {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, name)
		}
	}
	return dst
}

// LoadConfigWithCLI builds the effective configuration:
// defaults < config file < environment < CLI.
// cli holds only what was given on the command line; zero fields are ignored.
func LoadConfigWithCLI(configPath string, cli *Config) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cli != nil {
		cfg = MergeConfigs(cfg, cli)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
