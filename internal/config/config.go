package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/collection"
	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
)

type Config struct {
	ValueMode       string `mapstructure:"value_mode"`
	Storage         string `mapstructure:"storage"`
	MaxStringLength uint32 `mapstructure:"max_string_length"`
	MaxValueLength  uint32 `mapstructure:"max_value_length"`
	MaxEntries      uint32 `mapstructure:"max_entries"`
	Database        string `mapstructure:"database"`
	OutputDir       string `mapstructure:"output_dir"`
	VFMagic         string `mapstructure:"vf_magic"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file. The result is not
// validated.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("value_mode", codec.ValueNarrow.String())
	v.SetDefault("storage", codec.StorageHeap.String())
	v.SetDefault("max_string_length", vf.DefaultMaxStringLength)
	v.SetDefault("max_value_length", text.DefaultMaxValueLength)
	v.SetDefault("max_entries", 1<<20)
	v.SetDefault("database", "ssoformats.db")
	v.SetDefault("output_dir", "")
	v.SetDefault("vf_magic", string(vf.DefaultMagic[:]))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("ssoformats")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks every setting. Load leaves it to the caller so flag
// overrides can replace bad file values first.
func (c *Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return fmt.Errorf("invalid profile configuration: %w", err)
	}
	if err := validateMagic(c.VFMagic); err != nil {
		return fmt.Errorf("invalid vf_magic: %w", err)
	}
	if err := validateChoice("log_level", c.LogLevel, logLevels); err != nil {
		return err
	}
	if err := validateChoice("log_format", c.LogFormat, logFormats); err != nil {
		return err
	}
	if c.MaxEntries == 0 || c.MaxEntries > collection.DefaultMaxEntries {
		return fmt.Errorf("max_entries must be between 1 and %d, got %d", collection.DefaultMaxEntries, c.MaxEntries)
	}
	if c.Database == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	return nil
}

// Profile parses the configured value mode and storage.
func (c *Config) Profile() (codec.Profile, error) {
	mode, err := codec.ParseValueMode(c.ValueMode)
	if err != nil {
		return codec.Profile{}, err
	}
	storage, err := codec.ParseStorage(c.Storage)
	if err != nil {
		return codec.Profile{}, err
	}
	return codec.Profile{Value: mode, Storage: storage}, nil
}

// Magic returns vf_magic as a header magic.
func (c *Config) Magic() [4]byte {
	var m [4]byte
	copy(m[:], c.VFMagic)
	return m
}

// TextOptions builds string table decode options.
func (c *Config) TextOptions() *text.Options {
	opts := text.DefaultOptions()
	opts.Profile, _ = c.Profile()
	opts.MaxValueLength = c.MaxValueLength
	opts.MaxEntries = c.MaxEntries
	return opts
}

// VFOptions builds manifest decode options.
func (c *Config) VFOptions() *vf.Options {
	opts := vf.DefaultOptions()
	opts.Profile, _ = c.Profile()
	opts.MaxStringLength = c.MaxStringLength
	opts.MaxEntries = c.MaxEntries
	return opts
}
