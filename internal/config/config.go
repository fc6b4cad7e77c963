package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // report timezone on hosts without zoneinfo

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ZHANFA_DATA_DIR
const EnvPrefix = "ZHANFA"

type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Output  OutputConfig  `mapstructure:"output"`
	Run     RunConfig     `mapstructure:"run"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DataConfig locates the inputs of a run
type DataConfig struct {
	Dir       string `mapstructure:"dir"`        // one CSV per symbol
	NamesFile string `mapstructure:"names_file"` // code,name table
}

// OutputConfig selects the report sink
type OutputConfig struct {
	Type     string   `mapstructure:"type"`     // "local" or "s3"
	Path     string   `mapstructure:"path"`     // For local
	Timezone string   `mapstructure:"timezone"` // report timestamps
	S3       S3Config `mapstructure:"s3"`       // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// RunConfig holds screening settings.
type RunConfig struct {
	Workers   int      `mapstructure:"workers"`    // 0 means one per CPU
	Tactics   []string `mapstructure:"tactics"`    // default tactics for `run`
	TacticDir string   `mapstructure:"tactic_dir"` // extra YAML tactics
	Top       int      `mapstructure:"top"`        // overrides each tactic's top_n when > 0
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // empty disables export
}

// Load reads configuration from file. An empty path loads defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply even
// without a config file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("data.names_file", d.Data.NamesFile)
	v.SetDefault("output.type", d.Output.Type)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.timezone", d.Output.Timezone)
	v.SetDefault("output.s3.bucket", d.Output.S3.Bucket)
	v.SetDefault("output.s3.endpoint", d.Output.S3.Endpoint)
	v.SetDefault("output.s3.region", d.Output.S3.Region)
	v.SetDefault("output.s3.access_key", d.Output.S3.AccessKey)
	v.SetDefault("output.s3.secret_key", d.Output.S3.SecretKey)
	v.SetDefault("output.s3.prefix", d.Output.S3.Prefix)
	v.SetDefault("run.workers", d.Run.Workers)
	v.SetDefault("run.tactics", d.Run.Tactics)
	v.SetDefault("run.tactic_dir", d.Run.TacticDir)
	v.SetDefault("run.top", d.Run.Top)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Data: DataConfig{
			Dir:       "data/daily",
			NamesFile: "data/names.csv",
		},
		Output: OutputConfig{
			Type:     "local",
			Path:     "reports",
			Timezone: "Asia/Shanghai",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Run: RunConfig{
			Tactics: []string{"crash_recovery"},
		},
	}
}

// Location resolves the report timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Output.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Output.Timezone)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("timezone %q: %w", c.Output.Timezone, err))
	}
	return loc, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("data.dir is required"))
	}
	if c.Data.NamesFile == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("data.names_file is required"))
	}

	switch c.Output.Type {
	case "local":
		if c.Output.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output.path required when output type is local"))
		}
	case "s3":
		if c.Output.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("output.s3.bucket required when output type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("output.type must be local or s3, got %q", c.Output.Type))
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Run.Workers < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("run.workers cannot be negative, got %d", c.Run.Workers))
	}
	if c.Run.Top < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("run.top cannot be negative, got %d", c.Run.Top))
	}
	return nil
}
