package app

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/daezeri/ffgimport/internal/cmd/output"
	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/reconcile"
)

// EnvPrefix prefixes the environment variables the config reads, e.g.
// FFGIMPORT_DB_PATH.
const EnvPrefix = "FFGIMPORT"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Import configuration
	DBPath      string
	AssetsDir   string
	LogFile     string
	MatchPolicy string
	Skills      []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (./.ffgimport.yaml or ~/.ffgimport.yaml, or configFile)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// .env files are loaded before viper binds the environment.
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", constants.DefaultDBPath)
	v.SetDefault("assets_dir", constants.DefaultAssetsDir)
	v.SetDefault("log_file", constants.DefaultLogFile)
	v.SetDefault("match_policy", string(reconcile.MatchByName))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(strings.TrimSuffix(constants.DefaultConfigFile, ".yaml"))
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config is fine; an explicit one must exist.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DBPath:      v.GetString("db_path"),
		AssetsDir:   v.GetString("assets_dir"),
		LogFile:     v.GetString("log_file"),
		MatchPolicy: v.GetString("match_policy"),
		Skills:      v.GetStringSlice("skills"),

		LogLevel:  firstNonEmpty(v.GetString("log_level"), os.Getenv("LOG_LEVEL")),
		LogFormat: firstNonEmpty(v.GetString("log_format"), getEnvOrDefault("LOG_FORMAT", "auto")),
		LogOutput: firstNonEmpty(v.GetString("log_output"), getEnvOrDefault("LOG_OUTPUT", "stderr")),
	}

	return config, nil
}

// Validate checks the values that have a closed set of choices.
func (c *Config) Validate() error {
	if _, err := reconcile.ParseMatchPolicy(c.MatchPolicy); err != nil {
		return errors.NewConfigError("match_policy", err.Error(), err)
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return errors.NewConfigError("format", err.Error(), err)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// Existing variables win, so .env.local is loaded first to override .env.
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
