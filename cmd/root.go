// Package cmd provides the command-line interface for pagewatch with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--port, --root, etc.) - highest priority
//	2. Individual environment variables (PAGEWATCH_SERVER_PORT, etc.)
//	3. Configuration file (--config, PAGEWATCH_CONFIG_FILE, or .pagewatch.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	PAGEWATCH_CONFIG_FILE: Path to custom configuration file
//	PAGEWATCH_SERVER_PORT: Override server port
//	PAGEWATCH_WATCH_DEBOUNCE: Override the debounce window (e.g. 250ms)
//	And more following the PAGEWATCH_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pagewatch/internal/config"
	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/logging"
)

const (
	defaultConfigName = ".pagewatch"
	envPrefix         = "PAGEWATCH"
	envConfigFile     = "PAGEWATCH_CONFIG_FILE"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagewatch",
	Short: "Watch sources, rebuild on change, and serve the result",
	Long: `pagewatch is a development loop for a directory of static pages and
the script bundle they load. It watches source roots, runs the build
command once changes settle, and serves the working tree over HTTP with
a generated page listing for anything that cannot be found.

Quick Start:
  pagewatch dev                   Watch, build, and serve together
  pagewatch watch                 Rebuild on change without serving
  pagewatch serve                 Serve the working tree only
  pagewatch index                 Write the page listing to index.html`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .pagewatch.yml, can also use PAGEWATCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig points viper at the configuration file and environment.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. PAGEWATCH_CONFIG_FILE environment variable
//  3. .pagewatch.yml in the current directory
//
// A missing default file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envFile := os.Getenv(envConfigFile); envFile != "" {
		viper.SetConfigFile(envFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(defaultConfigName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads and validates configuration, attaching suggestions on
// failure.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = defaultConfigName + ".yml"
		}

		return nil, pwerrors.NewEnhancedError(
			fmt.Sprintf("Failed to load configuration: %v", err),
			err,
			pwerrors.ConfigurationError(err.Error(), path),
		)
	}

	return cfg, nil
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config, cmd *cobra.Command) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
		Component: "pagewatch",
	})
}
