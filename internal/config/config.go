// Package config provides configuration management for pagewatch using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// The configuration covers the static server (port, root, listing route,
// content subdirectories, soft-404 behaviour), the file watcher (roots,
// qualifying extensions, debounce delay), the external build command, and
// the standalone index generator.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

// DefaultDebounce is the quiet period after the last qualifying change
// before a build runs.
const DefaultDebounce = 500 * time.Millisecond

type Config struct {
	Server ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	Watch  WatchConfig  `mapstructure:"watch" json:"watch" yaml:"watch"`
	Build  BuildConfig  `mapstructure:"build" json:"build" yaml:"build"`
	Index  IndexConfig  `mapstructure:"index" json:"index" yaml:"index"`
	Log    LogConfig    `mapstructure:"log" json:"log" yaml:"log"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host" json:"host" yaml:"host"`
	Port            int    `mapstructure:"port" json:"port" yaml:"port"`
	Root            string `mapstructure:"root" json:"root" yaml:"root"`
	DefaultDocument string `mapstructure:"default_document" json:"default_document" yaml:"default_document"`
	ListingPath     string `mapstructure:"listing_path" json:"listing_path" yaml:"listing_path"`
	PagesDir        string `mapstructure:"pages_dir" json:"pages_dir" yaml:"pages_dir"`
	ScriptsDir      string `mapstructure:"scripts_dir" json:"scripts_dir" yaml:"scripts_dir"`
	StrictNotFound  bool   `mapstructure:"strict_not_found" json:"strict_not_found" yaml:"strict_not_found"`
}

type WatchConfig struct {
	Roots         []string      `mapstructure:"roots" json:"roots" yaml:"roots"`
	Extensions    []string      `mapstructure:"extensions" json:"extensions" yaml:"extensions"`
	BackupMarkers []string      `mapstructure:"backup_markers" json:"backup_markers" yaml:"backup_markers"`
	IgnoreDirs    []string      `mapstructure:"ignore_dirs" json:"ignore_dirs" yaml:"ignore_dirs"`
	Debounce      time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
}

type BuildConfig struct {
	Command    string   `mapstructure:"command" json:"command" yaml:"command"`
	Args       []string `mapstructure:"args" json:"args" yaml:"args"`
	Dir        string   `mapstructure:"dir" json:"dir" yaml:"dir"`
	RunOnStart bool     `mapstructure:"run_on_start" json:"run_on_start" yaml:"run_on_start"`
}

type IndexConfig struct {
	Dir        string        `mapstructure:"dir" json:"dir" yaml:"dir"`
	Output     string        `mapstructure:"output" json:"output" yaml:"output"`
	Title      string        `mapstructure:"title" json:"title" yaml:"title"`
	Stylesheet string        `mapstructure:"stylesheet" json:"stylesheet" yaml:"stylesheet"`
	Groups     []GroupConfig `mapstructure:"groups" json:"groups" yaml:"groups"`
	GroupsFile string        `mapstructure:"groups_file" json:"groups_file,omitempty" yaml:"groups_file,omitempty"`
}

// GroupConfig names one listing section and the page files assigned to it.
type GroupConfig struct {
	Name  string   `mapstructure:"name" json:"name" yaml:"name"`
	Title string   `mapstructure:"title" json:"title" yaml:"title"`
	Pages []string `mapstructure:"pages" json:"pages" yaml:"pages"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// DefaultGroups are the placeholder sections written by the standalone
// index generator.
func DefaultGroups() []GroupConfig {
	return []GroupConfig{
		{Name: "live", Title: "Ready"},
		{Name: "beta", Title: "In progress"},
		{Name: "alpha", Title: "Experimental"},
	}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.root", ".")
	v.SetDefault("server.default_document", "index.html")
	v.SetDefault("server.listing_path", "/_listing")
	v.SetDefault("server.pages_dir", "")
	v.SetDefault("server.scripts_dir", "")
	v.SetDefault("server.strict_not_found", false)

	v.SetDefault("watch.roots", []string{"src"})
	v.SetDefault("watch.extensions", []string{".js", ".mjs", ".ts", ".jsx", ".tsx"})
	v.SetDefault("watch.backup_markers", []string{"~", ".swp", ".tmp", ".bak"})
	v.SetDefault("watch.ignore_dirs", []string{"node_modules", ".git", "dist"})
	v.SetDefault("watch.debounce", DefaultDebounce)

	v.SetDefault("build.command", "npm")
	v.SetDefault("build.args", []string{"run", "build"})
	v.SetDefault("build.dir", ".")
	v.SetDefault("build.run_on_start", true)

	v.SetDefault("index.dir", ".")
	v.SetDefault("index.output", "index.html")
	v.SetDefault("index.title", "Components")
	v.SetDefault("index.stylesheet", "style.css")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v, applying defaults and validation.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Flags and env vars arrive as comma separated strings.
	cfg.Watch.Roots = splitList(cfg.Watch.Roots)
	cfg.Watch.Extensions = normalizeExtensions(splitList(cfg.Watch.Extensions))
	cfg.Watch.BackupMarkers = splitList(cfg.Watch.BackupMarkers)
	cfg.Watch.IgnoreDirs = splitList(cfg.Watch.IgnoreDirs)

	if !v.IsSet("index.groups") && len(cfg.Index.Groups) == 0 {
		cfg.Index.Groups = DefaultGroups()
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func normalizeExtensions(exts []string) []string {
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}

	return exts
}

// validateConfig validates configuration values for correctness
func validateConfig(cfg *Config) error {
	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateWatchConfig(&cfg.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if strings.TrimSpace(cfg.Build.Command) == "" {
		return fmt.Errorf("build config: %w", invalid("build.command must not be empty"))
	}

	if err := validateIndexConfig(&cfg.Index); err != nil {
		return fmt.Errorf("index config: %w", err)
	}

	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	// Port 0 lets the OS choose, which tests rely on.
	if cfg.Port < 0 || cfg.Port > 65535 {
		return invalid(fmt.Sprintf("port %d is not in valid range 0-65535", cfg.Port))
	}

	if cfg.Root == "" {
		return invalid("root must not be empty")
	}

	if !strings.HasPrefix(cfg.ListingPath, "/") {
		return invalid(fmt.Sprintf("listing_path %q must start with /", cfg.ListingPath))
	}

	if cfg.DefaultDocument == "" || strings.ContainsAny(cfg.DefaultDocument, `/\`) {
		return invalid(fmt.Sprintf("default_document %q must be a plain file name", cfg.DefaultDocument))
	}

	for _, dir := range []string{cfg.PagesDir, cfg.ScriptsDir} {
		if err := validateRelativeDir(dir); err != nil {
			return err
		}
	}

	return nil
}

func validateWatchConfig(cfg *WatchConfig) error {
	if len(cfg.Roots) == 0 {
		return invalid("at least one watch root is required")
	}

	if len(cfg.Extensions) == 0 {
		return invalid("at least one extension is required")
	}

	if cfg.Debounce <= 0 {
		return invalid(fmt.Sprintf("debounce must be positive, got %s", cfg.Debounce))
	}

	return nil
}

func validateIndexConfig(cfg *IndexConfig) error {
	if cfg.Output == "" || strings.ContainsAny(cfg.Output, `/\`) {
		return invalid(fmt.Sprintf("output %q must be a plain file name", cfg.Output))
	}

	seen := make(map[string]bool, len(cfg.Groups))
	for _, group := range cfg.Groups {
		if group.Name == "" {
			return invalid("group name must not be empty")
		}
		if seen[group.Name] {
			return invalid(fmt.Sprintf("duplicate group %q", group.Name))
		}
		seen[group.Name] = true
	}

	return nil
}

// validateRelativeDir rejects content subdirectories that could escape the server root.
func validateRelativeDir(dir string) error {
	if dir == "" {
		return nil
	}

	clean := filepath.Clean(dir)
	if filepath.IsAbs(clean) {
		return invalid(fmt.Sprintf("directory %q must be relative to the server root", dir))
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return invalid(fmt.Sprintf("directory %q escapes the server root", dir))
	}

	return nil
}

func invalid(message string) error {
	return pwerrors.NewConfigError(pwerrors.CodeInvalidConfig, message)
}
