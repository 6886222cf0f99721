package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ".", cfg.Server.Root)
	assert.Equal(t, "index.html", cfg.Server.DefaultDocument)
	assert.Equal(t, "/_listing", cfg.Server.ListingPath)
	assert.False(t, cfg.Server.StrictNotFound)

	assert.Equal(t, []string{"src"}, cfg.Watch.Roots)
	assert.Contains(t, cfg.Watch.Extensions, ".js")
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)

	assert.Equal(t, "npm", cfg.Build.Command)
	assert.Equal(t, []string{"run", "build"}, cfg.Build.Args)
	assert.True(t, cfg.Build.RunOnStart)

	assert.Equal(t, "index.html", cfg.Index.Output)
	assert.Equal(t, DefaultGroups(), cfg.Index.Groups)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFrom_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 3000)
	v.Set("server.strict_not_found", true)
	v.Set("server.pages_dir", "tests")
	v.Set("watch.roots", "src,lib")
	v.Set("watch.extensions", []string{"js", "TS"})
	v.Set("watch.debounce", "750ms")
	v.Set("build.command", "esbuild")
	v.Set("index.groups", []map[string]interface{}{
		{"name": "live", "title": "Ready", "pages": []string{"button.html"}},
	})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Server.StrictNotFound)
	assert.Equal(t, "tests", cfg.Server.PagesDir)
	assert.Equal(t, []string{"src", "lib"}, cfg.Watch.Roots)
	assert.Equal(t, []string{".js", ".ts"}, cfg.Watch.Extensions)
	assert.Equal(t, 750*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "esbuild", cfg.Build.Command)
	require.Len(t, cfg.Index.Groups, 1)
	assert.Equal(t, []string{"button.html"}, cfg.Index.Groups[0].Pages)
}

func TestLoadFrom_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pagewatch.yml")
	content := `
server:
  port: 9000
  scripts_dir: dist
watch:
  roots: [components]
  debounce: 1s
build:
  command: rollup
  args: ["-c"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "dist", cfg.Server.ScriptsDir)
	assert.Equal(t, []string{"components"}, cfg.Watch.Roots)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "rollup", cfg.Build.Command)
	assert.Equal(t, []string{"-c"}, cfg.Build.Args)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"port too large", "server.port", 70000},
		{"negative port", "server.port", -1},
		{"listing path without slash", "server.listing_path", "_listing"},
		{"default document with separator", "server.default_document", "a/index.html"},
		{"pages dir escapes root", "server.pages_dir", "../outside"},
		{"absolute scripts dir", "server.scripts_dir", "/usr/lib"},
		{"empty build command", "build.command", "  "},
		{"zero debounce", "watch.debounce", "0s"},
		{"empty roots", "watch.roots", []string{}},
		{"output with separator", "index.output", "out/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, pwerrors.HasErrorCode(err, pwerrors.CodeInvalidConfig), err.Error())
		})
	}
}

func TestLoadFrom_DuplicateGroups(t *testing.T) {
	v := viper.New()
	v.Set("index.groups", []map[string]interface{}{
		{"name": "live"},
		{"name": "live"},
	})

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate group")
}

func TestLoadFrom_UnmarshalError(t *testing.T) {
	v := viper.New()
	v.Set("server.port", "not-a-port")

	cfg, err := LoadFrom(v)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
