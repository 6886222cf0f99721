package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBinding ties a flag name to the configuration key it overrides.
type flagBinding struct {
	flag string
	key  string
}

var serverFlagBindings = []flagBinding{
	{"host", "server.host"},
	{"port", "server.port"},
	{"root", "server.root"},
	{"pages-dir", "server.pages_dir"},
	{"scripts-dir", "server.scripts_dir"},
	{"strict-not-found", "server.strict_not_found"},
}

var watchFlagBindings = []flagBinding{
	{"watch-root", "watch.roots"},
	{"ext", "watch.extensions"},
	{"debounce", "watch.debounce"},
	{"build-cmd", "build.command"},
	{"build-arg", "build.args"},
	{"no-initial-build", ""},
}

// serverFlags returns the flags shared by commands that serve HTTP.
func serverFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.String("host", "localhost", "Host to bind to")
	fs.IntP("port", "p", 8080, "Port to serve on")
	fs.String("root", ".", "Directory to serve")
	fs.String("pages-dir", "", "Subdirectory of root holding .html pages")
	fs.String("scripts-dir", "", "Subdirectory of root holding script bundles")
	fs.Bool("strict-not-found", false, "Answer missing files with 404 instead of the listing")

	return fs
}

// watchFlags returns the flags shared by commands that watch and build.
func watchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.StringSliceP("watch-root", "w", []string{"src"}, "Source directories to watch (repeatable)")
	fs.StringSlice("ext", []string{".js", ".mjs", ".ts", ".jsx", ".tsx"}, "File extensions that trigger a build")
	fs.Duration("debounce", 0, "Quiet period before building (default 500ms)")
	fs.String("build-cmd", "npm", "Build executable, run without a shell")
	fs.StringArray("build-arg", []string{"run", "build"}, "Build argument (repeatable)")
	fs.Bool("no-initial-build", false, "Skip the build at startup")

	return fs
}

// bindFlags makes explicitly set flags override configuration keys.
func bindFlags(fs *pflag.FlagSet, bindings []flagBinding) {
	for _, b := range bindings {
		if b.key == "" {
			continue
		}
		if f := fs.Lookup(b.flag); f != nil {
			_ = viper.BindPFlag(b.key, f)
		}
	}
}

// applyWatchOverrides handles flags with no direct configuration key.
func applyWatchOverrides(fs *pflag.FlagSet) {
	if skip, err := fs.GetBool("no-initial-build"); err == nil && skip {
		viper.Set("build.run_on_start", false)
	}
}
