package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/conneroisu/pagewatch/internal/build"
	"github.com/conneroisu/pagewatch/internal/classify"
	"github.com/conneroisu/pagewatch/internal/config"
	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/index"
	"github.com/conneroisu/pagewatch/internal/logging"
	"github.com/conneroisu/pagewatch/internal/server"
	"github.com/conneroisu/pagewatch/internal/session"
)

// newRunner is swapped in tests so no real build tool is spawned.
var newRunner = func() build.Runner { return build.NewExecRunner() }

// buildCommand converts configuration into the command the invoker runs.
func buildCommand(cfg *config.Config) (build.Command, error) {
	command := build.Command{
		Name: cfg.Build.Command,
		Args: cfg.Build.Args,
		Dir:  cfg.Build.Dir,
	}
	if err := command.Validate(); err != nil {
		return build.Command{}, pwerrors.NewConfigError(pwerrors.CodeInvalidConfig, err.Error())
	}

	return command, nil
}

// startSession subscribes to the configured roots. A root that cannot be
// watched is reported with suggestions and is fatal.
func startSession(ctx context.Context, cfg *config.Config, logger logging.Logger) (*session.Session, error) {
	command, err := buildCommand(cfg)
	if err != nil {
		return nil, err
	}

	invoker := build.NewInvoker(newRunner(), command, logger, build.InvokerOptions{})

	s, err := session.New(invoker, session.Options{
		Policy: classify.Policy{
			Extensions:    cfg.Watch.Extensions,
			BackupMarkers: cfg.Watch.BackupMarkers,
		},
		IgnoreDirs: cfg.Watch.IgnoreDirs,
		Debounce:   cfg.Watch.Debounce,
		RunOnStart: cfg.Build.RunOnStart,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Start(ctx, cfg.Watch.Roots); err != nil {
		root := watchRootOf(err, cfg.Watch.Roots)
		return nil, pwerrors.NewEnhancedError(
			fmt.Sprintf("Cannot watch %s: %v", root, err),
			err,
			pwerrors.WatchRootError(err, root),
		)
	}

	return s, nil
}

func watchRootOf(err error, roots []string) string {
	var pe *pwerrors.PipelineError
	if errors.As(err, &pe) && pe.Path != "" {
		return pe.Path
	}
	if len(roots) > 0 {
		return roots[0]
	}

	return "."
}

// newGenerator builds the listing generator from the index section. A
// groups file, when set, replaces the inline groups.
func newGenerator(cfg *config.Config) (*index.Generator, error) {
	groups := make([]index.GroupDef, 0, len(cfg.Index.Groups))
	for _, g := range cfg.Index.Groups {
		groups = append(groups, index.GroupDef{Name: g.Name, Title: g.Title, Pages: g.Pages})
	}

	if cfg.Index.GroupsFile != "" {
		loaded, err := index.LoadGroupsFile(cfg.Index.GroupsFile)
		if err != nil {
			return nil, err
		}
		groups = loaded
	}

	return index.NewGenerator(index.Options{
		Output:     cfg.Index.Output,
		Title:      cfg.Index.Title,
		Stylesheet: cfg.Index.Stylesheet,
		Groups:     groups,
	}), nil
}

// newServer wires the static handler behind an HTTP server.
func newServer(cfg *config.Config, logger logging.Logger) (*server.Server, error) {
	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	handler, err := server.NewHandler(server.HandlerOptions{
		Root: cfg.Server.Root,
		Router: classify.RouterOptions{
			DefaultDocument: cfg.Server.DefaultDocument,
			ListingPath:     cfg.Server.ListingPath,
			PagesDir:        cfg.Server.PagesDir,
			ScriptsDir:      cfg.Server.ScriptsDir,
		},
		StrictNotFound: cfg.Server.StrictNotFound,
		Generator:      generator,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	srv := server.New(handler, server.Options{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Logger: logger,
	})

	if err := srv.Listen(); err != nil {
		return nil, pwerrors.NewEnhancedError(
			fmt.Sprintf("Cannot start server on %s: %v", srv.Addr(), err),
			err,
			pwerrors.ServerStartError(err, cfg.Server.Port),
		)
	}

	return srv, nil
}

// indexOutputPath resolves the standalone listing target inside the index dir.
func indexOutputPath(cfg *config.Config) string {
	return filepath.Join(cfg.Index.Dir, cfg.Index.Output)
}
