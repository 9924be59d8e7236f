package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/forge"
	"ninja-orval-forge/internal/log"
	"ninja-orval-forge/internal/report"
)

type handler struct {
	*cli.App

	stdout io.Writer
	stderr io.Writer
	// exit is the process exit code of the last command.
	exit int
}

func newHandler(stdout, stderr io.Writer) *handler {
	h := &handler{stdout: stdout, stderr: stderr}

	h.App = &cli.App{
		Name:      "ninja-orval-forge",
		Usage:     "generate Django Ninja APIs and typed frontend clients",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: ".", Usage: "project root"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug messages"},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write the project skeleton and " + config.FileName,
				Action: h.Init,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "project name"},
					&cli.StringFlag{Name: "app", Usage: "Django app holding the generated API"},
					&cli.StringFlag{Name: "frontend", Usage: "vue, react, angular or none"},
					&cli.StringFlag{Name: "client", Usage: "fetch or axios"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite modified files"},
					&cli.BoolFlag{Name: "dry-run", Usage: "report the changes without writing"},
				},
			},
			{
				Name:      "generate",
				Usage:     "generate a CRUD feature for a model",
				ArgsUsage: "FEATURE [OPERATION...]",
				Action:    h.Generate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Required: true, Usage: "model name, optionally app.Model"},
					&cli.StringSliceFlag{Name: "operations", Aliases: []string{"o"}, Usage: "list, retrieve, create, update, delete"},
					&cli.StringSliceFlag{Name: "models-from", Usage: "read models from Go packages matching the pattern"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite modified files"},
					&cli.BoolFlag{Name: "backup", Usage: "back up files before overwriting them"},
					&cli.BoolFlag{Name: "dry-run", Usage: "report the changes without writing"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "translate the serializers and view-sets of a DRF app",
				Action: h.Migrate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "app", Required: true, Usage: "app directory, relative to the project root"},
					&cli.BoolFlag{Name: "dry-run", Usage: "report the changes without writing"},
					&cli.BoolFlag{Name: "backup", Value: true, Usage: "back up files before overwriting them"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite modified files"},
					&cli.IntFlag{Name: "jobs", Value: 1, Usage: "features rendered concurrently"},
				},
			},
		},
	}

	return h
}

type command func(ctx context.Context, e *forge.Engine, opts forge.Options) (*forge.Result, error)

// execute runs cmd against the configured project and prints the report,
// also when the run failed.
func (h *handler) execute(c *cli.Context, cfg *config.Config, opts forge.Options, cmd command) error {
	dir := c.String("dir")

	l := log.New(h.stderr, c.Bool("verbose"))
	defer func() { _ = l.Sync() }()

	res, err := cmd(c.Context, forge.New(dir, cfg, l), opts)
	if res == nil {
		return err
	}

	if perr := res.Report.Print(h.stdout); perr != nil {
		return errors.Wrap(perr, "print report")
	}

	h.exit = res.ExitCode(cfg)
	if err != nil && h.exit == report.ExitOK {
		h.exit = report.ExitError
	}

	return nil
}

func (h *handler) load(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("dir"))
	if err != nil {
		h.exit = report.ExitError
		return nil, err
	}

	return cfg, nil
}

func (h *handler) Init(c *cli.Context) error {
	cfg, err := h.load(c)
	if err != nil {
		return err
	}

	cfg = cfg.With(func(cfg *config.Config) {
		if v := c.String("name"); v != "" {
			cfg.Project.Name = v
		}

		if v := c.String("app"); v != "" {
			cfg.Project.DjangoApp = v
		}

		if v := c.String("frontend"); v != "" {
			cfg.Frontend.Framework = v
		}

		if v := c.String("client"); v != "" {
			cfg.Orval.ClientType = v
		}
	})

	if err := cfg.Validate(); err != nil {
		h.exit = report.ExitError
		return err
	}

	opts := forge.Options{DryRun: c.Bool("dry-run"), Force: c.Bool("force")}

	return h.execute(c, cfg, opts, func(ctx context.Context, e *forge.Engine, opts forge.Options) (*forge.Result, error) {
		return e.Init(ctx, opts)
	})
}

func (h *handler) Generate(c *cli.Context) error {
	if c.NArg() == 0 {
		h.exit = report.ExitError
		return errors.New("generate: FEATURE argument is required")
	}

	ops, err := forge.ParseOperations(append(c.StringSlice("operations"), c.Args().Tail()...)...)
	if err != nil {
		h.exit = report.ExitError
		return errors.Wrap(err, "generate")
	}

	cfg, err := h.load(c)
	if err != nil {
		return err
	}

	req := forge.GenerateRequest{
		Feature:    c.Args().First(),
		Model:      c.String("model"),
		Operations: ops,
		ModelsFrom: c.StringSlice("models-from"),
	}
	opts := forge.Options{DryRun: c.Bool("dry-run"), Force: c.Bool("force"), Backup: c.Bool("backup")}

	return h.execute(c, cfg, opts, func(ctx context.Context, e *forge.Engine, opts forge.Options) (*forge.Result, error) {
		return e.Generate(ctx, req, opts)
	})
}

func (h *handler) Migrate(c *cli.Context) error {
	cfg, err := h.load(c)
	if err != nil {
		return err
	}

	req := forge.MigrateRequest{App: c.String("app"), Jobs: c.Int("jobs")}
	opts := forge.Options{DryRun: c.Bool("dry-run"), Force: c.Bool("force"), Backup: c.Bool("backup")}

	return h.execute(c, cfg, opts, func(ctx context.Context, e *forge.Engine, opts forge.Options) (*forge.Result, error) {
		return e.Migrate(ctx, req, opts)
	})
}
