package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"netcanvas/internal/codec"
	"netcanvas/internal/config"
)

var version = "(devel)"

func main() {
	if err := Run(); err != nil {
		slog.Error("Failed", "err", err.Error())
		os.Exit(1)
	}
}

func Run() error {
	var (
		configPath string
		verbose    bool
		cfg        *config.Config
	)

	before := func(quiet bool) cli.BeforeFunc {
		return func(_ *cli.Context) error {
			var (
				path string
				err  error
			)
			if configPath != "" {
				cfg, path, err = config.LoadFromPath(configPath)
			} else {
				cfg, path, err = config.Load()
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("loading config: %v", err), 1)
			}

			setupLogger(cfg.Log, verbose)

			if quiet {
				return nil
			}

			args := []any{"version", version}
			if path != "" {
				args = append(args, "config", path)
			}
			slog.Info("netcanvas", args...)

			return nil
		}
	}

	defaultFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "read configuration from `FILE`",
			EnvVars:     []string{config.EnvConfigPath},
			Destination: &configPath,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "verbose output (includes debug)",
			EnvVars:     []string{"NETCANVAS_VERBOSE"},
			Destination: &verbose,
		},
	}

	snapshotID := func(c *cli.Context) (int64, error) {
		id := c.Int64("id")
		if id <= 0 {
			return 0, cli.Exit("--id must be a positive snapshot ID", 1)
		}
		return id, nil
	}

	cli.VersionFlag.(*cli.BoolFlag).Aliases = []string{"V"}
	app := &cli.App{
		Name:                   "netcanvas",
		Usage:                  "netcanvas - network topology canvas editor",
		Version:                version,
		Suggest:                true,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the editor API with SSE events and metrics",
				Flags:  defaultFlags,
				Before: before(false),
				Action: func(c *cli.Context) error {
					if err := serve(c.Context, cfg); err != nil {
						return fmt.Errorf("serving: %w", err)
					}
					return nil
				},
			},
			{
				Name:  "snapshot",
				Usage: "manage stored topology snapshots",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list stored snapshots",
						Flags:  defaultFlags,
						Before: before(true),
						Action: func(c *cli.Context) error {
							return withEditor(c.Context, cfg, func(ed *snapshotCLI) error {
								return ed.list(c.Context, c.App.Writer)
							})
						},
					},
					{
						Name:  "export",
						Usage: "write a snapshot to stdout or a file",
						Flags: append([]cli.Flag{
							&cli.Int64Flag{Name: "id", Usage: "snapshot `ID`", Required: true},
							&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format (" + strings.Join(codec.Formats(), ", ") + ")", Value: "json"},
							&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to `FILE` instead of stdout"},
						}, defaultFlags...),
						Before: before(true),
						Action: func(c *cli.Context) error {
							id, err := snapshotID(c)
							if err != nil {
								return err
							}
							return withEditor(c.Context, cfg, func(ed *snapshotCLI) error {
								return ed.export(c.Context, id, c.String("format"), c.String("output"), c.App.Writer)
							})
						},
					},
					{
						Name:      "import",
						Usage:     "import a topology document and store it as a new snapshot",
						ArgsUsage: "FILE",
						Flags: append([]cli.Flag{
							&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "snapshot `NAME` (defaults to the file name)"},
							&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "input format, detected from the extension if empty"},
						}, defaultFlags...),
						Before: before(false),
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return cli.Exit("expected exactly one FILE argument", 1)
							}
							return withEditor(c.Context, cfg, func(ed *snapshotCLI) error {
								return ed.importFile(c.Context, c.Args().First(), c.String("name"), c.String("format"))
							})
						},
					},
					{
						Name:  "delete",
						Usage: "delete a stored snapshot",
						Flags: append([]cli.Flag{
							&cli.Int64Flag{Name: "id", Usage: "snapshot `ID`", Required: true},
						}, defaultFlags...),
						Before: before(false),
						Action: func(c *cli.Context) error {
							id, err := snapshotID(c)
							if err != nil {
								return err
							}
							return withEditor(c.Context, cfg, func(ed *snapshotCLI) error {
								return ed.delete(c.Context, id)
							})
						},
					},
				},
			},
			{
				Name:  "config",
				Usage: "manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write a default configuration file",
						Flags: append([]cli.Flag{
							&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
						}, defaultFlags...),
						Before: func(_ *cli.Context) error {
							setupLogger(config.DefaultConfig().Log, verbose)
							return nil
						},
						Action: func(c *cli.Context) error {
							path := configPath
							if path == "" {
								path = config.DefaultConfigPath()
							}
							if _, err := os.Stat(path); err == nil && !c.Bool("force") {
								return cli.Exit(fmt.Sprintf("%s already exists, use --force to overwrite", path), 1)
							}
							if err := config.DefaultConfig().Save(path); err != nil {
								return fmt.Errorf("writing config: %w", err)
							}
							slog.Info("Wrote default config", "path", path)
							return nil
						},
					},
					{
						Name:   "show",
						Usage:  "print the effective configuration",
						Flags:  defaultFlags,
						Before: before(true),
						Action: func(c *cli.Context) error {
							_, err := fmt.Fprintln(c.App.Writer, cfg.Summary())
							return err //nolint:wrapcheck
						},
					},
				},
			},
		},
	}

	return app.Run(os.Args) //nolint:wrapcheck
}

// setupLogger installs the default logger: colored console output on stderr,
// fanned out to a rotating file when one is configured
func setupLogger(lc config.LogConfig, verbose bool) {
	logLevel := parseLevel(lc.Level)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logW := os.Stderr
	console := tint.NewHandler(logW, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(logW.Fd()),
	})

	if lc.File == "" {
		slog.SetDefault(slog.New(console))
		return
	}

	logFile := &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB, // MB
		MaxBackups: lc.MaxBackups,
		MaxAge:     30, // days
		Compress:   true,
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(slogmulti.Fanout(console, fileHandler)))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// closeQuietly closes c and logs a failure
func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("Failed to close", "resource", name, "err", err)
	}
}
