// Package main provides the agentflow command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/genagent/agentflow/pkg/cmd"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/log"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/genagent/agentflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var logger = log.WithModule("cli")

func databaseURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

func newWorkflowService(
	ctx context.Context,
	command *cli.Command,
	store persistence.Persistence,
) (*services.Workflow, *registry.Registry, error) {
	reg, err := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))
	if err != nil {
		return nil, nil, err
	}

	mode := graph.SchemaModePermissive
	if command.Bool("strict-schemas") {
		mode = graph.SchemaModeStrict
	}

	svc := services.NewWorkflow(store, reg, services.WithLogger(logger), services.WithSchemaMode(mode))

	return svc, reg, nil
}

// withStore opens the store named by --database-url for the duration of fn.
func withStore(ctx context.Context, command *cli.Command, fn func(*services.Workflow) error) error {
	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		err := store.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	svc, _, err := newWorkflowService(ctx, command, store)
	if err != nil {
		return err
	}

	return fn(svc)
}

func main() {
	command := &cli.Command{
		Name:                  "agentflow",
		Usage:                 "Inspect node types and move workflows in and out of storage",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node type plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.BoolFlag{
				Name:    "strict-schemas",
				Usage:   "Reject connections between handles with incompatible schemas",
				Sources: cli.EnvVars("STRICT_SCHEMAS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:    "catalog",
				Aliases: []string{"c"},
				Usage:   "List the available node types",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list node types of this category",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					reg, err := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))
					if err != nil {
						return err
					}

					return printCatalog(command.Root().Writer, reg, command.String("category"))
				},
			},
			{
				Name:      "validate",
				Aliases:   []string{"v"},
				Usage:     "Check that a workflow file (JSON or YAML) loads into a valid graph",
				ArgsUsage: "<file>",
				Action: func(ctx context.Context, command *cli.Command) error {
					path := command.Args().First()
					if path == "" {
						return errors.New("a workflow file is required")
					}

					// Validation never reaches the store.
					svc, _, err := newWorkflowService(ctx, command, nil)
					if err != nil {
						return err
					}

					return validateFile(command.Root().Writer, svc, path)
				},
			},
			{
				Name:      "import",
				Aliases:   []string{"i"},
				Usage:     "Store a workflow file as a new workflow",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{databaseURLFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					path := command.Args().First()
					if path == "" {
						return errors.New("a workflow file is required")
					}

					return withStore(ctx, command, func(svc *services.Workflow) error {
						doc, err := importFile(ctx, svc, path)
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(command.Root().Writer, "imported %s as %s\n", path, doc.ID)

						return err
					})
				},
			},
			{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Write every stored workflow to a directory",
				Flags: []cli.Flag{
					databaseURLFlag(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Directory the workflow files are written to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "File format (json, yaml)",
						Value: "json",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron expression; keep running and export on this schedule",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return withStore(ctx, command, func(svc *services.Workflow) error {
						out := command.String("out")
						format := command.String("format")

						schedule := command.String("schedule")
						if schedule != "" {
							ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
							defer stop()

							return scheduleExport(ctx, logger, schedule, svc, out, format)
						}

						count, err := exportAll(ctx, svc, out, format)
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(command.Root().Writer, "exported %d workflows to %s\n", count, out)

						return err
					})
				},
			},
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("agentflow failed", "error", err)
		os.Exit(1)
	}
}
