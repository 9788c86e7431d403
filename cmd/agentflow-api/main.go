package main

import (
	"context"
	"fmt"
	"os"

	"github.com/genagent/agentflow/pkg/cmd"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/log"
	"github.com/genagent/agentflow/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "agentflow-api",
		Usage:                 "Store and validate agent workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
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
				Name:    "tool-runner-url",
				Usage:   "Base URL of the runner that executes non-HTTP tool tests",
				Sources: cli.EnvVars("TOOL_RUNNER_URL"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing agentflow API")

			registry, err := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))
			if err != nil {
				return err
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger, command.String("kafka-brokers"))
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			opts := []Option{WithToolRunner(command.String("tool-runner-url"))}

			if command.Bool("strict-schemas") {
				opts = append(opts, WithSchemaMode(graph.SchemaModeStrict))
			}

			if command.Bool("otel-enabled") {
				tracer, err := otelhelper.NewTracer(ctx, "agentflow-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				opts = append(opts, WithTracer(tracer))
			}

			api := NewAPI(logger, persistence, registry, eventBus, opts...)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
