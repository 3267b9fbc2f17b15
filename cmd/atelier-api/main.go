package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/atelier/pkg/audit"
	"github.com/dukex/atelier/pkg/channels/kafka"
	"github.com/dukex/atelier/pkg/cmd"
	"github.com/dukex/atelier/pkg/log"
	"github.com/dukex/atelier/pkg/otelhelper"
	"github.com/dukex/atelier/pkg/sessions"
	cli "github.com/urfave/cli/v3"
)

const (
	serviceName = "atelier-api"
	defaultPort = 9091
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Build, validate and store business workflows",
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
				Name:    "database-url",
				Usage:   "Persistence URL (file://, postgres://, redis://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   cmd.EventBusGoChannel,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "Idle time after which an editing session is dropped",
				Value:   sessions.DefaultTTL,
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing Atelier API")

	if command.Bool("tracing") {
		_, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := shutdown(shutdownCtx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(
		command.String("event-bus"),
		kafka.ParseBrokers(command.String("kafka-brokers")),
		serviceName,
		logger,
	)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := audit.NewTrail(logger).Register(eventBus); err != nil {
		return err
	}

	if err := eventBus.Subscribe(ctx); err != nil {
		return err
	}

	api := NewAPI(logger, persistence, eventBus, sessions.NewStore(command.Duration("session-ttl")))

	return api.Start(command.Int("port"))
}
