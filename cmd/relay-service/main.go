package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nasrelay/internal/config"
	"nasrelay/internal/constants"
	"nasrelay/internal/logger"
	"nasrelay/pkg/bootstrap"
	"nasrelay/pkg/cel"
	"nasrelay/pkg/logging"
	"nasrelay/pkg/models"
)

var (
	configFile string
)

// @title        nasrelay Relay Service API
// @version      1.0
// @description  HTTP ingress relaying storage appliance alerts to ntfy

// @BasePath  /api/v1

// @schemes  http https

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay-service",
		Short: "Storage appliance alert relay",
		Long:  "Relays storage appliance alert e-mails delivered through SNS, Kafka or HTTP to an ntfy topic",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional, environment is always read)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(lambdaCmd())
	rootCmd.AddCommand(invokeCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(filterExamplesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger. The config file is
// optional; CONFIG_FILE is used when --config is not given.
func setup() (*config.Config, logger.Logger, error) {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, err
	}

	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}

	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume alerts from Kafka and the HTTP ingress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting relay service",
				"broker", cfg.Broker.Type,
				"ingress", cfg.Ingress.Enabled,
				"topic", cfg.Ntfy.Topic,
			)

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			log.InfowCtx(ctx, "Service running")
			runErr := app.Run(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer shutdownCancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.ErrorwCtx(shutdownCtx, "Shutdown failed", "error", err)
			}

			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				log.ErrorwCtx(ctx, "Service stopped with error", "error", runErr)
				return runErr
			}
			log.InfowCtx(ctx, "Service shutdown complete")
			return nil
		},
	}
}

func lambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function subscribed to an SNS topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			base := bootstrap.NewBase(cfg, log)
			if err := base.InitRelay(); err != nil {
				return err
			}

			// Invocations always succeed so SNS does not redeliver.
			lambda.Start(func(ctx context.Context, event events.SNSEvent) error {
				ctx = logging.WithTransport(ctx, constants.TransportLambda)
				base.Relay.HandleEvent(ctx, &event)
				return nil
			})
			return nil
		},
	}
}

func invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke [event.json|-]",
		Short: "Process one SNS event batch read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			event, err := readEvent(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			base := bootstrap.NewBase(cfg, log)
			if err := base.InitRelay(); err != nil {
				return err
			}

			ctx := logging.WithTransport(cmd.Context(), constants.TransportCLI)
			result := base.Relay.HandleEvent(ctx, event)

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
}

func publishCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "publish [event.json|-]",
		Short: "Write one SNS event batch to the Kafka input topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Broker.Type != constants.BrokerTypeKafka {
				return fmt.Errorf("publish requires broker.type %q, got %q", constants.BrokerTypeKafka, cfg.Broker.Type)
			}

			event, err := readEvent(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			base := bootstrap.NewBase(cfg, log)
			if err := base.InitProducer(); err != nil {
				return err
			}
			defer base.ShutdownBroker()

			if topic == "" {
				topic = cfg.Broker.Kafka.InputTopic
			}
			key := uuid.NewString()

			ctx := logging.WithTransport(cmd.Context(), constants.TransportCLI)
			if err := base.Producer.Publish(ctx, topic, key, event); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %d record(s) to %s with key %s\n", len(event.Records), topic, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Kafka topic (defaults to broker.kafka.input_topic)")
	return cmd
}

func filterExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter-examples",
		Short: "Print example filter expressions",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(cel.FilterExpressionExamples))
			for name := range cel.FilterExpressionExamples {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", name, cel.FilterExpressionExamples[name])
			}
			return nil
		},
	}
}

// readEvent decodes an SNS event batch from the named file, or from stdin
// when no file or "-" is given.
func readEvent(stdin io.Reader, args []string) (*events.SNSEvent, error) {
	var r io.Reader = stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, constants.MaxEventBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	return models.DecodeEvent(data)
}
