package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/internal/services"
	"marketplace/pkg/kafka"
	"marketplace/pkg/rabbitmq"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	amqp "github.com/streadway/amqp"
)

// NewWorkerCommand creates the worker command, which consumes order events.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume order events from the configured broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cfg)
		},
	}
}

func runWorker(ctx context.Context, cfg config.Config) error {
	switch cfg.EventsBackend {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return err
		}
		defer client.Close()
		return client.ConsumeOrderEvents(ctx, func(msg amqp.Delivery) error {
			return services.HandleOrderEvent(msg.Type, msg.Body)
		})
	case "kafka":
		return kafka.Consume(ctx, kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroup,
		}, func(msg kafkago.Message) error {
			return services.HandleOrderEvent(string(msg.Key), msg.Value)
		})
	default:
		return fmt.Errorf("worker requires EVENTS_BACKEND rabbitmq or kafka")
	}
}
