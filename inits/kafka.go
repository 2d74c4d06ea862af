package inits

import (
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/graceful_shutdown"
)

// NewKafkaWriter returns the awards producer. Messages are keyed by user id,
// so one user's awards always land on the same partition.
func NewKafkaWriter(ac *app_config.AppConfig) *kafka.Writer {
	kw := &kafka.Writer{
		Addr:                   kafka.TCP(ac.KafkaBrokers...),
		Topic:                  ac.KafkaTopic,
		Balancer:               &kafka.Murmur2Balancer{Consistent: true},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           ac.KafkaWriteTimeout,
	}
	graceful_shutdown.AddOutputShutdownFunc(func() {
		if err := kw.Close(); err != nil {
			slog.With("err", err).Error("Failed to close kafka writer")
		}
	})
	return kw
}
