package servers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/graceful_shutdown"
	"github.com/skif48/wellness-engine/servers/consumers"
	"github.com/skif48/wellness-engine/services"
)

type KafkaConsumer struct {
	r          *kafka.Reader
	deadLetter *kafka.Writer
	pool       *consumers.AwardsConsumer

	cancel context.CancelFunc
	done   chan struct{}
}

// RunKafkaConsumer applies published game awards. It is only started when
// awards travel through Kafka.
func RunKafkaConsumer(ac *app_config.AppConfig, grs *services.GameResultsService) {
	if ac.AwardTransport != "kafka" {
		return
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: ac.KafkaBrokers,
		GroupID: ac.KafkaConsumerGroupId,
		Topic:   ac.KafkaTopic,
	})

	deadLetter := &kafka.Writer{
		Addr:                   kafka.TCP(ac.KafkaBrokers...),
		Topic:                  ac.KafkaDeadLetterTopic,
		Balancer:               &kafka.Murmur2Balancer{Consistent: true},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           ac.KafkaWriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	kc := &KafkaConsumer{
		r:          r,
		deadLetter: deadLetter,
		pool:       consumers.NewAwardsConsumer(ac.KafkaAwardsConsumerShards, grs, r, deadLetter, services.Permanent),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	kc.pool.Start()
	graceful_shutdown.AddInputShutdownFunc(kc.shutdown)

	go kc.listen(ctx)
}

func (kc *KafkaConsumer) listen(ctx context.Context) {
	defer close(kc.done)
	for {
		m, err := kc.r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.With("err", err).Error("Failed to fetch award message")
			}
			return
		}
		if err := kc.pool.Dispatch(ctx, m); err != nil {
			return
		}
	}
}

func (kc *KafkaConsumer) shutdown() {
	kc.cancel()
	<-kc.done
	kc.pool.Close()
	if err := kc.deadLetter.Close(); err != nil {
		slog.With("err", err).Error("Failed to close dead-letter writer")
	}
	if err := kc.r.Close(); err != nil {
		slog.With("err", err).Error("Failed to close kafka reader")
	}
}
