package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/segmentio/kafka-go"
)

type AwardHandler interface {
	HandleAward(ctx context.Context, payload []byte) error
}

type Committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DeadLetterWriter takes the awards the consumer could not apply.
type DeadLetterWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

const (
	reasonPermanent = "permanent"
	reasonExhausted = "exhausted"
)

var (
	awardsHandledTotal = metrics.NewCounter(`awards_consumer_handled_total`)
	stalledShards      = metrics.NewCounter(`awards_consumer_stalled_shards`)
)

func deadLetteredTotal(reason string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`awards_consumer_dead_lettered_total{reason=%q}`, reason))
}

// AwardsConsumer fans messages out to one worker per shard. A partition always
// maps to the same shard, so offsets are committed in order.
//
// An award is committed only once it was applied or parked on the dead-letter
// topic. When parking fails too, the shard stops committing, so everything
// from that offset on is redelivered after a restart.
type AwardsConsumer struct {
	ch []chan kafka.Message
	wg sync.WaitGroup

	h          AwardHandler
	committer  Committer
	deadLetter DeadLetterWriter
	permanent  func(error) bool

	ctx    context.Context
	cancel context.CancelFunc

	attempts int
	backoff  time.Duration
}

func NewAwardsConsumer(shards int, h AwardHandler, committer Committer, deadLetter DeadLetterWriter, permanent func(error) bool) *AwardsConsumer {
	if shards < 1 {
		shards = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &AwardsConsumer{
		ch:        make([]chan kafka.Message, shards),
		h:         h,
		committer:  committer,
		deadLetter: deadLetter,
		permanent:  permanent,
		ctx:        ctx,
		cancel:     cancel,
		attempts:   5,
		backoff:    200 * time.Millisecond,
	}
	for i := range a.ch {
		a.ch[i] = make(chan kafka.Message, 64)
	}
	return a
}

func (a *AwardsConsumer) Start() {
	for i := 0; i < len(a.ch); i++ {
		a.wg.Add(1)
		go func(i int) {
			defer a.wg.Done()
			stalled := false
			for m := range a.ch[i] {
				if stalled {
					continue
				}
				if !a.process(m) {
					stalled = true
					stalledShards.Inc()
					slog.With("shard", i, "partition", m.Partition, "offset", m.Offset).
						Error("Award shard stalled, uncommitted awards will be redelivered")
				}
			}
		}(i)
	}
}

// Dispatch blocks while the shard is full.
func (a *AwardsConsumer) Dispatch(ctx context.Context, m kafka.Message) error {
	select {
	case a.ch[m.Partition%len(a.ch)] <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// process reports false when the message could neither be applied nor parked.
func (a *AwardsConsumer) process(m kafka.Message) bool {
	log := slog.With("partition", m.Partition, "offset", m.Offset)
	backoff := a.backoff
	for attempt := 1; ; attempt++ {
		err := a.h.HandleAward(a.ctx, m.Value)
		if err == nil {
			awardsHandledTotal.Inc()
			break
		}
		if a.permanent != nil && a.permanent(err) {
			log.With("err", err).Error("Award can not be applied, parking it")
			if !a.park(m, err, reasonPermanent, attempt) {
				return false
			}
			break
		}
		if attempt >= a.attempts {
			log.With("err", err, "attempts", attempt).Error("Giving up on award, parking it")
			if !a.park(m, err, reasonExhausted, attempt) {
				return false
			}
			break
		}
		log.With("err", err, "attempt", attempt).Warn("Failed to handle award, retrying")
		if !a.sleep(backoff) {
			return false
		}
		backoff *= 2
	}
	if err := a.committer.CommitMessages(a.ctx, m); err != nil {
		log.With("err", err).Error("Failed to commit award message")
	}
	return true
}

// park copies the message to the dead-letter topic with the failure attached.
func (a *AwardsConsumer) park(m kafka.Message, cause error, reason string, attempts int) bool {
	if a.deadLetter == nil {
		return false
	}
	dead := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(append([]kafka.Header(nil), m.Headers...),
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "reason", Value: []byte(reason)},
			kafka.Header{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
			kafka.Header{Key: "source", Value: []byte(fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset))},
		),
	}
	backoff := a.backoff
	for attempt := 1; ; attempt++ {
		err := a.deadLetter.WriteMessages(a.ctx, dead)
		if err == nil {
			deadLetteredTotal(reason).Inc()
			return true
		}
		if attempt >= a.attempts {
			slog.With("err", err, "partition", m.Partition, "offset", m.Offset).Error("Failed to park award")
			return false
		}
		if !a.sleep(backoff) {
			return false
		}
		backoff *= 2
	}
}

func (a *AwardsConsumer) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-a.ctx.Done():
		return false
	}
}

// Close stops accepting messages and waits for the workers to drain. Call it
// after the last Dispatch.
func (a *AwardsConsumer) Close() {
	for _, ch := range a.ch {
		close(ch)
	}
	a.wg.Wait()
	a.cancel()
}
