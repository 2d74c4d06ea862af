package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/leveling"
	"github.com/skif48/wellness-engine/repositories"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// GameResultsService publishes session awards and applies them on consumption.
type GameResultsService struct {
	kw MessageWriter
	ps *ProgressService
}

func NewGameResultsService(kw *kafka.Writer, ps *ProgressService) *GameResultsService {
	return &GameResultsService{kw: kw, ps: ps}
}

// Award publishes the award keyed by user id, so one user's awards stay ordered.
func (grs *GameResultsService) Award(ctx context.Context, award games.Award) error {
	bytes, err := json.Marshal(award)
	if err != nil {
		return err
	}
	return grs.kw.WriteMessages(ctx, kafka.Message{
		Key:   []byte(award.UserId),
		Value: bytes,
	})
}

func (grs *GameResultsService) HandleAward(ctx context.Context, payload []byte) error {
	award := games.Award{}
	if err := json.Unmarshal(payload, &award); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedAward, err)
	}
	if award.SessionId == "" || award.UserId == "" {
		return fmt.Errorf("%w: missing session or user id", ErrMalformedAward)
	}
	_, err := grs.ps.ApplyAward(ctx, award)
	return err
}

var ErrMalformedAward = errors.New("malformed award")

// Permanent reports whether retrying HandleAward can never succeed.
func Permanent(err error) bool {
	return errors.Is(err, ErrMalformedAward) ||
		errors.Is(err, repositories.ErrUserNotFound) ||
		errors.Is(err, leveling.ErrNegativeAmount) ||
		errors.Is(err, leveling.ErrInvalidProgress)
}
