package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/leveling"
	"github.com/skif48/wellness-engine/repositories"
)

var (
	awardsAppliedTotal   = metrics.NewCounter(`awards_applied_total`)
	awardsDuplicateTotal = metrics.NewCounter(`awards_duplicate_total`)
	levelUpsTotal        = metrics.NewCounter(`level_ups_total`)
)

// ProgressService is the only writer of user progress.
type ProgressService struct {
	upr    repositories.UserProfileRepository
	uxr    repositories.UserXpRepository
	lr     repositories.LeaderboardRepo
	ledger repositories.AwardLedger

	dedupTTL time.Duration
}

func NewProgressService(
	ac *app_config.AppConfig,
	upr repositories.UserProfileRepository,
	uxr repositories.UserXpRepository,
	lr repositories.LeaderboardRepo,
	ledger repositories.AwardLedger,
) *ProgressService {
	return &ProgressService{
		upr:      upr,
		uxr:      uxr,
		lr:       lr,
		ledger:   ledger,
		dedupTTL: ac.AwardDedupTTL,
	}
}

// ApplyAward grants a finished session's XP. A session already applied
// returns (nil, nil).
func (ps *ProgressService) ApplyAward(ctx context.Context, award games.Award) (*entities.ProgressUpdate, error) {
	if award.Xp < 0 {
		return nil, fmt.Errorf("session %s: %w", award.SessionId, leveling.ErrNegativeAmount)
	}
	claimed, err := ps.ledger.Claim(ctx, award.SessionId, ps.dedupTTL)
	if err != nil {
		return nil, fmt.Errorf("claim award: %w", err)
	}
	if !claimed {
		awardsDuplicateTotal.Inc()
		slog.With("session_id", award.SessionId).Debug("Award already applied")
		return nil, nil
	}

	before, after, err := ps.upr.UpdateProgress(ctx, award.UserId, func(p leveling.UserProgress) (leveling.UserProgress, error) {
		return leveling.AddXP(p, award.Xp)
	})
	if err != nil {
		if releaseErr := ps.ledger.Release(ctx, award.SessionId); releaseErr != nil {
			slog.With("err", releaseErr, "session_id", award.SessionId).Error("Failed to release award claim")
		}
		return nil, fmt.Errorf("update progress: %w", err)
	}
	awardsAppliedTotal.Inc()

	update := &entities.ProgressUpdate{
		UserId:    award.UserId,
		Before:    before,
		After:     after,
		LeveledUp: after.Level > before.Level,
	}
	if update.LeveledUp {
		levelUpsTotal.Add(after.Level - before.Level)
	}

	// Progress is committed at this point; leaderboard writes are best effort.
	if award.Xp > 0 {
		if _, err := ps.uxr.IncrementXp(ctx, award.UserId, award.Xp); err != nil {
			slog.With("err", err, "user_id", award.UserId).Error("Failed to increment total xp")
		}
	}
	if _, err := ps.lr.SubmitScore(ctx, string(award.Game), award.UserId, award.Score); err != nil {
		slog.With("err", err, "user_id", award.UserId, "game", award.Game).Error("Failed to submit score")
	}
	return update, nil
}

// DirectAwarder applies awards in-process, without the event stream.
type DirectAwarder struct {
	ps *ProgressService
}

func NewDirectAwarder(ps *ProgressService) *DirectAwarder {
	return &DirectAwarder{ps: ps}
}

func (d *DirectAwarder) Award(ctx context.Context, award games.Award) error {
	_, err := d.ps.ApplyAward(ctx, award)
	return err
}
