package services

import (
	"context"
	"fmt"

	"github.com/skif48/wellness-engine/repositories"
)

// BackofficeService wipes every store. Used by load tests between runs.
type BackofficeService struct {
	upr repositories.UserProfileRepository
	cr  repositories.CommunityRepository
	ls  *LeaderboardService
}

func NewBackofficeService(upr repositories.UserProfileRepository, cr repositories.CommunityRepository, ls *LeaderboardService) *BackofficeService {
	return &BackofficeService{upr: upr, cr: cr, ls: ls}
}

func (b *BackofficeService) Purge(ctx context.Context) error {
	if err := b.upr.Purge(ctx); err != nil {
		return fmt.Errorf("purge profiles: %w", err)
	}
	if err := b.cr.Purge(ctx); err != nil {
		return fmt.Errorf("purge community: %w", err)
	}
	if err := b.ls.Purge(ctx); err != nil {
		return fmt.Errorf("purge leaderboards: %w", err)
	}
	return nil
}
