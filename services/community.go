package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/repositories"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	postsPageSize    = 50
	maxTitleLength   = 200
	maxContentLength = 10000
)

type CommunityService struct {
	cr  repositories.CommunityRepository
	upr repositories.UserProfileRepository
}

func NewCommunityService(cr repositories.CommunityRepository, upr repositories.UserProfileRepository) *CommunityService {
	return &CommunityService{cr: cr, upr: upr}
}

func (cs *CommunityService) author(ctx context.Context, userId string) (*entities.UserProfile, error) {
	profile, err := cs.upr.GetUserProfile(ctx, userId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, repositories.ErrUserNotFound
	}
	return profile, nil
}

func (cs *CommunityService) CreatePost(ctx context.Context, userId string, req *entities.CreatePostRequest) (*entities.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	if len(title) > maxTitleLength || len(content) > maxContentLength {
		return nil, fmt.Errorf("%w: post too long", ErrInvalidInput)
	}
	profile, err := cs.author(ctx, userId)
	if err != nil {
		return nil, err
	}
	return cs.cr.CreatePost(ctx, &entities.Post{
		AuthorId: profile.Id,
		Author:   profile.Name,
		Avatar:   profile.Avatar,
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(req.Category),
	})
}

func (cs *CommunityService) ListPosts(ctx context.Context, viewerId string) ([]*entities.Post, error) {
	return cs.cr.ListPosts(ctx, viewerId, postsPageSize)
}

// DeletePost removes a post and its comments and likes. Only the author may delete it.
func (cs *CommunityService) DeletePost(ctx context.Context, userId string, postId string) error {
	post, err := cs.cr.GetPost(ctx, userId, postId)
	if err != nil {
		return err
	}
	if post.AuthorId != userId {
		return ErrForbidden
	}
	return cs.cr.DeletePost(ctx, postId)
}

func (cs *CommunityService) ToggleLike(ctx context.Context, userId string, postId string) (*entities.LikeResult, error) {
	return cs.cr.ToggleLike(ctx, postId, userId)
}

func (cs *CommunityService) CreateComment(ctx context.Context, userId string, postId string, req *entities.CreateCommentRequest) (*entities.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len(content) > maxContentLength {
		return nil, fmt.Errorf("%w: comment too long", ErrInvalidInput)
	}
	if _, err := cs.cr.GetPost(ctx, userId, postId); err != nil {
		return nil, err
	}
	profile, err := cs.author(ctx, userId)
	if err != nil {
		return nil, err
	}
	return cs.cr.CreateComment(ctx, &entities.Comment{
		PostId:   postId,
		AuthorId: profile.Id,
		Author:   profile.Name,
		Avatar:   profile.Avatar,
		Content:  content,
	})
}

func (cs *CommunityService) ListComments(ctx context.Context, postId string) ([]*entities.Comment, error) {
	return cs.cr.ListComments(ctx, postId)
}

func (cs *CommunityService) DeleteComment(ctx context.Context, userId string, commentId string) error {
	comment, err := cs.cr.GetComment(ctx, commentId)
	if err != nil {
		return err
	}
	if comment.AuthorId != userId {
		return ErrForbidden
	}
	return cs.cr.DeleteComment(ctx, commentId)
}
