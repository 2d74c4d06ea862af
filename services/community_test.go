package services

import (
	"context"
	"testing"

	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommunity() *CommunityService {
	profiles := newFakeProfiles(
		&entities.UserProfile{Id: "user-1", Name: "Ada", Avatar: "a.svg"},
		&entities.UserProfile{Id: "user-2", Name: "Bob", Avatar: "b.svg"},
	)
	return NewCommunityService(newFakeCommunity(), profiles)
}

func TestCommunityPostCarriesAuthor(t *testing.T) {
	cs := newTestCommunity()
	ctx := context.Background()

	post, err := cs.CreatePost(ctx, "user-1", &entities.CreatePostRequest{Title: " Hello ", Content: "First!", Category: "general"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "Ada", post.Author)
	assert.Equal(t, "a.svg", post.Avatar)

	_, err = cs.CreatePost(ctx, "user-1", &entities.CreatePostRequest{Title: "  ", Content: "x"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = cs.CreatePost(ctx, "ghost", &entities.CreatePostRequest{Title: "t", Content: "x"})
	require.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestCommunityLikeToggles(t *testing.T) {
	cs := newTestCommunity()
	ctx := context.Background()

	post, err := cs.CreatePost(ctx, "user-1", &entities.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	res, err := cs.ToggleLike(ctx, "user-2", post.Id)
	require.NoError(t, err)
	assert.Equal(t, &entities.LikeResult{PostId: post.Id, Liked: true, Likes: 1}, res)

	posts, err := cs.ListPosts(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].LikedByMe)

	res, err = cs.ToggleLike(ctx, "user-2", post.Id)
	require.NoError(t, err)
	assert.Equal(t, &entities.LikeResult{PostId: post.Id, Liked: false, Likes: 0}, res)
}

func TestCommunityOnlyAuthorDeletes(t *testing.T) {
	cs := newTestCommunity()
	ctx := context.Background()

	post, err := cs.CreatePost(ctx, "user-1", &entities.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	comment, err := cs.CreateComment(ctx, "user-2", post.Id, &entities.CreateCommentRequest{Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", comment.Author)

	require.ErrorIs(t, cs.DeleteComment(ctx, "user-1", comment.Id), ErrForbidden)
	require.ErrorIs(t, cs.DeletePost(ctx, "user-2", post.Id), ErrForbidden)

	require.NoError(t, cs.DeletePost(ctx, "user-1", post.Id))
	comments, err := cs.ListComments(ctx, post.Id)
	require.NoError(t, err)
	assert.Empty(t, comments)
	require.ErrorIs(t, cs.DeletePost(ctx, "user-1", post.Id), repositories.ErrPostNotFound)
}

func TestCommunityCommentsOldestFirst(t *testing.T) {
	cs := newTestCommunity()
	ctx := context.Background()

	post, err := cs.CreatePost(ctx, "user-1", &entities.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	for _, text := range []string{"one", "two", "three"} {
		_, err := cs.CreateComment(ctx, "user-2", post.Id, &entities.CreateCommentRequest{Content: text})
		require.NoError(t, err)
	}
	_, err = cs.CreateComment(ctx, "user-2", "missing", &entities.CreateCommentRequest{Content: "x"})
	require.ErrorIs(t, err, repositories.ErrPostNotFound)

	comments, err := cs.ListComments(ctx, post.Id)
	require.NoError(t, err)
	var texts []string
	for _, c := range comments {
		texts = append(texts, c.Content)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
}
