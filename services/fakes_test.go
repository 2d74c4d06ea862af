package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skif48/wellness-engine/entities"
	"github.com/skif48/wellness-engine/leveling"
	"github.com/skif48/wellness-engine/repositories"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*entities.UserProfile
	creds    map[string]*entities.Credentials
	failNext error
}

func newFakeProfiles(profiles ...*entities.UserProfile) *fakeProfiles {
	f := &fakeProfiles{
		profiles: make(map[string]*entities.UserProfile),
		creds:    make(map[string]*entities.Credentials),
	}
	for _, p := range profiles {
		f.profiles[p.Id] = p
	}
	return f
}

func (f *fakeProfiles) SignUp(_ context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.creds[r.Email]; ok {
		return nil, repositories.ErrEmailTaken
	}
	id := fmt.Sprintf("user-%d", len(f.profiles)+1)
	p := &entities.UserProfile{
		Id:     id,
		Name:   r.Name,
		Email:  r.Email,
		Avatar: entities.DefaultAvatar(id),
		Xp:     r.Progress.Xp,
		Level:  r.Progress.Level,
	}
	f.profiles[id] = p
	f.creds[r.Email] = &entities.Credentials{Email: r.Email, UserId: id, PasswordHash: r.PasswordHash}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetCredentials(_ context.Context, email string) (*entities.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds[email], nil
}

func (f *fakeProfiles) GetManyUserProfiles(_ context.Context, userIds []string) ([]*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.UserProfile
	for _, id := range userIds {
		if p, ok := f.profiles[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProfiles) GetUserProfile(_ context.Context, userId string) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userId]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, userId string, r *entities.UpdateUserProfileDto) (*entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userId]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
	}
	if r.Avatar != nil {
		p.Avatar = *r.Avatar
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) UpdateProgress(_ context.Context, userId string, fn repositories.ProgressFunc) (leveling.UserProgress, leveling.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero leveling.UserProgress
	if err := f.failNext; err != nil {
		f.failNext = nil
		return zero, zero, err
	}
	p, ok := f.profiles[userId]
	if !ok {
		return zero, zero, repositories.ErrUserNotFound
	}
	before := p.Progress()
	after, err := fn(before)
	if err != nil {
		return zero, zero, err
	}
	p.Xp, p.Level = after.Xp, after.Level
	return before, after, nil
}

func (f *fakeProfiles) Purge(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.profiles)
	clear(f.creds)
	return nil
}

type fakeXp struct {
	mu    sync.Mutex
	total map[string]int
}

func (f *fakeXp) IncrementXp(_ context.Context, userId string, xp int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.total == nil {
		f.total = make(map[string]int)
	}
	f.total[userId] += xp
	return f.total[userId], nil
}

func (f *fakeXp) GetXp(_ context.Context, userId string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total[userId], nil
}

func (f *fakeXp) GetManyUsersXp(_ context.Context, userIds []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, id := range userIds {
		if v, ok := f.total[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeLeaderboards struct {
	mu     sync.Mutex
	boards map[string]map[string]int
}

func (f *fakeLeaderboards) SubmitScore(_ context.Context, board string, userId string, score int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.boards == nil {
		f.boards = make(map[string]map[string]int)
	}
	if f.boards[board] == nil {
		f.boards[board] = make(map[string]int)
	}
	if best, ok := f.boards[board][userId]; !ok || score > best {
		f.boards[board][userId] = score
	}
	return f.boards[board][userId], nil
}

func (f *fakeLeaderboards) GetLeaderboard(_ context.Context, board string, size int) ([]*entities.LeaderboardScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.LeaderboardScore
	for userId, score := range f.boards[board] {
		out = append(out, &entities.LeaderboardScore{Board: board, UserId: userId, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserId > out[j].UserId
	})
	if len(out) > size {
		out = out[:size]
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func (f *fakeLeaderboards) GetPosition(ctx context.Context, board string, userId string) (int, error) {
	scores, _ := f.GetLeaderboard(ctx, board, 1<<30)
	for _, s := range scores {
		if s.UserId == userId {
			return s.Position, nil
		}
	}
	return 0, nil
}

func (f *fakeLeaderboards) Purge(_ context.Context, boards ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range boards {
		delete(f.boards, b)
	}
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (f *fakeLedger) Claim(_ context.Context, sessionId string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed == nil {
		f.claimed = make(map[string]bool)
	}
	if f.claimed[sessionId] {
		return false, nil
	}
	f.claimed[sessionId] = true
	return true, nil
}

func (f *fakeLedger) Release(_ context.Context, sessionId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimed, sessionId)
	return nil
}

func (f *fakeLedger) isClaimed(sessionId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimed[sessionId]
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (f *fakeTokens) Save(_ context.Context, token string, userId string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = make(map[string]string)
	}
	f.tokens[token] = userId
	return nil
}

func (f *fakeTokens) Lookup(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[token], nil
}

func (f *fakeTokens) Revoke(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

type fakeCommunity struct {
	mu       sync.Mutex
	posts    map[string]*entities.Post
	comments map[string]*entities.Comment
	likes    map[string]map[string]bool
	seq      int
}

func newFakeCommunity() *fakeCommunity {
	return &fakeCommunity{
		posts:    make(map[string]*entities.Post),
		comments: make(map[string]*entities.Comment),
		likes:    make(map[string]map[string]bool),
	}
}

func (f *fakeCommunity) CreatePost(_ context.Context, post *entities.Post) (*entities.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cp := *post
	cp.Id = fmt.Sprintf("post-%d", f.seq)
	cp.CreatedAt = time.Unix(int64(f.seq), 0)
	f.posts[cp.Id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCommunity) ListPosts(_ context.Context, viewerId string, limit int) ([]*entities.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Post
	for _, p := range f.posts {
		cp := *p
		cp.LikedByMe = f.likes[p.Id][viewerId]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommunity) GetPost(_ context.Context, viewerId string, postId string) (*entities.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postId]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	cp := *p
	cp.LikedByMe = f.likes[postId][viewerId]
	return &cp, nil
}

func (f *fakeCommunity) DeletePost(_ context.Context, postId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postId]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(f.posts, postId)
	delete(f.likes, postId)
	for id, c := range f.comments {
		if c.PostId == postId {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *fakeCommunity) ToggleLike(_ context.Context, postId string, userId string) (*entities.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postId]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	if f.likes[postId] == nil {
		f.likes[postId] = make(map[string]bool)
	}
	liked := !f.likes[postId][userId]
	if liked {
		f.likes[postId][userId] = true
		p.Likes++
	} else {
		delete(f.likes[postId], userId)
		p.Likes--
	}
	return &entities.LikeResult{PostId: postId, Liked: liked, Likes: p.Likes}, nil
}

func (f *fakeCommunity) CreateComment(_ context.Context, comment *entities.Comment) (*entities.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cp := *comment
	cp.Id = fmt.Sprintf("comment-%d", f.seq)
	cp.CreatedAt = time.Unix(int64(f.seq), 0)
	f.comments[cp.Id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCommunity) ListComments(_ context.Context, postId string) ([]*entities.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Comment
	for _, c := range f.comments {
		if c.PostId == postId {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCommunity) GetComment(_ context.Context, commentId string) (*entities.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentId]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommunity) DeleteComment(_ context.Context, commentId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[commentId]; !ok {
		return repositories.ErrCommentNotFound
	}
	delete(f.comments, commentId)
	return nil
}

func (f *fakeCommunity) Purge(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.posts)
	clear(f.comments)
	clear(f.likes)
	return nil
}
