package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skif48/wellness-engine/entities"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

const communitySchema = `
CREATE TABLE IF NOT EXISTS posts (
	id             TEXT PRIMARY KEY,
	author_id      TEXT NOT NULL,
	author         TEXT NOT NULL,
	avatar         TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	content        TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	likes          INTEGER NOT NULL DEFAULT 0,
	is_highlighted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	author_id  TEXT NOT NULL,
	author     TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments (post_id, created_at);
`

// $1 is the viewer, used to fill liked_by_me.
const postColumns = `
	p.id, p.author_id, p.author, p.avatar, p.title, p.content, p.category, p.likes, p.is_highlighted,
	EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked_by_me,
	p.created_at`

const commentColumns = `id, post_id, author_id, author, avatar, content, created_at`

type CommunityRepository interface {
	CreatePost(ctx context.Context, post *entities.Post) (*entities.Post, error)
	ListPosts(ctx context.Context, viewerId string, limit int) ([]*entities.Post, error)
	GetPost(ctx context.Context, viewerId string, postId string) (*entities.Post, error)
	DeletePost(ctx context.Context, postId string) error
	ToggleLike(ctx context.Context, postId string, userId string) (*entities.LikeResult, error)

	CreateComment(ctx context.Context, comment *entities.Comment) (*entities.Comment, error)
	ListComments(ctx context.Context, postId string) ([]*entities.Comment, error)
	GetComment(ctx context.Context, commentId string) (*entities.Comment, error)
	DeleteComment(ctx context.Context, commentId string) error

	Purge(ctx context.Context) error
}

type CommunityRepositoryPostgres struct {
	db *pgxpool.Pool
	tx *Transactor
}

func NewCommunityRepository(db *pgxpool.Pool) CommunityRepository {
	if _, err := db.Exec(context.Background(), communitySchema); err != nil {
		panic(err)
	}
	return &CommunityRepositoryPostgres{db: db, tx: NewTransactor(db)}
}

func (r *CommunityRepositoryPostgres) CreatePost(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	query := `
		INSERT INTO posts (id, author_id, author, avatar, title, content, category, is_highlighted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	created := *post
	created.Id = uuid.NewString()
	created.Likes = 0
	created.LikedByMe = false
	err := r.db.QueryRow(
		ctx, query,
		created.Id,
		created.AuthorId,
		created.Author,
		created.Avatar,
		created.Title,
		created.Content,
		created.Category,
		created.IsHighlighted,
	).Scan(&created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &created, nil
}

// ListPosts returns the newest posts first.
func (r *CommunityRepositoryPostgres) ListPosts(ctx context.Context, viewerId string, limit int) ([]*entities.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p ORDER BY p.created_at DESC, p.id LIMIT $2`
	rows, err := r.db.Query(ctx, query, viewerId, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Post])
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *CommunityRepositoryPostgres) GetPost(ctx context.Context, viewerId string, postId string) (*entities.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $2`
	rows, err := r.db.Query(ctx, query, viewerId, postId)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	post, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Post])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (r *CommunityRepositoryPostgres) DeletePost(ctx context.Context, postId string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postId)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ToggleLike likes the post for the user, or unlikes it when already liked.
func (r *CommunityRepositoryPostgres) ToggleLike(ctx context.Context, postId string, userId string) (*entities.LikeResult, error) {
	result := &entities.LikeResult{PostId: postId}
	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var likes int
		err := tx.QueryRow(ctx, `SELECT likes FROM posts WHERE id = $1 FOR UPDATE`, postId).Scan(&likes)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPostNotFound
			}
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postId, userId)
		if err != nil {
			return err
		}
		delta := -1
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`, postId, userId); err != nil {
				return err
			}
			delta = 1
		}

		err = tx.QueryRow(ctx,
			`UPDATE posts SET likes = GREATEST(likes + $2, 0) WHERE id = $1 RETURNING likes`,
			postId, delta,
		).Scan(&result.Likes)
		if err != nil {
			return err
		}
		result.Liked = delta > 0
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return result, nil
}

func (r *CommunityRepositoryPostgres) CreateComment(ctx context.Context, comment *entities.Comment) (*entities.Comment, error) {
	query := `
		INSERT INTO comments (id, post_id, author_id, author, avatar, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	created := *comment
	created.Id = uuid.NewString()
	err := r.db.QueryRow(
		ctx, query,
		created.Id,
		created.PostId,
		created.AuthorId,
		created.Author,
		created.Avatar,
		created.Content,
	).Scan(&created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &created, nil
}

// ListComments returns the oldest comments first.
func (r *CommunityRepositoryPostgres) ListComments(ctx context.Context, postId string) ([]*entities.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, postId)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Comment])
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *CommunityRepositoryPostgres) GetComment(ctx context.Context, commentId string) (*entities.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	rows, err := r.db.Query(ctx, query, commentId)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	comment, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.Comment])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

func (r *CommunityRepositoryPostgres) DeleteComment(ctx context.Context, commentId string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentId)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *CommunityRepositoryPostgres) Purge(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `TRUNCATE posts, post_likes, comments`); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	return nil
}
