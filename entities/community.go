package entities

import "time"

type Post struct {
	Id            string    `json:"id" db:"id"`
	AuthorId      string    `json:"author_id" db:"author_id"`
	Author        string    `json:"author" db:"author"`
	Avatar        string    `json:"avatar" db:"avatar"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	Category      string    `json:"category" db:"category"`
	Likes         int       `json:"likes" db:"likes"`
	IsHighlighted bool      `json:"is_highlighted" db:"is_highlighted"`
	LikedByMe     bool      `json:"liked_by_me" db:"liked_by_me"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type Comment struct {
	Id        string    `json:"id" db:"id"`
	PostId    string    `json:"post_id" db:"post_id"`
	AuthorId  string    `json:"author_id" db:"author_id"`
	Author    string    `json:"author" db:"author"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type LikeResult struct {
	PostId string `json:"post_id"`
	Liked  bool   `json:"liked"`
	Likes  int    `json:"likes"`
}
