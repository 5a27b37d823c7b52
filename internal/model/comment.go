package model

import (
	"time"
)

// CommentStatus is the stored moderation visibility of a comment.
// Trash is tracked separately through DeletedAt.
type CommentStatus string

const (
	StatusPending  CommentStatus = "PENDING"
	StatusApproved CommentStatus = "APPROVED"
)

// Comment represents a comment on a blog post.
// RootID is nil for top-level comments; replies always point at a top-level comment.
type Comment struct {
	ID              int64         `db:"id" json:"id"`
	PostID          int64         `db:"post_id" json:"post_id"`
	AuthorID        *int64        `db:"author_id" json:"author_id,omitempty"`
	Content         string        `db:"content" json:"content"`
	RootID          *int64        `db:"root_id" json:"root_id,omitempty"`
	ReplyToUsername *string       `db:"reply_to_username" json:"reply_to_username,omitempty"`
	Status          CommentStatus `db:"status" json:"status"`
	DeletedAt       *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
	IsPinned        bool          `db:"is_pinned" json:"is_pinned"`
	IsEdited        bool          `db:"is_edited" json:"is_edited"`
	LikesCount      int           `db:"likes_count" json:"likes_count"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`

	// Joined / computed fields (not in comments table)
	Author  *UserSummary `db:"-" json:"author,omitempty"`
	IsLiked bool         `db:"-" json:"is_liked"`
	Replies []Comment    `db:"-" json:"replies,omitempty"`

	// Tombstone marks a trashed root kept in a public thread for its replies.
	Tombstone bool `db:"-" json:"tombstone,omitempty"`
}

// IsTopLevel reports whether the comment has no root.
func (c *Comment) IsTopLevel() bool {
	return c.RootID == nil
}

// IsTrashed reports whether the comment sits in the trash bin.
func (c *Comment) IsTrashed() bool {
	return c.DeletedAt != nil
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentFilter narrows the admin comment listing. Zero values mean "any".
type CommentFilter struct {
	Status   CommentStatus
	PostID   *int64
	AuthorID *int64
	RootID   *int64
	Keyword  string
}

// Comment constraints
const (
	DefaultMaxCommentLength = 2000
)
