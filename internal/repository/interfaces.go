package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quillblog/internal/model"
)

// UserRepository reads the external users table.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// PostRepository reads the external posts table.
type PostRepository interface {
	// Exists checks if a post exists (not deleted)
	Exists(ctx context.Context, postID int64) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// GetByID returns the comment with its author joined, including trashed comments.
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	GetByIDs(ctx context.Context, commentIDs []int64) ([]model.Comment, error)
	// GetForUpdate locks the comment row for the rest of tx.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error)
	UpdateState(ctx context.Context, tx *sqlx.Tx, commentID int64, status model.CommentStatus, deletedAt *time.Time) error
	UpdateContent(ctx context.Context, tx *sqlx.Tx, commentID int64, content string) (*model.Comment, error)
	SetPinned(ctx context.Context, tx *sqlx.Tx, commentID int64, pinned bool) error
	// CountLiveReplies locks the replies of a top-level comment and counts
	// those not in the trash.
	CountLiveReplies(ctx context.Context, tx *sqlx.Tx, rootID int64) (int, error)
	Purge(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	// IncrementLikeCount applies delta and returns the stored count.
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error)

	// Listing
	List(ctx context.Context, filter model.CommentFilter, page model.PageRequest) ([]model.Comment, int, error)
	ListTrash(ctx context.Context, page model.PageRequest) ([]model.Comment, int, error)
	// ListPublicRoots returns approved top-level comments of a post. With
	// withTombstones, trashed roots that still have visible replies are included.
	ListPublicRoots(ctx context.Context, postID int64, withTombstones bool, page model.PageRequest) ([]model.Comment, int, error)
	ListPublicReplies(ctx context.Context, rootIDs []int64) ([]model.Comment, error)
	CountStats(ctx context.Context) (*model.ModerationStats, error)
}

type LikeRepository interface {
	// Add inserts the ledger row. Returns false if it already existed.
	Add(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error)
	// Remove deletes the ledger row. Returns false if there was none.
	Remove(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error)
	// CheckLikes returns comment_id -> liked for the given user.
	CheckLikes(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, reportID uuid.UUID) (*model.Report, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, reportID uuid.UUID, status model.ReportStatus, handledBy int64, commentDeleted bool) (*model.Report, error)
	List(ctx context.Context, status model.ReportStatus, page model.PageRequest) ([]model.Report, int, error)
}
