package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"quillblog/internal/model"
)

// Column lists. joinedCommentColumns expects comments aliased as c and users as u.
const (
	commentColumns = `id, post_id, author_id, content, root_id, reply_to_username, status,
		deleted_at, is_pinned, is_edited, likes_count, created_at, updated_at`

	joinedCommentColumns = `c.id, c.post_id, c.author_id, c.content, c.root_id, c.reply_to_username, c.status,
		c.deleted_at, c.is_pinned, c.is_edited, c.likes_count, c.created_at, c.updated_at,
		u.username AS author_username, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url`

	joinedCommentFrom = `FROM comments c LEFT JOIN users u ON u.id = c.author_id`
)

// Foreign keys named by PostgreSQL's default constraint naming.
const (
	fkCommentPost = "comments_post_id_fkey"
	fkCommentRoot = "comments_root_id_fkey"
	fkCommentUser = "comments_author_id_fkey"
)

// commentRow scans a comment with its author joined.
type commentRow struct {
	model.Comment
	AuthorUsername    *string `db:"author_username"`
	AuthorDisplayName *string `db:"author_display_name"`
	AuthorAvatarURL   *string `db:"author_avatar_url"`
}

func (row commentRow) toComment() model.Comment {
	c := row.Comment
	if c.AuthorID != nil && row.AuthorUsername != nil {
		c.Author = &model.UserSummary{
			ID:          *c.AuthorID,
			Username:    *row.AuthorUsername,
			DisplayName: row.AuthorDisplayName,
			AvatarURL:   row.AuthorAvatarURL,
		}
	}
	return c
}

func toComments(rows []commentRow) []model.Comment {
	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment and fills in the generated columns.
// A post or root deleted concurrently surfaces as a not-found error.
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, content, root_id, reply_to_username, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + commentColumns
	row := r.db.QueryRowxContext(ctx, query,
		comment.PostID,
		comment.AuthorID,
		comment.Content,
		comment.RootID,
		comment.ReplyToUsername,
		comment.Status,
	)

	author := comment.Author
	if err := row.StructScan(comment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case fkCommentPost:
				return model.ErrPostNotFound
			case fkCommentRoot:
				return model.ErrParentNotFound
			case fkCommentUser:
				return model.ErrUserNotFound
			}
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	comment.Author = author
	return nil
}

// GetByID retrieves a single comment with its author.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `SELECT ` + joinedCommentColumns + ` ` + joinedCommentFrom + ` WHERE c.id = $1`

	var row commentRow
	err := r.db.GetContext(ctx, &row, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	comment := row.toComment()
	return &comment, nil
}

// GetByIDs retrieves comments by id in one query. Missing ids are skipped.
func (r *commentRepository) GetByIDs(ctx context.Context, commentIDs []int64) ([]model.Comment, error) {
	if len(commentIDs) == 0 {
		return []model.Comment{}, nil
	}

	query := `SELECT ` + joinedCommentColumns + ` ` + joinedCommentFrom + ` WHERE c.id = ANY($1)`

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(commentIDs)); err != nil {
		return nil, fmt.Errorf("failed to get comments by ids: %w", err)
	}
	return toComments(rows), nil
}

// GetForUpdate reads the comment and holds a row lock until tx ends.
func (r *commentRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 FOR UPDATE`

	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock comment: %w", err)
	}
	return &comment, nil
}

// UpdateState writes the moderation columns of a comment.
func (r *commentRepository) UpdateState(ctx context.Context, tx *sqlx.Tx, commentID int64, status model.CommentStatus, deletedAt *time.Time) error {
	query := `UPDATE comments SET status = $1, deleted_at = $2, updated_at = NOW() WHERE id = $3`
	result, err := tx.ExecContext(ctx, query, status, deletedAt, commentID)
	if err != nil {
		return fmt.Errorf("failed to update comment state: %w", err)
	}
	return requireAffected(result, model.ErrCommentNotFound)
}

// UpdateContent replaces the content and marks the comment as edited.
func (r *commentRepository) UpdateContent(ctx context.Context, tx *sqlx.Tx, commentID int64, content string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET content = $1, is_edited = TRUE, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + commentColumns

	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, content, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment content: %w", err)
	}
	return &comment, nil
}

// SetPinned sets the pin flag on a top-level comment.
func (r *commentRepository) SetPinned(ctx context.Context, tx *sqlx.Tx, commentID int64, pinned bool) error {
	query := `UPDATE comments SET is_pinned = $1, updated_at = NOW() WHERE id = $2 AND root_id IS NULL`
	result, err := tx.ExecContext(ctx, query, pinned, commentID)
	if err != nil {
		return fmt.Errorf("failed to set comment pin: %w", err)
	}
	return requireAffected(result, model.ErrCommentNotFound)
}

func (r *commentRepository) CountLiveReplies(ctx context.Context, tx *sqlx.Tx, rootID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT deleted_at FROM comments WHERE root_id = $1 FOR UPDATE
		) replies
		WHERE deleted_at IS NULL
	`

	var count int
	if err := tx.GetContext(ctx, &count, query, rootID); err != nil {
		return 0, fmt.Errorf("failed to count live replies: %w", err)
	}
	return count, nil
}

// Purge removes the comment row. Likes and reports go with it (ON DELETE CASCADE),
// and so do the replies of a root, which must all be in the trash by then.
func (r *commentRepository) Purge(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to purge comment: %w", err)
	}
	return requireAffected(result, model.ErrCommentNotFound)
}

// IncrementLikeCount atomically updates likes_count and returns the new value.
func (r *commentRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error) {
	query := `UPDATE comments SET likes_count = likes_count + $1 WHERE id = $2 RETURNING likes_count`

	var count int
	err := tx.GetContext(ctx, &count, query, delta, commentID)
	if err == sql.ErrNoRows {
		return 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}
	return count, nil
}

// List returns non-trashed comments matching filter, newest first.
func (r *commentRepository) List(ctx context.Context, filter model.CommentFilter, page model.PageRequest) ([]model.Comment, int, error) {
	conds := []string{"c.deleted_at IS NULL"}
	var args []interface{}

	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		addCond("c.status = $%d", filter.Status)
	}
	if filter.PostID != nil {
		addCond("c.post_id = $%d", *filter.PostID)
	}
	if filter.AuthorID != nil {
		addCond("c.author_id = $%d", *filter.AuthorID)
	}
	if filter.RootID != nil {
		addCond("c.root_id = $%d", *filter.RootID)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		addCond("c.content ILIKE $%d", "%"+escapeLike(kw)+"%")
	}

	where := "WHERE " + strings.Join(conds, " AND ")
	return r.listPage(ctx, where, "ORDER BY c.created_at DESC, c.id DESC", args, page)
}

// ListTrash returns trashed comments, most recently trashed first.
func (r *commentRepository) ListTrash(ctx context.Context, page model.PageRequest) ([]model.Comment, int, error) {
	return r.listPage(ctx, "WHERE c.deleted_at IS NOT NULL", "ORDER BY c.deleted_at DESC, c.id DESC", nil, page)
}

// ListPublicRoots returns the visible top-level comments of a post, pinned first.
func (r *commentRepository) ListPublicRoots(ctx context.Context, postID int64, withTombstones bool, page model.PageRequest) ([]model.Comment, int, error) {
	where := `
		WHERE c.post_id = $1 AND c.root_id IS NULL AND (
			(c.deleted_at IS NULL AND c.status = 'APPROVED')
			OR ($2 AND c.deleted_at IS NOT NULL AND EXISTS (
				SELECT 1 FROM comments r
				WHERE r.root_id = c.id AND r.deleted_at IS NULL AND r.status = 'APPROVED'
			))
		)`
	order := "ORDER BY (c.is_pinned AND c.deleted_at IS NULL) DESC, c.created_at DESC, c.id DESC"
	return r.listPage(ctx, where, order, []interface{}{postID, withTombstones}, page)
}

// ListPublicReplies returns the approved, non-trashed replies of the given roots, oldest first.
func (r *commentRepository) ListPublicReplies(ctx context.Context, rootIDs []int64) ([]model.Comment, error) {
	if len(rootIDs) == 0 {
		return []model.Comment{}, nil
	}

	query := `SELECT ` + joinedCommentColumns + ` ` + joinedCommentFrom + `
		WHERE c.root_id = ANY($1) AND c.deleted_at IS NULL AND c.status = 'APPROVED'
		ORDER BY c.created_at ASC, c.id ASC`

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(rootIDs)); err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	return toComments(rows), nil
}

// CountStats counts comments per moderation state plus pending reports.
func (r *commentRepository) CountStats(ctx context.Context) (*model.ModerationStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE deleted_at IS NULL AND status = 'PENDING')  AS pending_comments,
			COUNT(*) FILTER (WHERE deleted_at IS NULL AND status = 'APPROVED') AS approved_comments,
			COUNT(*) FILTER (WHERE deleted_at IS NOT NULL)                     AS trashed_comments,
			(SELECT COUNT(*) FROM comment_reports WHERE status = 'pending')    AS pending_reports
		FROM comments
	`
	var stats model.ModerationStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to count moderation stats: %w", err)
	}
	return &stats, nil
}

// listPage runs the count and the page query for a shared WHERE clause.
func (r *commentRepository) listPage(ctx context.Context, where, order string, args []interface{}, page model.PageRequest) ([]model.Comment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM comments c ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if total == 0 {
		return []model.Comment{}, 0, nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s %s %s %s LIMIT $%d OFFSET $%d`,
		joinedCommentColumns, joinedCommentFrom, where, order, n+1, n+2)
	pageArgs := append(append([]interface{}{}, args...), page.Limit, page.Offset())

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return toComments(rows), total, nil
}

// requireAffected maps a zero-row write to notFound.
func requireAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
