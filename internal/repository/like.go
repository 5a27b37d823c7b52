package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Add(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error) {
	query := `
		INSERT INTO comment_likes (comment_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (comment_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, commentID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to insert comment like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *likeRepository) Remove(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error) {
	query := `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, query, commentID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// CheckLikes returns a map of commentID -> liked for the given user.
// Every requested id is present in the result.
func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return result, nil
	}
	for _, id := range commentIDs {
		result[id] = false
	}

	query := `SELECT comment_id FROM comment_likes WHERE user_id = $1 AND comment_id = ANY($2)`

	var liked []int64
	if err := r.db.SelectContext(ctx, &liked, query, userID, pq.Array(commentIDs)); err != nil {
		return nil, fmt.Errorf("failed to check comment likes: %w", err)
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}
