package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"quillblog/internal/logging"
	"quillblog/internal/model"
	"quillblog/internal/repository"
)

// LikeService keeps the like ledger and comments.likes_count in step.
type LikeService struct {
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	db          *sqlx.DB
	log         *logrus.Entry
}

func NewLikeService(commentRepo repository.CommentRepository, likeRepo repository.LikeRepository, db *sqlx.DB) *LikeService {
	return &LikeService{
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		db:          db,
		log:         logging.LogService("LikeService"),
	}
}

// Toggle flips the caller's like on a comment and returns the stored count.
// The comment row lock serializes concurrent toggles on the same comment.
func (s *LikeService) Toggle(ctx context.Context, commentID, userID int64) (*model.LikeResult, error) {
	if userID == 0 {
		return nil, model.ErrAuthRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.commentRepo.GetForUpdate(ctx, tx, commentID); err != nil {
		return nil, err
	}

	liked := false
	delta := 0
	removed, err := s.likeRepo.Remove(ctx, tx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if removed {
		delta = -1
	} else {
		added, err := s.likeRepo.Add(ctx, tx, commentID, userID)
		if err != nil {
			return nil, err
		}
		liked = true
		if added {
			delta = 1
		}
	}

	count, err := s.commentRepo.IncrementLikeCount(ctx, tx, commentID, delta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"comment_id":  commentID,
		"user_id":     userID,
		"liked":       liked,
		"likes_count": count,
	}).Debug("like toggled")

	return &model.LikeResult{CommentID: commentID, Liked: liked, LikesCount: count}, nil
}

// GetStatus reports which of the given comments the user has liked.
func (s *LikeService) GetStatus(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	if userID == 0 {
		return nil, model.ErrAuthRequired
	}
	if len(commentIDs) > model.MaxPageLimit {
		return nil, model.ValidationError(fmt.Sprintf("at most %d ids per request", model.MaxPageLimit))
	}
	return s.likeRepo.CheckLikes(ctx, userID, commentIDs)
}
