package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"quillblog/internal/cache"
	"quillblog/internal/logging"
	"quillblog/internal/model"
	"quillblog/internal/queue"
	"quillblog/internal/repository"
)

// ModerationService drives comments through the moderation state machine.
// Each id is handled in its own transaction under a row lock.
type ModerationService struct {
	commentRepo repository.CommentRepository
	db          *sqlx.DB
	publisher   queue.Publisher
	statsCache  cache.StatsCache
	log         *logrus.Entry
	now         func() time.Time
}

func NewModerationService(
	commentRepo repository.CommentRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
	statsCache cache.StatsCache,
) *ModerationService {
	return &ModerationService{
		commentRepo: commentRepo,
		db:          db,
		publisher:   publisher,
		statsCache:  statsCache,
		log:         logging.LogService("ModerationService"),
		now:         time.Now,
	}
}

func (s *ModerationService) Approve(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, _, err := s.apply(ctx, commentID, model.ActionApprove)
	return c, err
}

func (s *ModerationService) Reject(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, _, err := s.apply(ctx, commentID, model.ActionReject)
	return c, err
}

// SoftDelete moves a comment to the trash. Replies are left untouched.
func (s *ModerationService) SoftDelete(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, _, err := s.apply(ctx, commentID, model.ActionTrash)
	return c, err
}

// Restore takes a comment out of the trash. It always lands in PENDING.
func (s *ModerationService) Restore(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, _, err := s.apply(ctx, commentID, model.ActionRestore)
	return c, err
}

// PermanentDelete removes a trashed comment for good, along with its likes and
// reports. A root is only purged once every reply is in the trash too; those
// replies go with it.
func (s *ModerationService) PermanentDelete(ctx context.Context, commentID int64) error {
	_, _, err := s.apply(ctx, commentID, model.ActionPurge)
	return err
}

// TogglePin flips the pin flag of a live top-level comment.
func (s *ModerationService) TogglePin(ctx context.Context, commentID int64) (*model.Comment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := s.commentRepo.GetForUpdate(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}
	if !c.IsTopLevel() {
		return nil, model.ErrCannotPinReply
	}
	if c.IsTrashed() {
		return nil, model.ErrCommentTrashed
	}

	c.IsPinned = !c.IsPinned
	if err := s.commentRepo.SetPinned(ctx, tx, commentID, c.IsPinned); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{"comment_id": commentID, "pinned": c.IsPinned}).Info("pin toggled")
	return c, nil
}

func (s *ModerationService) BatchApprove(ctx context.Context, ids []int64) *model.BatchResult {
	return s.batch(ctx, ids, model.ActionApprove)
}

func (s *ModerationService) BatchReject(ctx context.Context, ids []int64) *model.BatchResult {
	return s.batch(ctx, ids, model.ActionReject)
}

func (s *ModerationService) BatchSoftDelete(ctx context.Context, ids []int64) *model.BatchResult {
	return s.batch(ctx, ids, model.ActionTrash)
}

func (s *ModerationService) BatchRestore(ctx context.Context, ids []int64) *model.BatchResult {
	return s.batch(ctx, ids, model.ActionRestore)
}

// batch applies action to every id independently. Ids that are not eligible
// in their current state are skipped like no-ops; only missing ids and
// storage errors are reported as failures. A failure never undoes the others.
func (s *ModerationService) batch(ctx context.Context, ids []int64, action model.ModerationAction) *model.BatchResult {
	result := &model.BatchResult{}
	seen := make(map[int64]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, changed, err := s.apply(ctx, id, action)
		switch {
		case err == nil:
			if changed {
				result.UpdatedCount++
			}
		case errors.Is(err, model.ErrInvalidState):
			// not eligible for this action; same as a no-op
		default:
			result.Failed = append(result.Failed, model.BatchFailure{ID: id, Error: err.Error()})
		}
	}

	s.log.WithFields(logrus.Fields{
		"action":  action,
		"ids":     len(ids),
		"updated": result.UpdatedCount,
		"failed":  len(result.Failed),
	}).Info("batch moderation")
	return result
}

// apply runs one transition in its own transaction and publishes it on success.
func (s *ModerationService) apply(ctx context.Context, commentID int64, action model.ModerationAction) (*model.Comment, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := s.commentRepo.GetForUpdate(ctx, tx, commentID)
	if err != nil {
		return nil, false, err
	}

	change, changed, err := transitionComment(ctx, tx, s.commentRepo, c, action, s.now())
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}

	if changed {
		s.log.WithFields(logrus.Fields{
			"comment_id": commentID,
			"from":       change.From,
			"to":         change.To,
		}).Info("comment moderated")
		publishEvent(ctx, s.publisher, s.log, queue.NewCommentModeratedEvent(change))
	}
	return c, changed, nil
}

// transitionComment applies action to the locked comment c inside tx and
// updates c in place. A no-op writes nothing and reports changed=false.
func transitionComment(ctx context.Context, tx *sqlx.Tx, repo repository.CommentRepository, c *model.Comment, action model.ModerationAction, now time.Time) (model.StateChange, bool, error) {
	from := c.State()
	to, changed, err := model.Transition(from, action)
	if err != nil || !changed {
		return model.StateChange{}, false, err
	}

	if to == model.StatePurged {
		if c.IsTopLevel() {
			live, err := repo.CountLiveReplies(ctx, tx, c.ID)
			if err != nil {
				return model.StateChange{}, false, err
			}
			if live > 0 {
				return model.StateChange{}, false, model.ErrHasLiveReplies
			}
		}
		if err := repo.Purge(ctx, tx, c.ID); err != nil {
			return model.StateChange{}, false, err
		}
	} else {
		status, deletedAt := model.StoredFields(c.Status, to, now)
		if err := repo.UpdateState(ctx, tx, c.ID, status, deletedAt); err != nil {
			return model.StateChange{}, false, err
		}
		c.Status = status
		c.DeletedAt = deletedAt
		c.UpdatedAt = now
	}

	return model.StateChange{CommentID: c.ID, From: from, To: to}, true, nil
}

// List returns live comments for the admin queue.
func (s *ModerationService) List(ctx context.Context, filter model.CommentFilter, page model.PageRequest) (*model.Page[model.Comment], error) {
	page = page.Normalize()
	items, total, err := s.commentRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	result := model.NewPage(items, total, page)
	return &result, nil
}

// ListTrash returns the trash bin, most recently trashed first.
func (s *ModerationService) ListTrash(ctx context.Context, page model.PageRequest) (*model.Page[model.Comment], error) {
	page = page.Normalize()
	items, total, err := s.commentRepo.ListTrash(ctx, page)
	if err != nil {
		return nil, err
	}
	result := model.NewPage(items, total, page)
	return &result, nil
}

// Stats returns the dashboard counters, served from cache when possible.
func (s *ModerationService) Stats(ctx context.Context) (*model.ModerationStats, error) {
	if s.statsCache != nil {
		stats, found, err := s.statsCache.Get(ctx)
		if err != nil {
			s.log.WithError(err).Warn("stats cache read failed")
		} else if found {
			return stats, nil
		}
	}

	stats, err := s.commentRepo.CountStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, stats); err != nil {
			s.log.WithError(err).Warn("stats cache write failed")
		}
	}
	return stats, nil
}
