package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"quillblog/internal/logging"
	"quillblog/internal/model"
	"quillblog/internal/queue"
	"quillblog/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	likeRepo    repository.LikeRepository
	db          *sqlx.DB
	publisher   queue.Publisher
	policy      Policy
	log         *logrus.Entry
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
	policy Policy,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		likeRepo:    likeRepo,
		db:          db,
		publisher:   publisher,
		policy:      policy,
		log:         logging.LogService("CommentService"),
	}
}

// Create adds a comment to a post. Replies are flattened onto the root of
// the thread and remember whom they answer in ReplyToUsername.
func (s *CommentService) Create(ctx context.Context, postID, authorID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	if authorID == 0 {
		return nil, model.ErrAuthRequired
	}
	content, err := s.policy.validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: &authorID,
		Content:  content,
		Status:   model.StatusPending,
	}
	if s.policy.AutoApprove {
		comment.Status = model.StatusApproved
	}

	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if errors.Is(err, model.ErrCommentNotFound) {
			return nil, model.ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		// A trashed parent is invisible to readers, so it cannot be answered.
		if parent.IsTrashed() {
			return nil, model.ErrParentNotFound
		}
		if parent.PostID != postID {
			return nil, model.ErrParentOtherPost
		}

		rootID := parent.ID
		if parent.RootID != nil {
			rootID = *parent.RootID
		}
		comment.RootID = &rootID
		if parent.Author != nil {
			username := parent.Author.Username
			comment.ReplyToUsername = &username
		}
	}

	if author, err := s.userRepo.GetByID(ctx, authorID); err == nil {
		comment.Author = author.Summary()
	} else {
		s.log.WithError(err).WithField("user_id", authorID).Warn("author lookup failed")
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"post_id":    postID,
		"user_id":    authorID,
		"status":     comment.Status,
	}).Info("comment created")

	publishEvent(ctx, s.publisher, s.log, queue.NewCommentCreatedEvent(comment))
	return comment, nil
}

// Edit replaces the content of the caller's own comment and marks it edited.
func (s *CommentService) Edit(ctx context.Context, commentID, userID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	if userID == 0 {
		return nil, model.ErrAuthRequired
	}
	content, err := s.policy.validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.commentRepo.GetForUpdate(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}
	if current.AuthorID == nil || *current.AuthorID != userID {
		return nil, model.ErrNotCommentAuthor
	}
	if current.IsTrashed() {
		return nil, model.ErrCommentTrashed
	}

	comment, err := s.commentRepo.UpdateContent(ctx, tx, commentID, content)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		comment.Author = author.Summary()
	}

	s.log.WithFields(logrus.Fields{"comment_id": commentID, "user_id": userID}).Info("comment edited")
	return comment, nil
}

// ListPostComments returns the public thread of a post: visible roots, pinned
// first, each with its visible replies oldest first. viewerID 0 is anonymous.
func (s *CommentService) ListPostComments(ctx context.Context, postID, viewerID int64, page model.PageRequest) (*model.Page[model.Comment], error) {
	page = page.Normalize()

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	roots, total, err := s.commentRepo.ListPublicRoots(ctx, postID, !s.policy.CascadeTrashToReplies, page)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]int64, len(roots))
	for i := range roots {
		rootIDs[i] = roots[i].ID
		if roots[i].IsTrashed() {
			tombstone(&roots[i])
		}
	}

	replies, err := s.commentRepo.ListPublicReplies(ctx, rootIDs)
	if err != nil {
		return nil, err
	}
	byRoot := make(map[int64][]model.Comment, len(roots))
	for _, r := range replies {
		byRoot[*r.RootID] = append(byRoot[*r.RootID], r)
	}
	for i := range roots {
		roots[i].Replies = byRoot[roots[i].ID]
	}

	if viewerID != 0 {
		if err := s.markLiked(ctx, viewerID, roots); err != nil {
			return nil, err
		}
	}

	result := model.NewPage(roots, total, page)
	return &result, nil
}

func (s *CommentService) markLiked(ctx context.Context, viewerID int64, roots []model.Comment) error {
	var ids []int64
	for _, c := range roots {
		ids = append(ids, c.ID)
		for _, r := range c.Replies {
			ids = append(ids, r.ID)
		}
	}
	liked, err := s.likeRepo.CheckLikes(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range roots {
		roots[i].IsLiked = liked[roots[i].ID]
		for j := range roots[i].Replies {
			roots[i].Replies[j].IsLiked = liked[roots[i].Replies[j].ID]
		}
	}
	return nil
}

// tombstone strips a trashed root down to a placeholder that keeps its replies in place.
func tombstone(c *model.Comment) {
	c.Tombstone = true
	c.Content = ""
	c.AuthorID = nil
	c.Author = nil
	c.LikesCount = 0
	c.IsPinned = false
}
