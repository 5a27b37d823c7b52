package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"quillblog/internal/logging"
	"quillblog/internal/model"
	"quillblog/internal/queue"
	"quillblog/internal/repository"
)

// ReportService files reader reports and resolves them from the review queue.
type ReportService struct {
	reportRepo  repository.ReportRepository
	commentRepo repository.CommentRepository
	db          *sqlx.DB
	publisher   queue.Publisher
	policy      Policy
	log         *logrus.Entry
	now         func() time.Time
}

func NewReportService(
	reportRepo repository.ReportRepository,
	commentRepo repository.CommentRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
	policy Policy,
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		commentRepo: commentRepo,
		db:          db,
		publisher:   publisher,
		policy:      policy,
		log:         logging.LogService("ReportService"),
		now:         time.Now,
	}
}

// Report flags a comment for review. Repeated reports by the same reader
// are accepted.
func (s *ReportService) Report(ctx context.Context, commentID, reporterID int64, req model.CreateReportRequest) (*model.Report, error) {
	if reporterID == 0 {
		return nil, model.ErrAuthRequired
	}
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	var details *string
	if req.Details != nil {
		d := strings.TrimSpace(*req.Details)
		if utf8.RuneCountInString(d) > s.policy.MaxReportDetailsLength {
			return nil, model.ErrReportDetailsTooLong
		}
		if d != "" {
			details = &d
		}
	}

	// Trashed comments can still be reported; only purged ones are gone.
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}

	report := &model.Report{
		CommentID:  commentID,
		ReporterID: reporterID,
		Reason:     req.Reason,
		Details:    details,
		Status:     model.ReportPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"report_id":  report.ID,
		"comment_id": commentID,
		"reason":     report.Reason,
	}).Info("comment reported")

	publishEvent(ctx, s.publisher, s.log, queue.NewCommentReportedEvent(report))
	return report, nil
}

// Resolve closes a pending report. Resolving with deleteComment trashes the
// comment in the same transaction; an already-trashed comment is left as is.
func (s *ReportService) Resolve(ctx context.Context, reportID uuid.UUID, adminID int64, req model.ResolveReportRequest) (*model.Report, error) {
	if adminID == 0 {
		return nil, model.ErrAuthRequired
	}
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	report, err := s.reportRepo.GetForUpdate(ctx, tx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != model.ReportPending {
		return nil, model.ErrReportNotPending
	}

	status := model.ReportDismissed
	var change model.StateChange
	trashed := false

	if req.Action == model.ReportActionResolve {
		status = model.ReportResolved
		if req.DeleteComment {
			comment, err := s.commentRepo.GetForUpdate(ctx, tx, report.CommentID)
			if err != nil {
				return nil, err
			}
			change, trashed, err = transitionComment(ctx, tx, s.commentRepo, comment, model.ActionTrash, s.now())
			if err != nil && !errors.Is(err, model.ErrAlreadyTrashed) {
				return nil, err
			}
		}
	}

	updated, err := s.reportRepo.UpdateStatus(ctx, tx, reportID, status, adminID, trashed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"report_id":       reportID,
		"status":          status,
		"admin_id":        adminID,
		"comment_trashed": trashed,
	}).Info("report handled")

	if trashed {
		publishEvent(ctx, s.publisher, s.log, queue.NewCommentModeratedEvent(change))
	}
	publishEvent(ctx, s.publisher, s.log, queue.NewReportResolvedEvent(updated))
	return updated, nil
}

// List returns the review queue with each report's comment embedded.
// An empty status lists every report.
func (s *ReportService) List(ctx context.Context, status model.ReportStatus, page model.PageRequest) (*model.Page[model.Report], error) {
	switch status {
	case "", model.ReportPending, model.ReportResolved, model.ReportDismissed:
	default:
		return nil, model.ValidationError("status must be one of pending, resolved, dismissed")
	}
	page = page.Normalize()

	reports, total, err := s.reportRepo.List(ctx, status, page)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(reports))
	seen := make(map[int64]struct{}, len(reports))
	for _, r := range reports {
		if _, ok := seen[r.CommentID]; !ok {
			seen[r.CommentID] = struct{}{}
			ids = append(ids, r.CommentID)
		}
	}
	comments, err := s.commentRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}
	for i := range reports {
		reports[i].Comment = byID[reports[i].CommentID]
	}

	result := model.NewPage(reports, total, page)
	return &result, nil
}
