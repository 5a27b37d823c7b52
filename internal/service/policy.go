package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"quillblog/internal/config"
	"quillblog/internal/model"
	"quillblog/internal/queue"
)

// Policy holds the site-level comment settings.
type Policy struct {
	AutoApprove bool
	// CascadeTrashToReplies hides replies of a trashed root from public
	// threads. Rows are never touched; it only changes visibility.
	CascadeTrashToReplies  bool
	MaxContentLength       int
	MaxReportDetailsLength int
}

func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		AutoApprove:            cfg.AutoApproveComments,
		CascadeTrashToReplies:  cfg.CascadeTrashToReplies,
		MaxContentLength:       cfg.MaxCommentLength,
		MaxReportDetailsLength: cfg.MaxReportDetailsLength,
	}
}

// DefaultPolicy is moderation-first: new comments wait for review.
func DefaultPolicy() Policy {
	return Policy{
		MaxContentLength:       model.DefaultMaxCommentLength,
		MaxReportDetailsLength: model.DefaultMaxReportDetailsLength,
	}
}

// validateContent trims content and enforces the length bounds in characters.
func (p Policy) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > p.MaxContentLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}

// publishEvent adds event to the comment stream after a commit.
// Failures are logged only; the data change already happened.
func publishEvent(ctx context.Context, publisher queue.Publisher, log *logrus.Entry, event queue.CommentEvent) {
	if publisher == nil {
		return
	}
	if _, err := publisher.Publish(ctx, queue.StreamComments, event); err != nil {
		log.WithError(err).WithField("type", event.Type).Warn("failed to publish event")
	}
}
