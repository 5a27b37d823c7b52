package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportReason is why a reader flagged a comment.
type ReportReason string

const (
	ReasonSpam       ReportReason = "spam"
	ReasonAbuse      ReportReason = "abuse"
	ReasonHarassment ReportReason = "harassment"
	ReasonOther      ReportReason = "other"
)

// ReportStatus is the lifecycle of a report. Resolved and dismissed are terminal.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a reader's flag against a comment. It references the comment but
// never blocks its moderation.
type Report struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	CommentID      int64        `db:"comment_id" json:"comment_id"`
	ReporterID     int64        `db:"reporter_id" json:"reporter_id"`
	Reason         ReportReason `db:"reason" json:"reason"`
	Details        *string      `db:"details" json:"details,omitempty"`
	Status         ReportStatus `db:"status" json:"status"`
	HandledBy      *int64       `db:"handled_by" json:"handled_by,omitempty"`
	HandledAt      *time.Time   `db:"handled_at" json:"handled_at,omitempty"`
	CommentDeleted bool         `db:"comment_deleted" json:"comment_deleted"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`

	// Joined field for the review queue
	Comment *Comment `db:"-" json:"comment,omitempty"`
}

// ReportAction is the admin decision on a pending report.
type ReportAction string

const (
	ReportActionResolve ReportAction = "resolve"
	ReportActionDismiss ReportAction = "dismiss"
)

// CreateReportRequest is the request body for reporting a comment.
type CreateReportRequest struct {
	Reason  ReportReason `json:"reason" validate:"required,oneof=spam abuse harassment other"`
	Details *string      `json:"details,omitempty"`
}

// ResolveReportRequest is the request body for resolving a report.
type ResolveReportRequest struct {
	Action        ReportAction `json:"action" validate:"required,oneof=resolve dismiss"`
	DeleteComment bool         `json:"delete_comment"`
}

// Report constraints
const (
	DefaultMaxReportDetailsLength = 500
)
