package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// classify with errors.Is without knowing the specific error.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidOperation = errors.New("invalid operation")
)

func kindError(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// ValidationError reports a malformed or oversized input field.
func ValidationError(msg string) error {
	return kindError(ErrValidation, msg)
}

// Identity errors
var (
	ErrAuthRequired = kindError(ErrUnauthorized, "authentication required")
)

// Comment errors
var (
	ErrCommentNotFound  = kindError(ErrNotFound, "comment not found")
	ErrParentNotFound   = kindError(ErrNotFound, "parent comment not found")
	ErrContentRequired  = kindError(ErrValidation, "comment content is required")
	ErrContentTooLong   = kindError(ErrValidation, "comment content too long")
	ErrParentOtherPost  = kindError(ErrValidation, "parent comment does not belong to this post")
	ErrNotCommentAuthor = kindError(ErrUnauthorized, "only the author can edit this comment")
	ErrCannotPinReply   = kindError(ErrInvalidOperation, "only top-level comments can be pinned")
)

// Moderation errors
var (
	ErrCommentTrashed    = kindError(ErrInvalidState, "comment is in the trash")
	ErrAlreadyTrashed    = kindError(ErrInvalidState, "comment is already in the trash")
	ErrNotTrashed        = kindError(ErrInvalidState, "comment is not in the trash")
	ErrHasLiveReplies    = kindError(ErrInvalidState, "comment has replies that are not in the trash")
	ErrUnknownModeration = kindError(ErrInvalidOperation, "unknown moderation action")
)

// Post and user errors
var (
	ErrPostNotFound = kindError(ErrNotFound, "post not found")
	ErrUserNotFound = kindError(ErrNotFound, "user not found")
)

// Report errors
var (
	ErrReportNotFound       = kindError(ErrNotFound, "report not found")
	ErrReportNotPending     = kindError(ErrInvalidState, "report has already been handled")
	ErrReportDetailsTooLong = kindError(ErrValidation, "report details too long")
)
