package model

import "time"

// CommentState is the lifecycle state of a comment as seen by moderation.
// TRASHED is derived from DeletedAt; PURGED means the row no longer exists.
type CommentState string

const (
	StatePending  CommentState = "PENDING"
	StateApproved CommentState = "APPROVED"
	StateTrashed  CommentState = "TRASHED"
	StatePurged   CommentState = "PURGED"
)

// ModerationAction is an admin (or report-driven) lifecycle operation.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionTrash   ModerationAction = "trash"
	ActionRestore ModerationAction = "restore"
	ActionPurge   ModerationAction = "purge"
)

// State returns the comment's current lifecycle state.
func (c *Comment) State() CommentState {
	if c.DeletedAt != nil {
		return StateTrashed
	}
	if c.Status == StatusApproved {
		return StateApproved
	}
	return StatePending
}

// transitionRule is the outcome of applying an action in a given state.
// A rule with err set rejects the action; a rule whose target equals the
// source state is an idempotent no-op.
type transitionRule struct {
	to  CommentState
	err error
}

var transitions = map[ModerationAction]map[CommentState]transitionRule{
	ActionApprove: {
		StatePending:  {to: StateApproved},
		StateApproved: {to: StateApproved},
		StateTrashed:  {err: ErrCommentTrashed},
	},
	ActionReject: {
		StatePending:  {to: StatePending},
		StateApproved: {to: StatePending},
		StateTrashed:  {err: ErrCommentTrashed},
	},
	ActionTrash: {
		StatePending:  {to: StateTrashed},
		StateApproved: {to: StateTrashed},
		StateTrashed:  {err: ErrAlreadyTrashed},
	},
	ActionRestore: {
		StatePending:  {err: ErrNotTrashed},
		StateApproved: {err: ErrNotTrashed},
		StateTrashed:  {to: StatePending},
	},
	ActionPurge: {
		StatePending:  {err: ErrNotTrashed},
		StateApproved: {err: ErrNotTrashed},
		StateTrashed:  {to: StatePurged},
	},
}

// Transition resolves action against the from state.
// changed is false when the action is a valid no-op (e.g. approving an
// approved comment).
func Transition(from CommentState, action ModerationAction) (to CommentState, changed bool, err error) {
	rules, ok := transitions[action]
	if !ok {
		return from, false, ErrUnknownModeration
	}
	rule, ok := rules[from]
	if !ok {
		// Nothing transitions out of PURGED.
		return from, false, ErrCommentNotFound
	}
	if rule.err != nil {
		return from, false, rule.err
	}
	return rule.to, rule.to != from, nil
}

// StoredFields maps a live target state onto the persisted columns.
// Restore always lands in PENDING; trashing keeps the previous status so the
// row still records what it was before it was binned.
func StoredFields(current CommentStatus, to CommentState, now time.Time) (CommentStatus, *time.Time) {
	switch to {
	case StateApproved:
		return StatusApproved, nil
	case StateTrashed:
		return current, &now
	default:
		return StatusPending, nil
	}
}

// StateChange describes one applied moderation transition.
type StateChange struct {
	CommentID int64        `json:"comment_id"`
	From      CommentState `json:"from"`
	To        CommentState `json:"to"`
}

// BatchFailure records an id a batch operation could not transition.
type BatchFailure struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// BatchResult is the outcome of a batch moderation call.
// UpdatedCount only counts real state changes; no-ops are neither updated nor failed.
type BatchResult struct {
	UpdatedCount int            `json:"updated_count"`
	Failed       []BatchFailure `json:"failed,omitempty"`
}

// BatchRequest is the request body for batch moderation endpoints.
type BatchRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=200,dive,gt=0"`
}

// ModerationStats backs the admin dashboard badges.
type ModerationStats struct {
	PendingComments  int64 `db:"pending_comments" json:"pending_comments"`
	ApprovedComments int64 `db:"approved_comments" json:"approved_comments"`
	TrashedComments  int64 `db:"trashed_comments" json:"trashed_comments"`
	PendingReports   int64 `db:"pending_reports" json:"pending_reports"`
}
