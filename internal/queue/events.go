package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"quillblog/internal/model"
)

// Event types for the comment stream
const (
	EventCommentCreated   = "comment.created"
	EventCommentReported  = "comment.reported"
	EventCommentModerated = "comment.moderated"
	EventReportResolved   = "comment.report_resolved"
)

// Stream names
const (
	StreamComments = "stream:comments"
)

// Consumer group name for relay workers
const (
	ConsumerGroupRelay = "comment_relay"
)

// Pub/Sub channel the admin WebSocket layer subscribes to.
const (
	ChannelAdmin = "comments:admin"
)

// CommentEvent is the payload of every message on the comment stream.
// Exactly one of Comment, Report or Change is set, depending on Type.
type CommentEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	Comment *model.Comment     `json:"comment,omitempty"`
	Report  *model.Report      `json:"report,omitempty"`
	Change  *model.StateChange `json:"change,omitempty"`
}

// NewCommentCreatedEvent carries the full comment as created.
func NewCommentCreatedEvent(comment *model.Comment) CommentEvent {
	return CommentEvent{
		Type:      EventCommentCreated,
		Timestamp: time.Now().Unix(),
		Comment:   comment,
	}
}

// NewCommentReportedEvent carries the full report as filed.
func NewCommentReportedEvent(report *model.Report) CommentEvent {
	return CommentEvent{
		Type:      EventCommentReported,
		Timestamp: time.Now().Unix(),
		Report:    report,
	}
}

// NewReportResolvedEvent carries a report after an admin resolved or dismissed it.
func NewReportResolvedEvent(report *model.Report) CommentEvent {
	return CommentEvent{
		Type:      EventReportResolved,
		Timestamp: time.Now().Unix(),
		Report:    report,
	}
}

// NewCommentModeratedEvent records one applied lifecycle transition.
func NewCommentModeratedEvent(change model.StateChange) CommentEvent {
	return CommentEvent{
		Type:      EventCommentModerated,
		Timestamp: time.Now().Unix(),
		Change:    &change,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e CommentEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseCommentEvent parses a CommentEvent from Redis stream message values.
func ParseCommentEvent(values map[string]interface{}) (CommentEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return CommentEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event CommentEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return CommentEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
