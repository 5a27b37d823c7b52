package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quillblog/internal/cache"
	"quillblog/internal/logging"
	"quillblog/internal/queue"
)

// Handler relays comment events to admin clients and keeps the
// dashboard counters fresh.
type Handler struct {
	broadcaster queue.Broadcaster
	statsCache  cache.StatsCache // Can be nil if the dashboard cache is not wired
	channel     string
	log         *logrus.Entry
}

// NewHandler creates a relay handler publishing on queue.ChannelAdmin.
func NewHandler(broadcaster queue.Broadcaster, statsCache cache.StatsCache) *Handler {
	return &Handler{
		broadcaster: broadcaster,
		statsCache:  statsCache,
		channel:     queue.ChannelAdmin,
		log:         logging.LogService("RelayHandler"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.CommentEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventCommentCreated, queue.EventCommentReported, queue.EventCommentModerated, queue.EventReportResolved:
		err = h.relay(ctx, event)
	default:
		h.log.WithField("type", event.Type).Warn("unknown event type, skipping")
		return nil
	}

	log := h.log.WithFields(logrus.Fields{
		"type":     event.Type,
		"duration": time.Since(startTime),
	})
	if err != nil {
		log.WithError(err).Error("HandleEvent FAILED")
		return err
	}
	log.Debug("HandleEvent OK")
	return nil
}

// relay invalidates the counters first so a client reacting to the
// broadcast reads fresh stats.
func (h *Handler) relay(ctx context.Context, event queue.CommentEvent) error {
	if h.statsCache != nil {
		if err := h.statsCache.Invalidate(ctx); err != nil {
			h.log.WithError(err).Warn("stats invalidation failed")
		}
	}
	if err := h.broadcaster.Broadcast(ctx, h.channel, event); err != nil {
		return fmt.Errorf("relay %s: %w", event.Type, err)
	}
	return nil
}
