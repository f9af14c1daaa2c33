package attendance

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"gymdesk/internal/metrics"
	"gymdesk/internal/queue"
)

// Consumer drains check-in messages and records them. Failures are only
// logged and counted: the member was already admitted.
type Consumer struct {
	q      queue.Queue
	svc    *Service
	logger *zap.Logger
}

// NewConsumer wires a queue to the attendance service.
func NewConsumer(q queue.Queue, svc *Service, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{q: q, svc: svc, logger: logger}
}

// Run blocks until ctx is done or the queue closes.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}

	c.logger.Info("attendance consumer started")
	for msg := range messages {
		if msg.Type != queue.TypeCheckIn {
			continue
		}
		c.handle(ctx, msg)
	}
	c.logger.Info("attendance consumer stopped")
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg queue.Message) {
	var v Visit
	if err := json.Unmarshal(msg.Body, &v); err != nil {
		metrics.AttendanceFailures.WithLabelValues("record").Inc()
		c.logger.Error("dropping malformed check-in message", zap.ByteString("body", msg.Body), zap.Error(err))
		return
	}
	l, err := c.svc.Record(ctx, v)
	if err != nil {
		metrics.AttendanceFailures.WithLabelValues("record").Inc()
		c.logger.Error("attendance log failed", zap.String("member_id", v.MemberID), zap.Time("at", v.At), zap.Error(err))
		return
	}
	c.logger.Debug("attendance logged", zap.String("log_id", l.ID), zap.String("member_id", v.MemberID))
}
