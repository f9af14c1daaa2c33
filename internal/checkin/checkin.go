// Package checkin decides whether a phone number grants gym entry right now.
package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/member"
	"gymdesk/internal/metrics"
	"gymdesk/internal/queue"
)

// Outcome of a check-in attempt.
type Outcome string

const (
	Admitted Outcome = "admitted"
	Expired  Outcome = "expired"
	NotFound Outcome = "not_found"
)

// Result is returned to the front desk. Member is set for admitted and expired outcomes.
type Result struct {
	Outcome     Outcome      `json:"result"`
	Member      *member.View `json:"member,omitempty"`
	CheckedInAt *time.Time   `json:"checkedInAt,omitempty"`
}

// Finder looks members up by phone.
type Finder interface {
	FindByPhone(ctx context.Context, phone string) (*member.Member, error)
}

// Dispatcher hands an admitted visit off for logging. It must not fail the
// check-in: implementations report problems to operators only.
type Dispatcher interface {
	Dispatch(ctx context.Context, v attendance.Visit)
}

// Service makes admission decisions.
type Service struct {
	members    Finder
	dispatcher Dispatcher
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewService creates a check-in service.
func NewService(members Finder, dispatcher Dispatcher, loc *time.Location, now func() time.Time, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{members: members, dispatcher: dispatcher, loc: loc, now: now, logger: logger}
}

// CheckIn matches phone exactly after trimming surrounding whitespace.
// A membership ending today or earlier is expired and nothing is logged.
// With several members sharing a phone, the first one found decides.
func (s *Service) CheckIn(ctx context.Context, phone string) (Result, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Result{}, apperr.Validation("phone is required")
	}

	m, err := s.members.FindByPhone(ctx, phone)
	if errors.Is(err, apperr.ErrNotFound) {
		metrics.CheckIns.WithLabelValues(string(NotFound)).Inc()
		return Result{Outcome: NotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	today := member.Today(now, s.loc)
	view := member.ViewOf(*m, today)

	if !m.MembershipEnd.After(today) {
		metrics.CheckIns.WithLabelValues(string(Expired)).Inc()
		s.logger.Info("check-in denied, membership lapsed", zap.String("member_id", m.ID), zap.String("membership_end", m.MembershipEnd.String()))
		return Result{Outcome: Expired, Member: &view}, nil
	}

	metrics.CheckIns.WithLabelValues(string(Admitted)).Inc()
	s.dispatcher.Dispatch(ctx, attendance.Visit{MemberID: m.ID, Name: m.Name, At: now})
	return Result{Outcome: Admitted, Member: &view, CheckedInAt: &now}, nil
}

// QueueDispatcher publishes visits to the check-in queue.
type QueueDispatcher struct {
	q       queue.Queue
	timeout time.Duration
	logger  *zap.Logger
}

// NewQueueDispatcher creates a dispatcher that gives each publish at most timeout.
func NewQueueDispatcher(q queue.Queue, timeout time.Duration, logger *zap.Logger) *QueueDispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{q: q, timeout: timeout, logger: logger}
}

// Dispatch publishes v. The request context's cancellation is ignored so a
// client hanging up does not drop the log.
func (d *QueueDispatcher) Dispatch(ctx context.Context, v attendance.Visit) {
	body, err := json.Marshal(v)
	if err != nil {
		metrics.AttendanceFailures.WithLabelValues("publish").Inc()
		d.logger.Error("encode check-in failed", zap.String("member_id", v.MemberID), zap.Error(err))
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := d.q.Publish(pctx, queue.Message{Type: queue.TypeCheckIn, Body: body}); err != nil {
		metrics.AttendanceFailures.WithLabelValues("publish").Inc()
		d.logger.Error("queue publish failed, attendance not logged", zap.String("member_id", v.MemberID), zap.Time("at", v.At), zap.Error(err))
	}
}
