// Package attendance records gym check-ins and drains the check-in queue.
package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gymdesk/internal/apperr"
	"gymdesk/internal/member"
	"gymdesk/internal/metrics"
)

// Log is one recorded check-in. Name is a snapshot of the member's name.
type Log struct {
	ID        string      `json:"_id"`
	MemberID  string      `json:"memberId"`
	Name      string      `json:"name"`
	Timestamp time.Time   `json:"timestamp"`
	Date      member.Date `json:"date"`
}

// Visit is an admitted check-in waiting to be logged.
type Visit struct {
	MemberID string    `json:"memberId"`
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
}

// Repository is the append-only attendance store.
type Repository interface {
	// Insert assigns the log an id and stores it.
	Insert(ctx context.Context, l *Log) error
	// ListByDate returns the logs of one day, newest first.
	ListByDate(ctx context.Context, day member.Date) ([]Log, error)
	CountByDate(ctx context.Context, day member.Date) (int, error)
}

// CheckInToucher updates a member's last check-in instant.
type CheckInToucher interface {
	TouchCheckIn(ctx context.Context, id string, at time.Time) error
}

// Service records visits.
type Service struct {
	repo    Repository
	members CheckInToucher
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a service backed by a repository.
func NewService(repo Repository, members CheckInToucher, loc *time.Location, now func() time.Time, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, members: members, loc: loc, now: now, logger: logger}
}

// Record appends an attendance log for v and sets the member's lastCheckIn to
// the same instant. A visit without a timestamp is stamped now.
func (s *Service) Record(ctx context.Context, v Visit) (*Log, error) {
	if v.MemberID == "" {
		return nil, apperr.Validation("missing member id")
	}
	if v.At.IsZero() {
		v.At = s.now()
	}
	l := &Log{
		MemberID:  v.MemberID,
		Name:      v.Name,
		Timestamp: v.At.UTC(),
		Date:      member.Today(v.At, s.loc),
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	metrics.AttendanceLogged.Inc()

	if err := s.members.TouchCheckIn(ctx, v.MemberID, l.Timestamp); err != nil {
		return l, err
	}
	return l, nil
}

// ListDay returns the logs of day, newest first.
func (s *Service) ListDay(ctx context.Context, day member.Date) ([]Log, error) {
	if day.IsZero() {
		day = member.Today(s.now(), s.loc)
	}
	return s.repo.ListByDate(ctx, day)
}

// CountToday returns the number of check-ins logged today.
func (s *Service) CountToday(ctx context.Context) (int, error) {
	return s.repo.CountByDate(ctx, member.Today(s.now(), s.loc))
}
