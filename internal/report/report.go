// Package report builds the front-desk dashboard figures.
package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

// Stats is the dashboard summary.
type Stats struct {
	Date          member.Date `json:"date"`
	TotalMembers  int         `json:"totalMembers"`
	Active        int         `json:"active"`
	DueSoon       int         `json:"dueSoon"`
	Expired       int         `json:"expired"`
	Revenue       int64       `json:"revenue"`
	Currency      string      `json:"currency"`
	CheckInsToday int         `json:"checkInsToday"`
}

// Members lists members with their current status.
type Members interface {
	Today() member.Date
	List(ctx context.Context) ([]member.View, error)
}

// Payments summarises the payment log.
type Payments interface {
	Summary(ctx context.Context) (payment.Summary, error)
}

// Attendance counts today's check-ins.
type Attendance interface {
	CountToday(ctx context.Context) (int, error)
}

// Service assembles Stats from the domain services.
type Service struct {
	members    Members
	payments   Payments
	attendance Attendance
}

func NewService(members Members, payments Payments, attendance Attendance) *Service {
	return &Service{members: members, payments: payments, attendance: attendance}
}

// Dashboard gathers the three sources concurrently.
func (s *Service) Dashboard(ctx context.Context) (Stats, error) {
	var (
		views   []member.View
		summary payment.Summary
		visits  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		views, err = s.members.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary, err = s.payments.Summary(gctx)
		return err
	})
	g.Go(func() (err error) {
		visits, err = s.attendance.CountToday(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	st := Tally(views)
	st.Date = s.members.Today()
	st.Revenue = summary.Total
	st.Currency = summary.Currency
	st.CheckInsToday = visits
	return st, nil
}

// Tally counts members per status.
func Tally(views []member.View) Stats {
	st := Stats{TotalMembers: len(views)}
	for _, v := range views {
		switch v.Status {
		case member.StatusActive:
			st.Active++
		case member.StatusDueSoon:
			st.DueSoon++
		case member.StatusExpired:
			st.Expired++
		}
	}
	return st
}
