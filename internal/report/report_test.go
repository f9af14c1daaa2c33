package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

type fakeMembers struct {
	views []member.View
	err   error
}

func (f fakeMembers) Today() member.Date { return member.NewDate(2024, 6, 10) }
func (f fakeMembers) List(context.Context) ([]member.View, error) {
	return f.views, f.err
}

type fakePayments struct{ summary payment.Summary }

func (f fakePayments) Summary(context.Context) (payment.Summary, error) { return f.summary, nil }

type fakeAttendance int

func (f fakeAttendance) CountToday(context.Context) (int, error) { return int(f), nil }

func TestDashboard(t *testing.T) {
	views := []member.View{
		{Status: member.StatusActive},
		{Status: member.StatusActive},
		{Status: member.StatusDueSoon},
		{Status: member.StatusExpired},
	}
	svc := NewService(
		fakeMembers{views: views},
		fakePayments{summary: payment.Summary{Total: 2100, Count: 3, Currency: "PKR"}},
		fakeAttendance(5),
	)

	st, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Date:          member.NewDate(2024, 6, 10),
		TotalMembers:  4,
		Active:        2,
		DueSoon:       1,
		Expired:       1,
		Revenue:       2100,
		Currency:      "PKR",
		CheckInsToday: 5,
	}, st)
}

func TestDashboard_PropagatesError(t *testing.T) {
	boom := errors.New("store down")
	svc := NewService(fakeMembers{err: boom}, fakePayments{}, fakeAttendance(0))

	_, err := svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestTally_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Tally(nil))
}
