// Package memory provides process-local repositories for development and tests.
// Data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

var (
	_ member.Repository     = (*Members)(nil)
	_ payment.Repository    = (*Payments)(nil)
	_ attendance.Repository = (*Attendance)(nil)
	_ auth.AdminRepository  = (*Admins)(nil)
)

// Members keeps members in insertion order.
type Members struct {
	mu    sync.RWMutex
	items []member.Member
}

func NewMembers() *Members { return &Members{} }

func (r *Members) Insert(_ context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.items = append(r.items, cloneMember(*m))
	return nil
}

func (r *Members) List(_ context.Context) ([]member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]member.Member, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, cloneMember(m))
	}
	return out, nil
}

func (r *Members) Get(_ context.Context, id string) (*member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return nil, apperr.NotFound("member", id)
	}
	m := cloneMember(r.items[i])
	return &m, nil
}

func (r *Members) FindByPhone(_ context.Context, phone string) (*member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.items {
		if m.Phone == phone {
			found := cloneMember(m)
			return &found, nil
		}
	}
	return nil, apperr.NotFound("member with phone", phone)
}

func (r *Members) Update(_ context.Context, id string, d member.Details) error {
	return r.mutate(id, func(m *member.Member) bool {
		m.Name, m.Phone, m.Address, m.MembershipEnd = d.Name, d.Phone, d.Address, d.MembershipEnd
		return true
	})
}

func (r *Members) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return apperr.NotFound("member", id)
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}

func (r *Members) ExtendMembership(_ context.Context, id string, from, to member.Date, paidAt time.Time) (bool, error) {
	swapped := false
	err := r.mutate(id, func(m *member.Member) bool {
		if !m.MembershipEnd.Equal(from) {
			return false
		}
		m.MembershipEnd = to
		m.LastPaymentDate = &paidAt
		swapped = true
		return true
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

func (r *Members) TouchCheckIn(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(m *member.Member) bool {
		m.LastCheckIn = &at
		return true
	})
}

func (r *Members) SetPhoto(_ context.Context, id, url string) error {
	return r.mutate(id, func(m *member.Member) bool {
		m.PhotoURL = url
		return true
	})
}

func (r *Members) mutate(id string, fn func(*member.Member) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return apperr.NotFound("member", id)
	}
	m := cloneMember(r.items[i])
	if fn(&m) {
		r.items[i] = m
	}
	return nil
}

func (r *Members) index(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneMember(m member.Member) member.Member {
	if m.LastCheckIn != nil {
		t := *m.LastCheckIn
		m.LastCheckIn = &t
	}
	if m.LastPaymentDate != nil {
		t := *m.LastPaymentDate
		m.LastPaymentDate = &t
	}
	return m
}

// Payments keeps the payment log.
type Payments struct {
	mu    sync.RWMutex
	items []payment.Payment
}

func NewPayments() *Payments { return &Payments{} }

func (r *Payments) Insert(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.items = append(r.items, *p)
	return nil
}

func (r *Payments) List(_ context.Context) ([]payment.Payment, error) {
	r.mu.RLock()
	out := append([]payment.Payment(nil), r.items...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if out == nil {
		out = []payment.Payment{}
	}
	return out, nil
}

func (r *Payments) Amend(_ context.Context, id string, a payment.Amendment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Amount = a.Amount
			r.items[i].Date = a.Date
			r.items[i].MemberName = a.MemberName
			return nil
		}
	}
	return apperr.NotFound("payment", id)
}

func (r *Payments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("payment", id)
}

// Attendance is the append-only check-in log.
type Attendance struct {
	mu    sync.RWMutex
	items []attendance.Log
}

func NewAttendance() *Attendance { return &Attendance{} }

func (r *Attendance) Insert(_ context.Context, l *attendance.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	r.items = append(r.items, *l)
	return nil
}

func (r *Attendance) ListByDate(_ context.Context, day member.Date) ([]attendance.Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []attendance.Log{}
	for _, l := range r.items {
		if l.Date.Equal(day) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *Attendance) CountByDate(ctx context.Context, day member.Date) (int, error) {
	logs, err := r.ListByDate(ctx, day)
	return len(logs), err
}

// All returns every log in insertion order.
func (r *Attendance) All() []attendance.Log {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]attendance.Log(nil), r.items...)
}

// Admins keeps admin credentials by username.
type Admins struct {
	mu    sync.RWMutex
	items map[string]auth.Admin
}

func NewAdmins() *Admins { return &Admins{items: map[string]auth.Admin{}} }

func (r *Admins) GetAdmin(_ context.Context, username string) (*auth.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[username]
	if !ok {
		return nil, apperr.NotFound("admin", username)
	}
	return &a, nil
}

func (r *Admins) SaveAdmin(_ context.Context, a auth.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.Username] = a
	return nil
}
