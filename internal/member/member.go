// Package member owns gym member records, the membership lifecycle
// (status and renewal) and the member directory operations.
package member

import (
	"context"
	"time"
)

// Member is a gym patron with a tracked membership period.
type Member struct {
	ID              string     `json:"_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	MembershipEnd   Date       `json:"membershipEnd"`
	JoinedDate      Date       `json:"joinedDate"`
	LastCheckIn     *time.Time `json:"lastCheckIn"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	IsActive        bool       `json:"isActive"`
	PhotoURL        string     `json:"photoUrl,omitempty"`
}

// Details are the fields an administrator may replace on an existing member.
type Details struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	MembershipEnd Date   `json:"membershipEnd"`
}

// View is a member together with the status derived at read time.
type View struct {
	Member
	Status   Status `json:"status"`
	DaysLeft int    `json:"daysLeft"`
}

// Repository persists members. Implementations return apperr.ErrNotFound
// for ids (or phones) that do not resolve.
type Repository interface {
	// Insert assigns the member an id and stores it.
	Insert(ctx context.Context, m *Member) error
	// List returns every member in insertion order.
	List(ctx context.Context) ([]Member, error)
	Get(ctx context.Context, id string) (*Member, error)
	// FindByPhone returns the first member, in insertion order, whose phone equals phone.
	FindByPhone(ctx context.Context, phone string) (*Member, error)
	// Update replaces name, phone, address and membershipEnd only.
	Update(ctx context.Context, id string, d Details) error
	Delete(ctx context.Context, id string) error
	// ExtendMembership sets membershipEnd to `to` and lastPaymentDate to paidAt,
	// but only while the stored membershipEnd still equals `from`.
	// It reports false when the member changed underneath the caller.
	ExtendMembership(ctx context.Context, id string, from, to Date, paidAt time.Time) (bool, error)
	TouchCheckIn(ctx context.Context, id string, at time.Time) error
	SetPhoto(ctx context.Context, id, url string) error
}

// Charge is the payment side of a renewal.
type Charge struct {
	MemberID   string
	MemberName string
	Amount     int64
	PaidAt     time.Time
}

// Ledger appends renewal payments.
type Ledger interface {
	Append(ctx context.Context, c Charge) error
}
