package member

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"gymdesk/internal/apperr"
	"gymdesk/internal/metrics"
)

// MinSearchLength is the shortest term Search will match on.
const MinSearchLength = 3

// Settings tune the lifecycle service.
type Settings struct {
	Location      *time.Location
	DefaultAmount int64
	MaxRetries    int
	Now           func() time.Time
}

// Registration is the input for a new member.
type Registration struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	MembershipEnd Date   `json:"membershipEnd"`
}

// Renewal is the outcome of a successful renewal.
type Renewal struct {
	MemberID  string    `json:"memberId"`
	NewExpiry Date      `json:"newExpiry"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

// Service implements member directory operations and the membership lifecycle.
type Service struct {
	repo     Repository
	ledger   Ledger
	settings Settings
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

// NewService creates a service backed by a repository and a payment ledger.
func NewService(repo Repository, ledger Ledger, settings Settings, logger *zap.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.DefaultAmount <= 0 {
		settings.DefaultAmount = 700
	}
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		ledger:   ledger,
		settings: settings,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

// Today returns the current calendar day in the gym's timezone.
func (s *Service) Today() Date {
	return Today(s.settings.Now(), s.settings.Location)
}

// Register creates a member joined today.
func (s *Service) Register(ctx context.Context, reg Registration) (*Member, error) {
	d, err := s.clean(Details{Name: reg.Name, Phone: reg.Phone, Address: reg.Address, MembershipEnd: reg.MembershipEnd})
	if err != nil {
		return nil, err
	}
	m := &Member{
		Name:          d.Name,
		Phone:         d.Phone,
		Address:       d.Address,
		MembershipEnd: d.MembershipEnd,
		JoinedDate:    s.Today(),
		IsActive:      true,
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("member registered", zap.String("member_id", m.ID), zap.String("membership_end", m.MembershipEnd.String()))
	return m, nil
}

// List returns every member with its current status.
func (s *Service) List(ctx context.Context) ([]View, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	views := make([]View, 0, len(members))
	for _, m := range members {
		views = append(views, ViewOf(m, today))
	}
	return views, nil
}

// Get returns a single member with its current status.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	if id == "" {
		return nil, apperr.Validation("missing member id")
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ViewOf(*m, s.Today())
	return &v, nil
}

// Search matches members whose name contains term (case-insensitive) or
// whose phone contains term. Terms shorter than MinSearchLength match nothing.
func (s *Service) Search(ctx context.Context, term string) ([]View, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSearchLength {
		return []View{}, nil
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	out := []View{}
	for _, v := range all {
		if strings.Contains(strings.ToLower(v.Name), needle) || strings.Contains(v.Phone, term) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Update replaces the editable fields of a member.
func (s *Service) Update(ctx context.Context, id string, d Details) error {
	if id == "" {
		return apperr.Validation("missing member id")
	}
	cleaned, err := s.clean(d)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, cleaned)
}

// Delete hard-deletes a member. Payments and attendance logs are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("missing member id")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("member deleted", zap.String("member_id", id))
	return nil
}

// SetPhoto stores the url of the member's photo.
func (s *Service) SetPhoto(ctx context.Context, id, url string) error {
	if id == "" {
		return apperr.Validation("missing member id")
	}
	return s.repo.SetPhoto(ctx, id, url)
}

// Renew extends the membership by RenewalPeriodDays and records the payment.
// An amount of zero uses the configured default.
//
// The new expiry is written with a compare-and-swap on the expiry that was
// read, so two concurrent renewals both count. The payment is a second,
// independent write: if it fails the member stays renewed and the error says so.
func (s *Service) Renew(ctx context.Context, id string, amount int64) (*Renewal, error) {
	if id == "" {
		return nil, apperr.Validation("missing member id")
	}
	if amount < 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if amount == 0 {
		amount = s.settings.DefaultAmount
	}

	for attempt := 0; ; attempt++ {
		m, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		now := s.settings.Now()
		newEnd := RenewalEnd(m.MembershipEnd, Today(now, s.settings.Location))

		ok, err := s.repo.ExtendMembership(ctx, id, m.MembershipEnd, newEnd, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			metrics.RenewalConflicts.Inc()
			if attempt >= s.settings.MaxRetries {
				return nil, apperr.Conflict("member %s was modified during renewal", id)
			}
			s.logger.Warn("renewal lost race, retrying", zap.String("member_id", id), zap.Int("attempt", attempt+1))
			continue
		}

		metrics.Renewals.Inc()
		if err := s.ledger.Append(ctx, Charge{MemberID: id, MemberName: m.Name, Amount: amount, PaidAt: now}); err != nil {
			s.logger.Error("membership renewed but payment not recorded",
				zap.String("member_id", id),
				zap.String("new_expiry", newEnd.String()),
				zap.Int64("amount", amount),
				zap.Error(err),
			)
			return nil, fmt.Errorf("membership renewed to %s but payment not recorded: %w", newEnd, err)
		}

		s.logger.Info("membership renewed",
			zap.String("member_id", id),
			zap.String("previous_expiry", m.MembershipEnd.String()),
			zap.String("new_expiry", newEnd.String()),
			zap.Int64("amount", amount),
		)
		return &Renewal{MemberID: id, NewExpiry: newEnd, Amount: amount, PaidAt: now}, nil
	}
}

func (s *Service) clean(d Details) (Details, error) {
	d.Name = strings.TrimSpace(s.sanitize(d.Name))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(s.sanitize(d.Address))

	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	if d.MembershipEnd.IsZero() {
		missing = append(missing, "membershipEnd")
	}
	if len(missing) > 0 {
		return Details{}, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return d, nil
}

// sanitize strips markup, including markup hidden behind entity encoding.
// The result is unescaped because values are served as JSON, not HTML.
func (s *Service) sanitize(v string) string {
	for i := 0; i < 4; i++ {
		clean := html.UnescapeString(s.policy.Sanitize(html.UnescapeString(v)))
		if clean == v {
			break
		}
		v = clean
	}
	return v
}

