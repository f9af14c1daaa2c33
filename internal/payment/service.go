package payment

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"gymdesk/internal/apperr"
	"gymdesk/internal/member"
	"gymdesk/internal/metrics"
)

// Service records renewal payments and applies administrative corrections.
// Corrections never touch the member's membership period.
type Service struct {
	repo     Repository
	currency string
	loc      *time.Location
	logger   *zap.Logger
}

// NewService creates a payment service labelling every payment with currency.
func NewService(repo Repository, currency string, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, currency: currency, loc: loc, logger: logger}
}

// Append records the payment half of a renewal.
func (s *Service) Append(ctx context.Context, c member.Charge) error {
	p := &Payment{
		MemberID:   c.MemberID,
		MemberName: c.MemberName,
		Amount:     c.Amount,
		Date:       c.PaidAt,
		Currency:   s.currency,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return err
	}
	metrics.PaymentAmount.Add(float64(c.Amount))
	return nil
}

// List returns all payments, newest first.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}

// Amend corrects amount, date and member name of a payment.
func (s *Service) Amend(ctx context.Context, id string, a Amendment) error {
	if id == "" {
		return apperr.Validation("ID Required")
	}
	if a.Amount <= 0 {
		return apperr.Validation("amount must be a positive integer")
	}
	if a.Date.IsZero() {
		return apperr.Validation("date is required")
	}
	a.MemberName = strings.TrimSpace(a.MemberName)
	if a.MemberName == "" {
		return apperr.Validation("memberName is required")
	}
	if err := s.repo.Amend(ctx, id, a); err != nil {
		return err
	}
	s.logger.Info("payment amended", zap.String("payment_id", id), zap.Int64("amount", a.Amount))
	return nil
}

// Delete removes a payment record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("ID Required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("payment deleted", zap.String("payment_id", id))
	return nil
}

// MonthTotal is the revenue collected in one calendar month.
type MonthTotal struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

// Summary aggregates the payment log for the revenue page.
type Summary struct {
	Total    int64        `json:"total"`
	Count    int          `json:"count"`
	Currency string       `json:"currency"`
	Monthly  []MonthTotal `json:"monthly"`
}

// Summary totals all payments and groups them by month, newest month first.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	payments, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(payments, s.currency, s.loc), nil
}

// Summarize is the pure aggregation behind Summary.
func Summarize(payments []Payment, currency string, loc *time.Location) Summary {
	sum := Summary{Currency: currency, Monthly: []MonthTotal{}}
	byMonth := map[string]*MonthTotal{}
	for _, p := range payments {
		sum.Total += p.Amount
		sum.Count++
		key := p.Date.In(loc).Format("2006-01")
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthTotal{Month: key}
			byMonth[key] = mt
		}
		mt.Amount += p.Amount
		mt.Count++
	}
	for _, mt := range byMonth {
		sum.Monthly = append(sum.Monthly, *mt)
	}
	sort.Slice(sum.Monthly, func(i, j int) bool { return sum.Monthly[i].Month > sum.Monthly[j].Month })
	return sum
}

// ParseDate accepts an RFC 3339 timestamp or a bare YYYY-MM-DD day, which is
// taken as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	d, err := member.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q", s)
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Time().Day(), 0, 0, 0, 0, loc), nil
}
