package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"gymdesk/internal/payment"
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository persists payments in Postgres.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a repo.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Insert writes a new payment.
func (r *PaymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, member_id, member_name, amount, paid_at, currency)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.MemberID, p.MemberName, p.Amount, p.Date, p.Currency)
	return err
}

// List returns payments newest first.
func (r *PaymentRepository) List(ctx context.Context) ([]payment.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, member_name, amount, paid_at, currency
		FROM payments
		ORDER BY paid_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []payment.Payment{}
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.Amount, &p.Date, &p.Currency); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Amend corrects amount, date and member name.
func (r *PaymentRepository) Amend(ctx context.Context, id string, a payment.Amendment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET amount = $2, paid_at = $3, member_name = $4
		WHERE id = $1
	`, id, a.Amount, a.Date, a.MemberName)
	return affected(res, err, "payment", id)
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return affected(res, err, "payment", id)
}
