// Package payment keeps the renewal payment log and its administrative corrections.
package payment

import (
	"context"
	"time"
)

// Payment is one renewal payment. MemberName is a snapshot taken when the
// payment was made and is never joined back against the live member.
type Payment struct {
	ID         string    `json:"_id"`
	MemberID   string    `json:"memberId"`
	MemberName string    `json:"memberName"`
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	Currency   string    `json:"currency"`
}

// Amendment corrects a recorded payment.
type Amendment struct {
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	MemberName string    `json:"memberName"`
}

// Repository persists payments. Implementations return apperr.ErrNotFound
// for unknown ids.
type Repository interface {
	// Insert assigns the payment an id and stores it.
	Insert(ctx context.Context, p *Payment) error
	// List returns every payment, newest first.
	List(ctx context.Context) ([]Payment, error)
	Amend(ctx context.Context, id string, a Amendment) error
	Delete(ctx context.Context, id string) error
}
