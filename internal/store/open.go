package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
	"gymdesk/internal/queue"
	"gymdesk/internal/store/memory"
	"gymdesk/internal/store/mongostore"
	"gymdesk/internal/store/postgres"
)

// Backends are the repositories and queue selected by configuration,
// together with the handles that must be closed on shutdown.
type Backends struct {
	Members    member.Repository
	Payments   payment.Repository
	Attendance attendance.Repository
	Admins     auth.AdminRepository
	Queue      queue.Queue
	Checks     map[string]func(ctx context.Context) bool

	closers []func() error
}

// Open connects the configured store and queue backends. Postgres schemas
// and Mongo indexes are applied before returning.
func Open(ctx context.Context, cfg config.App, logger *zap.Logger) (*Backends, error) {
	b := &Backends{Checks: map[string]func(context.Context) bool{}}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		if err := postgres.Migrate(ctx, db.Client); err != nil {
			b.Close()
			return nil, err
		}
		b.Members = postgres.NewMemberRepository(db.Client)
		b.Payments = postgres.NewPaymentRepository(db.Client)
		b.Attendance = postgres.NewAttendanceRepository(db.Client)
		b.Admins = postgres.NewAdminRepository(db.Client)
		b.Checks["db"] = db.Healthy
	case "mongo":
		m, err := NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, m.Close)
		if err := mongostore.EnsureIndexes(ctx, m.DB); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		b.Members = mongostore.NewMemberRepository(m.DB)
		b.Payments = mongostore.NewPaymentRepository(m.DB)
		b.Attendance = mongostore.NewAttendanceRepository(m.DB)
		b.Admins = mongostore.NewAdminRepository(m.DB)
		b.Checks["db"] = m.Healthy
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		b.Members = memory.NewMembers()
		b.Payments = memory.NewPayments()
		b.Attendance = memory.NewAttendance()
		b.Admins = memory.NewAdmins()
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.QueueBackend {
	case "redis":
		r := NewRedis(cfg.RedisAddr)
		b.closers = append(b.closers, r.Close)
		b.Queue = queue.NewRedisQueue(r.Client, cfg.QueueKey)
		b.Checks["redis"] = r.Healthy
	case "memory":
		b.Queue = queue.NewInMemory(0)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown QUEUE_BACKEND %q", cfg.QueueBackend)
	}

	logger.Info("backends ready", zap.String("store", cfg.StoreBackend), zap.String("queue", cfg.QueueBackend))
	return b, nil
}

// Close releases every handle opened by Open, newest first.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
