// Package mongostore implements the gym repositories on MongoDB.
// Calendar dates are stored as YYYY-MM-DD strings and instants as BSON dates.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

const (
	membersCollection    = "members"
	paymentsCollection   = "payments"
	attendanceCollection = "attendance"
	adminsCollection     = "admins"
)

var (
	_ member.Repository     = (*MemberRepository)(nil)
	_ payment.Repository    = (*PaymentRepository)(nil)
	_ attendance.Repository = (*AttendanceRepository)(nil)
	_ auth.AdminRepository  = (*AdminRepository)(nil)
)

// EnsureIndexes creates the lookup indexes used by the repositories.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(membersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}, {Key: "seq", Value: 1}},
	}); err != nil {
		return err
	}
	if _, err := db.Collection(paymentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	}); err != nil {
		return err
	}
	_, err := db.Collection(attendanceCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

type memberDoc struct {
	ID              string     `bson:"_id"`
	Seq             int64      `bson:"seq"`
	Name            string     `bson:"name"`
	Phone           string     `bson:"phone"`
	Address         string     `bson:"address"`
	MembershipEnd   string     `bson:"membershipEnd"`
	JoinedDate      string     `bson:"joinedDate"`
	LastCheckIn     *time.Time `bson:"lastCheckIn,omitempty"`
	LastPaymentDate *time.Time `bson:"lastPaymentDate,omitempty"`
	IsActive        bool       `bson:"isActive"`
	PhotoURL        string     `bson:"photoUrl,omitempty"`
}

func toMemberDoc(m member.Member, seq int64) memberDoc {
	return memberDoc{
		ID:              m.ID,
		Seq:             seq,
		Name:            m.Name,
		Phone:           m.Phone,
		Address:         m.Address,
		MembershipEnd:   dateString(m.MembershipEnd),
		JoinedDate:      dateString(m.JoinedDate),
		LastCheckIn:     m.LastCheckIn,
		LastPaymentDate: m.LastPaymentDate,
		IsActive:        m.IsActive,
		PhotoURL:        m.PhotoURL,
	}
}

func (d memberDoc) member() (member.Member, error) {
	m := member.Member{
		ID:              d.ID,
		Name:            d.Name,
		Phone:           d.Phone,
		Address:         d.Address,
		LastCheckIn:     d.LastCheckIn,
		LastPaymentDate: d.LastPaymentDate,
		IsActive:        d.IsActive,
		PhotoURL:        d.PhotoURL,
	}
	var err error
	if m.MembershipEnd, err = parseDate(d.MembershipEnd); err != nil {
		return member.Member{}, err
	}
	if m.JoinedDate, err = parseDate(d.JoinedDate); err != nil {
		return member.Member{}, err
	}
	return m, nil
}

func dateString(d member.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (member.Date, error) {
	if s == "" {
		return member.Date{}, nil
	}
	return member.ParseDate(s)
}

// MemberRepository persists members in the members collection.
type MemberRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMemberRepository creates a repo.
func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{coll: db.Collection(membersCollection), now: time.Now}
}

func (r *MemberRepository) Insert(ctx context.Context, m *member.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, toMemberDoc(*m, r.now().UnixNano()))
	return err
}

func (r *MemberRepository) List(ctx context.Context) ([]member.Member, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []memberDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]member.Member, 0, len(docs))
	for _, d := range docs {
		m, err := d.member()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, nil, "member", id)
}

func (r *MemberRepository) FindByPhone(ctx context.Context, phone string) (*member.Member, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: 1}})
	return r.findOne(ctx, bson.D{{Key: "phone", Value: phone}}, opts, "member with phone", phone)
}

func (r *MemberRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions, kind, key string) (*member.Member, error) {
	var doc memberDoc
	var res *mongo.SingleResult
	if opts != nil {
		res = r.coll.FindOne(ctx, filter, opts)
	} else {
		res = r.coll.FindOne(ctx, filter)
	}
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound(kind, key)
		}
		return nil, err
	}
	m, err := doc.member()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) Update(ctx context.Context, id string, d member.Details) error {
	return r.set(ctx, id, bson.D{
		{Key: "name", Value: d.Name},
		{Key: "phone", Value: d.Phone},
		{Key: "address", Value: d.Address},
		{Key: "membershipEnd", Value: dateString(d.MembershipEnd)},
	})
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("member", id)
	}
	return nil
}

// ExtendMembership filters on the old membershipEnd so a concurrent renewal
// leaves the document unmatched.
func (r *MemberRepository) ExtendMembership(ctx context.Context, id string, from, to member.Date, paidAt time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "membershipEnd", Value: dateString(from)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "membershipEnd", Value: dateString(to)},
			{Key: "lastPaymentDate", Value: paidAt},
		}}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, apperr.NotFound("member", id)
	}
	return false, nil
}

func (r *MemberRepository) TouchCheckIn(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.D{{Key: "lastCheckIn", Value: at}})
}

func (r *MemberRepository) SetPhoto(ctx context.Context, id, url string) error {
	return r.set(ctx, id, bson.D{{Key: "photoUrl", Value: url}})
}

func (r *MemberRepository) set(ctx context.Context, id string, fields bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("member", id)
	}
	return nil
}

type paymentDoc struct {
	ID         string    `bson:"_id"`
	MemberID   string    `bson:"memberId"`
	MemberName string    `bson:"memberName"`
	Amount     int64     `bson:"amount"`
	Date       time.Time `bson:"date"`
	Currency   string    `bson:"currency"`
}

// PaymentRepository persists payments in the payments collection.
type PaymentRepository struct {
	coll *mongo.Collection
}

// NewPaymentRepository creates a repo.
func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{coll: db.Collection(paymentsCollection)}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, paymentDoc(*p))
	return err
}

func (r *PaymentRepository) List(ctx context.Context) ([]payment.Payment, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]payment.Payment, 0, len(docs))
	for _, d := range docs {
		out = append(out, payment.Payment(d))
	}
	return out, nil
}

func (r *PaymentRepository) Amend(ctx context.Context, id string, a payment.Amendment) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "amount", Value: a.Amount},
		{Key: "date", Value: a.Date},
		{Key: "memberName", Value: a.MemberName},
	}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("payment", id)
	}
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("payment", id)
	}
	return nil
}

type attendanceDoc struct {
	ID        string    `bson:"_id"`
	MemberID  string    `bson:"memberId"`
	Name      string    `bson:"name"`
	Timestamp time.Time `bson:"timestamp"`
	Date      string    `bson:"date"`
}

// AttendanceRepository persists check-in logs in the attendance collection.
type AttendanceRepository struct {
	coll *mongo.Collection
}

// NewAttendanceRepository creates a repo.
func NewAttendanceRepository(db *mongo.Database) *AttendanceRepository {
	return &AttendanceRepository{coll: db.Collection(attendanceCollection)}
}

func (r *AttendanceRepository) Insert(ctx context.Context, l *attendance.Log) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.coll.InsertOne(ctx, attendanceDoc{
		ID:        l.ID,
		MemberID:  l.MemberID,
		Name:      l.Name,
		Timestamp: l.Timestamp,
		Date:      dateString(l.Date),
	})
	return err
}

func (r *AttendanceRepository) ListByDate(ctx context.Context, day member.Date) ([]attendance.Log, error) {
	cur, err := r.coll.Find(ctx,
		bson.D{{Key: "date", Value: dateString(day)}},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var docs []attendanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]attendance.Log, 0, len(docs))
	for _, d := range docs {
		date, err := parseDate(d.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, attendance.Log{ID: d.ID, MemberID: d.MemberID, Name: d.Name, Timestamp: d.Timestamp, Date: date})
	}
	return out, nil
}

func (r *AttendanceRepository) CountByDate(ctx context.Context, day member.Date) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "date", Value: dateString(day)}})
	return int(n), err
}

type adminDoc struct {
	Username     string `bson:"_id"`
	PasswordHash string `bson:"passwordHash"`
}

// AdminRepository persists admin credentials in the admins collection.
type AdminRepository struct {
	coll *mongo.Collection
}

// NewAdminRepository creates a repo.
func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{coll: db.Collection(adminsCollection)}
}

func (r *AdminRepository) GetAdmin(ctx context.Context, username string) (*auth.Admin, error) {
	var doc adminDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: username}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("admin", username)
	}
	if err != nil {
		return nil, err
	}
	return &auth.Admin{Username: doc.Username, PasswordHash: doc.PasswordHash}, nil
}

func (r *AdminRepository) SaveAdmin(ctx context.Context, a auth.Admin) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: a.Username}},
		adminDoc{Username: a.Username, PasswordHash: a.PasswordHash},
		options.Replace().SetUpsert(true),
	)
	return err
}
