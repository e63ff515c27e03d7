package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"movie-booking/internal/data/entity"
	"movie-booking/internal/data/repository"
	"movie-booking/internal/event"
	"movie-booking/internal/gateway"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// memStore is an in-memory stand-in for Postgres. Transactions are
// serialized and roll back by restoring a snapshot.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users     map[uuid.UUID]*entity.User
	showtimes map[uuid.UUID]*entity.Showtime
	seats     map[uuid.UUID]*entity.Seat
	holds     map[seatKey]*entity.Hold
	bookings  map[uuid.UUID]*entity.Booking
	booked    map[seatKey]*entity.BookedSeat

	failures map[string]error
}

type seatKey struct {
	showtimeID uuid.UUID
	seatID     uuid.UUID
}

type snapshot struct {
	holds    map[seatKey]entity.Hold
	bookings map[uuid.UUID]entity.Booking
	booked   map[seatKey]entity.BookedSeat
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*entity.User{},
		showtimes: map[uuid.UUID]*entity.Showtime{},
		seats:     map[uuid.UUID]*entity.Seat{},
		holds:     map[seatKey]*entity.Hold{},
		bookings:  map[uuid.UUID]*entity.Booking{},
		booked:    map[seatKey]*entity.BookedSeat{},
		failures:  map[string]error{},
	}
}

func (s *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		Showtime:   memShowtimes{s},
		Seat:       memSeats{s},
		Hold:       memHolds{s},
		Booking:    memBookings{s},
		BookedSeat: memBookedSeats{s},
	}
	repo.Tx = memTx{s: s, repo: repo}
	return repo
}

// failOn makes the next call of op return err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *memStore) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		holds:    make(map[seatKey]entity.Hold, len(s.holds)),
		bookings: make(map[uuid.UUID]entity.Booking, len(s.bookings)),
		booked:   make(map[seatKey]entity.BookedSeat, len(s.booked)),
	}
	for k, v := range s.holds {
		snap.holds[k] = *v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = *v
	}
	for k, v := range s.booked {
		snap.booked[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holds = make(map[seatKey]*entity.Hold, len(snap.holds))
	for k, v := range snap.holds {
		s.holds[k] = &v
	}
	s.bookings = make(map[uuid.UUID]*entity.Booking, len(snap.bookings))
	for k, v := range snap.bookings {
		s.bookings[k] = &v
	}
	s.booked = make(map[seatKey]*entity.BookedSeat, len(snap.booked))
	for k, v := range snap.booked {
		s.booked[k] = &v
	}
}

// ==================== fixtures ====================

func (s *memStore) addShowtime(screenID uuid.UUID) *entity.Showtime {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &entity.Showtime{
		Base:      entity.Base{ID: uuid.New()},
		MovieID:   uuid.New(),
		ScreenID:  screenID,
		StartsAt:  time.Date(2030, 1, 1, 19, 0, 0, 0, time.UTC),
		BasePrice: 12,
	}
	s.showtimes[st.ID] = st
	return st
}

func (s *memStore) addSeat(screenID uuid.UUID, number string, price float64) *entity.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat := &entity.Seat{
		Base:        entity.Base{ID: uuid.New()},
		ScreenID:    screenID,
		RowLabel:    number[:1],
		ColumnIndex: len(s.seats) + 1,
		SeatNumber:  number,
		SeatClass:   entity.SeatClassStandard,
		Price:       price,
		IsActive:    true,
	}
	s.seats[seat.ID] = seat
	return seat
}

func (s *memStore) holdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}

func (s *memStore) bookedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.booked)
}

func (s *memStore) booking(id uuid.UUID) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

// ==================== transactor ====================

type memTx struct {
	s    *memStore
	repo *repository.Repository
}

func (t memTx) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(t.repo); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ==================== showtimes ====================

type memShowtimes struct{ s *memStore }

func (r memShowtimes) Create(_ context.Context, showtime *entity.Showtime) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *showtime
	r.s.showtimes[showtime.ID] = &cp
	return nil
}

func (r memShowtimes) FindByID(_ context.Context, id uuid.UUID) (*entity.Showtime, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.showtimes[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// ==================== seats ====================

type memSeats struct{ s *memStore }

func (r memSeats) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, seat := range seats {
		cp := *seat
		r.s.seats[seat.ID] = &cp
	}
	return nil
}

func (r memSeats) FindByID(_ context.Context, id uuid.UUID) (*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seat, ok := r.s.seats[id]
	if !ok {
		return nil, nil
	}
	cp := *seat
	return &cp, nil
}

func (r memSeats) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("seat.find_by_ids"); err != nil {
		return nil, err
	}
	out := make([]*entity.Seat, 0, len(ids))
	for _, id := range lo.Uniq(ids) {
		if seat, ok := r.s.seats[id]; ok {
			cp := *seat
			out = append(out, &cp)
		}
	}
	sortSeats(out)
	return out, nil
}

func (r memSeats) FindByScreenID(_ context.Context, screenID uuid.UUID) ([]*entity.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Seat, 0)
	for _, seat := range r.s.seats {
		if seat.ScreenID == screenID {
			cp := *seat
			out = append(out, &cp)
		}
	}
	sortSeats(out)
	return out, nil
}

func (r memSeats) SetActive(_ context.Context, id uuid.UUID, isActive bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seat, ok := r.s.seats[id]
	if !ok {
		return entity.NewNotFoundError("seat", id)
	}
	seat.IsActive = isActive
	return nil
}

func sortSeats(seats []*entity.Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].RowLabel != seats[j].RowLabel {
			return seats[i].RowLabel < seats[j].RowLabel
		}
		return seats[i].ColumnIndex < seats[j].ColumnIndex
	})
}

// ==================== holds ====================

type memHolds struct{ s *memStore }

func (r memHolds) Acquire(_ context.Context, userID, showtimeID uuid.UUID, seatIDs []uuid.UUID, now, expiresAt time.Time) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("hold.acquire"); err != nil {
		return nil, err
	}

	acquired := make([]uuid.UUID, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		key := seatKey{showtimeID, seatID}
		if existing, ok := r.s.holds[key]; ok && existing.ActiveAt(now) && existing.UserID != userID {
			continue
		}
		r.s.holds[key] = &entity.Hold{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			UserID:     userID,
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			ExpiresAt:  expiresAt,
		}
		acquired = append(acquired, seatID)
	}
	return acquired, nil
}

func (r memHolds) FindActiveByShowtime(_ context.Context, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error) {
	return r.find(func(h *entity.Hold) bool { return h.ShowtimeID == showtimeID && h.ActiveAt(now) }), nil
}

func (r memHolds) FindActiveByUser(_ context.Context, userID, showtimeID uuid.UUID, now time.Time) ([]*entity.Hold, error) {
	return r.find(func(h *entity.Hold) bool {
		return h.UserID == userID && h.ShowtimeID == showtimeID && h.ActiveAt(now)
	}), nil
}

func (r memHolds) ReleaseExcept(_ context.Context, userID, showtimeID uuid.UUID, keep []uuid.UUID) (int64, error) {
	return r.delete(func(h *entity.Hold) bool {
		return h.UserID == userID && h.ShowtimeID == showtimeID && !slices.Contains(keep, h.SeatID)
	}), nil
}

func (r memHolds) DeleteByUser(_ context.Context, userID, showtimeID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	err := r.s.fail("hold.delete_by_user")
	r.s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return r.delete(func(h *entity.Hold) bool { return h.UserID == userID && h.ShowtimeID == showtimeID }), nil
}

func (r memHolds) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.delete(func(h *entity.Hold) bool { return !h.ActiveAt(now) }), nil
}

func (r memHolds) DeleteExpiredByShowtime(_ context.Context, showtimeID uuid.UUID, now time.Time) (int64, error) {
	return r.delete(func(h *entity.Hold) bool { return h.ShowtimeID == showtimeID && !h.ActiveAt(now) }), nil
}

func (r memHolds) find(match func(*entity.Hold) bool) []*entity.Hold {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Hold, 0)
	for _, h := range r.s.holds {
		if match(h) {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out
}

func (r memHolds) delete(match func(*entity.Hold) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, h := range r.s.holds {
		if match(h) {
			delete(r.s.holds, k)
			n++
		}
	}
	return n
}

// ==================== bookings ====================

type memBookings struct{ s *memStore }

func (r memBookings) Create(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *booking
	r.s.bookings[booking.ID] = &cp
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*entity.Booking, 0)
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			cp := *b
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*entity.Booking{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (r memBookings) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r memBookings) SetPaymentOrder(_ context.Context, id uuid.UUID, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.IsPaid() {
		return fmt.Errorf("booking %s: %w", id, entity.ErrInvalidState)
	}
	b.PaymentOrderID = &orderID
	return nil
}

func (r memBookings) MarkPaid(_ context.Context, id uuid.UUID, paymentID string, paidAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("booking.mark_paid"); err != nil {
		return err
	}
	b, ok := r.s.bookings[id]
	if !ok || b.IsPaid() {
		return fmt.Errorf("booking %s: %w", id, entity.ErrInvalidState)
	}
	b.PaymentStatus = entity.PaymentStatusCompleted
	b.PaymentID = &paymentID
	b.UpdatedAt = paidAt
	return nil
}

func (r memBookings) FailPendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.PaymentStatus == entity.PaymentStatusPending && b.CreatedAt.Before(cutoff) {
			b.PaymentStatus = entity.PaymentStatusFailed
			n++
		}
	}
	return n, nil
}

// ==================== booked seats ====================

type memBookedSeats struct{ s *memStore }

func (r memBookedSeats) CreateBatch(_ context.Context, bookedSeats []*entity.BookedSeat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, bs := range bookedSeats {
		if _, taken := r.s.booked[seatKey{bs.ShowtimeID, bs.SeatID}]; taken {
			return fmt.Errorf("insert booked seats: %w", entity.ErrSeatAlreadyBooked)
		}
	}
	for _, bs := range bookedSeats {
		cp := *bs
		r.s.booked[seatKey{bs.ShowtimeID, bs.SeatID}] = &cp
	}
	return nil
}

func (r memBookedSeats) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.BookedSeat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.BookedSeat, 0)
	for _, bs := range r.s.booked {
		if bs.BookingID == bookingID {
			cp := *bs
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memBookedSeats) FindSeatIDsByShowtime(_ context.Context, showtimeID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for k := range r.s.booked {
		if k.showtimeID == showtimeID {
			out = append(out, k.seatID)
		}
	}
	return out, nil
}

func (r memBookedSeats) FindBookedAmong(_ context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return lo.Filter(seatIDs, func(id uuid.UUID, _ int) bool {
		_, ok := r.s.booked[seatKey{showtimeID, id}]
		return ok
	}), nil
}

// ==================== collaborators ====================

const testKeySecret = "test-secret"

type fakeGateway struct {
	mu        sync.Mutex
	orders    int
	createErr error
	lastOrder *gateway.Order
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount float64, currency, receipt string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrGatewayUnavailable, g.createErr)
	}
	g.orders++
	g.lastOrder = &gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   int64(amount*100 + 0.5),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	return g.lastOrder, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.Sign(testKeySecret, orderID, paymentID) == signature
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.BookingConfirmed
	err    error
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, evt event.BookingConfirmed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []event.BookingConfirmed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []event.SeatMapChanged
}

func (n *recordingNotifier) SeatMapChanged(_ context.Context, msg event.SeatMapChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) reasons() []event.SeatMapReason {
	n.mu.Lock()
	defer n.mu.Unlock()
	return lo.Map(n.messages, func(m event.SeatMapChanged, _ int) event.SeatMapReason { return m.Reason })
}
