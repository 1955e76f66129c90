package inventory

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/showsewa/seat-inventory/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres ledger with the same
// contract: all-or-nothing holds, version-guarded releases, and the audit
// row appended together with the confirm.
type fakeStore struct {
	mu         sync.Mutex
	showings   map[int64]domain.Showing
	seats      map[int64]map[string]*domain.SeatRecord
	bookings   map[string]*domain.ChannelBooking
	bookingSeq int64
	configs    map[int64]*domain.TheaterChannelConfig
	conflicts  map[string]*domain.ReconciliationConflict
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		showings:  make(map[int64]domain.Showing),
		seats:     make(map[int64]map[string]*domain.SeatRecord),
		bookings:  make(map[string]*domain.ChannelBooking),
		configs:   make(map[int64]*domain.TheaterChannelConfig),
		conflicts: make(map[string]*domain.ReconciliationConflict),
	}
}

func (s *fakeStore) addShowing(showingID, theaterID int64, startsAt time.Time, seatIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showings[showingID] = domain.Showing{
		ID:        showingID,
		TheaterID: theaterID,
		Screen:    "Screen 1",
		StartsAt:  startsAt,
	}

	rows := make(map[string]*domain.SeatRecord, len(seatIDs))
	for _, seatID := range seatIDs {
		rows[seatID] = &domain.SeatRecord{
			ShowingID: showingID,
			SeatID:    seatID,
			State:     domain.SeatAvailable,
			Category:  "STANDARD",
			Version:   1,
		}
	}
	s.seats[showingID] = rows
}

func (s *fakeStore) seat(showingID int64, seatID string) domain.SeatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.seats[showingID][seatID]
}

func (s *fakeStore) setConfig(config *domain.TheaterChannelConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.TheaterID] = config
}

type fakeLedger struct {
	store *fakeStore
}

func (f *fakeLedger) ProvisionShowing(ctx context.Context, showing domain.Showing, layout []domain.SeatLayout) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	if _, ok := f.store.showings[showing.ID]; ok {
		return domain.ErrShowingExists
	}

	f.store.showings[showing.ID] = showing

	rows := make(map[string]*domain.SeatRecord, len(layout))
	for _, seat := range layout {
		rows[seat.SeatID] = &domain.SeatRecord{
			ShowingID: showing.ID,
			SeatID:    seat.SeatID,
			State:     domain.SeatAvailable,
			Category:  seat.Category,
			Price:     seat.Price,
			Version:   1,
		}
	}
	f.store.seats[showing.ID] = rows

	return nil
}

func (f *fakeLedger) GetShowing(ctx context.Context, showingID int64) (*domain.Showing, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	showing, ok := f.store.showings[showingID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &showing, nil
}

func (f *fakeLedger) GetSeats(ctx context.Context, showingID int64) ([]domain.SeatRecord, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	rows, ok := f.store.seats[showingID]
	if !ok || len(rows) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	seats := make([]domain.SeatRecord, 0, len(rows))
	for _, seat := range rows {
		seats = append(seats, *seat)
	}
	sortSeats(seats)

	return seats, nil
}

func (f *fakeLedger) GetSeatsByIDs(ctx context.Context, showingID int64, seatIDs []string) ([]domain.SeatRecord, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	seats := make([]domain.SeatRecord, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		if seat, ok := f.store.seats[showingID][seatID]; ok {
			seats = append(seats, *seat)
		}
	}
	sortSeats(seats)

	return seats, nil
}

func (f *fakeLedger) GetSeatsByHolder(ctx context.Context, holderToken string) ([]domain.SeatRecord, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	return f.seatsByHolderLocked(holderToken), nil
}

func (f *fakeLedger) seatsByHolderLocked(holderToken string) []domain.SeatRecord {
	seats := make([]domain.SeatRecord, 0)
	for _, rows := range f.store.seats {
		for _, seat := range rows {
			if seat.HolderToken == holderToken && seat.State == domain.SeatHeld {
				seats = append(seats, *seat)
			}
		}
	}
	sortSeats(seats)

	return seats
}

func (f *fakeLedger) HoldSeats(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	holderToken string,
	expiresAt time.Time) ([]domain.SeatRecord, error) {

	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	rows := f.store.seats[showingID]

	found := make([]*domain.SeatRecord, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		if seat, ok := rows[seatID]; ok {
			found = append(found, seat)
		}
	}

	if len(found) != len(seatIDs) {
		return nil, domain.ErrRecordNotFound
	}

	unavailable := make([]string, 0)
	for _, seat := range found {
		if seat.State != domain.SeatAvailable {
			unavailable = append(unavailable, seat.SeatID)
		}
	}

	if len(unavailable) > 0 {
		sort.Strings(unavailable)
		return nil, &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: unavailable}
	}

	held := make([]domain.SeatRecord, 0, len(found))
	for _, seat := range found {
		seat.State = domain.SeatHeld
		seat.HolderToken = holderToken
		seat.HoldExpiresAt = expiresAt
		seat.Channel = channel
		seat.Version++
		held = append(held, *seat)
	}
	sortSeats(held)

	return held, nil
}

func (f *fakeLedger) ExtendHold(ctx context.Context, holderToken string, now, expiresAt time.Time) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	seats := f.seatsByHolderLocked(holderToken)
	if len(seats) == 0 {
		return 0, domain.ErrHoldNotFound
	}

	for _, seat := range seats {
		if seat.HoldExpired(now) {
			return 0, domain.ErrHoldExpired
		}
	}

	extended := 0
	for _, seat := range seats {
		row := f.store.seats[seat.ShowingID][seat.SeatID]
		row.HoldExpiresAt = expiresAt
		row.Version++
		extended++
	}

	return extended, nil
}

func (f *fakeLedger) ReleaseHold(ctx context.Context, holderToken string) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	released := 0
	for _, rows := range f.store.seats {
		for _, seat := range rows {
			if seat.HolderToken == holderToken && seat.State == domain.SeatHeld {
				releaseSeatLocked(seat)
				released++
			}
		}
	}

	return released, nil
}

func (f *fakeLedger) ReleaseSeat(ctx context.Context, showingID int64, seatID string, version int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	seat, ok := f.store.seats[showingID][seatID]
	if !ok || seat.State != domain.SeatHeld || seat.Version != version {
		return domain.ErrEditConflict
	}

	releaseSeatLocked(seat)

	return nil
}

func (f *fakeLedger) ConfirmHold(
	ctx context.Context,
	holderToken, bookingReference string,
	channel domain.Channel,
	now time.Time) (*domain.ChannelBooking, error) {

	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	seats := f.seatsByHolderLocked(holderToken)
	if len(seats) == 0 {
		return nil, domain.ErrHoldNotFound
	}

	for _, seat := range seats {
		if seat.HoldExpired(now) {
			return nil, domain.ErrHoldExpired
		}
	}

	if _, ok := f.store.bookings[bookingReference]; ok {
		return nil, domain.ErrBookingExists
	}

	seatIDs := make([]string, 0, len(seats))
	showingID := seats[0].ShowingID

	for _, seat := range seats {
		row := f.store.seats[seat.ShowingID][seat.SeatID]
		row.State = domain.SeatSold
		row.HolderToken = ""
		row.HoldExpiresAt = time.Time{}
		row.SoldAt = now
		row.BookingReference = bookingReference
		row.Version++
		seatIDs = append(seatIDs, seat.SeatID)
	}

	f.store.bookingSeq++
	booking := &domain.ChannelBooking{
		ID:               f.store.bookingSeq,
		BookingReference: bookingReference,
		Channel:          channel,
		ShowingID:        showingID,
		Seats:            seatIDs,
		Status:           domain.BookingConfirmed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.store.bookings[bookingReference] = booking

	copied := *booking

	return &copied, nil
}

func (f *fakeLedger) MarkSeatsSold(
	ctx context.Context,
	showingID int64,
	seatIDs []string,
	channel domain.Channel,
	bookingReference string,
	now time.Time) ([]domain.SeatRecord, error) {

	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	rows := f.store.seats[showingID]

	found := make([]*domain.SeatRecord, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		if seat, ok := rows[seatID]; ok {
			found = append(found, seat)
		}
	}

	if len(found) != len(seatIDs) {
		return nil, domain.ErrRecordNotFound
	}

	unavailable := make([]string, 0)
	for _, seat := range found {
		if seat.State != domain.SeatAvailable {
			unavailable = append(unavailable, seat.SeatID)
		}
	}

	if len(unavailable) > 0 {
		sort.Strings(unavailable)
		return nil, &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: unavailable}
	}

	sold := make([]domain.SeatRecord, 0, len(found))
	for _, seat := range found {
		seat.State = domain.SeatSold
		seat.Channel = channel
		seat.SoldAt = now
		seat.BookingReference = bookingReference
		seat.Version++
		sold = append(sold, *seat)
	}
	sortSeats(sold)

	return sold, nil
}

func (f *fakeLedger) CancelSale(ctx context.Context, bookingReference string, now time.Time) (*domain.ChannelBooking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	booking, ok := f.store.bookings[bookingReference]
	if !ok || booking.Status != domain.BookingConfirmed {
		return nil, domain.ErrRecordNotFound
	}

	for _, seatID := range booking.Seats {
		seat, ok := f.store.seats[booking.ShowingID][seatID]
		if !ok || seat.State != domain.SeatSold || seat.BookingReference != bookingReference {
			continue
		}

		seat.State = domain.SeatAvailable
		seat.Channel = ""
		seat.SoldAt = time.Time{}
		seat.BookingReference = ""
		seat.Version++
	}

	booking.Status = domain.BookingCancelled
	booking.UpdatedAt = now

	copied := *booking

	return &copied, nil
}

func (f *fakeLedger) BlockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	return f.setBlocked(showingID, seatIDs, domain.SeatBlocked, []domain.SeatState{domain.SeatAvailable, domain.SeatHeld})
}

func (f *fakeLedger) UnblockSeats(ctx context.Context, showingID int64, seatIDs []string) error {
	return f.setBlocked(showingID, seatIDs, domain.SeatAvailable, []domain.SeatState{domain.SeatBlocked})
}

func (f *fakeLedger) setBlocked(showingID int64, seatIDs []string, to domain.SeatState, from []domain.SeatState) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	rows := f.store.seats[showingID]

	found := make([]*domain.SeatRecord, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		if seat, ok := rows[seatID]; ok {
			found = append(found, seat)
		}
	}

	if len(found) != len(seatIDs) {
		return domain.ErrRecordNotFound
	}

	blocked := make([]string, 0)
	for _, seat := range found {
		eligible := false
		for _, state := range from {
			if seat.State == state {
				eligible = true
			}
		}
		if !eligible {
			blocked = append(blocked, seat.SeatID)
		}
	}

	if len(blocked) > 0 {
		sort.Strings(blocked)
		return &domain.SeatUnavailableError{ShowingID: showingID, SeatIDs: blocked}
	}

	for _, seat := range found {
		seat.State = to
		seat.HolderToken = ""
		seat.HoldExpiresAt = time.Time{}
		seat.Channel = ""
		seat.Version++
	}

	return nil
}

func (f *fakeLedger) ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.SeatRecord, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	expired := make([]domain.SeatRecord, 0)
	for _, rows := range f.store.seats {
		for _, seat := range rows {
			if seat.HoldExpired(now) {
				expired = append(expired, *seat)
			}
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].HoldExpiresAt.Before(expired[j].HoldExpiresAt)
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

func (f *fakeLedger) ActiveShowingsByTheater(ctx context.Context, theaterID int64, now time.Time) ([]domain.Showing, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	showings := make([]domain.Showing, 0)
	for _, showing := range f.store.showings {
		if showing.TheaterID == theaterID && showing.RetiredAt.IsZero() && showing.StartsAt.After(now) {
			showings = append(showings, showing)
		}
	}

	sort.Slice(showings, func(i, j int) bool {
		return showings[i].StartsAt.Before(showings[j].StartsAt)
	})

	return showings, nil
}

func releaseSeatLocked(seat *domain.SeatRecord) {
	seat.State = domain.SeatAvailable
	seat.HolderToken = ""
	seat.HoldExpiresAt = time.Time{}
	seat.Channel = ""
	seat.Version++
}

func sortSeats(seats []domain.SeatRecord) {
	sort.Slice(seats, func(i, j int) bool {
		return seats[i].SeatID < seats[j].SeatID
	})
}

type fakeBookings struct {
	store *fakeStore
}

func (f *fakeBookings) Create(ctx context.Context, booking *domain.ChannelBooking) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	if _, ok := f.store.bookings[booking.BookingReference]; ok {
		return domain.ErrBookingExists
	}

	f.store.bookingSeq++
	booking.ID = f.store.bookingSeq

	copied := *booking
	f.store.bookings[booking.BookingReference] = &copied

	return nil
}

func (f *fakeBookings) GetByReference(ctx context.Context, bookingReference string) (*domain.ChannelBooking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	booking, ok := f.store.bookings[bookingReference]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	copied := *booking

	return &copied, nil
}

func (f *fakeBookings) ListByShowing(ctx context.Context, showingID int64, statuses ...domain.BookingStatus) ([]domain.ChannelBooking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	bookings := make([]domain.ChannelBooking, 0)
	for _, booking := range f.store.bookings {
		if booking.ShowingID != showingID {
			continue
		}

		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if booking.Status == status {
					match = true
				}
			}
			if !match {
				continue
			}
		}

		bookings = append(bookings, *booking)
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].BookingReference < bookings[j].BookingReference
	})

	return bookings, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, bookingReference string, status domain.BookingStatus) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	booking, ok := f.store.bookings[bookingReference]
	if !ok {
		return domain.ErrRecordNotFound
	}

	booking.Status = status

	return nil
}

type fakeConfigs struct {
	store *fakeStore
}

func (f *fakeConfigs) Get(ctx context.Context, theaterID int64) (*domain.TheaterChannelConfig, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	config, ok := f.store.configs[theaterID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	copied := *config

	return &copied, nil
}

func (f *fakeConfigs) Upsert(ctx context.Context, config *domain.TheaterChannelConfig) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	copied := *config
	copied.Version++
	f.store.configs[config.TheaterID] = &copied

	return nil
}

func (f *fakeConfigs) UpdateLastSync(ctx context.Context, theaterID int64, syncedAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	config, ok := f.store.configs[theaterID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	config.LastSyncAt = syncedAt

	return nil
}

func (f *fakeConfigs) ListAutoSync(ctx context.Context) ([]domain.TheaterChannelConfig, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	configs := make([]domain.TheaterChannelConfig, 0)
	for _, config := range f.store.configs {
		if config.AutoSync {
			configs = append(configs, *config)
		}
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].TheaterID < configs[j].TheaterID
	})

	return configs, nil
}

type fakeConflicts struct {
	store *fakeStore
}

func (f *fakeConflicts) Create(ctx context.Context, conflict *domain.ReconciliationConflict) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	// Same dedup rule as the partial unique index: one open conflict per
	// seat and channel reference.
	for _, existing := range f.store.conflicts {
		if existing.ResolvedAt.IsZero() &&
			existing.ShowingID == conflict.ShowingID &&
			existing.SeatID == conflict.SeatID &&
			existing.ChannelReference == conflict.ChannelReference {
			return nil
		}
	}

	copied := *conflict
	f.store.conflicts[conflict.ID] = &copied

	return nil
}

func (f *fakeConflicts) ListOpenByTheater(ctx context.Context, theaterID int64) ([]domain.ReconciliationConflict, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	conflicts := make([]domain.ReconciliationConflict, 0)
	for _, conflict := range f.store.conflicts {
		if conflict.TheaterID == theaterID && conflict.ResolvedAt.IsZero() {
			conflicts = append(conflicts, *conflict)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].SeatID < conflicts[j].SeatID
	})

	return conflicts, nil
}

func (f *fakeConflicts) Resolve(ctx context.Context, conflictID string, resolvedAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	conflict, ok := f.store.conflicts[conflictID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	conflict.ResolvedAt = resolvedAt

	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
