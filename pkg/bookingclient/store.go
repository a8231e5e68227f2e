package bookingclient

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
)

// Store is a normalized client-side cache of slots, bookings and staff
// assignments. Every entry carries a provenance flag so it is always
// unambiguous whether a record is the server's word or a local speculation.
// Entities live in byId maps with an ordered id list; derived views are
// computed on demand from the canonical maps, never stored separately.
type Store struct {
	mu sync.RWMutex

	slots   map[uuid.UUID]*cachedSlot
	slotIDs []uuid.UUID

	bookings   map[uuid.UUID]*cachedBooking
	bookingIDs []uuid.UUID

	assignments map[assignmentKey]*cachedAssignment
}

type cachedSlot struct {
	slot        model.Slot
	speculative bool
}

type cachedBooking struct {
	booking     model.Booking
	speculative bool
	// seatAdjusted records whether the staged mutation actually moved the
	// cached slot's remaining count. A clamped no-op stage must not be
	// undone by its rollback, or the counter drifts from its pre-stage
	// value.
	seatAdjusted bool
}

type assignmentKey struct {
	staffID uuid.UUID
	slotID  uuid.UUID
}

type cachedAssignment struct {
	assignment  model.StaffAssignment
	speculative bool
}

func NewStore() *Store {
	return &Store{
		slots:       make(map[uuid.UUID]*cachedSlot),
		bookings:    make(map[uuid.UUID]*cachedBooking),
		assignments: make(map[assignmentKey]*cachedAssignment),
	}
}

// PutSlot installs or replaces a canonical slot.
func (s *Store) PutSlot(slot model.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putSlotLocked(slot)
}

func (s *Store) putSlotLocked(slot model.Slot) {
	if _, ok := s.slots[slot.ID]; !ok {
		s.slotIDs = append(s.slotIDs, slot.ID)
	}
	s.slots[slot.ID] = &cachedSlot{slot: slot}
}

// PutBooking installs or replaces a canonical booking.
func (s *Store) PutBooking(booking model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[booking.ID]; !ok {
		s.bookingIDs = append(s.bookingIDs, booking.ID)
	}
	s.bookings[booking.ID] = &cachedBooking{booking: booking}
}

// Slot returns the cached slot regardless of provenance.
func (s *Store) Slot(id uuid.UUID) (model.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.slots[id]
	if !ok {
		return model.Slot{}, false
	}
	return cached.slot, true
}

// Booking returns the cached booking and whether it is speculative.
func (s *Store) Booking(id uuid.UUID) (model.Booking, bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, false, false
	}
	return cached.booking, cached.speculative, true
}

// SlotsByStartTime is a derived view over the canonical map.
func (s *Store) SlotsByStartTime() []model.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Slot, 0, len(s.slotIDs))
	for _, id := range s.slotIDs {
		out = append(out, s.slots[id].slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Bookings returns all cached bookings in staged/insertion order.
func (s *Store) Bookings() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0, len(s.bookingIDs))
	for _, id := range s.bookingIDs {
		out = append(out, s.bookings[id].booking)
	}
	return out
}

// BookingsOn filters bookings whose slot starts on the given day.
func (s *Store) BookingsOn(day time.Time) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, m, d := day.Date()
	var out []model.Booking
	for _, id := range s.bookingIDs {
		booking := s.bookings[id].booking
		slot, ok := s.slots[booking.SlotID]
		if !ok {
			continue
		}
		sy, sm, sd := slot.slot.StartTime.Date()
		if sy == y && sm == m && sd == d {
			out = append(out, booking)
		}
	}
	return out
}

// StageBooking applies a booking intent speculatively: a pending booking
// under a fresh temporary id, and a provisional capacity decrement on the
// cached slot, clamped at zero. Runs synchronously before any network call.
func (s *Store) StageBooking(slotID, citizenID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.slots[slotID]
	if !ok {
		return uuid.Nil, errSlotNotCached
	}

	tempID := uuid.New()
	booking := model.Booking{
		SlotID:    slotID,
		CenterID:  cached.slot.CenterID,
		CitizenID: citizenID,
		Status:    model.BookingStatusPending,
		BookedAt:  time.Now(),
	}
	booking.ID = tempID

	slot := cached.slot
	decremented := slot.Remaining > 0
	if decremented {
		slot.Remaining--
	}
	s.slots[slotID] = &cachedSlot{slot: slot, speculative: true}

	s.bookings[tempID] = &cachedBooking{booking: booking, speculative: true, seatAdjusted: decremented}
	s.bookingIDs = append(s.bookingIDs, tempID)

	return tempID, nil
}

// ConfirmBooking reconciles a staged booking with the server's canonical
// response in one state transition: no observer ever sees the speculative
// and the canonical record at the same time.
func (s *Store) ConfirmBooking(tempID uuid.UUID, booking model.Booking, slot model.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeBookingLocked(tempID)

	if _, ok := s.bookings[booking.ID]; !ok {
		s.bookingIDs = append(s.bookingIDs, booking.ID)
	}
	s.bookings[booking.ID] = &cachedBooking{booking: booking}
	s.putSlotLocked(slot)
}

// RollbackBooking removes a staged booking and restores the provisional
// capacity decrement, bounded at the slot's capacity. Only a stage that
// actually decremented is undone, so the counter lands exactly on its
// pre-stage value. Rolling back an id that is no longer present (e.g.
// already swept by a refresh) is a no-op.
func (s *Store) RollbackBooking(tempID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.bookings[tempID]
	if !ok || !cached.speculative {
		return
	}
	s.removeBookingLocked(tempID)

	if !cached.seatAdjusted {
		return
	}
	if slotCached, ok := s.slots[cached.booking.SlotID]; ok {
		slot := slotCached.slot
		if slot.Remaining < slot.Capacity {
			slot.Remaining++
		}
		s.slots[slot.ID] = &cachedSlot{slot: slot, speculative: slotCached.speculative}
	}
}

// StageCancel marks a cached booking cancelled and provisionally returns its
// seat. It reports the previous status so a rollback can restore it.
func (s *Store) StageCancel(bookingID uuid.UUID) (model.BookingStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.bookings[bookingID]
	if !ok || cached.booking.Status == model.BookingStatusCancelled {
		return "", false
	}

	previous := cached.booking.Status
	cached.booking.Status = model.BookingStatusCancelled
	cached.speculative = true
	cached.seatAdjusted = false

	if slotCached, ok := s.slots[cached.booking.SlotID]; ok {
		slot := slotCached.slot
		if slot.Remaining < slot.Capacity {
			slot.Remaining++
			cached.seatAdjusted = true
		}
		s.slots[slot.ID] = &cachedSlot{slot: slot, speculative: true}
	}

	return previous, true
}

// ConfirmCancel promotes a staged cancellation to canonical.
func (s *Store) ConfirmCancel(bookingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.bookings[bookingID]; ok {
		cached.speculative = false
	}
	// The slot keeps its provisional flag until the next canonical write.
}

// RollbackCancel restores a staged cancellation, taking back the
// provisional seat release only when the stage actually performed one.
func (s *Store) RollbackCancel(bookingID uuid.UUID, previous model.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.bookings[bookingID]
	if !ok {
		return
	}
	cached.booking.Status = previous
	cached.speculative = false

	if !cached.seatAdjusted {
		return
	}
	cached.seatAdjusted = false
	if slotCached, ok := s.slots[cached.booking.SlotID]; ok {
		slot := slotCached.slot
		if slot.Remaining > 0 {
			slot.Remaining--
		}
		s.slots[slot.ID] = &cachedSlot{slot: slot, speculative: slotCached.speculative}
	}
}

// StageAssignment speculatively links staff to a slot.
func (s *Store) StageAssignment(staffID, slotID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{staffID: staffID, slotID: slotID}
	s.assignments[key] = &cachedAssignment{
		assignment:  model.StaffAssignment{StaffID: staffID, SlotID: slotID, AssignedAt: time.Now()},
		speculative: true,
	}
}

// ConfirmAssignment replaces the speculative link with the server's record.
func (s *Store) ConfirmAssignment(assignment model.StaffAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{staffID: assignment.StaffID, slotID: assignment.SlotID}
	s.assignments[key] = &cachedAssignment{assignment: assignment}
}

// RemoveAssignment drops the link, returning what was removed so a failed
// unassign can restore it.
func (s *Store) RemoveAssignment(staffID, slotID uuid.UUID) (model.StaffAssignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{staffID: staffID, slotID: slotID}
	cached, ok := s.assignments[key]
	if !ok {
		return model.StaffAssignment{}, false
	}
	delete(s.assignments, key)
	return cached.assignment, true
}

// RestoreAssignment reinstates a previously removed link as canonical.
func (s *Store) RestoreAssignment(assignment model.StaffAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{staffID: assignment.StaffID, slotID: assignment.SlotID}
	s.assignments[key] = &cachedAssignment{assignment: assignment}
}

// Assignments returns the cached links for a slot.
func (s *Store) Assignments(slotID uuid.UUID) []model.StaffAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.StaffAssignment
	for key, cached := range s.assignments {
		if key.slotID == slotID {
			out = append(out, cached.assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out
}

// ReplaceAll reconciles the cache against an authoritative refetch. All
// speculative entries are dropped, so an abandoned in-flight mutation can
// never under-report capacity past the next refresh.
func (s *Store) ReplaceAll(slots []model.Slot, bookings []model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[uuid.UUID]*cachedSlot, len(slots))
	s.slotIDs = s.slotIDs[:0]
	for _, slot := range slots {
		s.slotIDs = append(s.slotIDs, slot.ID)
		s.slots[slot.ID] = &cachedSlot{slot: slot}
	}

	s.bookings = make(map[uuid.UUID]*cachedBooking, len(bookings))
	s.bookingIDs = s.bookingIDs[:0]
	for _, booking := range bookings {
		s.bookingIDs = append(s.bookingIDs, booking.ID)
		s.bookings[booking.ID] = &cachedBooking{booking: booking}
	}
}

// SpeculativeCount reports in-flight speculative bookings, mostly for
// instrumentation and tests.
func (s *Store) SpeculativeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, cached := range s.bookings {
		if cached.speculative {
			n++
		}
	}
	return n
}

func (s *Store) removeBookingLocked(id uuid.UUID) {
	if _, ok := s.bookings[id]; !ok {
		return
	}
	delete(s.bookings, id)
	for i, existing := range s.bookingIDs {
		if existing == id {
			s.bookingIDs = append(s.bookingIDs[:i], s.bookingIDs[i+1:]...)
			break
		}
	}
}
