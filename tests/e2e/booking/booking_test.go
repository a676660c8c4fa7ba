//go:build e2e

package booking_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"slot-reservation/internal/domain/booking"
	reqdto "slot-reservation/internal/handler/dto/request"
	resdto "slot-reservation/internal/handler/dto/response"
	"slot-reservation/tests/common/dbtest"
	"slot-reservation/tests/common/httptest"
	"slot-reservation/tests/e2e"

	"github.com/stretchr/testify/suite"
)

const (
	providerID = "provider-1"
	date       = "2030-01-15"
)

type BookingE2ETestSuite struct {
	e2e.SharedSuite
}

func TestBookingE2ETestSuite(t *testing.T) {
	suite.Run(t, new(BookingE2ETestSuite))
}

func (s *BookingE2ETestSuite) createBooking(slotTime, userID string) resdto.CreateBookingResponse {
	s.T().Helper()
	req := reqdto.CreateBookingRequest{ProviderID: providerID, SlotID: date + "#" + slotTime, UserID: userID}
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings", req)

	var resp resdto.CreateBookingResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusAccepted, &resp)
	s.waitMaterialized(resp.BookingID)
	return resp
}

// waitMaterialized polls until the inline dispatcher has written the booking row.
func (s *BookingE2ETestSuite) waitMaterialized(bookingID string) {
	s.T().Helper()
	s.Require().Eventually(func() bool {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/bookings/"+bookingID, nil)
		return rec.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "booking %s was never materialized", bookingID)
}

func (s *BookingE2ETestSuite) TestHoldConfirmCancel() {
	s.Run("create then confirm reserves the slot", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "10:00", "11:00")

		created := s.createBooking("10:00", "user-1")
		s.Equal("PENDING", created.Status)

		slotRow := dbtest.GetSlot(s.T(), s.DB, providerID, date, "10:00")
		s.Equal("HELD", slotRow.Status)
		s.Require().NotNil(slotRow.HeldBy)
		s.Equal(created.BookingID, *slotRow.HeldBy)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings/"+created.BookingID+"/confirm", nil)
		var confirmed resdto.ConfirmBookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &confirmed)
		s.Equal("CONFIRMED", confirmed.State)

		s.Equal("RESERVED", dbtest.GetSlot(s.T(), s.DB, providerID, date, "10:00").Status)
		s.Equal("CONFIRMED", dbtest.GetBookingState(s.T(), s.DB, created.BookingID))

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/providers/"+providerID+"/slots?date="+date, nil)
		var available resdto.AvailableSlotsResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &available)
		s.Equal(1, available.Count)
		s.Equal(date+"#11:00", available.AvailableSlots[0].SlotID)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings", reqdto.CreateBookingRequest{
			ProviderID: providerID, SlotID: date + "#10:00", UserID: "user-2",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Slot is already booked")
	})

	s.Run("cancel frees the slot for the next requester", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "10:00")
		created := s.createBooking("10:00", "user-1")

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings/"+created.BookingID+"/cancel", nil)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		s.Equal("AVAILABLE", dbtest.GetSlot(s.T(), s.DB, providerID, date, "10:00").Status)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings/"+created.BookingID+"/cancel", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Booking cannot be cancelled. Current state: CANCELLED")

		s.createBooking("10:00", "user-2")
	})

	s.Run("live hold rejects a second requester", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "10:00")
		s.createBooking("10:00", "user-1")

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings", reqdto.CreateBookingRequest{
			ProviderID: providerID, SlotID: date + "#10:00", UserID: "user-2",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})

	s.Run("unknown slot is 404", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings", reqdto.CreateBookingRequest{
			ProviderID: "nobody", SlotID: date + "#10:00", UserID: "user-1",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Slot does not exist for the given provider and time")
	})

	s.Run("unknown booking is 404", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings/"+booking.NewID()+"/confirm", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})
}

func (s *BookingE2ETestSuite) TestExpiry() {
	s.Run("lapsed hold is expired by the sweep and confirm is rejected", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "10:00")
		created := s.createBooking("10:00", "user-1")

		dbtest.ExpireHold(s.T(), s.DB, created.BookingID, time.Now().Add(-time.Minute))

		s.Require().Eventually(func() bool {
			return dbtest.GetBookingState(s.T(), s.DB, created.BookingID) == "EXPIRED"
		}, 5*time.Second, 50*time.Millisecond)
		s.Equal("AVAILABLE", dbtest.GetSlot(s.T(), s.DB, providerID, date, "10:00").Status)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings/"+created.BookingID+"/confirm", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Booking cannot be confirmed. Current state: EXPIRED")
	})
}

func (s *BookingE2ETestSuite) TestConcurrentCreate() {
	s.Run("exactly one requester wins the slot", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "10:00")
		const requesters = 16

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = map[int]int{}
		)
		for i := range requesters {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/bookings", reqdto.CreateBookingRequest{
					ProviderID: providerID, SlotID: date + "#10:00", UserID: "user-" + string(rune('a'+i)),
				})
				mu.Lock()
				codes[rec.Code]++
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		s.Equal(1, codes[http.StatusAccepted])
		s.Equal(requesters-1, codes[http.StatusConflict])
	})
}

func (s *BookingE2ETestSuite) TestListBookings() {
	s.Run("user bookings page newest first", func() {
		dbtest.SeedSlots(s.T(), s.DB, providerID, date, "09:00", "10:00", "11:00")
		var ids []string
		for _, tm := range []string{"09:00", "10:00", "11:00"} {
			ids = append(ids, s.createBooking(tm, "user-1").BookingID)
			time.Sleep(5 * time.Millisecond)
		}

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/users/user-1/bookings?limit=2", nil)
		var first resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &first)
		s.Require().Equal(2, first.Count)
		s.Require().NotNil(first.NextCursor)
		s.Equal(ids[2], first.Bookings[0].BookingID)
		s.Equal(ids[1], first.Bookings[1].BookingID)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/users/user-1/bookings?limit=2&cursor="+*first.NextCursor, nil)
		var second resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &second)
		s.Equal(1, second.Count)
		s.Nil(second.NextCursor)
		s.Equal(ids[0], second.Bookings[0].BookingID)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/providers/"+providerID+"/bookings", nil)
		var byProvider resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &byProvider)
		s.Equal(3, byProvider.Count)
	})
}

func (s *BookingE2ETestSuite) TestHealth() {
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/health", nil)
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
}
