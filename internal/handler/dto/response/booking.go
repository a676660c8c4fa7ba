package response

import (
	"time"

	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/queries"

	"github.com/jinzhu/copier"
)

type CreateBookingResponse struct {
	BookingID string    `json:"bookingId"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ConfirmBookingResponse struct {
	BookingID   string    `json:"bookingId"`
	State       string    `json:"state"`
	ConfirmedAt time.Time `json:"confirmedAt"`
	Message     string    `json:"message"`
}

type CancelBookingResponse struct {
	BookingID   string    `json:"bookingId"`
	State       string    `json:"state"`
	CancelledAt time.Time `json:"cancelledAt"`
	Message     string    `json:"message"`
}

type BookingResponse struct {
	BookingID   string     `json:"bookingId"`
	ProviderID  string     `json:"providerId"`
	SlotID      string     `json:"slotId"`
	UserID      string     `json:"userId"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

type BookingListResponse struct {
	Bookings   []*BookingResponse `json:"bookings"`
	Count      int                `json:"count"`
	NextCursor *string            `json:"nextCursor,omitempty"`
}

type SlotResponse struct {
	Time   string `json:"time"`
	Status string `json:"status"`
	SlotID string `json:"slotId"`
}

type AvailableSlotsResponse struct {
	ProviderID     string         `json:"providerId"`
	Date           string         `json:"date"`
	AvailableSlots []SlotResponse `json:"availableSlots"`
	Count          int            `json:"count"`
}

func FromCreateResult(r *commands.CreateBookingResult) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingID: r.BookingID,
		Status:    string(r.Status),
		ExpiresAt: r.ExpiresAt,
	}
}

func FromConfirmResult(r *commands.TransitionResult) *ConfirmBookingResponse {
	return &ConfirmBookingResponse{
		BookingID:   r.BookingID,
		State:       string(r.State),
		ConfirmedAt: r.At,
		Message:     "Booking confirmed successfully",
	}
}

func FromCancelResult(r *commands.TransitionResult) *CancelBookingResponse {
	return &CancelBookingResponse{
		BookingID:   r.BookingID,
		State:       string(r.State),
		CancelledAt: r.At,
		Message:     "Booking cancelled successfully",
	}
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copier.Copy(&resp, v); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromBookingViews(views []*queries.BookingView, next *queries.Cursor) (*BookingListResponse, error) {
	resp := &BookingListResponse{
		Bookings: make([]*BookingResponse, 0, len(views)),
		Count:    len(views),
	}
	for _, v := range views {
		item, err := FromBookingView(v)
		if err != nil {
			return nil, err
		}
		resp.Bookings = append(resp.Bookings, item)
	}
	if next != nil && next.After != "" {
		after := next.After
		resp.NextCursor = &after
	}
	return resp, nil
}

func FromAvailableSlots(a *queries.AvailableSlots) (*AvailableSlotsResponse, error) {
	var resp AvailableSlotsResponse
	if err := copier.Copy(&resp, a); err != nil {
		return nil, err
	}
	if resp.AvailableSlots == nil {
		resp.AvailableSlots = []SlotResponse{}
	}
	return &resp, nil
}
