package request

import "slot-reservation/internal/usecase/commands"

type CreateBookingRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
	SlotID     string `json:"slotId" binding:"required,slotid"`
	UserID     string `json:"userId" binding:"required"`
}

func (r CreateBookingRequest) ToCommand() commands.CreateBookingRequest {
	return commands.CreateBookingRequest{
		ProviderID: r.ProviderID,
		SlotID:     r.SlotID,
		UserID:     r.UserID,
	}
}

type BookingURI struct {
	ID string `uri:"id" binding:"required,bookingid"`
}

type ListBookingsQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

type AvailableSlotsQuery struct {
	Date string `form:"date" binding:"required"`
}
