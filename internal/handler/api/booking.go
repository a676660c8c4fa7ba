package api

import (
	"net/http"

	reqdto "slot-reservation/internal/handler/dto/request"
	resdto "slot-reservation/internal/handler/dto/response"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Hold a slot for the user. The booking record is created asynchronously.
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 202 {object} resdto.CreateBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.cmds.Create(c.Request.Context(), req.ToCommand())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resdto.FromCreateResult(result))
}

// @Summary Confirm booking
// @Description Confirm a pending booking and reserve its slot
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.ConfirmBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	var uri reqdto.BookingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.cmds.Confirm(c.Request.Context(), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromConfirmResult(result))
}

// @Summary Cancel booking
// @Description Cancel a pending or confirmed booking and free its slot
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.CancelBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var uri reqdto.BookingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.cmds.Cancel(c.Request.Context(), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	var uri reqdto.BookingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := resdto.FromBookingView(view)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List bookings of a user
// @Description Newest first, keyset paginated
// @Tags bookings
// @Produce json
// @Param userId path string true "User ID"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-200, default 20)"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} httperr.Response
// @Router /users/{userId}/bookings [get]
func (h *BookingHandler) ListByUser(c *gin.Context) {
	var query reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	views, next, err := h.q.ListByUser(c.Request.Context(), c.Param("userId"), &queries.Cursor{After: query.Cursor}, query.Limit)
	h.respondList(c, views, next, err)
}

// @Summary List bookings of a provider
// @Description Newest first, keyset paginated
// @Tags bookings
// @Produce json
// @Param providerId path string true "Provider ID"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-200, default 20)"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} httperr.Response
// @Router /providers/{providerId}/bookings [get]
func (h *BookingHandler) ListByProvider(c *gin.Context) {
	var query reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	views, next, err := h.q.ListByProvider(c.Request.Context(), c.Param("providerId"), &queries.Cursor{After: query.Cursor}, query.Limit)
	h.respondList(c, views, next, err)
}

func (h *BookingHandler) respondList(c *gin.Context, views []*queries.BookingView, next *queries.Cursor, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := resdto.FromBookingViews(views, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
