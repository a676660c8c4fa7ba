package api

import (
	"net/http"

	reqdto "slot-reservation/internal/handler/dto/request"
	resdto "slot-reservation/internal/handler/dto/response"
	"slot-reservation/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	q queries.SlotQueries
}

func NewSlotHandler(q queries.SlotQueries) *SlotHandler {
	return &SlotHandler{q: q}
}

// @Summary List available slots
// @Description Free slots of a provider on a date, sorted by time. Lapsed holds count as free.
// @Tags slots
// @Produce json
// @Param providerId path string true "Provider ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailableSlotsResponse
// @Failure 400 {object} httperr.Response
// @Router /providers/{providerId}/slots [get]
func (h *SlotHandler) ListAvailable(c *gin.Context) {
	var query reqdto.AvailableSlotsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	available, err := h.q.ListAvailable(c.Request.Context(), c.Param("providerId"), query.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := resdto.FromAvailableSlots(available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
