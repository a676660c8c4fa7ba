package api

import (
	"errors"
	"log/slog"
	"net/http"

	"slot-reservation/internal/domain/slot"
	"slot-reservation/internal/handler/httperr"
	"slot-reservation/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const retryAfterSeconds = "5"

// respondError maps a use case error onto its HTTP status. The message of a marked error is
// what the client sees; anything unmarked is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errs.ErrInvalidRequest):
		httperr.AbortWithError(c, http.StatusBadRequest, err, rootMessage(err), nil)
	case errs.Is(err, errs.ErrSlotNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, rootMessage(err), nil)
	case errs.Is(err, errs.ErrSlotUnavailable):
		httperr.AbortWithError(c, http.StatusConflict, err, rootMessage(err), nil)
	case errs.Is(err, errs.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, rootMessage(err), nil)
	case errs.Is(err, errs.ErrBookingConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, rootMessage(err), nil)
	case errs.Is(err, errs.ErrServiceUnavailable):
		c.Header("Retry-After", retryAfterSeconds)
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Service temporarily unavailable, please retry", nil)
	default:
		slog.Error("unhandled error",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
			slog.Any("stack", errs.ExtractStackLines(err, 10)))
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

// rootMessage is the innermost message, without the wrapping context added on the way up.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// respondBindError reports the first failed field of a binding error.
func respondBindError(c *gin.Context, err error) {
	httperr.AbortWithError(c, http.StatusBadRequest, err, bindMessage(err), nil)
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request format"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "slotid":
		return slot.ErrInvalidSlotID.Error()
	case "bookingid":
		return "invalid booking ID format"
	default:
		return "invalid " + fe.Field()
	}
}
