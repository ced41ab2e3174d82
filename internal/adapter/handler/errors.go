package handler

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/core/service"
)

// errorResponse maps a core error to a status and a response body. Server side
// failures get a fixed message; the checkout state and ticket id are reported
// so a partially recorded sale can be found.
func errorResponse(err error) (int, APIResponse) {
	resp := APIResponse{Success: false, Message: err.Error()}

	var ce *domain.CheckoutError
	if errors.As(err, &ce) {
		resp.State = string(ce.State)
		resp.TicketID = ce.TicketID
	}
	var se *domain.StockShortageError
	if errors.As(err, &se) {
		for _, s := range se.Shortages {
			resp.Shortages = append(resp.Shortages, ShortageDTO{
				ProductID: s.ProductID,
				Name:      s.Name,
				Available: s.Available,
				Requested: s.Requested,
			})
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, resp
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, resp
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotInCart):
		return http.StatusNotFound, resp
	case errors.Is(err, domain.ErrDuplicateRequest):
		resp.Message = "duplicate request"
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrStockShortage):
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, service.ErrSelfDelete):
		return http.StatusBadRequest, resp
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		resp.Message = "record store unavailable"
		return http.StatusServiceUnavailable, resp
	case ce != nil && ce.State == domain.StateComplete:
		resp.Message = "sale recorded, receipt unavailable"
	case ce != nil && ce.State == domain.StatePartiallyWritten:
		resp.Message = "sale partially recorded"
	case errors.Is(err, domain.ErrTicketCreationFailed):
		resp.Message = "ticket creation failed"
	default:
		resp.Message = "internal error"
	}
	return http.StatusInternalServerError, resp
}
