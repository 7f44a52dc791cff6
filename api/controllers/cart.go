package controllers

import (
	"net/http"

	"github.com/lapzone/lapzone-backend/api/middleware"
	"github.com/lapzone/lapzone-backend/api/responses"
	"github.com/lapzone/lapzone-backend/api/validators"
	cartsvc "github.com/lapzone/lapzone-backend/internal/cart"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
)

type messageResponse struct {
	Message string `json:"message"`
}

type cartItemRequest struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UpdateQuantity bool  `json:"update_quantity"`
}

// AddCartItem puts a product into the session cart. Malformed input is
// answered with the generic storefront notice and a 200, matching the
// in-band error contract of the cart endpoints; an unknown product is a
// real 404.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSuccess(w, messageResponse{Message: cartsvc.MsgError})
			return
		}

		msg, err := svc.Add(r.Context(), sessionID, cartsvc.AddInput{
			ProductID:      payload.ProductID,
			Quantity:       payload.Quantity,
			UpdateQuantity: payload.UpdateQuantity,
		})
		if err != nil {
			writeCartResult(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: msg})
	}
}

// UpdateCartItem sets the quantity of an existing line. Absent lines are
// left untouched and still answered with the success notice.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSuccess(w, messageResponse{Message: cartsvc.MsgError})
			return
		}

		msg, err := svc.Update(r.Context(), sessionID, payload.ProductID, payload.Quantity)
		if err != nil {
			writeCartResult(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: msg})
	}
}

// RemoveCartItem drops a line from the session cart.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteSuccess(w, messageResponse{Message: cartsvc.MsgError})
			return
		}

		msg, err := svc.Remove(r.Context(), sessionID, payload.ProductID)
		if err != nil {
			writeCartResult(w, r, logg, err)
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: msg})
	}
}

// GetCart returns the resolved cart view with line and running totals.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())
		view, err := svc.View(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// writeCartResult keeps validation failures in-band with a 200; anything
// else goes through the shared error writer.
func writeCartResult(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		responses.WriteSuccess(w, messageResponse{Message: typed.Message()})
		return
	}
	responses.WriteError(r.Context(), logg, w, err)
}
