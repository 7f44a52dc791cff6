package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lapzone/lapzone-backend/api/middleware"
	"github.com/lapzone/lapzone-backend/api/responses"
	"github.com/lapzone/lapzone-backend/api/validators"
	checkoutsvc "github.com/lapzone/lapzone-backend/internal/checkout"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
	"github.com/lapzone/lapzone-backend/pkg/logger"
)

// Checkout runs the checkout flow for the session cart. The handler
// accepts both authenticated and anonymous callers; on success it answers
// 302 with the redirect target in the Location header and the full result
// in the body.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.CartSessionFromContext(r.Context())

		userID := uuid.Nil
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			userID = parsed
		}

		var payload checkoutsvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Process(r.Context(), sessionID, userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Location", result.Redirect)
		responses.WriteSuccessStatus(w, http.StatusFound, result)
	}
}
