package controllers

import (
	"net/http"

	"github.com/emberlane/storefront-backend/api/responses"
	"github.com/emberlane/storefront-backend/internal/bus"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
	"github.com/emberlane/storefront-backend/pkg/logger"
)

// EventsFeed upgrades the connection onto the notification bus. The feed is
// public and read-only; clients receive every broadcast event.
func EventsFeed(hub *bus.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event feed unavailable"))
			return
		}
		hub.ServeWS(w, r)
	}
}
