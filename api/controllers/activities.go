package controllers

import (
	"net/http"
	"strings"

	"github.com/wisherr-app/wisherr-backend/api/responses"
	"github.com/wisherr-app/wisherr-backend/internal/access"
	"github.com/wisherr-app/wisherr-backend/internal/activities"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

// ActivityFeed returns the caller's own activity log.
func ActivityFeed(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Feed(r.Context(), activities.FeedParams{
			UserID: principal.UserID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WishlistActivityFeed returns a wishlist's activity, visible to anyone with
// view access.
func WishlistActivityFeed(svc activities.Service, accessSvc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wishlistID, err := uuidParam(r, "wishlistId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := accessSvc.RequireView(r.Context(), wishlistID, principal.UserID, principal.IsAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.WishlistFeed(r.Context(), wishlistID, false, activities.FeedParams{
			UserID: principal.UserID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
