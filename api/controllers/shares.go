package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/api/responses"
	"github.com/wisherr-app/wisherr-backend/api/validators"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/internal/shares"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

type createInternalSharePayload struct {
	TargetUsername      *string    `json:"target_username"`
	TargetEmail         *string    `json:"target_email" validate:"omitempty,email"`
	TargetGroupID       *uuid.UUID `json:"target_group_id"`
	Permission          string     `json:"permission" validate:"omitempty,oneof=viewer editor"`
	NotifyOnReservation bool       `json:"notify_on_reservation"`
	ExpiresInDays       *int       `json:"expires_in_days" validate:"omitempty,gt=0"`
}

type createExternalSharePayload struct {
	Password            string `json:"password" validate:"required"`
	NotifyOnReservation bool   `json:"notify_on_reservation"`
	ExpiresInDays       *int   `json:"expires_in_days" validate:"omitempty,gt=0"`
}

type updateSharePayload struct {
	Password            *string `json:"password"`
	Permission          *string `json:"permission" validate:"omitempty,oneof=viewer editor"`
	IsActive            *bool   `json:"is_active"`
	NotifyOnReservation *bool   `json:"notify_on_reservation"`
}

type shareAccessPayload struct {
	Password string `json:"password"`
}

type shareVisitorActionPayload struct {
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ShareCreateInternal shares a wishlist with a user or group.
func ShareCreateInternal(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createInternalSharePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateInternal(r.Context(), principal, wishlistID, shares.CreateInternalShareDTO{
			TargetUsername:      body.TargetUsername,
			TargetEmail:         body.TargetEmail,
			TargetGroupID:       body.TargetGroupID,
			Permission:          enums.SharePermission(body.Permission),
			NotifyOnReservation: body.NotifyOnReservation,
			ExpiresInDays:       body.ExpiresInDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ShareCreateExternal issues a password-protected share link.
func ShareCreateExternal(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createExternalSharePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateExternal(r.Context(), principal, wishlistID, shares.CreateExternalShareDTO{
			Password:            body.Password,
			NotifyOnReservation: body.NotifyOnReservation,
			ExpiresInDays:       body.ExpiresInDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ShareListMine lists shares the caller created.
func ShareListMine(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMine(r.Context(), principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ShareListSharedWithMe lists wishlists shared with the caller.
func ShareListSharedWithMe(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSharedWithMe(r.Context(), principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ShareUpdate changes a share's password, permission, or flags.
func ShareUpdate(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shareID, err := uuidParam(r, "shareId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSharePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto := shares.UpdateShareDTO{
			Password:            body.Password,
			IsActive:            body.IsActive,
			NotifyOnReservation: body.NotifyOnReservation,
		}
		if body.Permission != nil {
			permission, err := enums.ParseSharePermission(*body.Permission)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission"))
				return
			}
			dto.Permission = &permission
		}

		result, err := svc.Update(r.Context(), principal, shareID, dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ShareDelete removes a share.
func ShareDelete(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shareID, err := uuidParam(r, "shareId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, shareID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ShareInfo returns public metadata about a share link, never the items.
func ShareInfo(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		result, err := svc.Info(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ShareAccess unlocks a share link with its password and returns the items.
func ShareAccess(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))

		var body shareAccessPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Access(r.Context(), token, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ShareReserveItem reserves an item on behalf of a named visitor.
func ShareReserveItem(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return shareVisitorAction(logg, func(r *http.Request, token, password string, itemID uuid.UUID, name string) (*items.ItemDTO, error) {
		return svc.ReserveByToken(r.Context(), token, password, itemID, name)
	})
}

// SharePurchaseItem marks an item purchased on behalf of a visitor.
func SharePurchaseItem(svc shares.Service, logg *logger.Logger) http.HandlerFunc {
	return shareVisitorAction(logg, func(r *http.Request, token, password string, itemID uuid.UUID, name string) (*items.ItemDTO, error) {
		return svc.PurchaseByToken(r.Context(), token, password, itemID, name)
	})
}

func shareVisitorAction(logg *logger.Logger, fn func(*http.Request, string, string, uuid.UUID, string) (*items.ItemDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body shareVisitorActionPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, token, body.Password, itemID, body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
