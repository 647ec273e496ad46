package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/api/responses"
	"github.com/wisherr-app/wisherr-backend/api/validators"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

type createItemPayload struct {
	Name             string         `json:"name" validate:"required,min=1,max=200"`
	URL              *string        `json:"url" validate:"omitempty,url"`
	ImageURL         *string        `json:"image_url" validate:"omitempty,url"`
	Description      *string        `json:"description" validate:"omitempty,max=2000"`
	Price            *float64       `json:"price" validate:"omitempty,gte=0"`
	CategoryID       *uuid.UUID     `json:"category_id"`
	PriorityID       *uuid.UUID     `json:"priority_id"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

type updateItemPayload struct {
	Name             *string        `json:"name" validate:"omitempty,min=1,max=200"`
	URL              *string        `json:"url" validate:"omitempty,url"`
	ImageURL         *string        `json:"image_url" validate:"omitempty,url"`
	Description      *string        `json:"description" validate:"omitempty,max=2000"`
	Price            *float64       `json:"price" validate:"omitempty,gte=0"`
	CategoryID       *uuid.UUID     `json:"category_id"`
	PriorityID       *uuid.UUID     `json:"priority_id"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

type reorderItemsPayload struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required,min=1"`
}

type categoryPayload struct {
	Name string  `json:"name" validate:"required,min=1,max=100"`
	Icon *string `json:"icon" validate:"omitempty,max=50"`
}

type updateCategoryPayload struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Icon *string `json:"icon" validate:"omitempty,max=50"`
}

// ItemList returns a wishlist's items, masked for the owner when surprise
// mode is on.
func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
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

		var status *enums.ItemStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		result, err := svc.List(r.Context(), principal, wishlistID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemGet returns one item.
func ItemGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), principal, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemCreate adds an item to a wishlist.
func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), principal, wishlistID, items.CreateItemDTO{
			Name:             body.Name,
			URL:              body.URL,
			ImageURL:         body.ImageURL,
			Description:      body.Description,
			Price:            body.Price,
			CategoryID:       body.CategoryID,
			PriorityID:       body.PriorityID,
			CustomAttributes: body.CustomAttributes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ItemUpdate edits item fields.
func ItemUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), principal, itemID, items.UpdateItemDTO{
			Name:             body.Name,
			URL:              body.URL,
			ImageURL:         body.ImageURL,
			Description:      body.Description,
			Price:            body.Price,
			CategoryID:       body.CategoryID,
			PriorityID:       body.PriorityID,
			CustomAttributes: body.CustomAttributes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemDelete removes an item.
func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), principal, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ItemReorder persists a new sort order for a wishlist's items.
func ItemReorder(svc items.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body reorderItemsPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reorder(r.Context(), principal, wishlistID, body.ItemIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"reordered": true})
	}
}

// ItemReserve marks an item reserved by the caller.
func ItemReserve(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return itemTransition(svc, logg, func(r *http.Request, principal items.Principal, itemID uuid.UUID) (*items.ItemDTO, error) {
		return svc.Reserve(r.Context(), principal, itemID)
	})
}

// ItemPurchase marks an item purchased by the caller.
func ItemPurchase(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return itemTransition(svc, logg, func(r *http.Request, principal items.Principal, itemID uuid.UUID) (*items.ItemDTO, error) {
		return svc.Purchase(r.Context(), principal, itemID)
	})
}

// ItemUnreserve releases a reservation.
func ItemUnreserve(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return itemTransition(svc, logg, func(r *http.Request, principal items.Principal, itemID uuid.UUID) (*items.ItemDTO, error) {
		return svc.Unreserve(r.Context(), principal, itemID)
	})
}

func itemTransition(svc items.Service, logg *logger.Logger, fn func(*http.Request, items.Principal, uuid.UUID) (*items.ItemDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, principal, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CategoryList returns the caller's item categories.
func CategoryList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListCategories(r.Context(), principal.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CategoryCreate adds a custom item category for the caller.
func CategoryCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body categoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateCategory(r.Context(), principal.UserID, body.Name, body.Icon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CategoryUpdate renames a category or changes its icon.
func CategoryUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCategoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateCategory(r.Context(), principal.UserID, categoryID, body.Name, body.Icon); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// CategoryDelete removes a category.
func CategoryDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), principal.UserID, categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// PriorityList returns the fixed priority levels.
func PriorityList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListPriorities(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
