package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wisherr-app/wisherr-backend/api/responses"
	"github.com/wisherr-app/wisherr-backend/api/validators"
	"github.com/wisherr-app/wisherr-backend/internal/siteconfig"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
	"github.com/wisherr-app/wisherr-backend/pkg/logger"
)

type setSiteConfigPayload struct {
	Key         string  `json:"key" validate:"required,min=1,max=100"`
	Value       string  `json:"value" validate:"required"`
	ValueType   string  `json:"value_type" validate:"omitempty,oneof=string bool int"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// SiteConfigList returns every site configuration entry.
func SiteConfigList(svc siteconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SiteConfigSet creates or updates a setting and invalidates its cache entry.
func SiteConfigSet(svc siteconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := principalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setSiteConfigPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		valueType := enums.ConfigValueTypeString
		if body.ValueType != "" {
			parsed, err := enums.ParseConfigValueType(body.ValueType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value type"))
				return
			}
			valueType = parsed
		}

		result, err := svc.Set(r.Context(), siteconfig.SetParams{
			Key:         body.Key,
			Value:       body.Value,
			ValueType:   valueType,
			Description: body.Description,
			UpdatedBy:   principal.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SiteConfigDelete removes a setting.
func SiteConfigDelete(svc siteconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(chi.URLParam(r, "key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}

		if err := svc.Delete(r.Context(), key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
