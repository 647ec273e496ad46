package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wisherr-app/wisherr-backend/api/middleware"
	"github.com/wisherr-app/wisherr-backend/internal/items"
	"github.com/wisherr-app/wisherr-backend/internal/users"
	pkgerrors "github.com/wisherr-app/wisherr-backend/pkg/errors"
)

func principalFromRequest(r *http.Request) (items.Principal, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return items.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return items.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return items.Principal{
		UserID:   userID,
		Username: middleware.UsernameFromContext(r.Context()),
		IsAdmin:  middleware.IsAdminFromContext(r.Context()),
	}, nil
}

func actorFromRequest(r *http.Request) (users.Actor, error) {
	principal, err := principalFromRequest(r)
	if err != nil {
		return users.Actor{}, err
	}
	return users.Actor{UserID: principal.UserID, IsAdmin: principal.IsAdmin}, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a non-negative integer")
	}
	return value, nil
}

func queryBool(r *http.Request, name string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	return raw == "true" || raw == "1"
}
