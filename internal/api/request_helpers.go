package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/hotel-ops-api/internal/api/shared"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
)

const maxPageSize = 200

// actorFromRequest returns the authenticated actor, writing a 401 when the
// auth middleware did not run.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", nil)
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// handleActorAndPathUUID extracts both the actor and a path UUID, writing
// the error response itself when either is missing.
func handleActorAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (domain.Actor, uuid.UUID, bool) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	id, err := getPathUUID(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return domain.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "has invalid format", domain.ErrInvalidID)
	}
	return &id, nil
}

// queryPage parses limit and offset, capping limit at maxPageSize.
func queryPage(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, domain.NewValidationError("limit", "must be a non-negative integer", nil)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, domain.NewValidationError("offset", "must be a non-negative integer", nil)
		}
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}
