package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/starwars-api/internal/model"
)

// CatalogService is the subset of service.CatalogService the handler needs.
//
// Defining the interface on the consumer side lets handler tests pass a stub
// without touching the service package.
type CatalogService interface {
	ListPlanets(ctx context.Context) ([]model.Planet, error)
	GetPlanet(ctx context.Context, id int64) (*model.Planet, error)
	ListCharacters(ctx context.Context) ([]model.Character, error)
	GetCharacter(ctx context.Context, id int64) (*model.Character, error)
}

// CatalogHandler serves the read-only planet and character endpoints.
type CatalogHandler struct {
	svc    CatalogService
	logger *slog.Logger
}

func NewCatalogHandler(svc CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// HandleListPlanets serves GET /planet.
func (h *CatalogHandler) HandleListPlanets(w http.ResponseWriter, r *http.Request) {
	planets, err := h.svc.ListPlanets(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, planets)
}

// HandleGetPlanet serves GET /planet/{id}.
func (h *CatalogHandler) HandleGetPlanet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	planet, err := h.svc.GetPlanet(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, planet)
}

// HandleListCharacters serves GET /character.
func (h *CatalogHandler) HandleListCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.svc.ListCharacters(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, characters)
}

// HandleGetCharacter serves GET /character/{id}. The response carries the
// homeworld as planet_id, not as a nested planet.
func (h *CatalogHandler) HandleGetCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	character, err := h.svc.GetCharacter(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}
