package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/starwars-api/internal/apperror"
	"github.com/sakif/starwars-api/internal/auth"
	"github.com/sakif/starwars-api/internal/model"
)

type FavoriteService interface {
	Add(ctx context.Context, userID int64, kind model.Kind, entityID int64) (*model.Favorite, bool, error)
	Remove(ctx context.Context, userID int64, kind model.Kind, entityID int64) (*model.Favorite, error)
	ListAll(ctx context.Context) ([]model.Favorite, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Favorite, error)
}

// DeleteResponse confirms a removed favorite.
type DeleteResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// FavoriteHandler serves the favorites ledger.
//
// CALLER IDENTITY:
// The acting user always comes from the request context (auth.WithCurrentUser),
// never from the URL or body, so a client cannot add favorites for someone else.
type FavoriteHandler struct {
	svc    FavoriteService
	logger *slog.Logger
}

func NewFavoriteHandler(svc FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{svc: svc, logger: logger}
}

// HandleAdd returns the handler for POST /favorite/{kind}/{id}.
//
// 201 Created with the new favorite, or 200 OK with the existing one when the
// caller had already favorited that entity. The body is the same either way.
func (h *FavoriteHandler) HandleAdd(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, h.logger, apperror.Forbidden("no caller identity on request"))
			return
		}

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		fav, created, err := h.svc.Add(r.Context(), userID, kind, id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, fav)
	}
}

// HandleRemove returns the handler for DELETE /favorite/{kind}/{id}.
func (h *FavoriteHandler) HandleRemove(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, h.logger, apperror.Forbidden("no caller identity on request"))
			return
		}

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		if _, err := h.svc.Remove(r.Context(), userID, kind, id); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, DeleteResponse{OK: true, Message: "Favorite deleted"})
	}
}

// HandleListAll serves GET /user/favorite: the favorites of every user.
func (h *FavoriteHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

// HandleListForUser serves GET /user/{id}/favorite.
func (h *FavoriteHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	favorites, err := h.svc.ListForUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}
