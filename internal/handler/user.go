package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/starwars-api/internal/model"
)

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
}

// UserHandler serves the user directory. model.User drops the password and
// the active flag on serialisation, so only {id, email} leaves the API.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleList serves GET /user.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet serves GET /user/{id}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
