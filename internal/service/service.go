// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives (ids, kinds), never *http.Request, and return
// apperror kinds, never HTTP status codes. The cobra `seed` command and the
// HTTP handlers call the same code.
//
// DEPENDENCY INJECTION:
// Every service takes repository interfaces, not *sqldb.DB. Tests pass
// in-memory fakes (see fakes_test.go); main.go passes the real store.
package service

import (
	"errors"
	"log/slog"

	"github.com/sakif/starwars-api/internal/apperror"
)

// storeFailure converts an unexpected repository error into apperror.ErrStore
// and logs the cause. Errors that already carry an apperror kind pass through
// unchanged: a NotFound from the repository stays a NotFound.
func storeFailure(logger *slog.Logger, op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	logger.Error(op+" failed", slog.String("error", err.Error()))
	return apperror.Store(op, err)
}

// validateID rejects ids that can never match a row.
func validateID(field string, id int64) error {
	if id < 1 {
		return apperror.ValidationFailed(field, field+" must be a positive integer")
	}
	return nil
}
