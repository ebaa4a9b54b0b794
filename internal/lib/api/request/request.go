package request

import (
	"errors"
	"log/slog"
	"net/http"

	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Decode parses and validates a JSON request body. On failure it writes
// the 400 envelope itself and returns false; handlers just return.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Failed to decode request"))

		return false
	}

	if err := validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if !errors.As(err, &validateErr) {
			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid request"))

			return false
		}

		log.Error("Invalid request", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))

		return false
	}

	return true
}
