package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const (
	requestTimeout = 10 * time.Second
	maxUploadSize  = 10 << 20
)

type ObjectStore interface {
	Put(ctx context.Context, originalName string, data []byte, contentType string) (string, error)
}

// File accepts a multipart form with a single "file" field and stores
// it in the object store, returning the public URL.
func File(log *slog.Logger, store ObjectStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.upload.File"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("file is missing or too large"))

			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			log.Error("failed to read upload", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to read file"))

			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		url, err := store.Put(ctx, header.Filename, data, contentType)
		if err != nil {
			log.Error("failed to store upload", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to upload file"))

			return
		}

		log.Info("file uploaded", slog.String("name", header.Filename), slog.Int("size", len(data)))

		render.JSON(w, r, resp.Success("file uploaded", url))
	}
}
