package maskapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/DMarby/additive-mask/internal/codec"
	"github.com/DMarby/additive-mask/internal/converter"
	"github.com/DMarby/additive-mask/internal/handler"
	"github.com/gorilla/mux"
)

func (a *API) maskHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	filename := mux.Vars(r)["filename"]

	format, err := codec.ByName(filename)
	if err != nil || format.Encode == nil {
		return handler.UnprocessableEntity("Unsupported output format")
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.MaxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &handler.Error{Message: "Image too large", Code: http.StatusRequestEntityTooLarge}
		}

		return handler.BadRequest("Invalid request body")
	}

	processed, err := a.Processor.Transform(r.Context(), filename, data)
	if err != nil {
		switch {
		case errors.Is(err, converter.ErrDecode):
			return handler.UnprocessableEntity("Invalid image")
		case errors.Is(err, converter.ErrEncode):
			return handler.UnprocessableEntity("Unsupported output format")
		}

		a.logError(r, "error processing image", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": converter.OutputPath(filename)}))
	w.Header().Set("Content-Type", format.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")

	w.Write(processed)

	return nil
}

func (a *API) pathHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	path := mux.Vars(r)["path"]

	// Only paths inside the storage root
	if !filepath.IsLocal(path) {
		return handler.BadRequest("Invalid path")
	}

	result, err := a.Processor.Convert(r.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, converter.ErrDecode):
			return handler.UnprocessableEntity("Invalid image")
		case errors.Is(err, converter.ErrEncode):
			return handler.UnprocessableEntity("Unsupported output format")
		}

		a.logError(r, "error converting path", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		a.logError(r, "error encoding result", err)
		return handler.InternalServerError()
	}

	return nil
}
